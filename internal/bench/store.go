package bench

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// schema.sql defines the benchmark_runs table that keeps historical solver
// results for comparison across code changes.
//
//go:embed schema.sql
var schemaSQL string

// Store persists benchmark results in a sqlite database.
type Store struct {
	*sql.DB
}

// NewStore opens (creating if needed) the benchmark database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening benchmark database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising benchmark schema: %w", err)
	}
	return &Store{db}, nil
}

// RunRecord is one persisted benchmark result.
type RunRecord struct {
	RunID          string
	Solver         string
	Instances      int
	Solutions      int
	ValidSolutions int
	FoundGT        int
	RuntimeNS      int64
	CreatedUnix    int64
}

// RecordRun stores a result and returns the generated run ID.
func (s *Store) RecordRun(r Result) (string, error) {
	runID := uuid.New().String()
	_, err := s.Exec(`INSERT INTO benchmark_runs
		(run_id, solver, instances, solutions, valid_solutions, found_gt, runtime_ns, created_unix_nanos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.Name, r.Instances, r.Solutions, r.ValidSolutions, r.FoundGT, r.RuntimeNS,
		time.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("recording benchmark run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.Query(`SELECT run_id, solver, instances, solutions, valid_solutions, found_gt, runtime_ns, created_unix_nanos
		FROM benchmark_runs ORDER BY created_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing benchmark runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.RunID, &r.Solver, &r.Instances, &r.Solutions,
			&r.ValidSolutions, &r.FoundGT, &r.RuntimeNS, &r.CreatedUnix); err != nil {
			return nil, fmt.Errorf("scanning benchmark run: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
