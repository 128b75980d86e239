// Package main benchmarks the minimal pose solvers over batches of
// synthetic problems with known ground truth, printing an accuracy and
// runtime table and optionally persisting results to sqlite and an HTML
// report.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"text/tabwriter"

	"github.com/banshee-data/posekit/internal/bench"
)

// Config holds the benchmark configuration.
type Config struct {
	Instances int
	FOVDeg    float64
	Seed      int64
	Tol       float64
	DBPath    string
	Report    string
}

func main() {
	cfg := parseFlags()

	results := runSuites(cfg)
	printResults(results)

	if cfg.DBPath != "" {
		store, err := bench.NewStore(cfg.DBPath)
		if err != nil {
			log.Fatalf("opening benchmark store: %v", err)
		}
		defer store.Close()
		for _, r := range results {
			runID, err := store.RecordRun(r)
			if err != nil {
				log.Fatalf("recording run for %s: %v", r.Name, err)
			}
			log.Printf("recorded %s as run %s", r.Name, runID)
		}
	}

	if cfg.Report != "" {
		if err := bench.WriteReport(results, cfg.Report); err != nil {
			log.Fatalf("writing report: %v", err)
		}
		log.Printf("report written to %s", cfg.Report)
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.IntVar(&cfg.Instances, "n", 10000, "Number of problem instances per solver")
	flag.Float64Var(&cfg.FOVDeg, "fov", 120, "Camera field of view in degrees")
	flag.Int64Var(&cfg.Seed, "seed", 1, "Random seed for problem generation")
	flag.Float64Var(&cfg.Tol, "tol", 1e-6, "Tolerance for validity and ground-truth recovery")
	flag.StringVar(&cfg.DBPath, "db", "", "Optional sqlite database to record results")
	flag.StringVar(&cfg.Report, "report", "", "Optional HTML report output path")

	flag.Parse()

	return cfg
}

func runSuites(cfg Config) []bench.Result {
	rng := rand.New(rand.NewSource(cfg.Seed))

	var results []bench.Result

	gp4psOpts := bench.DefaultProblemOptions()
	gp4psOpts.CameraFOVDeg = cfg.FOVDeg
	gp4psOpts.Generalized = true
	gp4psOpts.UnknownScale = true
	gp4psOpts.PointPoints = 4
	log.Printf("generating %d gp4ps instances", cfg.Instances)
	results = append(results,
		bench.Run("gp4ps", bench.GP4Ps, bench.Generate(cfg.Instances, gp4psOpts, rng), cfg.Tol))

	up4plOpts := bench.DefaultProblemOptions()
	up4plOpts.CameraFOVDeg = cfg.FOVDeg
	up4plOpts.Upright = true
	up4plOpts.PointLines = 4
	log.Printf("generating %d up4pl instances", cfg.Instances)
	results = append(results,
		bench.Run("up4pl", bench.UP4PL, bench.Generate(cfg.Instances, up4plOpts, rng), cfg.Tol))

	return results
}

func printResults(results []bench.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Solver\tSolutions\tValid %\tGT found %\tRuntime\t")
	for _, r := range results {
		n := float64(r.Instances)
		validPct := 0.0
		if r.Solutions > 0 {
			validPct = 100 * float64(r.ValidSolutions) / float64(r.Solutions)
		}
		fmt.Fprintf(w, "%s\t%.3f\t%.2f\t%.2f\t%s\t\n",
			r.Name,
			float64(r.Solutions)/n,
			validPct,
			100*float64(r.FoundGT)/n,
			formatRuntime(float64(r.RuntimeNS)/n),
		)
	}
	w.Flush()
}

// formatRuntime renders a per-instance runtime with a sensible unit.
func formatRuntime(ns float64) string {
	switch {
	case ns < 1e3:
		return fmt.Sprintf("%.1f ns", ns)
	case ns < 1e6:
		return fmt.Sprintf("%.2f us", ns/1e3)
	case ns < 1e9:
		return fmt.Sprintf("%.2f ms", ns/1e6)
	default:
		return fmt.Sprintf("%.2f s", ns/1e9)
	}
}
