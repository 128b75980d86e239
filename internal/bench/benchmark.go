package bench

import (
	"math"
	"sort"
	"time"

	"github.com/banshee-data/posekit/internal/pose"
)

// SolveFunc adapts a solver kernel to the benchmark harness.
type SolveFunc func(inst *Instance, out *[]pose.CameraPose) (int, error)

// GP4Ps solves an instance's point correspondences with the
// generalized-pose-and-scale kernel.
func GP4Ps(inst *Instance, out *[]pose.CameraPose) (int, error) {
	return pose.GP4Ps(inst.Anchors, inst.Rays, inst.Points, out)
}

// UP4PL solves an instance's point-line correspondences with the upright
// kernel.
func UP4PL(inst *Instance, out *[]pose.CameraPose) (int, error) {
	return pose.UP4PL(inst.LineRays, inst.LinePoints, inst.LineDirs, out)
}

// Result aggregates one solver's accuracy and runtime over a batch.
type Result struct {
	Name           string
	Instances      int
	Solutions      int   // total poses returned
	ValidSolutions int   // poses passing the geometric validator
	FoundGT        int   // instances whose ground truth was recovered
	RuntimeNS      int64 // median total wall time for one pass over the batch
}

// timingPasses is the number of repeated passes whose median is reported.
const timingPasses = 10

// Run measures one solver over a batch of instances: an accuracy pass that
// scores every returned pose against the ground truth, then repeated timed
// passes whose median wall time is kept, so first-run effects drop out.
func Run(name string, solve SolveFunc, instances []Instance, tol float64) Result {
	result := Result{Name: name, Instances: len(instances)}

	for i := range instances {
		var solutions []pose.CameraPose
		n, err := solve(&instances[i], &solutions)
		if err != nil {
			continue
		}
		result.Solutions += n

		bestErr := math.Inf(1)
		for j := range solutions {
			if IsValid(&instances[i], &solutions[j], tol) {
				result.ValidSolutions++
			}
			if e := PoseError(&instances[i], &solutions[j]); e < bestErr {
				bestErr = e
			}
		}
		if bestErr < tol {
			result.FoundGT++
		}
	}

	runtimes := make([]int64, 0, timingPasses)
	var solutions []pose.CameraPose
	for pass := 0; pass < timingPasses; pass++ {
		start := time.Now()
		for i := range instances {
			solutions = solutions[:0]
			_, _ = solve(&instances[i], &solutions)
		}
		runtimes = append(runtimes, time.Since(start).Nanoseconds())
	}
	sort.Slice(runtimes, func(i, j int) bool { return runtimes[i] < runtimes[j] })
	result.RuntimeNS = runtimes[len(runtimes)/2]

	return result
}
