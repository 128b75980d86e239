// Package bench generates synthetic pose problems with known ground truth
// and measures solver accuracy and runtime over batches of them. It is
// measurement scaffolding around internal/pose, not part of the solving
// algorithm.
package bench

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/posekit/internal/pose"
)

// ProblemOptions controls the synthetic problem distribution.
type ProblemOptions struct {
	// CameraFOVDeg bounds the ray directions (full field of view, degrees).
	CameraFOVDeg float64

	// MinDepth and MaxDepth bound the distance along each ray (camera units).
	MinDepth float64
	MaxDepth float64

	// MinScale and MaxScale bound the ground-truth alpha when UnknownScale
	// is set.
	MinScale float64
	MaxScale float64

	// Generalized draws a random rig anchor per ray; otherwise anchors are
	// zero (central camera).
	Generalized bool

	// Upright restricts the ground-truth rotation to the z-gravity subgroup.
	Upright bool

	// UnknownScale draws a random alpha; otherwise alpha is 1.
	UnknownScale bool

	// PointPoints and PointLines set how many correspondences of each kind
	// an instance carries.
	PointPoints int
	PointLines  int
}

// DefaultProblemOptions returns the wide-FOV configuration used by the
// benchmark suites.
func DefaultProblemOptions() ProblemOptions {
	return ProblemOptions{
		CameraFOVDeg: 120,
		MinDepth:     2.0,
		MaxDepth:     10.0,
		MinScale:     0.5,
		MaxScale:     2.0,
	}
}

// Instance is one synthetic problem: a ground-truth pose and correspondence
// sets generated to satisfy it exactly.
type Instance struct {
	PoseGT pose.CameraPose

	// Point-to-point correspondences.
	Anchors []r3.Vec // rig-frame ray anchors p
	Rays    []r3.Vec // ray directions x (unit, camera frame)
	Points  []r3.Vec // world points X

	// Point-to-line correspondences.
	LineRays   []r3.Vec // observation ray directions
	LinePoints []r3.Vec // world line anchors (closest point to origin)
	LineDirs   []r3.Vec // world line directions (unit)
}

// Generate draws n independent problem instances.
func Generate(n int, opts ProblemOptions, rng *rand.Rand) []Instance {
	fovScale := math.Tan(opts.CameraFOVDeg / 2 * math.Pi / 180)

	instances := make([]Instance, 0, n)
	for i := 0; i < n; i++ {
		inst := Instance{PoseGT: randomGroundTruth(opts, rng)}
		gt := &inst.PoseGT
		rm := gt.RotationMatrix()

		ray := func() r3.Vec {
			return r3.Unit(r3.Vec{
				X: (rng.Float64()*2 - 1) * fovScale,
				Y: (rng.Float64()*2 - 1) * fovScale,
				Z: 1,
			})
		}
		toWorld := func(y r3.Vec) r3.Vec {
			d := r3.Sub(y, gt.T)
			return r3.Vec{
				X: rm.At(0, 0)*d.X + rm.At(1, 0)*d.Y + rm.At(2, 0)*d.Z,
				Y: rm.At(0, 1)*d.X + rm.At(1, 1)*d.Y + rm.At(2, 1)*d.Z,
				Z: rm.At(0, 2)*d.X + rm.At(1, 2)*d.Y + rm.At(2, 2)*d.Z,
			}
		}

		for j := 0; j < opts.PointPoints; j++ {
			p := r3.Vec{}
			if opts.Generalized {
				p = r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
			}
			x := ray()
			depth := opts.MinDepth + (opts.MaxDepth-opts.MinDepth)*rng.Float64()
			X := toWorld(r3.Add(r3.Scale(gt.Alpha, p), r3.Scale(depth, x)))

			inst.Anchors = append(inst.Anchors, p)
			inst.Rays = append(inst.Rays, x)
			inst.Points = append(inst.Points, X)
		}

		for j := 0; j < opts.PointLines; j++ {
			x := ray()
			depth := opts.MinDepth + (opts.MaxDepth-opts.MinDepth)*rng.Float64()
			X := toWorld(r3.Scale(depth, x))

			v := r3.Unit(r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()})
			// Slide the anchor so the line passes through X with X·V = 0.
			X = r3.Sub(X, r3.Scale(r3.Dot(v, X), v))

			inst.LineRays = append(inst.LineRays, x)
			inst.LinePoints = append(inst.LinePoints, X)
			inst.LineDirs = append(inst.LineDirs, v)
		}

		instances = append(instances, inst)
	}
	return instances
}

func randomGroundTruth(opts ProblemOptions, rng *rand.Rand) pose.CameraPose {
	gt := pose.CameraPose{Alpha: 1}
	if opts.UnknownScale {
		gt.Alpha = opts.MinScale + (opts.MaxScale-opts.MinScale)*rng.Float64()
	}
	gt.T = r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}

	if opts.Upright {
		theta := rng.Float64()*2*math.Pi - math.Pi
		ct, st := math.Cos(theta), math.Sin(theta)
		gt.R = [9]float64{ct, -st, 0, st, ct, 0, 0, 0, 1}
		return gt
	}

	// Uniform rotation from a normalised Gaussian quaternion.
	w, x, y, z := rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()
	n := math.Sqrt(w*w + x*x + y*y + z*z)
	w, x, y, z = w/n, x/n, y/n, z/n
	gt.R = [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}
	return gt
}
