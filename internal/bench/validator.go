package bench

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/posekit/internal/pose"
)

// PoseError is the distance of a candidate from the instance's ground
// truth: Frobenius rotation difference plus translation and scale error.
func PoseError(inst *Instance, p *pose.CameraPose) float64 {
	e := 0.0
	for i := 0; i < 9; i++ {
		d := inst.PoseGT.R[i] - p.R[i]
		e += d * d
	}
	return math.Sqrt(e) + r3.Norm(r3.Sub(inst.PoseGT.T, p.T)) + math.Abs(inst.PoseGT.Alpha-p.Alpha)
}

// IsValid reports whether a candidate pose is geometrically consistent with
// the instance's correspondences: orthogonal rotation, every observation
// ray aligned with its transformed point, and every point-line observation
// plane containing its line.
func IsValid(inst *Instance, p *pose.CameraPose, tol float64) bool {
	r := p.RotationMatrix()
	var rtr mat.Dense
	rtr.Mul(r.T(), r)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(rtr.At(i, j)-want) > tol {
				return false
			}
		}
	}

	for i := range inst.Rays {
		target := r3.Sub(p.Apply(inst.Points[i]), r3.Scale(p.Alpha, inst.Anchors[i]))
		if err := 1 - math.Abs(r3.Dot(inst.Rays[i], r3.Unit(target))); err > tol {
			return false
		}
	}

	for i := range inst.LineRays {
		target := p.Apply(inst.LinePoints[i])
		normal := r3.Cross(inst.LineRays[i], p.Rotate(inst.LineDirs[i]))
		if err := math.Abs(r3.Dot(r3.Unit(normal), target)); err > tol {
			return false
		}
	}
	return true
}
