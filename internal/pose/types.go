// Package pose implements closed-form minimal solvers for absolute camera
// pose from point correspondences observed by a generalized camera (a rig
// of rays, each with its own anchor offset and direction).
package pose

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrBadInput reports a malformed input shape (wrong correspondence
	// count). Rejected before any computation.
	ErrBadInput = errors.New("pose: solver requires exactly 4 correspondences")

	// ErrDegenerate reports a correspondence configuration whose
	// elimination system is singular or too ill-conditioned to invert
	// (e.g. coincident or collinear world points). No poses are produced.
	ErrDegenerate = errors.New("pose: degenerate correspondence configuration")
)

// CameraPose is a rigid world-to-camera transform plus the scale factor
// relating the rig's local anchor offsets to the world frame. For every
// correspondence i there is a depth lambda_i ≥ 0 with
//
//	Alpha*p[i] + lambda_i*x[i] = R*X[i] + T
//
// The rotation is stored flat in row-major order, matching how the rest of
// the codebase carries fixed-size transforms.
type CameraPose struct {
	R     [9]float64
	T     r3.Vec
	Alpha float64
}

// RotationMatrix returns a copy of the rotation as a dense 3×3 matrix.
func (p *CameraPose) RotationMatrix() *mat.Dense {
	return mat.NewDense(3, 3, append([]float64(nil), p.R[:]...))
}

// Rotate applies the rotation only.
func (p *CameraPose) Rotate(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: p.R[0]*v.X + p.R[1]*v.Y + p.R[2]*v.Z,
		Y: p.R[3]*v.X + p.R[4]*v.Y + p.R[5]*v.Z,
		Z: p.R[6]*v.X + p.R[7]*v.Y + p.R[8]*v.Z,
	}
}

// Apply maps a world point into the camera frame: R*v + T.
func (p *CameraPose) Apply(v r3.Vec) r3.Vec {
	return r3.Add(p.Rotate(v), p.T)
}
