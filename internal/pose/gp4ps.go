package pose

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/posekit/internal/polysolve"
)

// QuadricSolver finds all real solutions of a system of three quadratic
// equations in three unknowns. Injected so the polynomial engine can be
// swapped or instrumented; the zero-value Solver uses polysolve.Engine.
type QuadricSolver interface {
	Solve(coeffs *polysolve.SystemCoeffs) [][3]float64
}

// Solver bundles the solver kernels with their polynomial engine. The zero
// value is ready to use and safe for concurrent calls.
type Solver struct {
	Quadrics QuadricSolver
}

// maxLeadingBlockCond bounds the 1-norm condition number of the leading
// 4×4 elimination block. Beyond it the correspondences are treated as
// degenerate rather than letting a near-singular inverse corrupt the
// reduced system.
const maxLeadingBlockCond = 1e14

// GP4Ps solves generalized absolute pose with unknown scale from four
// point correspondences: it finds every (R, t, alpha) with
//
//	alpha*p[i] + lambda_i*x[i] = R*X[i] + t
//
// for some depths lambda_i. p holds the rig-frame ray anchors, x the ray
// directions in the local camera frame and X the world points, indexed
// consistently. All algebraic roots (at most 8) are appended to out in
// unspecified order with no geometric filtering; the count appended is
// returned. Callers wanting cheirality or scale-sign checks apply them
// downstream.
func (s *Solver) GP4Ps(p, x, X []r3.Vec, out *[]CameraPose) (int, error) {
	if len(p) != 4 || len(x) != 4 || len(X) != 4 {
		return 0, ErrBadInput
	}

	// Two rows per correspondence: the components of
	// x[i] × (alpha*p[i] - R*X[i] - t) = 0 orthogonal to x[i], with the
	// depth lambda_i already eliminated by the cross product. Unknown
	// ordering is [t; alpha; vec(R)] with vec(R) column-major.
	a := mat.NewDense(8, 13, nil)
	for i := 0; i < 4; i++ {
		a.SetRow(2*i, []float64{
			x[i].Z, 0, -x[i].X,
			-p[i].X*x[i].Z + p[i].Z*x[i].X,
			X[i].X * x[i].Z, 0, -X[i].X * x[i].X,
			X[i].Y * x[i].Z, 0, -X[i].Y * x[i].X,
			X[i].Z * x[i].Z, 0, -X[i].Z * x[i].X,
		})
		a.SetRow(2*i+1, []float64{
			0, x[i].Z, -x[i].Y,
			-p[i].Y*x[i].Z + p[i].Z*x[i].Y,
			0, X[i].X * x[i].Z, -X[i].X * x[i].Y,
			0, X[i].Y * x[i].Z, -X[i].Y * x[i].Y,
			0, X[i].Z * x[i].Z, -X[i].Z * x[i].Y,
		})
	}

	// Eliminate t and alpha through the first four rows.
	lead := a.Slice(0, 4, 0, 4)
	if c := mat.Cond(lead, 1); c > maxLeadingBlockCond {
		return 0, ErrDegenerate
	}
	var b mat.Dense
	if err := b.Inverse(lead); err != nil {
		return 0, ErrDegenerate
	}

	topRight := a.Slice(0, 4, 4, 13)

	// Schur complement of rows 4..6: a pure linear map on vec(R).
	var bt mat.Dense
	bt.Mul(&b, topRight)
	var schur mat.Dense
	schur.Mul(a.Slice(4, 7, 0, 4), &bt)
	var ar mat.Dense
	ar.Sub(a.Slice(4, 7, 4, 13), &schur)

	qs := s.Quadrics
	if qs == nil {
		qs = polysolve.Engine{}
	}
	roots := qs.Solve(polysolve.RotationToQuadrics(&ar))

	for _, root := range roots {
		r := polysolve.CayleyRotation(root)

		// Back-substitute: [t; alpha] = -B * A[0:4,4:13] * vec(R).
		vecR := mat.NewVecDense(9, []float64{
			r[0], r[3], r[6], r[1], r[4], r[7], r[2], r[5], r[8],
		})
		var av, ts mat.VecDense
		av.MulVec(topRight, vecR)
		ts.MulVec(&b, &av)

		*out = append(*out, CameraPose{
			R:     r,
			T:     r3.Vec{X: -ts.AtVec(0), Y: -ts.AtVec(1), Z: -ts.AtVec(2)},
			Alpha: -ts.AtVec(3),
		})
	}
	return len(roots), nil
}

// GP4Ps runs the solver with the default polynomial engine.
func GP4Ps(p, x, X []r3.Vec, out *[]CameraPose) (int, error) {
	var s Solver
	return s.GP4Ps(p, x, X, out)
}
