package pose

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// UP4PL solves upright absolute pose from four point-to-line
// correspondences: rays x[i] observed by a gravity-aligned camera
// (rotation about z only) must meet the 3D lines through X[i] with
// direction V[i]. The rotation is parameterized by a single Cayley
// parameter q and the problem reduces to an 8×8 eigendecomposition whose
// real eigenvalues are the feasible q. Poses are appended to out with
// Alpha fixed at 1; the count appended is returned.
func UP4PL(x, X, V []r3.Vec, out *[]CameraPose) (int, error) {
	if len(x) != 4 || len(X) != 4 || len(V) != 4 {
		return 0, ErrBadInput
	}

	// Per correspondence, the incidence constraint splits by powers of q
	// into quadratic (m), linear (c) and constant (k) coefficient rows
	// over the unknowns [t; 1].
	m := mat.NewDense(4, 4, nil)
	c := mat.NewDense(4, 4, nil)
	k := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.SetRow(i, []float64{
			V[i].Y*x[i].Z + V[i].Z*x[i].Y,
			-V[i].X*x[i].Z - V[i].Z*x[i].X,
			V[i].X*x[i].Y - V[i].Y*x[i].X,
			V[i].X*X[i].Y*x[i].Z + V[i].X*X[i].Z*x[i].Y - V[i].Y*X[i].X*x[i].Z -
				V[i].Y*X[i].Z*x[i].X - V[i].Z*X[i].X*x[i].Y + V[i].Z*X[i].Y*x[i].X,
		})
		c.SetRow(i, []float64{
			-2 * V[i].X * x[i].Z,
			-2 * V[i].Y * x[i].Z,
			2*V[i].X*x[i].X + 2*V[i].Y*x[i].Y,
			2*V[i].X*X[i].Z*x[i].X - 2*V[i].Z*X[i].X*x[i].X +
				2*V[i].Y*X[i].Z*x[i].Y - 2*V[i].Z*X[i].Y*x[i].Y,
		})
		k.SetRow(i, []float64{
			V[i].Z*x[i].Y - V[i].Y*x[i].Z,
			V[i].X*x[i].Z - V[i].Z*x[i].X,
			V[i].Y*x[i].X - V[i].X*x[i].Y,
			V[i].X*X[i].Y*x[i].Z - V[i].X*X[i].Z*x[i].Y - V[i].Y*X[i].X*x[i].Z +
				V[i].Y*X[i].Z*x[i].X + V[i].Z*X[i].X*x[i].Y - V[i].Z*X[i].Y*x[i].X,
		})
	}

	if cond := mat.Cond(m, 1); cond > maxLeadingBlockCond {
		return 0, ErrDegenerate
	}

	// Companion-style linearisation in q: top block -M⁻¹[C K], bottom
	// block [I 0].
	ck := mat.NewDense(4, 8, nil)
	ck.Slice(0, 4, 0, 4).(*mat.Dense).Copy(c)
	ck.Slice(0, 4, 4, 8).(*mat.Dense).Copy(k)

	var lu mat.LU
	lu.Factorize(m)
	var top mat.Dense
	if err := lu.SolveTo(&top, false, ck); err != nil {
		return 0, ErrDegenerate
	}

	a := mat.NewDense(8, 8, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 8; j++ {
			a.Set(i, j, -top.At(i, j))
		}
		a.Set(4+i, i, 1)
	}

	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenRight) {
		return 0, ErrDegenerate
	}
	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	count := 0
	for i, v := range eig.Values(nil) {
		if math.Abs(imag(v)) > 1e-8 {
			continue
		}
		den := real(vecs.At(7, i))
		if den == 0 {
			continue
		}

		q := real(v)
		q2 := q * q
		cq := (1 - q2) / (1 + q2)
		sq := 2 * q / (1 + q2)

		*out = append(*out, CameraPose{
			R: [9]float64{
				cq, -sq, 0,
				sq, cq, 0,
				0, 0, 1,
			},
			T: r3.Vec{
				X: real(vecs.At(4, i)) / den,
				Y: real(vecs.At(5, i)) / den,
				Z: real(vecs.At(6, i)) / den,
			},
			Alpha: 1,
		})
		count++
	}
	return count, nil
}
