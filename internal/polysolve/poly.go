package polysolve

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// poly is a dense univariate polynomial with coefficients in ascending
// degree order: poly{c0, c1, c2} is c0 + c1*z + c2*z².
type poly []float64

// eval evaluates the polynomial at z using Horner's scheme.
func (p poly) eval(z float64) float64 {
	v := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		v = v*z + p[i]
	}
	return v
}

// maxAbs returns the largest coefficient magnitude.
func (p poly) maxAbs() float64 {
	m := 0.0
	for _, c := range p {
		if a := math.Abs(c); a > m {
			m = a
		}
	}
	return m
}

func polyAdd(a, b poly) poly {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make(poly, n)
	for i := range out {
		if i < len(a) {
			out[i] += a[i]
		}
		if i < len(b) {
			out[i] += b[i]
		}
	}
	return out
}

func polySub(a, b poly) poly {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make(poly, n)
	for i := range out {
		if i < len(a) {
			out[i] += a[i]
		}
		if i < len(b) {
			out[i] -= b[i]
		}
	}
	return out
}

func polyMul(a, b poly) poly {
	if len(a) == 0 || len(b) == 0 {
		return poly{}
	}
	out := make(poly, len(a)+len(b)-1)
	for i, ca := range a {
		if ca == 0 {
			continue
		}
		for j, cb := range b {
			out[i+j] += ca * cb
		}
	}
	return out
}

// leadingTrimRel is the relative threshold below which a leading coefficient
// is treated as zero when deciding the effective degree of a polynomial.
const leadingTrimRel = 1e-12

// realRoots returns the real roots of p, found as eigenvalues of the
// companion matrix of the trimmed monic polynomial. Roots with a
// significant imaginary part are discarded.
func realRoots(p poly) []float64 {
	scale := p.maxAbs()
	if scale == 0 {
		return nil
	}

	// Trim negligible leading coefficients so the companion matrix is
	// well defined.
	deg := len(p) - 1
	for deg > 0 && math.Abs(p[deg]) < leadingTrimRel*scale {
		deg--
	}

	switch deg {
	case 0:
		return nil
	case 1:
		return []float64{-p[0] / p[1]}
	}

	// Companion matrix: ones on the subdiagonal, -p[i]/p[deg] in the
	// last column.
	c := mat.NewDense(deg, deg, nil)
	for i := 1; i < deg; i++ {
		c.Set(i, i-1, 1)
	}
	for i := 0; i < deg; i++ {
		c.Set(i, deg-1, -p[i]/p[deg])
	}

	var eig mat.Eigen
	if !eig.Factorize(c, mat.EigenNone) {
		return nil
	}

	roots := make([]float64, 0, deg)
	for _, v := range eig.Values(nil) {
		if math.Abs(imag(v)) <= 1e-8*(1+math.Abs(real(v))) {
			roots = append(roots, real(v))
		}
	}
	return roots
}
