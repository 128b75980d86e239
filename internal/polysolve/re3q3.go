// Package polysolve finds all real solutions of systems of three quadratic
// equations in three unknowns, the elimination workhorse behind the minimal
// pose solvers in internal/pose.
//
// The method is hidden-variable elimination: one variable (z, after an
// optional relabelling for pivot conditioning) is treated as a parameter,
// the pure-quadratic terms in the remaining two are solved for linearly,
// and the closure of the monomial relations x·xy = y·x², x·y² = y·xy and
// x²·y² = (xy)² collapses the system to a 3×3 matrix N(z) acting on
// (x, y, 1). Solutions lie on det N(z) = 0, a degree-8 polynomial matching
// the Bézout bound, whose real roots come from a companion-matrix
// eigendecomposition. Each root is completed to (x, y, z) from the null
// space of N(z), polished with a few Newton steps on the original
// quadrics, and kept only if the residual vanishes.
package polysolve

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Monomial ordering for SystemCoeffs rows.
const (
	monXX = iota
	monXY
	monYY
	monXZ
	monYZ
	monZZ
	monX
	monY
	monZ
	mon1
)

// SystemCoeffs holds three quadratic equations in unknowns (x, y, z).
// Row k lists the coefficients of equation k over the monomial basis
// [x², xy, y², xz, yz, z², x, y, z, 1].
type SystemCoeffs [3][10]float64

// MaxSolutions is the Bézout bound for three quadrics in three unknowns.
const MaxSolutions = 8

// Engine is the default quadric-system solver. It is stateless; the zero
// value is ready to use.
type Engine struct{}

// Solve returns all real solutions of the system, up to MaxSolutions, in
// unspecified order.
func (Engine) Solve(c *SystemCoeffs) [][3]float64 {
	return Solve3Q3(c)
}

// Variable relabellings used to pick a well-conditioned elimination pivot.
// Each entry maps new monomial index -> old monomial index under a swap of
// the hidden variable; the same component swap maps solutions back.
var hiddenPerms = [3]struct {
	mono [10]int
	a, b int // solution components to swap (a == b means identity)
}{
	{[10]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 0, 0},             // hide z
	{[10]int{5, 4, 2, 3, 1, 0, 8, 7, 6, 9}, 0, 2},             // hide x (swap x<->z)
	{[10]int{0, 3, 5, 1, 4, 2, 6, 8, 7, 9}, 1, 2},             // hide y (swap y<->z)
}

// Solve3Q3 finds all real solutions of the three-quadric system. It returns
// nil when the system is degenerate beyond what variable relabelling and a
// generic orthogonal change of variables can repair.
func Solve3Q3(c *SystemCoeffs) [][3]float64 {
	if sols, ok := solveWithPivot(c); ok {
		return sols
	}

	// Every pure-quadratic block is singular (e.g. axis-aligned conics).
	// Retry in a generically rotated frame and map the solutions back.
	q := genericRotation()
	cc := changeVariables(c, q)
	sols, ok := solveWithPivot(&cc)
	if !ok {
		return nil
	}
	for i := range sols {
		sols[i] = applyRotation(q, sols[i])
	}
	return sols
}

// solveWithPivot tries the three hidden-variable choices in order of
// decreasing pivot determinant and solves with the first usable one.
func solveWithPivot(c *SystemCoeffs) ([][3]float64, bool) {
	scale := coeffScale(c)
	if scale == 0 {
		return nil, false
	}

	best := -1
	bestDet := 0.0
	for v := range hiddenPerms {
		pc := permuteCoeffs(c, hiddenPerms[v].mono)
		if d := math.Abs(quadBlockDet(&pc)); d > bestDet {
			bestDet = d
			best = v
		}
	}
	if best < 0 || bestDet < 1e-12*scale*scale*scale {
		return nil, false
	}

	pc := permuteCoeffs(c, hiddenPerms[best].mono)
	sols := solveHiddenZ(&pc, scale)
	a, b := hiddenPerms[best].a, hiddenPerms[best].b
	for i := range sols {
		sols[i][a], sols[i][b] = sols[i][b], sols[i][a]
	}
	return sols, true
}

// solveHiddenZ runs the elimination with z as the hidden variable. The
// caller guarantees the x/y pure-quadratic block is invertible.
func solveHiddenZ(c *SystemCoeffs, scale float64) [][3]float64 {
	p := mat.NewDense(3, 3, []float64{
		c[0][monXX], c[0][monXY], c[0][monYY],
		c[1][monXX], c[1][monXY], c[1][monYY],
		c[2][monXX], c[2][monXY], c[2][monYY],
	})
	var pinv mat.Dense
	if err := pinv.Inverse(p); err != nil {
		return nil
	}

	// Remaining terms grouped by degree in z, columns (x, y, 1):
	// degree 0, 1 and 2 coefficient matrices.
	rhs := [3]*mat.Dense{
		mat.NewDense(3, 3, []float64{
			c[0][monX], c[0][monY], c[0][mon1],
			c[1][monX], c[1][monY], c[1][mon1],
			c[2][monX], c[2][monY], c[2][mon1],
		}),
		mat.NewDense(3, 3, []float64{
			c[0][monXZ], c[0][monYZ], c[0][monZ],
			c[1][monXZ], c[1][monYZ], c[1][monZ],
			c[2][monXZ], c[2][monYZ], c[2][monZ],
		}),
		mat.NewDense(3, 3, []float64{
			0, 0, c[0][monZZ],
			0, 0, c[1][monZZ],
			0, 0, c[2][monZZ],
		}),
	}

	// a[r][col] expresses [x²; xy; y²] = A(z)·(x, y, 1) with entries that
	// are polynomials in z of degree ≤ 2.
	var a [3][3]poly
	for d := 0; d < 3; d++ {
		var ad mat.Dense
		ad.Mul(&pinv, rhs[d])
		for r := 0; r < 3; r++ {
			for col := 0; col < 3; col++ {
				if d == 0 {
					a[r][col] = make(poly, 3)
				}
				a[r][col][d] = -ad.At(r, col)
			}
		}
	}

	n := closeRelations(&a)

	// det N(z) is degree ≤ 8; its real roots carry all solutions.
	det := polySub(
		polyAdd(
			polyMul(n[0][0], polySub(polyMul(n[1][1], n[2][2]), polyMul(n[1][2], n[2][1]))),
			polyMul(n[0][2], polySub(polyMul(n[1][0], n[2][1]), polyMul(n[1][1], n[2][0]))),
		),
		polyMul(n[0][1], polySub(polyMul(n[1][0], n[2][2]), polyMul(n[1][2], n[2][0]))),
	)

	var sols [][3]float64
	for _, z := range realRoots(det) {
		s, ok := completeRoot(c, &n, z, scale)
		if !ok {
			continue
		}
		if !duplicate(sols, s) && len(sols) < MaxSolutions {
			sols = append(sols, s)
		}
	}
	return sols
}

// closeRelations substitutes the quadratic monomials back into the three
// closure identities, producing the 3×3 polynomial matrix N(z) with
// N(z)·(x, y, 1)ᵀ = 0 at every solution.
func closeRelations(a *[3][3]poly) [3][3]poly {
	var n [3][3]poly

	// x·(xy) − y·(x²) = 0
	d := polySub(a[1][1], a[0][0])
	n[0][0] = polyAdd(polySub(polyMul(a[1][0], a[0][0]), polyMul(a[0][1], a[2][0])), polyAdd(polyMul(d, a[1][0]), a[1][2]))
	n[0][1] = polySub(polyAdd(polyMul(a[1][0], a[0][1]), polyMul(d, a[1][1])), polyAdd(polyMul(a[0][1], a[2][1]), a[0][2]))
	n[0][2] = polySub(polyAdd(polyMul(a[1][0], a[0][2]), polyMul(d, a[1][2])), polyMul(a[0][1], a[2][2]))

	// x·(y²) − y·(xy) = 0
	d = polySub(a[2][1], a[1][0])
	n[1][0] = polyAdd(polySub(polyMul(a[2][0], a[0][0]), polyMul(a[1][1], a[2][0])), polyAdd(polyMul(d, a[1][0]), a[2][2]))
	n[1][1] = polySub(polyAdd(polyMul(a[2][0], a[0][1]), polyMul(d, a[1][1])), polyAdd(polyMul(a[1][1], a[2][1]), a[1][2]))
	n[1][2] = polySub(polyAdd(polyMul(a[2][0], a[0][2]), polyMul(d, a[1][2])), polyMul(a[1][1], a[2][2]))

	// (x²)·(y²) − (xy)² = 0
	qxx := polySub(polyMul(a[0][0], a[2][0]), polyMul(a[1][0], a[1][0]))
	qxy := polySub(polyAdd(polyMul(a[0][0], a[2][1]), polyMul(a[0][1], a[2][0])), polyMul(poly{2}, polyMul(a[1][0], a[1][1])))
	qyy := polySub(polyMul(a[0][1], a[2][1]), polyMul(a[1][1], a[1][1]))
	qx := polySub(polyAdd(polyMul(a[0][0], a[2][2]), polyMul(a[0][2], a[2][0])), polyMul(poly{2}, polyMul(a[1][0], a[1][2])))
	qy := polySub(polyAdd(polyMul(a[0][1], a[2][2]), polyMul(a[0][2], a[2][1])), polyMul(poly{2}, polyMul(a[1][1], a[1][2])))
	q1 := polySub(polyMul(a[0][2], a[2][2]), polyMul(a[1][2], a[1][2]))

	n[2][0] = polyAdd(polyAdd(polyMul(qxx, a[0][0]), polyMul(qxy, a[1][0])), polyAdd(polyMul(qyy, a[2][0]), qx))
	n[2][1] = polyAdd(polyAdd(polyMul(qxx, a[0][1]), polyMul(qxy, a[1][1])), polyAdd(polyMul(qyy, a[2][1]), qy))
	n[2][2] = polyAdd(polyAdd(polyMul(qxx, a[0][2]), polyMul(qxy, a[1][2])), polyAdd(polyMul(qyy, a[2][2]), q1))

	return n
}

// completeRoot recovers (x, y) for a fixed z from the null space of N(z),
// polishes the full triple against the original quadrics and rejects
// candidates whose residual does not vanish (spurious determinant roots).
func completeRoot(c *SystemCoeffs, n *[3][3]poly, z, scale float64) ([3]float64, bool) {
	nz := mat.NewDense(3, 3, nil)
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			nz.Set(r, col, n[r][col].eval(z))
		}
	}

	var svd mat.SVD
	if !svd.Factorize(nz, mat.SVDFull) {
		return [3]float64{}, false
	}
	var v mat.Dense
	svd.VTo(&v)
	w0, w1, w2 := v.At(0, 2), v.At(1, 2), v.At(2, 2)
	if math.Abs(w2) < 1e-12 {
		return [3]float64{}, false
	}

	s := [3]float64{w0 / w2, w1 / w2, z}
	s = newtonPolish(c, s)

	norm2 := 1 + s[0]*s[0] + s[1]*s[1] + s[2]*s[2]
	if residualNorm(c, s) > 1e-6*scale*norm2 {
		return [3]float64{}, false
	}
	return s, true
}

// newtonPolish runs a handful of Newton iterations of the full 3×3 system.
// Purely a root refinement; it never creates solutions.
func newtonPolish(c *SystemCoeffs, s [3]float64) [3]float64 {
	for iter := 0; iter < 8; iter++ {
		f := mat.NewVecDense(3, []float64{
			evalQuadric(&c[0], s), evalQuadric(&c[1], s), evalQuadric(&c[2], s),
		})
		j := mat.NewDense(3, 3, nil)
		for i := 0; i < 3; i++ {
			gx, gy, gz := quadricGrad(&c[i], s)
			j.Set(i, 0, gx)
			j.Set(i, 1, gy)
			j.Set(i, 2, gz)
		}
		var d mat.VecDense
		if err := d.SolveVec(j, f); err != nil {
			return s
		}
		s[0] -= d.AtVec(0)
		s[1] -= d.AtVec(1)
		s[2] -= d.AtVec(2)
		if d.Norm(2) < 1e-14*(1+math.Abs(s[0])+math.Abs(s[1])+math.Abs(s[2])) {
			break
		}
	}
	return s
}

func evalQuadric(c *[10]float64, s [3]float64) float64 {
	x, y, z := s[0], s[1], s[2]
	return c[monXX]*x*x + c[monXY]*x*y + c[monYY]*y*y +
		c[monXZ]*x*z + c[monYZ]*y*z + c[monZZ]*z*z +
		c[monX]*x + c[monY]*y + c[monZ]*z + c[mon1]
}

func quadricGrad(c *[10]float64, s [3]float64) (gx, gy, gz float64) {
	x, y, z := s[0], s[1], s[2]
	gx = 2*c[monXX]*x + c[monXY]*y + c[monXZ]*z + c[monX]
	gy = c[monXY]*x + 2*c[monYY]*y + c[monYZ]*z + c[monY]
	gz = c[monXZ]*x + c[monYZ]*y + 2*c[monZZ]*z + c[monZ]
	return gx, gy, gz
}

func residualNorm(c *SystemCoeffs, s [3]float64) float64 {
	r0 := evalQuadric(&c[0], s)
	r1 := evalQuadric(&c[1], s)
	r2 := evalQuadric(&c[2], s)
	return math.Sqrt(r0*r0 + r1*r1 + r2*r2)
}

func duplicate(sols [][3]float64, s [3]float64) bool {
	for _, t := range sols {
		dx, dy, dz := s[0]-t[0], s[1]-t[1], s[2]-t[2]
		nrm := 1 + math.Abs(s[0]) + math.Abs(s[1]) + math.Abs(s[2])
		if math.Sqrt(dx*dx+dy*dy+dz*dz) < 1e-6*nrm {
			return true
		}
	}
	return false
}

func coeffScale(c *SystemCoeffs) float64 {
	m := 0.0
	for i := range c {
		for _, v := range c[i] {
			if a := math.Abs(v); a > m {
				m = a
			}
		}
	}
	return m
}

func permuteCoeffs(c *SystemCoeffs, perm [10]int) SystemCoeffs {
	var out SystemCoeffs
	for i := range c {
		for m := 0; m < 10; m++ {
			out[i][m] = c[i][perm[m]]
		}
	}
	return out
}

// quadBlockDet is the determinant of the pure x/y-quadratic 3×3 block, the
// pivot inverted by solveHiddenZ.
func quadBlockDet(c *SystemCoeffs) float64 {
	a, b, d := c[0][monXX], c[0][monXY], c[0][monYY]
	e, f, g := c[1][monXX], c[1][monXY], c[1][monYY]
	h, i, j := c[2][monXX], c[2][monXY], c[2][monYY]
	return a*(f*j-g*i) - b*(e*j-g*h) + d*(e*i-f*h)
}

// changeVariables rewrites the system in terms of u with s = Q·u, using the
// symmetric-matrix form of each quadric: sᵀMs + bᵀs + k becomes
// uᵀ(QᵀMQ)u + (Qᵀb)ᵀu + k.
func changeVariables(c *SystemCoeffs, q *mat.Dense) SystemCoeffs {
	var out SystemCoeffs
	for i := range c {
		m := mat.NewDense(3, 3, []float64{
			c[i][monXX], c[i][monXY] / 2, c[i][monXZ] / 2,
			c[i][monXY] / 2, c[i][monYY], c[i][monYZ] / 2,
			c[i][monXZ] / 2, c[i][monYZ] / 2, c[i][monZZ],
		})
		var mq, qmq mat.Dense
		mq.Mul(m, q)
		qmq.Mul(q.T(), &mq)

		b := mat.NewVecDense(3, []float64{c[i][monX], c[i][monY], c[i][monZ]})
		var qb mat.VecDense
		qb.MulVec(q.T(), b)

		out[i][monXX] = qmq.At(0, 0)
		out[i][monXY] = 2 * qmq.At(0, 1)
		out[i][monYY] = qmq.At(1, 1)
		out[i][monXZ] = 2 * qmq.At(0, 2)
		out[i][monYZ] = 2 * qmq.At(1, 2)
		out[i][monZZ] = qmq.At(2, 2)
		out[i][monX] = qb.AtVec(0)
		out[i][monY] = qb.AtVec(1)
		out[i][monZ] = qb.AtVec(2)
		out[i][mon1] = c[i][mon1]
	}
	return out
}

func applyRotation(q *mat.Dense, u [3]float64) [3]float64 {
	var s [3]float64
	for r := 0; r < 3; r++ {
		s[r] = q.At(r, 0)*u[0] + q.At(r, 1)*u[1] + q.At(r, 2)*u[2]
	}
	return s
}

// genericRotation is a fixed rotation with no zero or symmetric entries,
// used to move axis-aligned systems into general position. Axis (1,2,3)
// normalised, angle 1 radian, via the Rodrigues formula.
func genericRotation() *mat.Dense {
	k := [3]float64{1, 2, 3}
	nrm := math.Sqrt(14)
	for i := range k {
		k[i] /= nrm
	}
	c, s := math.Cos(1.0), math.Sin(1.0)

	q := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := (1 - c) * k[i] * k[j]
			if i == j {
				v += c
			}
			q.Set(i, j, v)
		}
	}
	q.Set(0, 1, q.At(0, 1)-s*k[2])
	q.Set(0, 2, q.At(0, 2)+s*k[1])
	q.Set(1, 0, q.At(1, 0)+s*k[2])
	q.Set(1, 2, q.At(1, 2)-s*k[0])
	q.Set(2, 0, q.At(2, 0)-s*k[1])
	q.Set(2, 1, q.At(2, 1)+s*k[0])
	return q
}
