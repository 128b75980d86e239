package polysolve

import "gonum.org/v1/gonum/mat"

// The Cayley map sends s = (a, b, c) to the rotation
//
//	R = 1/(1+a²+b²+c²) * [ 1+a²-b²-c²   2ab-2c      2b+2ac    ]
//	                     [ 2ab+2c       1-a²+b²-c²  2bc-2a    ]
//	                     [ 2ac-2b       2a+2bc      1-a²-b²+c² ]
//
// Every entry is a degree-2 polynomial in s over the common denominator,
// so a linear constraint on the entries of R clears to a quadric in s.
// The map covers all rotations except the measure-zero set of half-turns
// (parameter at infinity).

// cayleyNum tabulates the numerators of vec(R) in column-major order
// (R11, R21, R31, R12, ...) over the monomial basis of SystemCoeffs.
var cayleyNum = [9][10]float64{
	{1, 0, -1, 0, 0, -1, 0, 0, 0, 1},  // R11: a²-b²-c²+1
	{0, 2, 0, 0, 0, 0, 0, 0, 2, 0},    // R21: 2ab+2c
	{0, 0, 0, 2, 0, 0, 0, -2, 0, 0},   // R31: 2ac-2b
	{0, 2, 0, 0, 0, 0, 0, 0, -2, 0},   // R12: 2ab-2c
	{-1, 0, 1, 0, 0, -1, 0, 0, 0, 1},  // R22: b²-a²-c²+1
	{0, 0, 0, 0, 2, 0, 2, 0, 0, 0},    // R32: 2bc+2a
	{0, 0, 0, 2, 0, 0, 0, 2, 0, 0},    // R13: 2ac+2b
	{0, 0, 0, 0, 2, 0, -2, 0, 0, 0},   // R23: 2bc-2a
	{-1, 0, -1, 0, 0, 1, 0, 0, 0, 1},  // R33: c²-a²-b²+1
}

// RotationToQuadrics converts a 3×9 linear map on the column-major
// vectorised rotation into the equivalent three quadrics in the Cayley
// parameters: substituting the parameterisation into ar·vec(R) = 0 and
// clearing the common denominator.
func RotationToQuadrics(ar *mat.Dense) *SystemCoeffs {
	var out SystemCoeffs
	for k := 0; k < 3; k++ {
		for j := 0; j < 9; j++ {
			w := ar.At(k, j)
			if w == 0 {
				continue
			}
			for m := 0; m < 10; m++ {
				out[k][m] += w * cayleyNum[j][m]
			}
		}
	}
	return &out
}

// CayleyRotation evaluates the Cayley map at s, returning the rotation in
// row-major order. Exact inverse of the parameterisation used by
// RotationToQuadrics for all finite s.
func CayleyRotation(s [3]float64) [9]float64 {
	a, b, c := s[0], s[1], s[2]
	n := 1 + a*a + b*b + c*c
	return [9]float64{
		(1 + a*a - b*b - c*c) / n, (2*a*b - 2*c) / n, (2*b + 2*a*c) / n,
		(2*a*b + 2*c) / n, (1 - a*a + b*b - c*c) / n, (2*b*c - 2*a) / n,
		(2*a*c - 2*b) / n, (2*a + 2*b*c) / n, (1 - a*a - b*b + c*c) / n,
	}
}
