package pose

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/posekit/internal/polysolve"
)

// recordingEngine is a stub QuadricSolver that records being called and
// returns no roots.
type recordingEngine struct{ called *bool }

func (e recordingEngine) Solve(*polysolve.SystemCoeffs) [][3]float64 {
	*e.called = true
	return nil
}

// quatRotation builds a row-major rotation from a (not necessarily unit)
// quaternion, used to sample uniform random ground-truth rotations.
func quatRotation(w, x, y, z float64) [9]float64 {
	n := math.Sqrt(w*w + x*x + y*y + z*z)
	w, x, y, z = w/n, x/n, y/n, z/n
	return [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}
}

func randomPose(rng *rand.Rand) CameraPose {
	return CameraPose{
		R:     quatRotation(rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()),
		T:     r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()},
		Alpha: 0.5 + 1.5*rng.Float64(),
	}
}

// makeInstance synthesises four consistent correspondences from a ground
// truth pose: rays bounded by the field of view, positive depths, random
// rig anchors, world points derived so the constraint holds exactly.
func makeInstance(gt CameraPose, rng *rand.Rand) (p, x, X []r3.Vec) {
	rinv := gt.RotationMatrix()
	for i := 0; i < 4; i++ {
		pi := r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
		xi := r3.Unit(r3.Vec{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1, Z: 1})
		depth := 2 + 8*rng.Float64()

		// Camera-frame point, then pulled back to the world frame.
		y := r3.Add(r3.Scale(gt.Alpha, pi), r3.Scale(depth, xi))
		d := r3.Sub(y, gt.T)
		Xi := r3.Vec{
			X: rinv.At(0, 0)*d.X + rinv.At(1, 0)*d.Y + rinv.At(2, 0)*d.Z,
			Y: rinv.At(0, 1)*d.X + rinv.At(1, 1)*d.Y + rinv.At(2, 1)*d.Z,
			Z: rinv.At(0, 2)*d.X + rinv.At(1, 2)*d.Y + rinv.At(2, 2)*d.Z,
		}

		p = append(p, pi)
		x = append(x, xi)
		X = append(X, Xi)
	}
	return p, x, X
}

func poseError(a, b CameraPose) float64 {
	e := 0.0
	for i := 0; i < 9; i++ {
		d := a.R[i] - b.R[i]
		e += d * d
	}
	return math.Sqrt(e) + r3.Norm(r3.Sub(a.T, b.T)) + math.Abs(a.Alpha-b.Alpha)
}

func bestPoseError(gt CameraPose, poses []CameraPose) float64 {
	best := math.Inf(1)
	for _, p := range poses {
		if e := poseError(gt, p); e < best {
			best = e
		}
	}
	return best
}

func TestGP4Ps_ConcreteScenario(t *testing.T) {
	gt := CameraPose{
		R:     [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Alpha: 1,
	}
	X := []r3.Vec{
		{X: 0, Y: 0, Z: 5},
		{X: 1, Y: 0, Z: 5},
		{X: 0, Y: 1, Z: 5},
		{X: 1, Y: 1, Z: 6},
	}
	p := []r3.Vec{
		{X: 0.3, Y: 0.1, Z: -0.2},
		{X: -0.4, Y: 0.2, Z: 0.1},
		{X: 0.1, Y: -0.5, Z: 0.3},
		{X: -0.2, Y: 0.3, Z: -0.1},
	}
	// With R=I, t=0, alpha=1 the ray from p[i] must point at X[i].
	x := make([]r3.Vec, 4)
	for i := range x {
		x[i] = r3.Unit(r3.Sub(X[i], p[i]))
	}

	var poses []CameraPose
	n, err := GP4Ps(p, x, X, &poses)
	if err != nil {
		t.Fatalf("GP4Ps: %v", err)
	}
	if n != len(poses) {
		t.Errorf("returned count %d does not match appended poses %d", n, len(poses))
	}
	if e := bestPoseError(gt, poses); e > 1e-6 {
		t.Errorf("identity pose not recovered: best error %g over %d poses", e, n)
	}
}

func TestGP4Ps_RoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		gt := randomPose(rng)
		p, x, X := makeInstance(gt, rng)

		var poses []CameraPose
		n, err := GP4Ps(p, x, X, &poses)
		if err != nil {
			t.Fatalf("trial %d: GP4Ps: %v", trial, err)
		}
		if n < 0 || n > 8 {
			t.Fatalf("trial %d: solution count %d outside [0,8]", trial, n)
		}
		if e := bestPoseError(gt, poses); e > 1e-6 {
			t.Errorf("trial %d: ground truth not recovered, best error %g over %d poses", trial, e, n)
		}
	}
}

func TestGP4Ps_Orthogonality(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	gt := randomPose(rng)
	p, x, X := makeInstance(gt, rng)

	var poses []CameraPose
	if _, err := GP4Ps(p, x, X, &poses); err != nil {
		t.Fatalf("GP4Ps: %v", err)
	}
	for i, pose := range poses {
		r := pose.RotationMatrix()
		var rtr mat.Dense
		rtr.Mul(r.T(), r)
		for row := 0; row < 3; row++ {
			for col := 0; col < 3; col++ {
				want := 0.0
				if row == col {
					want = 1.0
				}
				if math.Abs(rtr.At(row, col)-want) > 1e-9 {
					t.Errorf("pose %d: RᵀR entry (%d,%d) = %g", i, row, col, rtr.At(row, col))
				}
			}
		}
		if d := mat.Det(r); math.Abs(d-1) > 1e-9 {
			t.Errorf("pose %d: det(R) = %g", i, d)
		}
	}
}

// Every returned pose must zero the residual rows the elimination enforced:
// both cross-product components for correspondences 0..2, and the first
// component for correspondence 3 (its second row is the redundant one the
// reduction drops). This checks the elimination algebra, not geometric
// plausibility.
func TestGP4Ps_ResidualConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	gt := randomPose(rng)
	p, x, X := makeInstance(gt, rng)

	var poses []CameraPose
	if _, err := GP4Ps(p, x, X, &poses); err != nil {
		t.Fatalf("GP4Ps: %v", err)
	}
	if len(poses) == 0 {
		t.Fatal("expected at least one pose")
	}
	for pi, pose := range poses {
		for i := 0; i < 4; i++ {
			target := r3.Sub(pose.Apply(X[i]), r3.Scale(pose.Alpha, p[i]))
			cr := r3.Cross(x[i], target)
			scale := 1 + r3.Norm(target)
			if math.Abs(cr.Y) > 1e-6*scale {
				t.Errorf("pose %d correspondence %d: residual %g in enforced component", pi, i, cr.Y)
			}
			if i < 3 && math.Abs(cr.X) > 1e-6*scale {
				t.Errorf("pose %d correspondence %d: residual %g in enforced component", pi, i, cr.X)
			}
		}
	}
}

func TestGP4Ps_PermutationInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	gt := randomPose(rng)
	p, x, X := makeInstance(gt, rng)

	perms := [][4]int{{1, 0, 3, 2}, {3, 2, 1, 0}, {2, 3, 0, 1}}
	for _, perm := range perms {
		pp := make([]r3.Vec, 4)
		xp := make([]r3.Vec, 4)
		Xp := make([]r3.Vec, 4)
		for i, j := range perm {
			pp[i], xp[i], Xp[i] = p[j], x[j], X[j]
		}

		var poses []CameraPose
		if _, err := GP4Ps(pp, xp, Xp, &poses); err != nil {
			t.Fatalf("perm %v: GP4Ps: %v", perm, err)
		}
		if e := bestPoseError(gt, poses); e > 1e-6 {
			t.Errorf("perm %v: ground truth not recovered, best error %g", perm, e)
		}
	}
}

func TestGP4Ps_BadInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p, x, X := makeInstance(randomPose(rng), rng)

	var poses []CameraPose
	n, err := GP4Ps(p[:3], x, X, &poses)
	if err != ErrBadInput {
		t.Errorf("expected ErrBadInput, got %v", err)
	}
	if n != 0 || len(poses) != 0 {
		t.Errorf("output must be untouched on bad input, got n=%d len=%d", n, len(poses))
	}
}

// A duplicated ray makes the leading elimination block singular; the solver
// must report degeneracy rather than propagate a corrupted inverse.
func TestGP4Ps_DegenerateDuplicateRay(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	p, x, X := makeInstance(randomPose(rng), rng)
	p[1], x[1] = p[0], x[0]

	var poses []CameraPose
	n, err := GP4Ps(p, x, X, &poses)
	if err != ErrDegenerate {
		t.Errorf("expected ErrDegenerate, got %v (n=%d)", err, n)
	}
	if len(poses) != 0 {
		t.Errorf("no poses expected for degenerate input, got %d", len(poses))
	}
}

// Coincident world points admit no exact pose for generic rays. Whatever
// the algebraic outcome, the solver must not emit NaN or Inf fields.
func TestGP4Ps_CoincidentWorldPoints(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	p, x, _ := makeInstance(randomPose(rng), rng)
	X := []r3.Vec{{X: 1, Y: 2, Z: 3}, {X: 1, Y: 2, Z: 3}, {X: 1, Y: 2, Z: 3}, {X: 1, Y: 2, Z: 3}}

	var poses []CameraPose
	_, err := GP4Ps(p, x, X, &poses)
	if err != nil && err != ErrDegenerate {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, pose := range poses {
		for _, v := range pose.R {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("pose %d has non-finite rotation entry", i)
			}
		}
		for _, v := range []float64{pose.T.X, pose.T.Y, pose.T.Z, pose.Alpha} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("pose %d has non-finite t/alpha", i)
			}
		}
	}
}

func TestGP4Ps_InjectedEngine(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	p, x, X := makeInstance(randomPose(rng), rng)

	called := false
	s := Solver{Quadrics: recordingEngine{called: &called}}
	var poses []CameraPose
	n, err := s.GP4Ps(p, x, X, &poses)
	if err != nil {
		t.Fatalf("GP4Ps: %v", err)
	}
	if !called {
		t.Error("injected quadric solver was not used")
	}
	if n != 0 || len(poses) != 0 {
		t.Errorf("stub engine returns no roots, got n=%d", n)
	}
}

func TestCameraPose_RotationMatrixIsCopy(t *testing.T) {
	p := CameraPose{R: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
	m := p.RotationMatrix()
	m.Set(0, 0, 99)
	if p.R[0] != 1 {
		t.Error("RotationMatrix must not alias the pose storage")
	}
}
