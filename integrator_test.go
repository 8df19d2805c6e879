package transit

import (
	"math"
	"testing"
	"time"

	"github.com/gonum/floats"
)

func TestPropagateBallisticCircular(t *testing.T) {
	// One full revolution of a circular orbit must close on itself.
	μ := G * earthMass
	R := 7000e3
	vc := math.Sqrt(μ / R)
	period := 2 * math.Pi * math.Sqrt(R*R*R/μ)
	sv := StateVector{R: Vector2{R / AU, 0}, V: Vector2{0, vc / AU}}

	path, end := PropagateBallistic(sv, μ, time.Duration(period*float64(time.Second)), 256, nil)
	if len(path) != 257 {
		t.Fatalf("expected 257 samples, got %d", len(path))
	}
	if !floats.EqualWithinAbs(end.R.X, sv.R.X, 1e-7) || !floats.EqualWithinAbs(end.R.Y, sv.R.Y, 1e-7) {
		t.Fatalf("orbit did not close: %+v vs %+v", end.R, sv.R)
	}
	// Radius stays near R throughout.
	for i, p := range path {
		if !floats.EqualWithinRel(p.Norm()*AU, R, 1e-3) {
			t.Fatalf("sample %d drifted to %f m", i, p.Norm()*AU)
		}
	}
}

func TestPropagateBallisticPinned(t *testing.T) {
	μ := G * earthMass
	R := 7000e3
	vc := math.Sqrt(μ / R)
	sv := StateVector{R: Vector2{R / AU, 0}, V: Vector2{0, vc / AU}}
	target := Vector2{0, 1.01 * R / AU} // deliberately off the two-body arc

	path, end := PropagateBallistic(sv, μ, 30*time.Minute, 64, &target)
	got := path[len(path)-1]
	if !floats.EqualWithinAbs(got.X, target.X, 1e-15) || !floats.EqualWithinAbs(got.Y, target.Y, 1e-15) {
		t.Fatalf("last sample not pinned: %+v exp %+v", got, target)
	}
	if !floats.EqualWithinAbs(path[0].X, sv.R.X, 1e-15) || !floats.EqualWithinAbs(path[0].Y, sv.R.Y, 1e-15) {
		t.Fatalf("first sample moved: %+v", path[0])
	}
	// The end state stays the uncorrected two-body result.
	if end.R == target {
		t.Fatal("end state must not absorb the rendering correction")
	}
}

func TestPropagateBallisticDegenerate(t *testing.T) {
	sv := StateVector{R: Vector2{1, 0}, V: Vector2{0, 1e-7}}
	path, end := PropagateBallistic(sv, G*sunMass, 0, 0, nil)
	if len(path) != 1 {
		t.Fatalf("zero duration should yield the start sample, got %d", len(path))
	}
	if !floats.EqualWithinAbs(end.R.X, sv.R.X, 1e-12) || !floats.EqualWithinAbs(end.V.Y, sv.V.Y, 1e-18) {
		t.Fatalf("zero duration should keep the state, got %+v", end)
	}
}

func TestLerpPath(t *testing.T) {
	from := Vector2{0, 0}
	to := Vector2{2, 4}
	linear := func(τ float64) float64 { return τ }
	path := lerpPath(from, to, 10, linear)
	if len(path) != 11 {
		t.Fatalf("expected 11 samples, got %d", len(path))
	}
	if path[0] != from || path[10] != to {
		t.Fatalf("endpoints wrong: %+v %+v", path[0], path[10])
	}
	if !floats.EqualWithinAbs(path[5].X, 1, 1e-12) || !floats.EqualWithinAbs(path[5].Y, 2, 1e-12) {
		t.Fatalf("midpoint wrong: %+v", path[5])
	}
}

func TestBezierArc(t *testing.T) {
	from := Vector2{-1, 0}
	control := Vector2{0, 1}
	to := Vector2{1, 0}
	arc := bezierArc(from, control, to, 8)
	if len(arc) != 9 {
		t.Fatalf("expected 9 samples, got %d", len(arc))
	}
	if arc[0] != from || arc[8] != to {
		t.Fatalf("endpoints wrong: %+v %+v", arc[0], arc[8])
	}
	// The quadratic Bezier midpoint is the average of the endpoints' midpoint
	// and the control point.
	if !floats.EqualWithinAbs(arc[4].Y, 0.5, 1e-12) || !floats.EqualWithinAbs(arc[4].X, 0, 1e-12) {
		t.Fatalf("apex wrong: %+v", arc[4])
	}
	for _, p := range arc {
		if !p.IsFinite() {
			t.Fatal("non-finite arc sample")
		}
	}
}
