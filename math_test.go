package transit

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestVector2Ops(t *testing.T) {
	a := Vector2{3, 4}
	b := Vector2{-1, 2}
	if got := a.Add(b); got != (Vector2{2, 6}) {
		t.Fatalf("Add got %+v", got)
	}
	if got := a.Sub(b); got != (Vector2{4, 2}) {
		t.Fatalf("Sub got %+v", got)
	}
	if got := a.Scale(2); got != (Vector2{6, 8}) {
		t.Fatalf("Scale got %+v", got)
	}
	if !floats.EqualWithinAbs(a.Norm(), 5, 1e-12) {
		t.Fatalf("Norm got %f", a.Norm())
	}
	if !floats.EqualWithinAbs(a.Dot(b), 5, 1e-12) {
		t.Fatalf("Dot got %f", a.Dot(b))
	}
	if !floats.EqualWithinAbs(a.Cross(b), 10, 1e-12) {
		t.Fatalf("Cross got %f", a.Cross(b))
	}
	if !floats.EqualWithinAbs(a.Unit().Norm(), 1, 1e-12) {
		t.Fatalf("Unit norm got %f", a.Unit().Norm())
	}
	if (Vector2{}).Unit() != (Vector2{}) {
		t.Fatal("zero vector unit should stay zero")
	}
}

func TestVector2IsFinite(t *testing.T) {
	if !(Vector2{1, 2}).IsFinite() {
		t.Fatal("finite vector reported non-finite")
	}
	if (Vector2{math.NaN(), 0}).IsFinite() {
		t.Fatal("NaN vector reported finite")
	}
	if (Vector2{0, math.Inf(1)}).IsFinite() {
		t.Fatal("Inf vector reported finite")
	}
}

func TestAngleConversions(t *testing.T) {
	if !floats.EqualWithinAbs(Deg2rad(180), math.Pi, 1e-12) {
		t.Fatalf("Deg2rad(180) got %f", Deg2rad(180))
	}
	if !floats.EqualWithinAbs(Rad2deg(math.Pi), 180, 1e-12) {
		t.Fatalf("Rad2deg(π) got %f", Rad2deg(math.Pi))
	}
	if !floats.EqualWithinAbs(Deg2rad(-90), 3*math.Pi/2, 1e-12) {
		t.Fatalf("Deg2rad(-90) got %f", Deg2rad(-90))
	}
	// Inputs past a full turn still land in [0, 2π) / [0, 360).
	if !floats.EqualWithinAbs(Deg2rad(-450), 3*math.Pi/2, 1e-12) {
		t.Fatalf("Deg2rad(-450) got %f", Deg2rad(-450))
	}
	if !floats.EqualWithinAbs(Deg2rad(725), 5*math.Pi/180, 1e-12) {
		t.Fatalf("Deg2rad(725) got %f", Deg2rad(725))
	}
	if !floats.EqualWithinAbs(Rad2deg(-5*math.Pi/2), 270, 1e-12) {
		t.Fatalf("Rad2deg(-5π/2) got %f", Rad2deg(-5*math.Pi/2))
	}
	for _, a := range []float64{-1000, -360, -0.5, 0, 719.9} {
		if got := Deg2rad(a); got < 0 || got >= 2*math.Pi {
			t.Fatalf("Deg2rad(%f) out of range: %f", a, got)
		}
	}
}

func TestNormalizeπ(t *testing.T) {
	cases := []struct{ in, exp float64 }{
		{0, 0},
		{math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{5 * math.Pi, math.Pi},
	}
	for _, c := range cases {
		if got := normalizeπ(c.in); !floats.EqualWithinAbs(got, c.exp, 1e-12) {
			t.Fatalf("normalizeπ(%f) got %f exp %f", c.in, got, c.exp)
		}
	}
}

func TestStateVectorArithmetic(t *testing.T) {
	a := StateVector{R: Vector2{1, 2}, V: Vector2{3, 4}}
	b := StateVector{R: Vector2{5, 6}, V: Vector2{7, 8}}
	sum := a.Add(b)
	if sum.R != (Vector2{6, 8}) || sum.V != (Vector2{10, 12}) {
		t.Fatalf("Add got %+v", sum)
	}
	if diff := sum.Sub(b); diff != a {
		t.Fatalf("Sub got %+v", diff)
	}
}
