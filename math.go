package transit

import (
	"math"

	"github.com/gonum/floats"
)

const (
	// AU is one astronomical unit in meters.
	AU = 1.495978707e11
	// G is the universal gravitational constant in m³/(kg·s²).
	G = 6.67430e-11
	// g0 is standard gravity in m/s², used by the rocket equation.
	g0 = 9.80665

	deg2rad = math.Pi / 180
)

// Vector2 is a coordinate pair in the system plane. Positions are in AU and
// velocities in AU/s unless a function documents otherwise.
type Vector2 struct {
	X, Y float64
}

// Add returns v + w.
func (v Vector2) Add(w Vector2) Vector2 {
	return Vector2{v.X + w.X, v.Y + w.Y}
}

// Sub returns v - w.
func (v Vector2) Sub(w Vector2) Vector2 {
	return Vector2{v.X - w.X, v.Y - w.Y}
}

// Scale returns s·v.
func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{s * v.X, s * v.Y}
}

// Norm returns the Euclidean norm of v.
func (v Vector2) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

// Dot performs the inner product.
func (v Vector2) Dot(w Vector2) float64 {
	return v.X*w.X + v.Y*w.Y
}

// Cross returns the out-of-plane component of v × w.
func (v Vector2) Cross(w Vector2) float64 {
	return v.X*w.Y - v.Y*w.X
}

// Unit returns the unit vector of v, or the nil vector when v is degenerate.
func (v Vector2) Unit() Vector2 {
	n := v.Norm()
	if floats.EqualWithinAbs(n, 0, 1e-12) {
		return Vector2{}
	}
	return v.Scale(1 / n)
}

// IsFinite returns whether both components are finite.
func (v Vector2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// StateVector couples a position (AU) and a velocity (AU/s) in one frame at
// one instant.
type StateVector struct {
	R, V Vector2
}

// Add returns the component-wise sum of both states.
func (s StateVector) Add(o StateVector) StateVector {
	return StateVector{s.R.Add(o.R), s.V.Add(o.V)}
}

// Sub returns the component-wise difference of both states.
func (s StateVector) Sub(o StateVector) StateVector {
	return StateVector{s.R.Sub(o.R), s.V.Sub(o.V)}
}

// Deg2rad converts degrees to radians, and enforces only positive numbers.
func Deg2rad(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a * deg2rad
}

// Rad2deg converts radians to degrees, and enforces only positive numbers.
func Rad2deg(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a / deg2rad
}

// normalizeπ wraps an angle to (-π, π].
func normalizeπ(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// sign returns the sign of a given number.
func sign(v float64) float64 {
	if floats.EqualWithinAbs(v, 0, 1e-12) {
		return 1
	}
	return v / math.Abs(v)
}
