package transit

import (
	"math"
	"time"

	"github.com/ChristopherRabotin/ode"
)

/* Fixed-step RK4 ballistic propagation for path sampling. */

// ballistic integrates a point mass under the inverse-square gravity of a
// single attractor, recording every step. State layout: x, y, vx, vy in
// meters and m/s.
type ballistic struct {
	μ     float64
	state []float64
	steps int
	taken int
	path  []Vector2 // meters
}

// GetState implements ode.Integrable.
func (b *ballistic) GetState() []float64 {
	return b.state
}

// SetState implements ode.Integrable.
func (b *ballistic) SetState(t float64, s []float64) {
	copy(b.state, s)
	b.taken++
	b.path = append(b.path, Vector2{s[0], s[1]})
}

// Stop implements ode.Integrable.
func (b *ballistic) Stop(t float64) bool {
	return b.taken >= b.steps
}

// Func implements ode.Integrable: a = -μ·r/|r|³.
func (b *ballistic) Func(t float64, f []float64) (fDot []float64) {
	r := math.Hypot(f[0], f[1])
	var acc float64
	if r > 0 {
		acc = -b.μ / (r * r * r)
	}
	return []float64{f[2], f[3], acc * f[0], acc * f[1]}
}

// PropagateBallistic integrates a state (AU, AU/s) under μ (m³/s²) for the
// given duration, returning n+1 sampled positions in AU and the final state.
//
// When targetEnd is non-nil, the accumulated endpoint error is redistributed
// across the samples proportionally to elapsed fraction, pinning the drawn
// path to the true (moving-body) end position. That is a rendering
// smoothing, not a multi-body correction: the returned end state is the
// uncorrected two-body result.
func PropagateBallistic(sv StateVector, μ float64, duration time.Duration, n int, targetEnd *Vector2) ([]Vector2, StateVector) {
	if n < 1 {
		n = 1
	}
	step := duration.Seconds() / float64(n)
	b := &ballistic{
		μ:     μ,
		steps: n,
		state: []float64{sv.R.X * AU, sv.R.Y * AU, sv.V.X * AU, sv.V.Y * AU},
	}
	b.path = append(b.path, Vector2{b.state[0], b.state[1]})
	if step > 0 {
		ode.NewRK4(0, step, b).Solve() // fixed-step, cannot fail mid-flight
	}
	pts := make([]Vector2, len(b.path))
	for i, p := range b.path {
		pts[i] = p.Scale(1 / AU)
	}
	end := StateVector{
		R: Vector2{b.state[0] / AU, b.state[1] / AU},
		V: Vector2{b.state[2] / AU, b.state[3] / AU},
	}
	if targetEnd != nil && len(pts) > 1 {
		last := len(pts) - 1
		drift := targetEnd.Sub(pts[last])
		for i := 1; i <= last; i++ {
			pts[i] = pts[i].Add(drift.Scale(float64(i) / float64(last)))
		}
	}
	return pts, end
}

// lerpPath samples a powered (kinematic) trajectory between two positions
// (AU), with the fraction of distance covered by time fraction τ supplied by
// profile. Used for burn segments whose curvature gravity does not dominate.
func lerpPath(from, to Vector2, n int, profile func(τ float64) float64) []Vector2 {
	if n < 1 {
		n = 1
	}
	pts := make([]Vector2, n+1)
	Δ := to.Sub(from)
	for i := 0; i <= n; i++ {
		τ := float64(i) / float64(n)
		f := τ
		if profile != nil {
			f = profile(τ)
		}
		pts[i] = from.Add(Δ.Scale(f))
	}
	return pts
}

// bezierArc samples a quadratic Bezier arc through a control point, used to
// smooth the close-approach leg of a flyby.
func bezierArc(from, control, to Vector2, n int) []Vector2 {
	if n < 2 {
		n = 2
	}
	pts := make([]Vector2, n+1)
	for i := 0; i <= n; i++ {
		τ := float64(i) / float64(n)
		u := 1 - τ
		pts[i] = from.Scale(u * u).Add(control.Scale(2 * u * τ)).Add(to.Scale(τ * τ))
	}
	return pts
}
