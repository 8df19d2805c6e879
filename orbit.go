package transit

import (
	"fmt"
	"math"
	"time"
)

const (
	keplerIterMax = 10
	keplerε       = 1e-7
)

// Orbit defines a Keplerian orbit around a host node. The model is coplanar:
// I and Ω are carried through from the generator but do not enter the state
// computation, and only ω rotates the perifocal frame.
type Orbit struct {
	HostID string
	A      float64 // semi-major axis, AU; must be > 0 for a bound orbit
	E      float64 // eccentricity, [0,1) on the elliptical branch
	I      float64 // inclination, degrees (unused in the 2D model)
	Ω      float64 // longitude of ascending node, degrees (unused)
	ω      float64 // argument of periapsis, degrees
	M0     float64 // mean anomaly at Epoch, radians
	Epoch  time.Time

	HostMu     float64 // G·(host mass), m³/s²
	MeanMotion float64 // rad/s; zero means derive from HostMu and A
	Retrograde bool
}

// NewOrbit returns an orbit from its elements. Angles in degrees except M0.
func NewOrbit(hostID string, a, e, i, Ω, ω, m0 float64, epoch time.Time, hostMu float64) *Orbit {
	return &Orbit{HostID: hostID, A: a, E: e, I: i, Ω: Ω, ω: ω, M0: m0, Epoch: epoch, HostMu: hostMu}
}

// SetArgPeriapsis sets ω in degrees.
func (o *Orbit) SetArgPeriapsis(deg float64) { o.ω = deg }

// ArgPeriapsis returns ω in degrees.
func (o Orbit) ArgPeriapsis() float64 { return o.ω }

// n returns the mean motion in rad/s, negative on the retrograde branch.
func (o Orbit) n() float64 {
	n := o.MeanMotion
	if n == 0 {
		aM := o.A * AU
		n = math.Sqrt(o.HostMu / (aM * aM * aM))
	}
	if o.Retrograde {
		n = -n
	}
	return n
}

// Period returns the period of this orbit.
func (o Orbit) Period() time.Duration {
	// The time package does not trivially handle fractions of a second, so
	// build the duration from a formatted string.
	seconds := 2 * math.Pi / math.Abs(o.n())
	duration, _ := time.ParseDuration(fmt.Sprintf("%.6fs", seconds))
	return duration
}

// Periapsis returns the periapsis distance in AU.
func (o Orbit) Periapsis() float64 {
	return o.A * (1 - o.E)
}

// Apoapsis returns the apoapsis distance in AU.
func (o Orbit) Apoapsis() float64 {
	return o.A * (1 + o.E)
}

// MeanAnomalyAt returns the mean anomaly at the given time in radians.
func (o Orbit) MeanAnomalyAt(dt time.Time) float64 {
	return o.M0 + o.n()*dt.Sub(o.Epoch).Seconds()
}

// StateAt propagates the orbit to the given time and returns the state in
// the host frame (AU, AU/s). A zero HostMu or semi-major axis yields the
// zero state, which covers the root and massless bookkeeping nodes. The
// Kepler solve is iteration-bounded, so callers must tolerate residual
// error at extreme eccentricities.
func (o Orbit) StateAt(dt time.Time) StateVector {
	if o.HostMu == 0 || o.A == 0 {
		return StateVector{}
	}
	M := o.MeanAnomalyAt(dt)
	E := solveKepler(M, o.E)
	// True anomaly via the half-angle form (no quadrant problem).
	sE2, cE2 := math.Sincos(E / 2)
	ν := 2 * math.Atan2(math.Sqrt(1+o.E)*sE2, math.Sqrt(1-o.E)*cE2)

	aM := o.A * AU
	p := aM * (1 - o.E*o.E)
	sν, cν := math.Sincos(ν)
	r := p / (1 + o.E*cν)
	vμp := math.Sqrt(o.HostMu / p)

	// Perifocal position and velocity, rotated by ω only.
	sω, cω := math.Sincos(Deg2rad(o.ω))
	pos := Vector2{r * cν, r * sν}
	vel := Vector2{-vμp * sν, vμp * (o.E + cν)}
	if o.Retrograde {
		// Motion traverses the ellipse backwards; the tangent flips.
		vel = vel.Scale(-1)
	}
	pos = Vector2{pos.X*cω - pos.Y*sω, pos.X*sω + pos.Y*cω}
	vel = Vector2{vel.X*cω - vel.Y*sω, vel.X*sω + vel.Y*cω}
	return StateVector{R: pos.Scale(1 / AU), V: vel.Scale(1 / AU)}
}

func (o Orbit) String() string {
	return fmt.Sprintf("a=%.4fAU e=%.4f ω=%.3f M0=%.3f host=%s", o.A, o.E, o.ω, o.M0, o.HostID)
}

// solveKepler solves E - e·sin(E) = M by Newton-Raphson seeded at E=M.
// Iterations are capped; the cap guarantees termination, not convergence.
func solveKepler(M, e float64) float64 {
	E := M
	for i := 0; i < keplerIterMax; i++ {
		denom := 1 - e*math.Cos(E)
		if denom == 0 {
			break
		}
		ΔE := (E - e*math.Sin(E) - M) / denom
		E -= ΔE
		if math.Abs(ΔE) < keplerε {
			break
		}
	}
	return E
}
