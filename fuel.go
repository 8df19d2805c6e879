package transit

import "math"

// flatFuelRate is the fallback accounting used when no ship mass and Isp are
// configured: a flat 1% of Δv (m/s) booked as kilograms of propellant. It
// keeps plan cards comparable without pretending to model a vehicle.
const flatFuelRate = 0.01

// FuelMass returns the propellant consumed by a burn of Δv (m/s) from the
// given wet mass (kg) at the given specific impulse (s), per Tsiolkovsky:
// fuel = m·(1 - exp(-Δv/(Isp·g0))).
func FuelMass(wetMass, Δv, isp float64) float64 {
	if wetMass <= 0 || isp <= 0 || Δv <= 0 {
		return 0
	}
	return wetMass * (1 - math.Exp(-Δv/(isp*g0)))
}

// DeltaV inverts FuelMass: the Δv (m/s) produced by burning fuelMass off
// wetMass at the given Isp.
func DeltaV(wetMass, fuelMass, isp float64) float64 {
	if wetMass <= 0 || isp <= 0 || fuelMass <= 0 || fuelMass >= wetMass {
		return 0
	}
	return isp * g0 * math.Log(wetMass/(wetMass-fuelMass))
}

// fuelLedger books sequential burns so that later burns see the reduced wet
// mass. A zero-mass ledger falls back to the flat heuristic.
type fuelLedger struct {
	mass float64 // current wet mass, kg; 0 means heuristic accounting
	isp  float64 // s
	used float64 // kg
}

func newFuelLedger(shipMass, isp float64) *fuelLedger {
	if shipMass <= 0 || isp <= 0 {
		return &fuelLedger{}
	}
	return &fuelLedger{mass: shipMass, isp: isp}
}

// physical reports whether this ledger runs the rocket equation rather than
// the flat heuristic.
func (l *fuelLedger) physical() bool {
	return l.mass > 0
}

// burn books a burn of Δv (m/s) and returns its propellant cost in kg.
func (l *fuelLedger) burn(Δv float64) float64 {
	if Δv <= 0 {
		return 0
	}
	if !l.physical() {
		f := Δv * flatFuelRate
		l.used += f
		return f
	}
	f := FuelMass(l.mass, Δv, l.isp)
	l.mass -= f
	l.used += f
	return f
}

// brakeMassFactor returns the ratio of braking to peak acceleration implied
// by the propellant spent on a prior burn of accelΔv: the vehicle is lighter
// by exp(-Δv/(Isp·g0)), so the same thrust brakes harder by its inverse.
// Returns 1 under the heuristic. This single model is used by both the
// kinematic and the Lambert-based solvers.
func brakeMassFactor(shipMass, isp, accelΔv float64) float64 {
	if shipMass <= 0 || isp <= 0 || accelΔv <= 0 {
		return 1
	}
	return math.Exp(accelΔv / (isp * g0))
}
