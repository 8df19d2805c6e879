package transit

import (
	"math"
	"time"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

const (
	lambertIterMax = 200
	lambertTimeε   = 1e-4 // relative time-of-flight tolerance
	lambertAngleε  = (5e-5 / 180) * math.Pi
	stumpffε       = 1e-6

	ψLow, ψUp = -1e4, 4 * math.Pi * math.Pi
)

// LambertSolution holds the velocities solving the boundary problem, in m/s.
type LambertSolution struct {
	Vi, Vf Vector2
	ψ      float64 // converged universal variable
}

// SolveLambert solves the Lambert boundary problem in the plane: given two
// positions (meters), a transfer duration and the central μ (m³/s²), it
// returns the departure and arrival velocities. The transfer angle is taken
// signed from r1 to r2, mapped onto the opposite branch when longWay is set.
// It bisects the universal variable ψ with Stumpff coefficients c2, c3 until
// the computed time of flight matches the request (cf. Vallado's universal
// variable formulation).
//
// A nil return means the geometry is degenerate (collinear radii), the
// bisection wandered into a non-physical region (y<0, c2≤0, non-finite), or
// the iteration budget ran out. It never panics: callers should retry with
// the alternate branch before declaring the transfer infeasible.
func SolveLambert(r1, r2 Vector2, tof time.Duration, μ float64, longWay bool) *LambertSolution {
	Δt0 := tof.Seconds()
	if Δt0 <= 0 || μ <= 0 {
		return nil
	}
	rI := r1.Norm()
	rF := r2.Norm()
	if rI == 0 || rF == 0 {
		return nil
	}
	Δν := normalizeπ(math.Atan2(r1.Cross(r2), r1.Dot(r2)))
	sΔν, cΔν := math.Sincos(Δν)
	if math.Abs(Δν) < lambertAngleε || floats.EqualWithinAbs(cΔν, 1, 1e-14) {
		return nil // collinear radii, transfer plane undefined
	}
	A := sΔν * math.Sqrt(rI*rF/(1-cΔν))
	if longWay {
		// Same chord, opposite traversal: the branch lives in the sign of A.
		A = -A
	}
	if floats.EqualWithinAbs(A, 0, 1e-9) {
		return nil
	}

	Ri := mat64.NewVector(3, []float64{r1.X, r1.Y, 0})
	Rf := mat64.NewVector(3, []float64{r2.X, r2.Y, 0})

	ψ := 0.0
	ψlow, ψup := ψLow, ψUp
	var y float64
	for iter := 0; iter < lambertIterMax; iter++ {
		c2 := stumpffC(ψ)
		c3 := stumpffS(ψ)
		if c2 <= 0 {
			return nil
		}
		y = rI + rF + A*(ψ*c3-1)/math.Sqrt(c2)
		if y < 0 || math.IsNaN(y) || math.IsInf(y, 0) {
			return nil
		}
		χ := math.Sqrt(y / c2)
		Δt := (χ*χ*χ*c3 + A*math.Sqrt(y)) / math.Sqrt(μ)
		if math.Abs(Δt-Δt0) <= lambertTimeε*Δt0 {
			return lagrangeVelocities(Ri, Rf, rI, rF, y, A, μ, ψ)
		}
		if Δt < Δt0 {
			ψlow = ψ
		} else {
			ψup = ψ
		}
		ψ = (ψup + ψlow) / 2
	}
	return nil
}

// lagrangeVelocities derives Vi and Vf from the converged geometry via the
// Lagrange coefficients f, g and ġ.
func lagrangeVelocities(Ri, Rf *mat64.Vector, rI, rF, y, A, μ, ψ float64) *LambertSolution {
	f := 1 - y/rI
	gDot := 1 - y/rF
	g := A * math.Sqrt(y/μ)
	if g == 0 {
		return nil
	}
	Vi := mat64.NewVector(3, nil)
	Vf := mat64.NewVector(3, nil)
	Rf2 := mat64.NewVector(3, nil)
	Vi.AddScaledVec(Rf, -f, Ri)
	Vi.ScaleVec(1/g, Vi)
	Rf2.ScaleVec(gDot, Rf)
	Vf.AddScaledVec(Rf2, -1, Ri)
	Vf.ScaleVec(1/g, Vf)
	sol := &LambertSolution{
		Vi: Vector2{Vi.At(0, 0), Vi.At(1, 0)},
		Vf: Vector2{Vf.At(0, 0), Vf.At(1, 0)},
		ψ:  ψ,
	}
	if !sol.Vi.IsFinite() || !sol.Vf.IsFinite() {
		return nil
	}
	return sol
}

// stumpffC is the C(ψ) Stumpff coefficient: trigonometric on the elliptic
// branch, hyperbolic on the hyperbolic branch, Taylor-limited near zero.
func stumpffC(ψ float64) float64 {
	if ψ > stumpffε {
		return (1 - math.Cos(math.Sqrt(ψ))) / ψ
	}
	if ψ < -stumpffε {
		return (1 - math.Cosh(math.Sqrt(-ψ))) / ψ
	}
	return 1/2. - ψ/24
}

// stumpffS is the S(ψ) Stumpff coefficient.
func stumpffS(ψ float64) float64 {
	if ψ > stumpffε {
		sψ := math.Sqrt(ψ)
		return (sψ - math.Sin(sψ)) / (sψ * sψ * sψ)
	}
	if ψ < -stumpffε {
		sψ := math.Sqrt(-ψ)
		return (math.Sinh(sψ) - sψ) / (sψ * sψ * sψ)
	}
	return 1/6. - ψ/120
}

// Hohmann computes the transfer between two circular coplanar radii
// (meters). It returns the departure and arrival speeds on the transfer
// ellipse (m/s) and the time of flight.
func Hohmann(rI, rF, μ float64) (vDeparture, vArrival float64, tof time.Duration) {
	aTransfer := 0.5 * (rI + rF)
	vDeparture = math.Sqrt((2 * μ / rI) - (μ / aTransfer))
	vArrival = math.Sqrt((2 * μ / rF) - (μ / aTransfer))
	tof = time.Duration(math.Pi*math.Sqrt(aTransfer*aTransfer*aTransfer/μ)) * time.Second
	return
}

// conicPeriapsis returns the periapsis radius (meters) of the osculating
// conic through the given state (meters, m/s) about μ.
func conicPeriapsis(r, v Vector2, μ float64) float64 {
	rn := r.Norm()
	if rn == 0 {
		return 0
	}
	ξ := v.Dot(v)/2 - μ/rn
	h := r.Cross(v)
	// e² = 1 + 2ξh²/μ²
	e2 := 1 + 2*ξ*h*h/(μ*μ)
	if e2 < 0 {
		e2 = 0
	}
	e := math.Sqrt(e2)
	p := h * h / μ
	return p / (1 + e)
}
