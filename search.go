package transit

import (
	"fmt"
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

const (
	sundiverPeriapsisAU = 0.05
	hohmannWindowRel    = 0.15
	directBurnIterMax   = 10
	arrivalSpeedε       = 1e-3 // m/s under which an arrival counts as matched
)

// Planner computes transit plans against a system graph. It is stateless
// apart from configuration: concurrent Plan calls on the same Planner are
// safe, and the profile variants of one request are independent of each
// other.
type Planner struct {
	sys    *System
	cfg    _transitconfig
	logger kitlog.Logger
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithPlannerLogger sets the planner's logger.
func WithPlannerLogger(l kitlog.Logger) PlannerOption {
	return func(p *Planner) { p.logger = l }
}

// NewPlanner returns a Planner over the given system.
func NewPlanner(sys *System, opts ...PlannerOption) *Planner {
	p := &Planner{sys: sys, cfg: transitConfig(), logger: kitlog.NewNopLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// request carries the resolved context of one planning call: the transfer
// frame host and the gravitational parameter everything is solved against.
type request struct {
	origin, target, host *Node
	start                time.Time
	mode                 Mode
	μ                    float64 // m³/s², transfer frame
	tHohmann             time.Duration
}

// candidate is one feasible (duration, Lambert solution) pair.
type candidate struct {
	depart   time.Time // actual departure (launch-date scan may delay it)
	tof      time.Duration
	dep, arr StateVector // context frame, AU and AU/s
	sol      *LambertSolution
	ΔvDep    float64 // m/s
	ΔvArr    float64 // m/s, propulsive
	aeroShed float64 // m/s shed by the atmosphere instead of the engine
	residual float64 // m/s relative speed left after arrival ops
	tags     []string
}

// Plan computes the flight-profile variants for a transfer. Variants that
// are geometrically or physically infeasible are simply absent from the
// result; an error is only returned for caller contract violations (unknown
// nodes, disjoint parent chains).
func (p *Planner) Plan(originID, targetID string, start time.Time, mode Mode) ([]*TransitPlan, error) {
	origin, ok := p.sys.Node(originID)
	if !ok {
		return nil, fmt.Errorf("unknown origin %q", originID)
	}
	target, ok := p.sys.Node(targetID)
	if !ok {
		return nil, fmt.Errorf("unknown target %q", targetID)
	}
	if originID == targetID {
		return nil, fmt.Errorf("origin and target are both %q", originID)
	}
	host := p.sys.commonHost(origin, target)
	if host == nil {
		return nil, fmt.Errorf("no common frame for %q and %q", originID, targetID)
	}
	if mode.MaxG <= 0 {
		mode.MaxG = 1
	}
	req, err := p.newRequest(origin, target, host, start, mode)
	if err != nil {
		return nil, err
	}

	plans := make([]*TransitPlan, 0, 4)
	if pl := p.searchEfficient(req); pl != nil {
		plans = append(plans, pl)
	}
	if pl := p.searchBalanced(req); pl != nil {
		plans = append(plans, pl)
	}
	if pl := p.directBurn(req); pl != nil {
		plans = append(plans, pl)
	}
	if pl := p.searchAssist(req); pl != nil {
		plans = append(plans, pl)
	}
	for _, pl := range plans {
		p.flagImpractical(pl, req)
	}
	p.logger.Log("level", "info", "subsys", "search", "origin", originID, "target", targetID, "plans", len(plans))
	return plans, nil
}

func (p *Planner) newRequest(origin, target, host *Node, start time.Time, mode Mode) (*request, error) {
	req := &request{origin: origin, target: target, host: host, start: start, mode: mode, μ: p.contextMu(host)}
	if req.μ <= 0 {
		return nil, fmt.Errorf("transfer host %q has no mass", host.ID)
	}
	dep, err := req.departureState(p.sys, start)
	if err != nil {
		return nil, err
	}
	arr, err := p.sys.LocalState(target.ID, host.ID, start)
	if err != nil {
		return nil, err
	}
	r1 := dep.R.Norm() * AU
	r2 := arr.R.Norm() * AU
	if r1 == 0 || r2 == 0 {
		return nil, fmt.Errorf("degenerate transfer geometry between %q and %q", origin.ID, target.ID)
	}
	sum := r1 + r2
	req.tHohmann = time.Duration(math.Pi*math.Sqrt(sum*sum*sum/(8*req.μ))) * time.Second
	return req, nil
}

// contextMu returns the gravitational parameter of the transfer frame. A
// massless barycenter is stood in for by its direct children, which is the
// patched-conic view of a binary pair.
func (p *Planner) contextMu(host *Node) float64 {
	if host.Mass > 0 {
		return host.GM()
	}
	var m float64
	for _, n := range p.sys.Nodes() {
		if n.ParentID == host.ID {
			m += n.Mass
		}
	}
	return G * m
}

// departureState returns the origin state in the context frame at dt,
// honoring an InitialState override (which is given globally).
func (r *request) departureState(s *System, dt time.Time) (StateVector, error) {
	if r.mode.InitialState != nil {
		hostSV, err := s.GlobalState(r.host.ID, dt)
		if err != nil {
			return StateVector{}, err
		}
		return r.mode.InitialState.Sub(hostSV), nil
	}
	return s.LocalState(r.origin.ID, r.host.ID, dt)
}

/* Lambert-based profile variants. */

func (p *Planner) searchEfficient(req *request) *TransitPlan {
	const ratio = 0.05
	best := p.bisectWindow(req, req.start, ratio, ratio, 0.8, 1.5)
	if p.cfg.ScanDepartures {
		for d := p.cfg.ScanStepDays; d <= p.cfg.ScanMaxDays; d += p.cfg.ScanStepDays {
			depart := req.start.Add(time.Duration(d*24) * time.Hour)
			c := p.bisectWindow(req, depart, ratio, ratio, 0.8, 1.5)
			if c != nil && (best == nil || c.ΔvDep+c.ΔvArr < best.ΔvDep+best.ΔvArr) {
				best = c
			}
		}
	}
	if best == nil {
		return nil
	}
	return p.assemblePlan(req, best, PlanEfficient, ratio, ratio)
}

func (p *Planner) searchBalanced(req *request) *TransitPlan {
	ar, br := req.mode.ratios()
	best := p.bisectWindow(req, req.start, ar, br, 0.5, 1.2)
	if best == nil {
		return nil
	}
	return p.assemblePlan(req, best, PlanBalanced, ar, br)
}

// bisectWindow bisects the flight duration inside [lo,hi]×tHohmann for the
// shortest feasible time. Feasibility is not strictly monotonic in t (the
// Lambert geometry can pinch), but the bisection is iteration-capped and
// keeps the last feasible candidate, so it terminates with the best seen.
func (p *Planner) bisectWindow(req *request, depart time.Time, ar, br, lo, hi float64) *candidate {
	loT := time.Duration(lo * float64(req.tHohmann))
	hiT := time.Duration(hi * float64(req.tHohmann))
	best := p.evaluate(req, depart, hiT, ar, br)
	if best == nil {
		return nil
	}
	low, high := loT, hiT
	for i := 0; i < p.cfg.BisectIters; i++ {
		mid := low + (high-low)/2
		if c := p.evaluate(req, depart, mid, ar, br); c != nil {
			best = c
			high = mid
		} else {
			low = mid
		}
		if high-low < time.Minute {
			break
		}
	}
	return best
}

// evaluate solves the boundary problem for one candidate duration and
// applies the shared feasibility test: both burns must fit in the flight
// time, and the departure Δv must fit in the acceleration budget.
func (p *Planner) evaluate(req *request, depart time.Time, tof time.Duration, ar, br float64) *candidate {
	if tof <= 0 {
		return nil
	}
	dep, err := req.departureState(p.sys, depart)
	if err != nil {
		return nil
	}
	arr, err := p.sys.LocalState(req.target.ID, req.host.ID, depart.Add(tof))
	if err != nil {
		return nil
	}
	r1 := dep.R.Scale(AU)
	r2 := arr.R.Scale(AU)
	sol := SolveLambert(r1, r2, tof, req.μ, false)
	if sol == nil {
		sol = SolveLambert(r1, r2, tof, req.μ, true)
	}
	if sol == nil {
		return nil
	}
	c := &candidate{depart: depart, tof: tof, dep: dep, arr: arr, sol: sol}
	c.ΔvDep = sol.Vi.Sub(dep.V.Scale(AU)).Norm()
	vRel := sol.Vf.Sub(arr.V.Scale(AU)).Norm()
	c.residual = vRel
	p.arrivalBurn(req, c, vRel)

	aMax := req.mode.maxAccel()
	mbf := brakeMassFactor(req.mode.ShipMass, req.mode.ShipIsp, c.ΔvDep)
	accelTime := c.ΔvDep / aMax
	brakeTime := c.ΔvArr / (aMax * mbf)
	if accelTime+brakeTime > tof.Seconds() {
		return nil
	}
	if c.ΔvDep > aMax*tof.Seconds()*ar {
		return nil
	}
	return c
}

// arrivalBurn fills in the arrival Δv of a candidate: either an Oberth
// capture onto a parking orbit, possibly shaved by the atmosphere, or a
// plain brake to the requested intercept speed.
func (p *Planner) arrivalBurn(req *request, c *candidate, vRel float64) {
	mode := req.mode
	if mode.ParkingOrbitRadius > 0 && req.target.Mass > 0 {
		μt := req.target.GM()
		rp := mode.ParkingOrbitRadius * AU
		vP := math.Sqrt(vRel*vRel + 2*μt/rp)
		vCirc := math.Sqrt(μt / rp)
		burn := math.Abs(vP - vCirc)
		if mode.Aerobrake != nil && mode.Aerobrake.Allowed {
			limit := mode.Aerobrake.Limit * 1000
			if vP <= limit {
				c.aeroShed = burn
				burn = 0
				c.tags = append(c.tags, TagAerocapture)
			} else if shaved := vP - limit; shaved < burn {
				c.aeroShed = burn - shaved
				burn = shaved
				c.tags = append(c.tags, TagPartialAero)
			}
		}
		c.ΔvArr = burn
		c.residual = 0 // captured
		return
	}
	if mode.BrakeAtArrival {
		c.ΔvArr = math.Max(0, vRel-mode.InterceptSpeed)
		c.residual = vRel - c.ΔvArr
	}
}

// assemblePlan renders a candidate into a three-segment plan with sampled
// path points and fuel accounting.
func (p *Planner) assemblePlan(req *request, c *candidate, variant PlanType, ar, br float64) *TransitPlan {
	aMax := req.mode.maxAccel()
	mbf := brakeMassFactor(req.mode.ShipMass, req.mode.ShipIsp, c.ΔvDep)
	ledger := newFuelLedger(req.mode.ShipMass, req.mode.ShipIsp)
	fuelDep := ledger.burn(c.ΔvDep)
	fuelArr := ledger.burn(c.ΔvArr)

	accelDur := time.Duration(c.ΔvDep / aMax * float64(time.Second))
	brakeDur := time.Duration(c.ΔvArr / (aMax * mbf) * float64(time.Second))
	if accelDur+brakeDur > c.tof {
		brakeDur = c.tof - accelDur
	}

	// Sample the transfer conic from the post-burn state, pinned to the
	// target's true position at arrival.
	post := StateVector{R: c.dep.R, V: c.sol.Vi.Scale(1 / AU)}
	endPos := c.arr.R
	path, _ := PropagateBallistic(post, req.μ, c.tof, p.cfg.PathSamples, &endPos)

	plan := &TransitPlan{
		OriginID:         req.origin.ID,
		TargetID:         req.target.ID,
		Start:            c.depart,
		TotalΔv:          c.ΔvDep + c.ΔvArr,
		TotalTime:        c.tof,
		TotalFuel:        ledger.used,
		ArrivalVelocity:  c.residual,
		Type:             variant,
		Tags:             append([]string(nil), c.tags...),
		ArrivalPlacement: req.mode.ArrivalPlacement,
	}
	var warns []string
	if c.residual > arrivalSpeedε && req.mode.ArrivalPlacement == "" {
		warns = []string{WarnFlyby}
	}
	plan.Segments = p.splitSegments(req, c, path, accelDur, brakeDur, fuelDep, fuelArr, warns)

	if req.host.Kind == KindStar && conicPeriapsis(c.dep.R.Scale(AU), c.sol.Vi, req.μ) < sundiverPeriapsisAU*AU {
		plan.Tags = append(plan.Tags, TagSundiver)
	}
	if math.Abs(float64(c.tof-req.tHohmann)) <= hohmannWindowRel*float64(req.tHohmann) {
		plan.Tags = append(plan.Tags, TagHohmannOptimal)
	}
	if variant == PlanSpeed && !ledger.physical() {
		plan.Tags = append(plan.Tags, TagKinematic)
	}
	return plan
}

// splitSegments distributes a sampled path over accel/coast/brake segments
// proportionally to their durations. Boundary samples are shared so every
// non-zero segment keeps at least two points.
func (p *Planner) splitSegments(req *request, c *candidate, path []Vector2, accelDur, brakeDur time.Duration, fuelDep, fuelArr float64, brakeWarns []string) []TransitSegment {
	coastDur := c.tof - accelDur - brakeDur
	if coastDur < 0 {
		coastDur = 0
	}
	last := len(path) - 1
	iA := int(math.Round(float64(last) * accelDur.Seconds() / c.tof.Seconds()))
	iB := int(math.Round(float64(last) * (accelDur + coastDur).Seconds() / c.tof.Seconds()))
	if iA < 1 && accelDur > 0 {
		iA = 1
	}
	if iB <= iA {
		iB = iA + 1
	}
	if iB > last {
		iB = last
	}
	if iA > iB-1 {
		iA = iB - 1
	}

	sampleDt := c.tof.Seconds() / float64(last)
	state := func(i int) StateVector {
		return StateVector{R: path[i], V: pathVelocity(path, i, sampleDt)}
	}
	t0 := c.depart
	t1 := t0.Add(accelDur)
	t2 := t1.Add(coastDur)
	t3 := t0.Add(c.tof)

	segs := []TransitSegment{
		{
			Type: SegmentAccel, Start: t0, End: t1, HostID: req.host.ID,
			StartState: c.dep, EndState: state(iA),
			Path: append([]Vector2(nil), path[:iA+1]...), FuelUsed: fuelDep,
		},
		{
			Type: SegmentCoast, Start: t1, End: t2, HostID: req.host.ID,
			StartState: state(iA), EndState: state(iB),
			Path: append([]Vector2(nil), path[iA:iB+1]...),
		},
		{
			Type: SegmentBrake, Start: t2, End: t3, HostID: req.host.ID,
			StartState: state(iB), EndState: StateVector{R: path[last], V: c.arr.V},
			Path: append([]Vector2(nil), path[iB:]...), FuelUsed: fuelArr,
			Warnings: brakeWarns,
		},
	}
	return segs
}

// pathVelocity estimates the velocity (AU/s) at sample i by finite
// difference of the adjacent samples.
func pathVelocity(path []Vector2, i int, sampleDt float64) Vector2 {
	if len(path) < 2 || sampleDt <= 0 {
		return Vector2{}
	}
	lo, hi := i-1, i+1
	if lo < 0 {
		lo = 0
	}
	if hi > len(path)-1 {
		hi = len(path) - 1
	}
	return path[hi].Sub(path[lo]).Scale(1 / (float64(hi-lo) * sampleDt))
}

/* Direct-burn kinematic profile. */

// directBurn solves the flight time from D = a·K·t² with
// K = ar - ar²/2 - mbf·br²/2, iterated against the target's moving
// position. The brake-mass factor corrects braking for the propellant spent
// accelerating, the same model the Lambert variants use.
func (p *Planner) directBurn(req *request) *TransitPlan {
	ar, br := req.mode.ratios()
	aMax := req.mode.maxAccel()
	dep, err := req.departureState(p.sys, req.start)
	if err != nil {
		return nil
	}

	mbf := 1.0
	var tof time.Duration
	arr, err := p.sys.LocalState(req.target.ID, req.host.ID, req.start)
	if err != nil {
		return nil
	}
	D := arr.R.Sub(dep.R).Norm() * AU
	for i := 0; i < directBurnIterMax; i++ {
		K := ar - 0.5*ar*ar - 0.5*mbf*br*br
		if K <= 0 || D <= 0 {
			return nil
		}
		t := math.Sqrt(D / (aMax * K))
		tof = time.Duration(t * float64(time.Second))
		mbf = brakeMassFactor(req.mode.ShipMass, req.mode.ShipIsp, aMax*ar*t)
		next, err := p.sys.LocalState(req.target.ID, req.host.ID, req.start.Add(tof))
		if err != nil {
			return nil
		}
		arr = next
		D = arr.R.Sub(dep.R).Norm() * AU
	}
	if tof <= 0 {
		return nil
	}

	t := tof.Seconds()
	ΔvAcc := aMax * ar * t
	ΔvBrake := aMax * mbf * br * t
	vPeak := ΔvAcc
	if ΔvBrake > vPeak {
		ΔvBrake = vPeak
	}
	residual := vPeak - ΔvBrake

	ledger := newFuelLedger(req.mode.ShipMass, req.mode.ShipIsp)
	fuelDep := ledger.burn(ΔvAcc)
	fuelArr := ledger.burn(ΔvBrake)

	path := lerpPath(dep.R, arr.R, p.cfg.PathSamples, directProfile(ar, br, mbf))
	c := &candidate{
		depart: req.start, tof: tof, dep: dep, arr: arr,
		sol:      &LambertSolution{Vi: arr.R.Sub(dep.R).Unit().Scale(vPeak)},
		ΔvDep:    ΔvAcc, ΔvArr: ΔvBrake, residual: residual,
	}
	accelDur := time.Duration(ar * t * float64(time.Second))
	brakeDur := time.Duration(br * t * float64(time.Second))
	var warns []string
	if residual > arrivalSpeedε && req.mode.ArrivalPlacement == "" {
		warns = []string{WarnFlyby}
	}
	plan := &TransitPlan{
		OriginID:         req.origin.ID,
		TargetID:         req.target.ID,
		Start:            req.start,
		TotalΔv:          ΔvAcc + ΔvBrake,
		TotalTime:        tof,
		TotalFuel:        ledger.used,
		ArrivalVelocity:  residual,
		Type:             PlanSpeed,
		ArrivalPlacement: req.mode.ArrivalPlacement,
	}
	plan.Segments = p.splitSegments(req, c, path, accelDur, brakeDur, fuelDep, fuelArr, warns)
	if !ledger.physical() {
		plan.Tags = append(plan.Tags, TagKinematic)
	}
	return plan
}

// directProfile returns the fraction of straight-line distance covered at
// time fraction τ under the accelerate/coast/brake kinematics.
func directProfile(ar, br, mbf float64) func(τ float64) float64 {
	K := ar - 0.5*ar*ar - 0.5*mbf*br*br
	dist := func(τ float64) float64 {
		switch {
		case τ <= ar:
			return 0.5 * τ * τ
		case τ <= 1-br:
			return 0.5*ar*ar + ar*(τ-ar)
		default:
			τb := τ - (1 - br)
			return 0.5*ar*ar + ar*(1-br-ar) + ar*τb - 0.5*mbf*τb*τb
		}
	}
	return func(τ float64) float64 {
		if K <= 0 {
			return τ
		}
		f := dist(τ) / K
		if f < 0 {
			return 0
		}
		if f > 1 {
			return 1
		}
		return f
	}
}

// flagImpractical marks plans the UI should fold away without erroring:
// extreme Δv, or durations far past the Hohmann baseline.
func (p *Planner) flagImpractical(pl *TransitPlan, req *request) {
	if pl.TotalΔv > p.cfg.HiddenΔv {
		pl.HiddenReason = fmt.Sprintf("requires %.0f km/s", pl.TotalΔv/1000)
		return
	}
	if limit := time.Duration(p.cfg.HiddenTimeFactor * float64(req.tHohmann)); pl.TotalTime > limit {
		pl.HiddenReason = fmt.Sprintf("takes %.0f× the baseline transfer", float64(pl.TotalTime)/float64(req.tHohmann))
	}
}
