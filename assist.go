package transit

import (
	"math"
	"sort"
	"time"
)

/* Patched-conic gravity-assist search. */

// assistCandidate is a flyby body under consideration, scored before the
// expensive leg search runs.
type assistCandidate struct {
	node  *Node
	score float64
}

// flyby is an accepted two-leg solution through a candidate body.
type flyby struct {
	body     *Node
	t1, t2   time.Duration
	leg1     *LambertSolution
	leg2     *LambertSolution
	dep, mid StateVector // context frame at departure / flyby
	arr      StateVector // context frame at final arrival
	vInfIn   Vector2     // m/s, relative to the flyby body
	vInfOut  Vector2
	rP       float64 // required periapsis radius, m
	ΔvDep    float64
	ΔvAssist float64
	ΔvArr    float64
}

func (f *flyby) total() float64 {
	return f.ΔvDep + f.ΔvAssist + f.ΔvArr
}

// searchAssist looks for a two-leg flyby through a massive body sharing the
// transfer context. Candidates are scored by log10(mass), penalized when
// their orbit lies outside the radial band of the transfer, and only the
// top few are searched.
func (p *Planner) searchAssist(req *request) *TransitPlan {
	candidates := p.assistCandidates(req)
	if len(candidates) == 0 {
		return nil
	}
	var best *flyby
	for _, cand := range candidates {
		if fb := p.searchFlyby(req, cand.node); fb != nil && (best == nil || fb.total() < best.total()) {
			best = fb
		}
	}
	if best == nil {
		return nil
	}
	return p.assembleAssistPlan(req, best)
}

func (p *Planner) assistCandidates(req *request) []assistCandidate {
	oCtx := p.sys.contextChild(req.origin, req.host)
	tCtx := p.sys.contextChild(req.target, req.host)
	var aLo, aHi float64
	if oCtx != nil && oCtx.Orbit != nil && tCtx != nil && tCtx.Orbit != nil {
		aLo = math.Min(oCtx.Orbit.A, tCtx.Orbit.A)
		aHi = math.Max(oCtx.Orbit.A, tCtx.Orbit.A)
	}
	var out []assistCandidate
	for _, n := range p.sys.Nodes() {
		if n.ParentID != req.host.ID || n.Mass < p.cfg.AssistMinMass {
			continue
		}
		if oCtx != nil && n.ID == oCtx.ID || tCtx != nil && n.ID == tCtx.ID {
			continue
		}
		score := math.Log10(n.Mass)
		if n.Orbit != nil && aHi > 0 {
			if n.Orbit.A < 0.5*aLo || n.Orbit.A > 1.5*aHi {
				score -= 2
			}
		}
		out = append(out, assistCandidate{node: n, score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })
	if len(out) > p.cfg.AssistCandidates {
		out = out[:p.cfg.AssistCandidates]
	}
	return out
}

// searchFlyby runs the coarse nested grid over both leg durations around
// their Hohmann estimates and keeps the cheapest energetically consistent
// geometry.
func (p *Planner) searchFlyby(req *request, body *Node) *flyby {
	dep, err := req.departureState(p.sys, req.start)
	if err != nil {
		return nil
	}
	bodyNow, err := p.sys.LocalState(body.ID, req.host.ID, req.start)
	if err != nil {
		return nil
	}
	arrNow, err := p.sys.LocalState(req.target.ID, req.host.ID, req.start)
	if err != nil {
		return nil
	}
	t1Est := hohmannTime(dep.R.Norm()*AU, bodyNow.R.Norm()*AU, req.μ)
	t2Est := hohmannTime(bodyNow.R.Norm()*AU, arrNow.R.Norm()*AU, req.μ)

	grid := p.cfg.AssistGrid
	if grid < 2 {
		grid = 2
	}
	span := p.cfg.AssistLegSpan
	var best *flyby
	for i := 0; i < grid; i++ {
		f1 := 1 - span + 2*span*float64(i)/float64(grid-1)
		t1 := time.Duration(f1 * float64(t1Est))
		for j := 0; j < grid; j++ {
			f2 := 1 - span + 2*span*float64(j)/float64(grid-1)
			t2 := time.Duration(f2 * float64(t2Est))
			if fb := p.evaluateFlyby(req, body, dep, t1, t2); fb != nil && (best == nil || fb.total() < best.total()) {
				best = fb
			}
		}
	}
	return best
}

func (p *Planner) evaluateFlyby(req *request, body *Node, dep StateVector, t1, t2 time.Duration) *flyby {
	if t1 <= 0 || t2 <= 0 {
		return nil
	}
	mid, err := p.sys.LocalState(body.ID, req.host.ID, req.start.Add(t1))
	if err != nil {
		return nil
	}
	arr, err := p.sys.LocalState(req.target.ID, req.host.ID, req.start.Add(t1).Add(t2))
	if err != nil {
		return nil
	}
	leg1 := solveEitherWay(dep.R.Scale(AU), mid.R.Scale(AU), t1, req.μ)
	if leg1 == nil {
		return nil
	}
	leg2 := solveEitherWay(mid.R.Scale(AU), arr.R.Scale(AU), t2, req.μ)
	if leg2 == nil {
		return nil
	}
	vBody := mid.V.Scale(AU)
	vInfIn := leg1.Vf.Sub(vBody)
	vInfOut := leg2.Vi.Sub(vBody)
	vIn := vInfIn.Norm()
	vOut := vInfOut.Norm()
	avg := (vIn + vOut) / 2
	if avg == 0 || math.Abs(vIn-vOut)/avg > p.cfg.VinfMismatchMax {
		return nil // too much energy change for a passive flyby plus periapsis burn
	}
	// Turn angle and the periapsis that produces it.
	ψ := math.Acos(vInfIn.Dot(vInfOut) / (vIn * vOut))
	sinHalf := math.Sin(ψ / 2)
	if sinHalf <= 0 {
		return nil
	}
	μb := body.GM()
	rP := (1/sinHalf - 1) * μb / (avg * avg)
	if rP < body.Radius+p.cfg.FlybyClearance {
		return nil // turn requires diving below the safety floor
	}
	fb := &flyby{
		body: body, t1: t1, t2: t2, leg1: leg1, leg2: leg2,
		dep: dep, mid: mid, arr: arr,
		vInfIn: vInfIn, vInfOut: vInfOut, rP: rP,
	}
	fb.ΔvDep = leg1.Vi.Sub(dep.V.Scale(AU)).Norm()
	// Oberth-optimized burn at the flyby periapsis patches the v∞ mismatch.
	fb.ΔvAssist = math.Abs(math.Sqrt(vOut*vOut+2*μb/rP) - math.Sqrt(vIn*vIn+2*μb/rP))
	if req.mode.BrakeAtArrival {
		vRel := leg2.Vf.Sub(arr.V.Scale(AU)).Norm()
		fb.ΔvArr = math.Max(0, vRel-req.mode.InterceptSpeed)
	}
	return fb
}

// assembleAssistPlan renders an accepted flyby as three segments: two
// drift-corrected coasts and a Bezier-smoothed close-approach arc.
func (p *Planner) assembleAssistPlan(req *request, fb *flyby) *TransitPlan {
	ledger := newFuelLedger(req.mode.ShipMass, req.mode.ShipIsp)
	fuelDep := ledger.burn(fb.ΔvDep)
	fuelAssist := ledger.burn(fb.ΔvAssist)
	fuelArr := ledger.burn(fb.ΔvArr)

	n := p.cfg.PathSamples
	post1 := StateVector{R: fb.dep.R, V: fb.leg1.Vi.Scale(1 / AU)}
	midPos := fb.mid.R
	path1, _ := PropagateBallistic(post1, req.μ, fb.t1, n, &midPos)

	post2 := StateVector{R: fb.mid.R, V: fb.leg2.Vi.Scale(1 / AU)}
	endPos := fb.arr.R
	path2, _ := PropagateBallistic(post2, req.μ, fb.t2, n, &endPos)

	// Close-approach arc: bend the corner between the legs through the body
	// position so the rendered path reads as a swing-by rather than a kink.
	arcSpan := n / 8
	if arcSpan < 2 {
		arcSpan = 2
	}
	dt1 := fb.t1 / time.Duration(n)
	dt2 := fb.t2 / time.Duration(n)
	arcFrom := path1[len(path1)-1-arcSpan]
	arcTo := path2[arcSpan]
	arc := bezierArc(arcFrom, fb.mid.R, arcTo, 2*arcSpan)

	t0 := req.start
	tArcStart := t0.Add(fb.t1 - time.Duration(arcSpan)*dt1)
	tArcEnd := t0.Add(fb.t1 + time.Duration(arcSpan)*dt2)
	tEnd := t0.Add(fb.t1 + fb.t2)

	vRelArr := fb.leg2.Vf.Sub(fb.arr.V.Scale(AU)).Norm()
	residual := math.Max(0, vRelArr-fb.ΔvArr)

	pre := path1[:len(path1)-arcSpan]
	postPath := path2[arcSpan:]
	segs := []TransitSegment{
		{
			Type: SegmentCoast, Start: t0, End: tArcStart, HostID: req.host.ID,
			StartState: fb.dep,
			EndState:   StateVector{R: pre[len(pre)-1], V: pathVelocity(path1, len(path1)-1-arcSpan, dt1.Seconds())},
			Path:       append([]Vector2(nil), pre...), FuelUsed: fuelDep,
		},
		{
			Type: SegmentCoast, Start: tArcStart, End: tArcEnd, HostID: req.host.ID,
			StartState: StateVector{R: arcFrom, V: fb.leg1.Vf.Scale(1 / AU)},
			EndState:   StateVector{R: arcTo, V: fb.leg2.Vi.Scale(1 / AU)},
			Path:       arc, FuelUsed: fuelAssist,
			Warnings: []string{WarnFlyby},
		},
		{
			Type: SegmentCoast, Start: tArcEnd, End: tEnd, HostID: req.host.ID,
			StartState: StateVector{R: arcTo, V: pathVelocity(path2, arcSpan, dt2.Seconds())},
			EndState:   StateVector{R: path2[len(path2)-1], V: fb.arr.V},
			Path:       append([]Vector2(nil), postPath...), FuelUsed: fuelArr,
		},
	}
	if residual > arrivalSpeedε && req.mode.ArrivalPlacement == "" {
		segs[2].Warnings = append(segs[2].Warnings, WarnFlyby)
	}

	plan := &TransitPlan{
		OriginID:         req.origin.ID,
		TargetID:         req.target.ID,
		Start:            t0,
		Segments:         segs,
		TotalΔv:          fb.total(),
		TotalTime:        fb.t1 + fb.t2,
		TotalFuel:        ledger.used,
		ArrivalVelocity:  residual,
		Type:             PlanAssist,
		Tags:             []string{TagGravityAssist, fb.body.Name},
		ArrivalPlacement: req.mode.ArrivalPlacement,
	}
	return plan
}

// hohmannTime is the analytic half-ellipse transfer time between two radii
// in meters.
func hohmannTime(r1, r2, μ float64) time.Duration {
	sum := r1 + r2
	return time.Duration(math.Pi*math.Sqrt(sum*sum*sum/(8*μ))) * time.Second
}

// solveEitherWay tries the short-way branch first and falls back to the
// long way, the retry contract the Lambert solver requires of its callers.
func solveEitherWay(r1, r2 Vector2, tof time.Duration, μ float64) *LambertSolution {
	if sol := SolveLambert(r1, r2, tof, μ, false); sol != nil {
		return sol
	}
	return SolveLambert(r1, r2, tof, μ, true)
}
