package transit

import (
	"testing"
	"time"

	"github.com/gonum/floats"
)

// straightPlan builds a hand-rolled single-coast plan in the root frame:
// uniform motion from the origin position over dur, ending at rest or with
// residual speed, for scheduler tests.
func straightPlan(originID, targetID string, start time.Time, dur time.Duration, from, to Vector2, residual float64) *TransitPlan {
	n := 10
	path := make([]Vector2, n+1)
	step := to.Sub(from).Scale(1 / float64(n))
	for i := 0; i <= n; i++ {
		path[i] = from.Add(step.Scale(float64(i)))
	}
	vel := to.Sub(from).Scale(1 / dur.Seconds()) // AU/s
	seg := TransitSegment{
		Type:       SegmentCoast,
		Start:      start,
		End:        start.Add(dur),
		HostID:     "earth",
		StartState: StateVector{R: from, V: vel},
		EndState:   StateVector{R: to, V: vel},
		Path:       path,
	}
	if residual > 0 {
		seg.Warnings = []string{WarnFlyby}
	}
	return &TransitPlan{
		OriginID:        originID,
		TargetID:        targetID,
		Start:           start,
		Segments:        []TransitSegment{seg},
		TotalTime:       dur,
		TotalΔv:         100,
		ArrivalVelocity: residual,
	}
}

func TestSampleJourneyIdle(t *testing.T) {
	sys := moonTestSystem(t)
	ship, _ := sys.Node("ship")
	ship.ScheduledJourneys = []*JourneyLog{{Plans: []*TransitPlan{
		straightPlan("ship", "luna", testEpoch.Add(24*time.Hour), time.Hour, Vector2{}, Vector2{1e-3, 0}, 0),
	}}}
	kin, err := sys.SampleJourneyAt("ship", testEpoch)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if kin.Status != StatusIdle {
		t.Fatalf("status got %s", kin.Status)
	}
	// Idle rides the origin node's orbit.
	sv, _ := sys.GlobalState("ship", testEpoch)
	if kin.Pos != sv.R {
		t.Fatalf("pos got %+v exp %+v", kin.Pos, sv.R)
	}
	if _, err := sys.SampleJourneyAt("ghost", testEpoch); err == nil {
		t.Fatal("unknown node should fail")
	}
}

func TestSampleJourneyNoJourneys(t *testing.T) {
	sys := moonTestSystem(t)
	kin, err := sys.SampleJourneyAt("luna", testEpoch)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if kin.Status != StatusIdle {
		t.Fatalf("status got %s", kin.Status)
	}
	sv, _ := sys.GlobalState("luna", testEpoch)
	if kin.Pos != sv.R {
		t.Fatalf("pos got %+v", kin.Pos)
	}
}

func TestSampleJourneyTransit(t *testing.T) {
	sys := moonTestSystem(t)
	ship, _ := sys.Node("ship")
	dur := 1000 * time.Second
	to := Vector2{1e-3, 0}
	plan := straightPlan("ship", "luna", testEpoch, dur, Vector2{}, to, 0)
	ship.ScheduledJourneys = []*JourneyLog{{Plans: []*TransitPlan{plan}}}

	kin, err := sys.SampleJourneyAt("ship", testEpoch.Add(500*time.Second))
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if kin.Status != StatusTransit {
		t.Fatalf("status got %s", kin.Status)
	}
	if !floats.EqualWithinAbs(kin.Pos.X, 0.5e-3, 1e-12) || !floats.EqualWithinAbs(kin.Pos.Y, 0, 1e-12) {
		t.Fatalf("pos got %+v", kin.Pos)
	}
	// Uniform path: the finite-difference velocity is the exact slope.
	vExp := to.X / dur.Seconds() * AU
	if !floats.EqualWithinRel(kin.Vel.X, vExp, 1e-9) {
		t.Fatalf("vel got %f exp %f", kin.Vel.X, vExp)
	}
}

func TestSampleJourneyGapHolds(t *testing.T) {
	sys := moonTestSystem(t)
	ship, _ := sys.Node("ship")
	leg1 := straightPlan("ship", "luna", testEpoch, time.Hour, Vector2{}, Vector2{1e-3, 0}, 0)
	leg2 := straightPlan("luna", "ship", testEpoch.Add(10*time.Hour), time.Hour, Vector2{1e-3, 0}, Vector2{}, 0)
	ship.ScheduledJourneys = []*JourneyLog{{Plans: []*TransitPlan{leg1, leg2}}}

	at := testEpoch.Add(5 * time.Hour)
	kin, err := sys.SampleJourneyAt("ship", at)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if kin.Status != StatusHolding {
		t.Fatalf("status got %s", kin.Status)
	}
	sv, _ := sys.GlobalState("luna", at)
	if kin.Pos != sv.R {
		t.Fatalf("holding pos got %+v exp %+v", kin.Pos, sv.R)
	}
}

func TestSampleJourneyFlybyDrifts(t *testing.T) {
	sys := moonTestSystem(t)
	ship, _ := sys.Node("ship")
	dur := 1000 * time.Second
	to := Vector2{1e-3, 0}
	plan := straightPlan("ship", "luna", testEpoch, dur, Vector2{}, to, 5000)
	ship.ScheduledJourneys = []*JourneyLog{{Plans: []*TransitPlan{plan}}}

	Δt := 2000.0
	kin, err := sys.SampleJourneyAt("ship", plan.End().Add(time.Duration(Δt)*time.Second))
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if kin.Status != StatusDrifting {
		t.Fatalf("status got %s", kin.Status)
	}
	// Drift continues the final path tangent.
	vel := to.X / dur.Seconds() * AU // m/s
	expX := to.X + vel*Δt/AU
	if !floats.EqualWithinRel(kin.Pos.X, expX, 1e-9) {
		t.Fatalf("pos got %f exp %f", kin.Pos.X, expX)
	}
	if !floats.EqualWithinRel(kin.Vel.X, vel, 1e-9) {
		t.Fatalf("vel got %f exp %f", kin.Vel.X, vel)
	}
}

func TestSampleJourneyCaptureFollows(t *testing.T) {
	sys := moonTestSystem(t)
	ship, _ := sys.Node("ship")
	end := testEpoch.Add(time.Hour)
	lunaAtEnd, _ := sys.GlobalState("luna", end)
	plan := straightPlan("ship", "luna", testEpoch, time.Hour, Vector2{}, lunaAtEnd.R, 0)
	ship.ScheduledJourneys = []*JourneyLog{{Plans: []*TransitPlan{plan}}}

	for _, after := range []time.Duration{time.Hour, 26 * time.Hour} {
		at := end.Add(after)
		kin, err := sys.SampleJourneyAt("ship", at)
		if err != nil {
			t.Fatalf("err %s", err)
		}
		if kin.Status != StatusFollowing {
			t.Fatalf("status got %s", kin.Status)
		}
		// Bound to the moon's frame: the offset recorded at capture stays put.
		sv, _ := sys.GlobalState("luna", at)
		if off := kin.Pos.Sub(sv.R).Norm(); !floats.EqualWithinAbs(off, 0, 1e-12) {
			t.Fatalf("offset drifted to %g", off)
		}
		if !floats.EqualWithinAbs(kin.Vel.X, sv.V.X*AU, 1e-9) {
			t.Fatalf("vel got %f exp %f", kin.Vel.X, sv.V.X*AU)
		}
	}
}

func TestSampleJourneyConstructInterceptDrifts(t *testing.T) {
	// Matching a moving construct without explicit docking must not bind to
	// its frame.
	sys := moonTestSystem(t)
	luna, _ := sys.Node("luna")
	luna.Kind = KindConstruct
	ship, _ := sys.Node("ship")
	plan := straightPlan("ship", "luna", testEpoch, time.Hour, Vector2{}, Vector2{1e-3, 0}, 0)
	ship.ScheduledJourneys = []*JourneyLog{{Plans: []*TransitPlan{plan}}}

	kin, err := sys.SampleJourneyAt("ship", plan.End().Add(time.Hour))
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if kin.Status != StatusDrifting {
		t.Fatalf("status got %s", kin.Status)
	}

	// An explicit docking id binds even to a construct.
	plan.ArrivalPlacement = "luna"
	kin, err = sys.SampleJourneyAt("ship", plan.End().Add(time.Hour))
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if kin.Status != StatusFollowing {
		t.Fatalf("docked status got %s", kin.Status)
	}
}

func TestCancelActiveJourney(t *testing.T) {
	sys := moonTestSystem(t)
	ship, _ := sys.Node("ship")
	dur := 1000 * time.Second
	to := Vector2{1e-3, 0}
	plan := straightPlan("ship", "luna", testEpoch, dur, Vector2{}, to, 0)
	j := &JourneyLog{Plans: []*TransitPlan{plan}}
	ship.ScheduledJourneys = []*JourneyLog{j}

	cancelAt := testEpoch.Add(500 * time.Second)
	if err := sys.CancelActiveJourney("ship", cancelAt); err != nil {
		t.Fatalf("err %s", err)
	}
	if !j.Cancelled() || j.CancelledAtSec != cancelAt.Unix() {
		t.Fatalf("not cancelled: %+v", j)
	}

	// Sampling after cancellation is pure inertial drift from the frozen state.
	k1, err := sys.SampleJourneyAt("ship", cancelAt.Add(100*time.Second))
	if err != nil {
		t.Fatalf("err %s", err)
	}
	k2, err := sys.SampleJourneyAt("ship", cancelAt.Add(300*time.Second))
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if k1.Status != StatusCancelled || k2.Status != StatusCancelled {
		t.Fatalf("status got %s, %s", k1.Status, k2.Status)
	}
	if k1.Vel != k2.Vel {
		t.Fatal("drift velocity must stay frozen")
	}
	gotΔ := k2.Pos.Sub(k1.Pos)
	expΔ := k1.Vel.Scale(200 / AU)
	if !floats.EqualWithinAbs(gotΔ.X, expΔ.X, 1e-15) || !floats.EqualWithinAbs(gotΔ.Y, expΔ.Y, 1e-15) {
		t.Fatalf("drift not linear: %+v exp %+v", gotΔ, expΔ)
	}

	// Cancelling twice finds no active journey.
	if err := sys.CancelActiveJourney("ship", cancelAt.Add(10*time.Second)); err == nil {
		t.Fatal("second cancel should fail")
	}
}

func TestClearFutureJourneys(t *testing.T) {
	sys := moonTestSystem(t)
	ship, _ := sys.Node("ship")
	past := &JourneyLog{Plans: []*TransitPlan{
		straightPlan("ship", "luna", testEpoch, time.Hour, Vector2{}, Vector2{1e-3, 0}, 0),
	}}
	future := &JourneyLog{Plans: []*TransitPlan{
		straightPlan("luna", "ship", testEpoch.Add(100*time.Hour), time.Hour, Vector2{1e-3, 0}, Vector2{}, 0),
	}}
	ship.ScheduledJourneys = []*JourneyLog{past, future}

	if err := sys.ClearFutureJourneys("ship", testEpoch.Add(2*time.Hour)); err != nil {
		t.Fatalf("err %s", err)
	}
	if len(ship.ScheduledJourneys) != 1 || ship.ScheduledJourneys[0] != past {
		t.Fatalf("kept %d journeys", len(ship.ScheduledJourneys))
	}
	if err := sys.ClearFutureJourneys("ghost", testEpoch); err == nil {
		t.Fatal("unknown node should fail")
	}
}
