package transit

import (
	"math/rand"
	"testing"
	"time"
)

func dispersionTestPlan() *TransitPlan {
	// Quarter of the 7000 km circular orbit around Earth, expressed as a
	// single coast so the Monte Carlo has a two-body arc to re-propagate.
	r := 7000e3 / AU
	vc := 7545.946840144431 / AU
	start := StateVector{R: Vector2{r, 0}, V: Vector2{0, vc}}
	end := StateVector{R: Vector2{0, r}, V: Vector2{-vc, 0}}
	dur := 1457 * time.Second
	path, _ := PropagateBallistic(start, G*earthMass, dur, 16, nil)
	return &TransitPlan{
		OriginID: "ship",
		TargetID: "luna",
		Start:    testEpoch,
		Segments: []TransitSegment{{
			Type:       SegmentCoast,
			Start:      testEpoch,
			End:        testEpoch.Add(dur),
			HostID:     "earth",
			StartState: start,
			EndState:   end,
			Path:       path,
		}},
		TotalTime: dur,
		TotalΔv:   100,
	}
}

func TestArrivalDispersion(t *testing.T) {
	sys := moonTestSystem(t)
	p := NewPlanner(sys)
	plan := dispersionTestPlan()
	res, err := p.ArrivalDispersion(plan, 1e-9, 50, rand.NewSource(42))
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if res.Samples != 50 {
		t.Fatalf("samples got %d", res.Samples)
	}
	if res.MaxMiss <= 0 || res.MaxMiss > 1e-2 {
		t.Fatalf("1 nm/s execution noise cannot miss by %g m", res.MaxMiss)
	}
	if res.MeanMiss > res.MaxMiss || res.RMSMiss < res.MeanMiss {
		t.Fatalf("inconsistent stats: %s", res)
	}
}

func TestArrivalDispersionScalesWithSigma(t *testing.T) {
	sys := moonTestSystem(t)
	p := NewPlanner(sys)
	plan := dispersionTestPlan()
	lo, err := p.ArrivalDispersion(plan, 1e-6, 40, rand.NewSource(7))
	if err != nil {
		t.Fatalf("err %s", err)
	}
	hi, err := p.ArrivalDispersion(plan, 1e-3, 40, rand.NewSource(7))
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if hi.RMSMiss <= lo.RMSMiss {
		t.Fatalf("rms did not grow with σ: %g vs %g", hi.RMSMiss, lo.RMSMiss)
	}
}

func TestArrivalDispersionErrors(t *testing.T) {
	sys := moonTestSystem(t)
	p := NewPlanner(sys)
	if _, err := p.ArrivalDispersion(nil, 1, 10, rand.NewSource(1)); err == nil {
		t.Fatal("nil plan should fail")
	}
	plan := dispersionTestPlan()
	if _, err := p.ArrivalDispersion(plan, 1, 0, rand.NewSource(1)); err == nil {
		t.Fatal("zero samples should fail")
	}
	// A zero covariance is not positive definite.
	if _, err := p.ArrivalDispersion(plan, 0, 10, rand.NewSource(1)); err == nil {
		t.Fatal("σ=0 should fail")
	}
	noCoast := &TransitPlan{Segments: []TransitSegment{{Type: SegmentAccel}}}
	if _, err := p.ArrivalDispersion(noCoast, 1, 10, rand.NewSource(1)); err == nil {
		t.Fatal("plan without a coast should fail")
	}
}
