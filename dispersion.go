package transit

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"
)

// DispersionResult summarizes a Monte Carlo arrival dispersion run.
type DispersionResult struct {
	Samples  int
	MeanMiss float64 // m
	RMSMiss  float64 // m
	MaxMiss  float64 // m
}

func (d DispersionResult) String() string {
	return fmt.Sprintf("%d samples: mean=%.1fm rms=%.1fm max=%.1fm",
		d.Samples, d.MeanMiss, d.RMSMiss, d.MaxMiss)
}

// ArrivalDispersion estimates how departure execution errors spread the
// arrival point of a plan's coast. The departure velocity of the first
// coast segment is perturbed by a zero-mean Gaussian of σ m/s per axis and
// re-propagated under the host's gravity; the miss is measured against the
// unperturbed coast endpoint.
func (p *Planner) ArrivalDispersion(plan *TransitPlan, σ float64, samples int, seed rand.Source) (DispersionResult, error) {
	if plan == nil || samples < 1 {
		return DispersionResult{}, fmt.Errorf("dispersion needs a plan and at least one sample")
	}
	var seg *TransitSegment
	for k := range plan.Segments {
		if plan.Segments[k].Type == SegmentCoast && len(plan.Segments[k].Path) > 1 {
			seg = &plan.Segments[k]
			break
		}
	}
	if seg == nil {
		return DispersionResult{}, fmt.Errorf("plan %s has no coast to disperse", plan)
	}
	host, ok := p.sys.Node(seg.HostID)
	if !ok {
		return DispersionResult{}, fmt.Errorf("unknown host %q", seg.HostID)
	}
	noise, ok := distmv.NewNormal([]float64{0, 0},
		mat64.NewSymDense(2, []float64{σ * σ, 0, 0, σ * σ}), rand.New(seed))
	if !ok {
		return DispersionResult{}, fmt.Errorf("dispersion covariance is not positive definite")
	}
	// Two-body baseline, not the drift-corrected rendering path.
	_, nominal := PropagateBallistic(seg.StartState, host.GM(), seg.Duration(), p.cfg.PathSamples, nil)

	var sum, sumSq, worst float64
	for i := 0; i < samples; i++ {
		draw := noise.Rand(nil)
		sv := seg.StartState
		sv.V = sv.V.Add(Vector2{draw[0] / AU, draw[1] / AU})
		_, end := PropagateBallistic(sv, host.GM(), seg.Duration(), p.cfg.PathSamples, nil)
		miss := end.R.Sub(nominal.R).Norm() * AU
		sum += miss
		sumSq += miss * miss
		if miss > worst {
			worst = miss
		}
	}
	n := float64(samples)
	return DispersionResult{
		Samples:  samples,
		MeanMiss: sum / n,
		RMSMiss:  math.Sqrt(sumSq / n),
		MaxMiss:  worst,
	}, nil
}
