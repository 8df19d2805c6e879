package transit

import (
	"fmt"
	"time"
)

// SegmentType defines the burn state of a transit segment.
type SegmentType uint8

const (
	// SegmentAccel is a powered acceleration phase.
	SegmentAccel SegmentType = iota + 1
	// SegmentCoast is an unpowered ballistic phase.
	SegmentCoast
	// SegmentBrake is a powered deceleration phase.
	SegmentBrake
)

func (t SegmentType) String() string {
	switch t {
	case SegmentAccel:
		return "accel"
	case SegmentCoast:
		return "coast"
	case SegmentBrake:
		return "brake"
	}
	return "unknown"
}

// PlanType names the flight profile that produced a plan.
type PlanType uint8

const (
	// PlanEfficient is the minimum-propellant profile.
	PlanEfficient PlanType = iota + 1
	// PlanBalanced trades time against propellant with caller ratios.
	PlanBalanced
	// PlanSpeed is the direct-burn kinematic profile.
	PlanSpeed
	// PlanAssist routes through a gravity-assist flyby.
	PlanAssist
)

func (t PlanType) String() string {
	switch t {
	case PlanEfficient:
		return "Most Efficient"
	case PlanBalanced:
		return "Balanced"
	case PlanSpeed:
		return "Direct Burn"
	case PlanAssist:
		return "Gravity Assist"
	}
	return "unknown"
}

// Plan tags surfaced to the UI.
const (
	TagSundiver       = "SUNDIVER"
	TagHohmannOptimal = "HOHMANN-OPTIMAL"
	TagAerocapture    = "AEROCAPTURE"
	TagPartialAero    = "PARTIAL-AERO"
	TagGravityAssist  = "GRAVITY-ASSIST"
	TagKinematic      = "KINEMATIC"
)

// Segment warnings.
const (
	WarnFlyby = "Flyby"
)

// TransitSegment is one time-contiguous piece of a plan. Path points are in
// AU in the host frame and always hold at least two finite samples for a
// segment of non-zero duration.
type TransitSegment struct {
	Type       SegmentType
	Start, End time.Time
	StartState StateVector // AU, AU/s in the host frame
	EndState   StateVector
	HostID     string
	Path       []Vector2 // AU
	FuelUsed   float64   // kg
	Warnings   []string
}

// Duration returns the segment's time span.
func (s TransitSegment) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// TransitPlan is a complete trajectory from origin to target. Plans are
// fresh value objects: nothing in them aliases the system graph.
type TransitPlan struct {
	OriginID, TargetID string
	Start              time.Time
	Segments           []TransitSegment
	TotalΔv            float64 // m/s
	TotalTime          time.Duration
	TotalFuel          float64 // kg
	ArrivalVelocity    float64 // m/s, relative to the target at arrival
	Type               PlanType
	Tags               []string
	// ArrivalPlacement carries the explicit docking target, when one was
	// requested, so the scheduler knows which frame to follow after arrival.
	ArrivalPlacement string
	// HiddenReason flags an impractical plan without removing it.
	HiddenReason string
}

// End returns the arrival time.
func (p *TransitPlan) End() time.Time {
	return p.Start.Add(p.TotalTime)
}

// HasTag reports whether the plan carries the given tag.
func (p *TransitPlan) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (p *TransitPlan) String() string {
	return fmt.Sprintf("%s %s→%s Δv=%.1fm/s tof=%.2fd fuel=%.1fkg",
		p.Type, p.OriginID, p.TargetID, p.TotalΔv, p.TotalTime.Hours()/24, p.TotalFuel)
}

// AerobrakeOption enables shedding arrival speed against an atmosphere.
type AerobrakeOption struct {
	Allowed bool
	// Limit is the maximum survivable entry speed in km/s.
	Limit float64
}

// Mode configures a planning request.
type Mode struct {
	// MaxG is the peak sustained acceleration in g.
	MaxG float64
	// AccelRatio and BrakeRatio budget fractions of the flight time to the
	// powered phases.
	AccelRatio, BrakeRatio float64
	// InterceptSpeed is the desired residual relative speed (m/s) when not
	// braking to zero.
	InterceptSpeed float64
	// BrakeAtArrival requests matching the target's velocity on arrival.
	BrakeAtArrival bool
	// ShipMass (kg) and ShipIsp (s) enable rocket-equation fuel accounting;
	// zero values fall back to the flat heuristic.
	ShipMass, ShipIsp float64
	// Aerobrake optionally replaces part of the capture burn.
	Aerobrake *AerobrakeOption
	// ParkingOrbitRadius (AU) enables Oberth capture costing at arrival.
	ParkingOrbitRadius float64
	// ArrivalPlacement optionally docks the arrival to an explicit node id.
	ArrivalPlacement string
	// InitialState overrides the departure state (AU, AU/s, global frame).
	InitialState *StateVector
}

// maxAccel returns the peak acceleration in m/s².
func (m Mode) maxAccel() float64 {
	return m.MaxG * g0
}

// ratios returns the accel/brake time fractions, renormalized so that a
// caller asking for more than 98% powered flight still leaves a coast.
func (m Mode) ratios() (ar, br float64) {
	ar, br = m.AccelRatio, m.BrakeRatio
	if ar <= 0 {
		ar = 0.3
	}
	if br <= 0 {
		br = 0.3
	}
	if sum := ar + br; sum > 0.98 {
		ar *= 0.98 / sum
		br *= 0.98 / sum
	}
	return ar, br
}
