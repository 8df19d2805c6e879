package transit

import (
	"fmt"
	"time"
)

// JourneyStatus describes what a construct is doing at a sampled instant.
type JourneyStatus uint8

const (
	// StatusIdle means no journey has started yet.
	StatusIdle JourneyStatus = iota + 1
	// StatusTransit means the construct is inside an active segment.
	StatusTransit
	// StatusHolding means the construct waits at a leg destination between legs.
	StatusHolding
	// StatusDrifting means the construct coasts inertially after a flyby,
	// an undocked construct intercept, or past the end of its last journey.
	StatusDrifting
	// StatusFollowing means the construct is bound to a capture frame.
	StatusFollowing
	// StatusCancelled means the construct drifts from a frozen cancel state.
	StatusCancelled
)

func (s JourneyStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusTransit:
		return "transit"
	case StatusHolding:
		return "holding"
	case StatusDrifting:
		return "drifting"
	case StatusFollowing:
		return "following"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// CancelState is the kinematic state frozen at the cancellation instant.
type CancelState struct {
	Pos Vector2 // AU, root frame
	Vel Vector2 // m/s, root frame
}

// JourneyLog is one scheduled journey: an ordered list of legs, possibly
// cancelled part way. The UI owns the list on the construct; this package
// only reads it, except for the two mutation entry points below.
type JourneyLog struct {
	Plans []*TransitPlan
	// CancelledAtSec is the Unix second of cancellation, zero when active.
	CancelledAtSec int64
	CancelState    *CancelState
}

// Cancelled reports whether the journey was cancelled.
func (j *JourneyLog) Cancelled() bool {
	return j.CancelledAtSec != 0 && j.CancelState != nil
}

func (j *JourneyLog) start() time.Time {
	return j.Plans[0].Start
}

func (j *JourneyLog) end() time.Time {
	if j.Cancelled() {
		return time.Unix(j.CancelledAtSec, 0).UTC()
	}
	return j.Plans[len(j.Plans)-1].End()
}

// Kinematics is a sampled construct state in the root frame.
type Kinematics struct {
	Pos    Vector2 // AU
	Vel    Vector2 // m/s
	Status JourneyStatus
}

// SampleJourneyAt returns the kinematic state of a construct at time t,
// walking its scheduled journeys. The call is read only and safe to issue
// concurrently with planning.
func (s *System) SampleJourneyAt(nodeID string, t time.Time) (Kinematics, error) {
	node, ok := s.Node(nodeID)
	if !ok {
		return Kinematics{}, fmt.Errorf("unknown node %q", nodeID)
	}
	logs := activeLogs(node)
	if len(logs) == 0 || t.Before(logs[0].start()) {
		return s.idleState(node, logs, t)
	}
	// Last journey whose departure is not after t owns the sample. A later
	// journey always takes over at its own departure, cancelled or not.
	cur := logs[0]
	for _, j := range logs[1:] {
		if j.start().After(t) {
			break
		}
		cur = j
	}
	if cur.Cancelled() && !t.Before(time.Unix(cur.CancelledAtSec, 0).UTC()) {
		return driftFrom(cur.CancelState.Pos, cur.CancelState.Vel,
			t.Sub(time.Unix(cur.CancelledAtSec, 0).UTC()), StatusCancelled), nil
	}
	return s.sampleJourney(cur, t)
}

// activeLogs filters out empty logs; the slice is already time ordered.
func activeLogs(n *Node) []*JourneyLog {
	logs := make([]*JourneyLog, 0, len(n.ScheduledJourneys))
	for _, j := range n.ScheduledJourneys {
		if j != nil && len(j.Plans) > 0 {
			logs = append(logs, j)
		}
	}
	return logs
}

// idleState pins the construct before its first departure: at the first
// plan's origin when one is scheduled, otherwise at its own graph state.
func (s *System) idleState(node *Node, logs []*JourneyLog, t time.Time) (Kinematics, error) {
	id := node.ID
	if len(logs) > 0 {
		id = logs[0].Plans[0].OriginID
	}
	sv, err := s.GlobalState(id, t)
	if err != nil {
		return Kinematics{}, err
	}
	return Kinematics{Pos: sv.R, Vel: sv.V.Scale(AU), Status: StatusIdle}, nil
}

// sampleJourney resolves t within one journey: inside a leg, in a gap
// between legs, or past the final arrival.
func (s *System) sampleJourney(j *JourneyLog, t time.Time) (Kinematics, error) {
	for i, plan := range j.Plans {
		if t.Before(plan.Start) {
			// Gap between legs: hold at the previous leg's destination.
			prev := j.Plans[i-1]
			sv, err := s.GlobalState(prev.TargetID, t)
			if err != nil {
				return Kinematics{}, err
			}
			return Kinematics{Pos: sv.R, Vel: sv.V.Scale(AU), Status: StatusHolding}, nil
		}
		if !t.After(plan.End()) {
			return s.sampleSegments(plan, t)
		}
	}
	return s.arrivalOutcome(j.Plans[len(j.Plans)-1], t)
}

// sampleSegments interpolates the segment path covering t by fractional
// index and differentiates adjacent samples for the velocity.
func (s *System) sampleSegments(plan *TransitPlan, t time.Time) (Kinematics, error) {
	for k := range plan.Segments {
		seg := &plan.Segments[k]
		if t.After(seg.End) && k < len(plan.Segments)-1 {
			continue
		}
		host, err := s.GlobalState(seg.HostID, t)
		if err != nil {
			return Kinematics{}, err
		}
		pos, vel := samplePath(seg, t)
		return Kinematics{
			Pos:    host.R.Add(pos),
			Vel:    host.V.Scale(AU).Add(vel),
			Status: StatusTransit,
		}, nil
	}
	return Kinematics{}, fmt.Errorf("plan %s→%s has no segments", plan.OriginID, plan.TargetID)
}

// samplePath returns the host-frame position (AU) and velocity (m/s) at t
// within a segment.
func samplePath(seg *TransitSegment, t time.Time) (Vector2, Vector2) {
	n := len(seg.Path)
	dur := seg.Duration().Seconds()
	if n < 2 || dur <= 0 {
		return seg.StartState.R, seg.StartState.V.Scale(AU)
	}
	frac := t.Sub(seg.Start).Seconds() / dur * float64(n-1)
	i := int(frac)
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	τ := frac - float64(i)
	step := seg.Path[i+1].Sub(seg.Path[i])
	pos := seg.Path[i].Add(step.Scale(τ))
	// Per-sample time step is uniform over the segment.
	vel := step.Scale(AU * float64(n-1) / dur)
	return pos, vel
}

// arrivalOutcome decides what the construct does after its last leg ends:
// flybys and undocked construct intercepts keep drifting on the final path
// tangent, captures follow the capture frame with the offset recorded at
// arrival.
func (s *System) arrivalOutcome(plan *TransitPlan, t time.Time) (Kinematics, error) {
	end := plan.End()
	last := &plan.Segments[len(plan.Segments)-1]
	host, err := s.GlobalState(last.HostID, end)
	if err != nil {
		return Kinematics{}, err
	}
	arrPos := host.R.Add(last.EndState.R)
	arrVel := host.V.Scale(AU).Add(pathTangent(last))

	if plan.ArrivalVelocity > arrivalSpeedε || hasWarning(last, WarnFlyby) {
		return driftFrom(arrPos, arrVel, t.Sub(end), StatusDrifting), nil
	}

	followID := plan.ArrivalPlacement
	if followID == "" {
		target, ok := s.Node(plan.TargetID)
		if !ok {
			return Kinematics{}, fmt.Errorf("unknown node %q", plan.TargetID)
		}
		if target.Kind == KindConstruct {
			// Matching a moving construct without an explicit docking id
			// does not bind to its frame.
			return driftFrom(arrPos, arrVel, t.Sub(end), StatusDrifting), nil
		}
		followID = plan.TargetID
	}
	anchor, err := s.GlobalState(followID, end)
	if err != nil {
		return Kinematics{}, err
	}
	offset := arrPos.Sub(anchor.R)
	now, err := s.GlobalState(followID, t)
	if err != nil {
		return Kinematics{}, err
	}
	return Kinematics{
		Pos:    now.R.Add(offset),
		Vel:    now.V.Scale(AU),
		Status: StatusFollowing,
	}, nil
}

// pathTangent differentiates the last two path samples of a segment for the
// host-frame velocity in m/s, falling back to the stored end state.
func pathTangent(seg *TransitSegment) Vector2 {
	n := len(seg.Path)
	if n < 2 || seg.Duration() <= 0 {
		return seg.EndState.V.Scale(AU)
	}
	dt := seg.Duration().Seconds() / float64(n-1)
	return seg.Path[n-1].Sub(seg.Path[n-2]).Scale(AU / dt)
}

func hasWarning(seg *TransitSegment, w string) bool {
	for _, got := range seg.Warnings {
		if got == w {
			return true
		}
	}
	return false
}

// driftFrom propagates a frozen state inertially. vel stays in m/s; the
// position advances in AU.
func driftFrom(pos, vel Vector2, Δt time.Duration, status JourneyStatus) Kinematics {
	return Kinematics{
		Pos:    pos.Add(vel.Scale(Δt.Seconds() / AU)),
		Vel:    vel,
		Status: status,
	}
}

// CancelActiveJourney freezes the journey active at t. The timestamp is
// truncated to the whole second so replays across windows land on the same
// frozen state.
func (s *System) CancelActiveJourney(nodeID string, t time.Time) error {
	node, ok := s.Node(nodeID)
	if !ok {
		return fmt.Errorf("unknown node %q", nodeID)
	}
	sec := t.Unix()
	at := time.Unix(sec, 0).UTC()
	for _, j := range activeLogs(node) {
		if j.Cancelled() || at.Before(j.start()) || at.After(j.end()) {
			continue
		}
		state, err := s.SampleJourneyAt(nodeID, at)
		if err != nil {
			return err
		}
		j.CancelledAtSec = sec
		j.CancelState = &CancelState{Pos: state.Pos, Vel: state.Vel}
		s.logger.Log("level", "info", "subsys", "journey", "cancelled", nodeID, "atSec", sec)
		return nil
	}
	return fmt.Errorf("node %q has no active journey at %s", nodeID, at.Format(time.RFC3339))
}

// ClearFutureJourneys drops every journey departing after t. Journeys
// already underway or completed are kept.
func (s *System) ClearFutureJourneys(nodeID string, t time.Time) error {
	node, ok := s.Node(nodeID)
	if !ok {
		return fmt.Errorf("unknown node %q", nodeID)
	}
	kept := node.ScheduledJourneys[:0]
	for _, j := range node.ScheduledJourneys {
		if j == nil || len(j.Plans) == 0 || !j.start().After(t) {
			kept = append(kept, j)
		}
	}
	node.ScheduledJourneys = kept
	return nil
}
