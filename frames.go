package transit

import (
	"fmt"
	"time"
)

// GlobalState returns the root-relative state of a node (AU, AU/s) by
// composing the propagated local states up the parent chain. The walk is
// depth-bounded, so a cyclic graph terminates with an error instead of
// spinning.
func (s *System) GlobalState(id string, dt time.Time) (StateVector, error) {
	n, ok := s.nodes[id]
	if !ok {
		return StateVector{}, fmt.Errorf("unknown node %q", id)
	}
	var sv StateVector
	for depth := 0; depth < maxFrameDepth; depth++ {
		if n.Orbit != nil {
			sv = sv.Add(n.Orbit.StateAt(dt))
		}
		if n.ParentID == "" {
			return sv, nil
		}
		p, ok := s.nodes[n.ParentID]
		if !ok {
			return StateVector{}, fmt.Errorf("node %q references unknown parent %q", n.ID, n.ParentID)
		}
		n = p
	}
	return StateVector{}, fmt.Errorf("parent chain of %q exceeds %d hops", id, maxFrameDepth)
}

// LocalState returns the state of a node relative to another node. Short
// hops (a lunar transfer, say) should be solved in the local frame rather
// than a heliocentric one: subtracting two nearly equal global positions
// costs precision that the local frame keeps.
func (s *System) LocalState(id, relativeToID string, dt time.Time) (StateVector, error) {
	sv, err := s.GlobalState(id, dt)
	if err != nil {
		return StateVector{}, err
	}
	ref, err := s.GlobalState(relativeToID, dt)
	if err != nil {
		return StateVector{}, err
	}
	return sv.Sub(ref), nil
}
