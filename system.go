package transit

import (
	"fmt"
	"sort"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/floats"
)

const (
	// maxFrameDepth bounds parent-chain walks. A procedural system deeper
	// than star → barycenter → planet → moon → construct is malformed.
	maxFrameDepth = 10

	μRelε = 1e-9
)

// NodeKind classifies a system node.
type NodeKind uint8

const (
	// KindStar is a stellar primary.
	KindStar NodeKind = iota + 1
	// KindBarycenter is a massless bookkeeping node for multi-star systems.
	KindBarycenter
	// KindPlanet orbits a star or barycenter.
	KindPlanet
	// KindMoon orbits a planet.
	KindMoon
	// KindConstruct is an artificial object (station, ship) which may hold
	// scheduled journeys.
	KindConstruct
)

func (k NodeKind) String() string {
	switch k {
	case KindStar:
		return "star"
	case KindBarycenter:
		return "barycenter"
	case KindPlanet:
		return "planet"
	case KindMoon:
		return "moon"
	case KindConstruct:
		return "construct"
	}
	return "unknown"
}

// Node is a body, barycenter or construct in a star system. The generator
// owns the graph; this package repairs hostMu drift once at construction
// and only reads it afterwards.
type Node struct {
	ID       string
	Name     string
	Kind     NodeKind
	Mass     float64 // kg
	Radius   float64 // m
	ParentID string
	Orbit    *Orbit

	// ScheduledJourneys is only meaningful on constructs.
	ScheduledJourneys []*JourneyLog
}

// GM returns μ = G·mass of this node in m³/s².
func (n *Node) GM() float64 {
	return G * n.Mass
}

func (n *Node) String() string {
	return fmt.Sprintf("%s (%s)", n.Name, n.Kind)
}

// System indexes a generated node graph by id. The graph is read-only and
// safe to share across concurrent planning calls.
type System struct {
	nodes  map[string]*Node
	sorted []*Node // deterministic iteration order
	RootID string
	logger kitlog.Logger
}

// SystemOption configures a System.
type SystemOption func(*System)

// WithLogger sets the logger used for self-healing and planner diagnostics.
func WithLogger(l kitlog.Logger) SystemOption {
	return func(s *System) { s.logger = l }
}

// NewSystem builds the id→node index and locates the root. Exactly one node
// must have no parent; anything else is a caller contract violation.
func NewSystem(nodes []*Node, opts ...SystemOption) (*System, error) {
	s := &System{nodes: make(map[string]*Node, len(nodes)), logger: kitlog.NewNopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node %q has an empty id", n.Name)
		}
		if _, dup := s.nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		s.nodes[n.ID] = n
		if n.ParentID == "" {
			if s.RootID != "" {
				return nil, fmt.Errorf("multiple roots: %q and %q", s.RootID, n.ID)
			}
			s.RootID = n.ID
		}
	}
	if s.RootID == "" {
		return nil, fmt.Errorf("system has no root node")
	}
	for _, n := range s.nodes {
		if n.ParentID != "" {
			if _, ok := s.nodes[n.ParentID]; !ok {
				return nil, fmt.Errorf("node %q references unknown parent %q", n.ID, n.ParentID)
			}
		}
		s.sorted = append(s.sorted, n)
	}
	sort.Slice(s.sorted, func(i, j int) bool { return s.sorted[i].ID < s.sorted[j].ID })
	// Heal while construction is still single-threaded; frame queries after
	// this point never write to the graph.
	for _, n := range s.sorted {
		s.healOrbit(n)
	}
	return s, nil
}

// Node returns the node for the given id.
func (s *System) Node(id string) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Root returns the root node of the system.
func (s *System) Root() *Node {
	return s.nodes[s.RootID]
}

// Nodes returns all nodes ordered by id.
func (s *System) Nodes() []*Node {
	return s.sorted
}

// Parent returns the parent node, or nil for the root.
func (s *System) Parent(n *Node) *Node {
	if n.ParentID == "" {
		return nil
	}
	return s.nodes[n.ParentID]
}

// healOrbit repairs an orbit whose hostMu no longer matches G·mass of the
// actual parent. Generators occasionally reparent nodes without updating the
// cached μ; that drift is a data bug, not a physics outcome, so it is fixed
// in place rather than failed. Runs only from NewSystem: after construction
// the graph must stay writable by nobody so concurrent queries are safe.
func (s *System) healOrbit(n *Node) {
	o := n.Orbit
	if o == nil {
		return
	}
	if o.HostID != n.ParentID {
		s.logger.Log("level", "warning", "subsys", "frames", "node", n.ID, "orbitHost", o.HostID, "parent", n.ParentID)
		o.HostID = n.ParentID
	}
	p := s.Parent(n)
	if p == nil {
		return
	}
	μ := p.GM()
	if μ == 0 {
		return
	}
	if !floats.EqualWithinRel(o.HostMu, μ, μRelε) {
		s.logger.Log("level", "warning", "subsys", "frames", "node", n.ID, "healedMu", μ, "staleMu", o.HostMu)
		o.HostMu = μ
		o.MeanMotion = 0 // rederive from the repaired μ
	}
}

// ancestry returns the parent chain of a node starting at the node itself,
// bounded by maxFrameDepth.
func (s *System) ancestry(n *Node) []*Node {
	chain := make([]*Node, 0, 4)
	for depth := 0; n != nil && depth < maxFrameDepth; depth++ {
		chain = append(chain, n)
		n = s.Parent(n)
	}
	return chain
}

// commonHost returns the deepest node that both a and b descend from (either
// may be that node itself), or nil when the chains never meet.
func (s *System) commonHost(a, b *Node) *Node {
	seen := make(map[string]bool, maxFrameDepth)
	for _, n := range s.ancestry(a) {
		seen[n.ID] = true
	}
	for _, n := range s.ancestry(b) {
		if seen[n.ID] {
			return n
		}
	}
	return nil
}

// contextChild returns the ancestor of n (or n itself) whose parent is host.
// It is the body whose orbit around host stands in for n in transfer-window
// estimates, e.g. Earth for a station in low orbit on an Earth→Mars leg.
func (s *System) contextChild(n, host *Node) *Node {
	for _, c := range s.ancestry(n) {
		if c.ParentID == host.ID {
			return c
		}
	}
	return nil
}
