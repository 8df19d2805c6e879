package main

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	transit "github.com/FrunkQ/star-system-generator-sub002"
)

// systemFile is the on-disk TOML shape of a generated star system.
type systemFile struct {
	Name  string     `toml:"name"`
	Nodes []nodeFile `toml:"nodes"`
}

type nodeFile struct {
	ID     string     `toml:"id"`
	Name   string     `toml:"name"`
	Kind   string     `toml:"kind"`
	MassKg float64    `toml:"mass_kg"`
	RadM   float64    `toml:"radius_m"`
	Parent string     `toml:"parent"`
	Orbit  *orbitFile `toml:"orbit"`
}

type orbitFile struct {
	AAU        float64   `toml:"a_au"`
	Ecc        float64   `toml:"e"`
	IncDeg     float64   `toml:"i_deg"`
	RAANDeg    float64   `toml:"raan_deg"`
	ArgPeriDeg float64   `toml:"arg_periapsis_deg"`
	M0Rad      float64   `toml:"mean_anomaly_rad"`
	Epoch      time.Time `toml:"epoch"`
	Retrograde bool      `toml:"retrograde"`
}

var nodeKinds = map[string]transit.NodeKind{
	"star":       transit.KindStar,
	"barycenter": transit.KindBarycenter,
	"planet":     transit.KindPlanet,
	"moon":       transit.KindMoon,
	"construct":  transit.KindConstruct,
}

// loadSystem reads a star system definition and builds the node graph.
// HostMu is left for NewSystem's healing pass to derive from the parent mass.
func loadSystem(path string, opts ...transit.SystemOption) (*transit.System, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file systemFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s: %s", path, err)
	}
	nodes := make([]*transit.Node, 0, len(file.Nodes))
	for _, nf := range file.Nodes {
		kind, ok := nodeKinds[nf.Kind]
		if !ok {
			return nil, fmt.Errorf("%s: node %q has unknown kind %q", path, nf.ID, nf.Kind)
		}
		name := nf.Name
		if name == "" {
			name = nf.ID
		}
		n := &transit.Node{
			ID:       nf.ID,
			Name:     name,
			Kind:     kind,
			Mass:     nf.MassKg,
			Radius:   nf.RadM,
			ParentID: nf.Parent,
		}
		if of := nf.Orbit; of != nil {
			n.Orbit = transit.NewOrbit(nf.Parent, of.AAU, of.Ecc, of.IncDeg,
				of.RAANDeg, of.ArgPeriDeg, of.M0Rad, of.Epoch, 0)
			n.Orbit.Retrograde = of.Retrograde
		}
		nodes = append(nodes, n)
	}
	return transit.NewSystem(nodes, opts...)
}
