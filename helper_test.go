package transit

import (
	"testing"
	"time"
)

var testEpoch = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	sunMass   = 1.989e30
	earthMass = 5.972e24
	marsMass  = 6.417e23
	jupMass   = 1.898e27
	lunaMass  = 7.342e22
)

// solTestSystem is a coplanar circular solar system: sun, earth, mars and
// jupiter, with mars phased near the earth departure Hohmann window.
func solTestSystem(t *testing.T) *System {
	t.Helper()
	nodes := []*Node{
		{ID: "sun", Name: "Sun", Kind: KindStar, Mass: sunMass, Radius: 6.96e8},
		{ID: "earth", Name: "Earth", Kind: KindPlanet, Mass: earthMass, Radius: 6.371e6, ParentID: "sun",
			Orbit: NewOrbit("sun", 1, 0, 0, 0, 0, 0, testEpoch, G*sunMass)},
		{ID: "mars", Name: "Mars", Kind: KindPlanet, Mass: marsMass, Radius: 3.39e6, ParentID: "sun",
			Orbit: NewOrbit("sun", 1.524, 0, 0, 0, 0, 0.773, testEpoch, G*sunMass)},
		{ID: "jupiter", Name: "Jupiter", Kind: KindPlanet, Mass: jupMass, Radius: 6.9911e7, ParentID: "sun",
			Orbit: NewOrbit("sun", 5.203, 0, 0, 0, 0, 3.0, testEpoch, G*sunMass)},
	}
	sys, err := NewSystem(nodes)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	return sys
}

// moonTestSystem is a planet-centric system: a ship in low orbit and a moon
// at lunar distance.
func moonTestSystem(t *testing.T) *System {
	t.Helper()
	nodes := []*Node{
		{ID: "earth", Name: "Earth", Kind: KindPlanet, Mass: earthMass, Radius: 6.371e6},
		{ID: "ship", Name: "Ship", Kind: KindConstruct, ParentID: "earth",
			Orbit: NewOrbit("earth", 7000e3/AU, 0, 0, 0, 0, 0, testEpoch, G*earthMass)},
		{ID: "luna", Name: "Luna", Kind: KindMoon, Mass: lunaMass, Radius: 1.737e6, ParentID: "earth",
			Orbit: NewOrbit("earth", 384400e3/AU, 0, 0, 0, 0, 2.1, testEpoch, G*earthMass)},
	}
	sys, err := NewSystem(nodes)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	return sys
}
