package transit

import (
	"os"
	"sync"

	"github.com/spf13/viper"
)

var (
	cfgOnce sync.Once
	config  = defaultConfig()
)

// _transitconfig is a "hidden" struct, just use `transitConfig`.
type _transitconfig struct {
	// PathSamples is the number of RK4 steps per rendered segment path.
	PathSamples int
	// BisectIters caps the duration bisections of the trajectory search.
	BisectIters int
	// ScanDepartures enables the coarse launch-date scan of the
	// minimum-propellant profile.
	ScanDepartures   bool
	ScanStepDays     float64
	ScanMaxDays      float64
	HiddenΔv         float64 // m/s above which a plan is flagged impractical
	HiddenTimeFactor float64 // × baseline duration above which a plan is flagged
	// Gravity-assist search shape.
	AssistMinMass    float64 // kg
	AssistCandidates int
	AssistGrid       int
	AssistLegSpan    float64 // ± fraction around each leg's Hohmann estimate
	VinfMismatchMax  float64
	FlybyClearance   float64 // m added to the body radius for the periapsis floor
}

func defaultConfig() _transitconfig {
	return _transitconfig{
		PathSamples:      64,
		BisectIters:      50,
		ScanStepDays:     10,
		ScanMaxDays:      1000,
		HiddenΔv:         100e3,
		HiddenTimeFactor: 5,
		AssistMinMass:    3e23,
		AssistCandidates: 3,
		AssistGrid:       8,
		AssistLegSpan:    0.3,
		VinfMismatchMax:  0.2,
		FlybyClearance:   200e3,
	}
}

// transitConfig returns the engine tuning configuration. A conf.toml in the
// directory named by TRANSIT_CONFIG overrides the defaults; without it the
// zero configuration works.
func transitConfig() _transitconfig {
	cfgOnce.Do(func() {
		confPath := os.Getenv("TRANSIT_CONFIG")
		if confPath == "" {
			return
		}
		v := viper.New()
		v.SetConfigName("conf")
		v.AddConfigPath(confPath)
		if err := v.ReadInConfig(); err != nil {
			return // missing or malformed file keeps the defaults
		}
		c := defaultConfig()
		if v.IsSet("search.path_samples") {
			c.PathSamples = v.GetInt("search.path_samples")
		}
		if v.IsSet("search.bisect_iters") {
			c.BisectIters = v.GetInt("search.bisect_iters")
		}
		if v.IsSet("search.scan_departures") {
			c.ScanDepartures = v.GetBool("search.scan_departures")
		}
		if v.IsSet("search.scan_step_days") {
			c.ScanStepDays = v.GetFloat64("search.scan_step_days")
		}
		if v.IsSet("search.scan_max_days") {
			c.ScanMaxDays = v.GetFloat64("search.scan_max_days")
		}
		if v.IsSet("hidden.delta_v") {
			c.HiddenΔv = v.GetFloat64("hidden.delta_v")
		}
		if v.IsSet("hidden.time_factor") {
			c.HiddenTimeFactor = v.GetFloat64("hidden.time_factor")
		}
		if v.IsSet("assist.min_mass") {
			c.AssistMinMass = v.GetFloat64("assist.min_mass")
		}
		if v.IsSet("assist.candidates") {
			c.AssistCandidates = v.GetInt("assist.candidates")
		}
		if v.IsSet("assist.grid") {
			c.AssistGrid = v.GetInt("assist.grid")
		}
		if v.IsSet("assist.leg_span") {
			c.AssistLegSpan = v.GetFloat64("assist.leg_span")
		}
		if v.IsSet("assist.vinf_mismatch_max") {
			c.VinfMismatchMax = v.GetFloat64("assist.vinf_mismatch_max")
		}
		if v.IsSet("assist.flyby_clearance") {
			c.FlybyClearance = v.GetFloat64("assist.flyby_clearance")
		}
		config = c
	})
	return config
}
