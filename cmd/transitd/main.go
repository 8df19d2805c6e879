package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	transit "github.com/FrunkQ/star-system-generator-sub002"
)

const dateFormat = "2006-01-02 15:04:05"

var (
	verbose   bool
	startFlag string

	modeMaxG       float64
	modeAccelRatio float64
	modeBrakeRatio float64
	modeIntercept  float64
	modeBrake      bool
	modeShipMass   float64
	modeShipIsp    float64
	modeParkingAU  float64
	modePlacement  string
	modeAeroLimit  float64

	exportDir string
)

var rootCmd = &cobra.Command{
	Use:   "transitd",
	Short: "Transit planning over generated star systems",
	Long:  "transitd computes transfer plans between bodies and constructs of a generated star system and samples scheduled journeys.",
}

var planCmd = &cobra.Command{
	Use:   "plan <system.toml> <origin-id> <target-id>",
	Short: "Compute the transfer plan variants between two nodes",
	Args:  cobra.ExactArgs(3),
	RunE:  runPlan,
}

var sampleCmd = &cobra.Command{
	Use:   "sample <system.toml> <node-id>",
	Short: "Sample a node's kinematic state at a given time",
	Args:  cobra.ExactArgs(2),
	RunE:  runSample,
}

var exportCmd = &cobra.Command{
	Use:   "export <system.toml> <origin-id> <target-id>",
	Short: "Compute plans and write their sampled paths as CSV files",
	Args:  cobra.ExactArgs(3),
	RunE:  runExport,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&startFlag, "start", "", "departure or sample time (\""+dateFormat+"\", default now)")

	for _, cmd := range []*cobra.Command{planCmd, exportCmd} {
		cmd.Flags().Float64Var(&modeMaxG, "max-g", 1, "peak sustained acceleration in g")
		cmd.Flags().Float64Var(&modeAccelRatio, "accel-ratio", 0, "fraction of flight time under acceleration")
		cmd.Flags().Float64Var(&modeBrakeRatio, "brake-ratio", 0, "fraction of flight time under braking")
		cmd.Flags().Float64Var(&modeIntercept, "intercept-speed", 0, "residual speed in m/s when not braking to zero")
		cmd.Flags().BoolVar(&modeBrake, "brake-at-arrival", false, "match the target's velocity on arrival")
		cmd.Flags().Float64Var(&modeShipMass, "ship-mass", 0, "wet mass in kg, enables rocket-equation fuel accounting")
		cmd.Flags().Float64Var(&modeShipIsp, "ship-isp", 0, "specific impulse in seconds")
		cmd.Flags().Float64Var(&modeParkingAU, "parking-radius", 0, "parking orbit radius in AU, enables capture costing")
		cmd.Flags().StringVar(&modePlacement, "placement", "", "node id to dock to on arrival")
		cmd.Flags().Float64Var(&modeAeroLimit, "aerobrake-limit", 0, "maximum survivable entry speed in km/s (0 disables)")
	}
	exportCmd.Flags().StringVar(&exportDir, "out", ".", "directory for the CSV files")

	rootCmd.AddCommand(planCmd, sampleCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logger() kitlog.Logger {
	if verbose {
		return kitlog.With(kitlog.NewLogfmtLogger(os.Stderr), "ts", kitlog.DefaultTimestampUTC)
	}
	return kitlog.NewNopLogger()
}

func startTime() (time.Time, error) {
	if startFlag == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(dateFormat, startFlag)
}

func mode() transit.Mode {
	m := transit.Mode{
		MaxG:               modeMaxG,
		AccelRatio:         modeAccelRatio,
		BrakeRatio:         modeBrakeRatio,
		InterceptSpeed:     modeIntercept,
		BrakeAtArrival:     modeBrake,
		ShipMass:           modeShipMass,
		ShipIsp:            modeShipIsp,
		ParkingOrbitRadius: modeParkingAU,
		ArrivalPlacement:   modePlacement,
	}
	if modeAeroLimit > 0 {
		m.Aerobrake = &transit.AerobrakeOption{Allowed: true, Limit: modeAeroLimit}
	}
	return m
}

func computePlans(args []string) ([]*transit.TransitPlan, time.Time, error) {
	start, err := startTime()
	if err != nil {
		return nil, start, err
	}
	l := logger()
	sys, err := loadSystem(args[0], transit.WithLogger(l))
	if err != nil {
		return nil, start, err
	}
	planner := transit.NewPlanner(sys, transit.WithPlannerLogger(l))
	plans, err := planner.Plan(args[1], args[2], start, mode())
	return plans, start, err
}

func runPlan(cmd *cobra.Command, args []string) error {
	plans, _, err := computePlans(args)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Println("no feasible plan")
		return nil
	}
	return transit.ExportPlansSummaryCSV(os.Stdout, plans)
}

func runExport(cmd *cobra.Command, args []string) error {
	plans, start, err := computePlans(args)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Println("no feasible plan")
		return nil
	}
	for _, plan := range plans {
		variant := strings.ReplaceAll(plan.Type.String(), " ", "-")
		name := fmt.Sprintf("%s-%s-%s", args[1], args[2], variant)
		f, err := transit.CreatePlanCSVFile(exportDir, name, start)
		if err != nil {
			return err
		}
		if err := transit.ExportPlanCSV(f, plan); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", f.Name())
	}
	return nil
}

func runSample(cmd *cobra.Command, args []string) error {
	at, err := startTime()
	if err != nil {
		return err
	}
	sys, err := loadSystem(args[0], transit.WithLogger(logger()))
	if err != nil {
		return err
	}
	kin, err := sys.SampleJourneyAt(args[1], at)
	if err != nil {
		return err
	}
	fmt.Printf("%s at %s: %s pos=(%.6f, %.6f) AU vel=(%.1f, %.1f) m/s\n",
		args[1], at.Format(dateFormat), kin.Status, kin.Pos.X, kin.Pos.Y, kin.Vel.X, kin.Vel.Y)
	return nil
}
