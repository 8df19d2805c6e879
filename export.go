package transit

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/soniakeys/meeus/julian"
)

// ExportPlanCSV writes one plan as CSV: a commented summary block followed
// by one row per path sample. Positions are AU in the emitting segment's
// host frame; each row is stamped in UTC and as a Julian date.
func ExportPlanCSV(w io.Writer, plan *TransitPlan) error {
	if plan == nil || len(plan.Segments) == 0 {
		return fmt.Errorf("cannot export an empty plan")
	}
	fmt.Fprintf(w, "# %s %s -> %s\n", plan.Type, plan.OriginID, plan.TargetID)
	fmt.Fprintf(w, "# start (UTC): %s (JD %f)\n", plan.Start.UTC(), julian.TimeToJD(plan.Start))
	fmt.Fprintf(w, "# end (UTC): %s (JD %f)\n", plan.End().UTC(), julian.TimeToJD(plan.End()))
	fmt.Fprintf(w, "# dv_ms=%f fuel_kg=%f arrival_ms=%f\n", plan.TotalΔv, plan.TotalFuel, plan.ArrivalVelocity)
	if len(plan.Tags) > 0 {
		fmt.Fprintf(w, "# tags=%v\n", plan.Tags)
	}
	if plan.HiddenReason != "" {
		fmt.Fprintf(w, "# hidden: %s\n", plan.HiddenReason)
	}
	fmt.Fprintf(w, "jd,utc,segment,type,host,x_au,y_au\n")
	for k := range plan.Segments {
		seg := &plan.Segments[k]
		n := len(seg.Path)
		if n == 0 {
			continue
		}
		step := time.Duration(0)
		if n > 1 {
			step = seg.Duration() / time.Duration(n-1)
		}
		for i, pt := range seg.Path {
			dt := seg.Start.Add(time.Duration(i) * step)
			_, err := fmt.Fprintf(w, "%f,%s,%d,%s,%s,%f,%f\n",
				julian.TimeToJD(dt), dt.UTC().Format(time.RFC3339), k, seg.Type, seg.HostID, pt.X, pt.Y)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// ExportPlansSummaryCSV writes one row per plan for UI tabulation.
func ExportPlansSummaryCSV(w io.Writer, plans []*TransitPlan) error {
	fmt.Fprintf(w, "type,origin,target,start_jd,tof_days,dv_ms,fuel_kg,arrival_ms,tags,hidden\n")
	for _, plan := range plans {
		_, err := fmt.Fprintf(w, "%s,%s,%s,%f,%f,%f,%f,%f,%v,%s\n",
			plan.Type, plan.OriginID, plan.TargetID, julian.TimeToJD(plan.Start),
			plan.TotalTime.Hours()/24, plan.TotalΔv, plan.TotalFuel,
			plan.ArrivalVelocity, plan.Tags, plan.HiddenReason)
		if err != nil {
			return err
		}
	}
	return nil
}

// CreatePlanCSVFile returns a file which requires a defer close statement!
// The name is stamped with the plan start so successive exports never clash.
func CreatePlanCSVFile(dir, name string, stamp time.Time) (*os.File, error) {
	t := stamp.UTC()
	filename := fmt.Sprintf("%s/transit-%s-%d-%02d-%02dT%02d.%02d.%02d.csv",
		dir, name, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	return os.Create(filename)
}
