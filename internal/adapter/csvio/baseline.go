package csvio

import (
	"math"
	"strconv"

	"github.com/agrisense/crop-alert-engine/internal/domain"
)

// Baseline output file names inside the output directory.
const (
	BaselineFile       = "ndvi_baseline.csv"
	BaselineEventsFile = "alerts_baseline.csv"
)

// WriteBaseline writes the per-DOY quantile-band table.
func WriteBaseline(path string, rows []domain.BaselineRow) error {
	out := [][]string{{"doy", "p10", "p25", "p50", "p75", "p90", "n"}}
	for _, r := range rows {
		out = append(out, []string{
			strconv.Itoa(r.DOY),
			formatFloat4(r.P10),
			formatFloat4(r.P25),
			formatFloat4(r.P50),
			formatFloat4(r.P75),
			formatFloat4(r.P90),
			strconv.Itoa(r.N),
		})
	}
	return writeCSV(path, out)
}

// WriteBaselineEvents writes the scored anomaly-run table. The header is
// written even when nothing fired so downstream readers always see the
// schema.
func WriteBaselineEvents(path string, events []domain.BaselineEvent) error {
	out := [][]string{{
		"event_id", "start_date", "end_date", "duration_days",
		"min_date", "min_dev", "depth_std", "deficit",
		"raw_avail_share", "dry_days_share",
		"severity_level", "severity_name", "severity_score",
		"ndvi_at_min", "base50_at_min", "precip7_mean",
	}}
	for _, ev := range events {
		out = append(out, []string{
			strconv.Itoa(ev.EventID),
			ev.StartDate.Format(dateLayout),
			ev.EndDate.Format(dateLayout),
			strconv.Itoa(ev.DurationDays),
			ev.MinDate.Format(dateLayout),
			formatFloat4(ev.MinDev),
			formatFloat4(ev.DepthStd),
			formatFloat4(ev.Deficit),
			formatFloat4(ev.RawAvailShare),
			formatFloat4(ev.DryDaysShare),
			strconv.Itoa(ev.SeverityLevel),
			ev.SeverityName,
			formatFloat4(ev.SeverityScore),
			formatFloat4(ev.NDVIAtMin),
			formatFloat4(ev.Base50AtMin),
			formatFloat4(ev.Precip7Mean),
		})
	}
	return writeCSV(path, out)
}

// formatFloat4 renders with four decimals, empty for NaN, matching the
// fixed-precision convention of the baseline tables.
func formatFloat4(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
