package csvio

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/agrisense/crop-alert-engine/internal/domain"
)

// Output file names inside the output directory.
const (
	DebugFile       = "rs_debug.csv"
	RawAlertsFile   = "alerts_raw.csv"
	GatedAlertsFile = "alerts_gated.csv"
	EventsFile      = "events_merged.csv"
)

// WriteAlerts writes an alert table (raw or gated) with the fixed column
// order date, event_type, reason.
func WriteAlerts(path string, alerts []domain.AlertRecord) error {
	rows := [][]string{{"date", "event_type", "reason"}}
	for _, a := range alerts {
		rows = append(rows, []string{a.Date.Format(dateLayout), string(a.EventType), a.Reason})
	}
	return writeCSV(path, rows)
}

// WriteEvents writes the merged-events table. Severity columns follow
// reason_summary.
func WriteEvents(path string, events []domain.MergedEvent) error {
	rows := [][]string{{
		"event_type", "start_date", "end_date", "duration_days",
		"peak_date", "peak_value", "peak_metric", "reason_summary",
		"severity_score", "severity_level",
	}}
	for _, ev := range events {
		rows = append(rows, []string{
			string(ev.EventType),
			ev.StartDate.Format(dateLayout),
			ev.EndDate.Format(dateLayout),
			strconv.Itoa(ev.DurationDays),
			ev.PeakDate.Format(dateLayout),
			formatFloat(ev.PeakValue),
			ev.PeakMetric,
			ev.ReasonSummary,
			formatFloat(ev.SeverityScore),
			ev.SeverityLevel,
		})
	}
	return writeCSV(path, rows)
}

// WriteDebug writes the per-day debug table.
func WriteDebug(path string, debug []domain.DebugRecord) error {
	rows := [][]string{{
		"date", "real_obs_day", "rs_support_date", "rs_support_age", "rs_window_ok",
		"missing_remote", "missing_weather", "qc_ok", "skip_reason",
		"canopy_obs_streak", "canopy_obs_ready", "month_ok", "gating_ok", "allow_alert",
	}}
	for _, d := range debug {
		rows = append(rows, []string{
			d.Date.Format(dateLayout),
			formatBool(d.RealObsDay),
			formatDate(d.RSSupportDate),
			strconv.Itoa(d.RSSupportAge),
			formatBool(d.RSWindowOK),
			formatBool(d.MissingRemote),
			formatBool(d.MissingWeather),
			formatBool(d.QCOK),
			string(d.SkipReason),
			strconv.Itoa(d.CanopyObsStreak),
			formatBool(d.CanopyObsReady),
			formatBool(d.MonthOK),
			formatBool(d.GatingOK),
			formatBool(d.AllowAlert),
		})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// formatDate renders a zero time as an empty cell, matching the nullable
// rs_support_date convention.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// formatFloat renders NaN as an empty cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}
