package csvio

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/agrisense/crop-alert-engine/internal/domain"
)

// passRates are the QC and gating pass fractions over the debug table.
type passRates struct {
	QCPassRate     float64 `json:"qc_pass_rate"`
	GatingPassRate float64 `json:"gating_pass_rate"`
	AllowAlertRate float64 `json:"allow_alert_rate"`
}

type skipReasonStat struct {
	Count int     `json:"count"`
	Ratio float64 `json:"ratio"`
}

type qcCounts struct {
	TotalDays      int `json:"total_days"`
	RealObsDays    int `json:"real_obs_days"`
	RSWindowOKDays int `json:"rs_window_ok_days"`
	QCOKDays       int `json:"qc_ok_days"`
	AllowAlertDays int `json:"allow_alert_days"`
}

type stageInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	GatingApplied *bool  `json:"gating_applied,omitempty"`
}

type summaryPaths struct {
	Inputs []string `json:"inputs"`
	Output string   `json:"output"`
}

type summaryRows struct {
	Inputs int `json:"inputs"`
	Output int `json:"output"`
}

// outputSummary is the .summary.json sidecar written next to each output
// table.
type outputSummary struct {
	Stage       stageInfo                 `json:"stage"`
	Paths       summaryPaths              `json:"paths"`
	Rows        summaryRows               `json:"rows"`
	QCCounts    *qcCounts                 `json:"qc_counts,omitempty"`
	PassRates   passRates                 `json:"pass_rates"`
	SkipReason  map[string]skipReasonStat `json:"skip_reason"`
	Thresholds  map[string]any            `json:"thresholds"`
	GeneratedAt string                    `json:"generated_at"`
}

type stageSummaryEntry struct {
	Stage        string `json:"stage"`
	File         string `json:"file"`
	Granularity  string `json:"granularity"`
	DaysCount    int    `json:"days_count"`
	AlertsCount  *int   `json:"alerts_count"`
	EventsCount  *int   `json:"events_count"`
	RemovedCount *int   `json:"removed_count"`
}

type stageSummary struct {
	GeneratedAt string              `json:"generated_at"`
	Totals      map[string]int      `json:"totals"`
	Stages      []stageSummaryEntry `json:"stages"`
}

// WriteSummaries writes a .summary.json sidecar per output table plus the
// pipeline-wide stage_summary.json into the output directory.
func WriteSummaries(outputDir, inputPath string, debug []domain.DebugRecord,
	raw, gated []domain.AlertRecord, events []domain.MergedEvent,
	t domain.Thresholds, w domain.WindowConfig, g domain.GatingConfig) error {

	counts := countDebug(debug)
	rates := computeRates(debug, counts)
	skips := skipStats(debug)
	echo := thresholdEcho(t, w, g)
	now := domain.Now().UTC().Format("2006-01-02T15:04:05Z07:00")

	falseVal, trueVal := false, true
	sidecars := []struct {
		file    string
		payload outputSummary
	}{
		{DebugFile, outputSummary{
			Stage:       stageInfo{ID: "stage_2", Name: "rs_debug"},
			Paths:       summaryPaths{Inputs: []string{inputPath}, Output: filepath.Join(outputDir, DebugFile)},
			Rows:        summaryRows{Inputs: counts.TotalDays, Output: len(debug)},
			QCCounts:    &counts,
			PassRates:   rates,
			SkipReason:  skips,
			Thresholds:  echo,
			GeneratedAt: now,
		}},
		{RawAlertsFile, outputSummary{
			Stage:       stageInfo{ID: "stage_3", Name: "alerts_raw", GatingApplied: &falseVal},
			Paths:       summaryPaths{Inputs: []string{inputPath}, Output: filepath.Join(outputDir, RawAlertsFile)},
			Rows:        summaryRows{Inputs: counts.TotalDays, Output: len(raw)},
			PassRates:   rates,
			SkipReason:  skips,
			Thresholds:  echo,
			GeneratedAt: now,
		}},
		{GatedAlertsFile, outputSummary{
			Stage:       stageInfo{ID: "stage_4", Name: "alerts_gated", GatingApplied: &trueVal},
			Paths:       summaryPaths{Inputs: []string{inputPath}, Output: filepath.Join(outputDir, GatedAlertsFile)},
			Rows:        summaryRows{Inputs: counts.TotalDays, Output: len(gated)},
			PassRates:   rates,
			SkipReason:  skips,
			Thresholds:  echo,
			GeneratedAt: now,
		}},
		{EventsFile, outputSummary{
			Stage:       stageInfo{ID: "stage_5", Name: "events_merged"},
			Paths:       summaryPaths{Inputs: []string{filepath.Join(outputDir, GatedAlertsFile)}, Output: filepath.Join(outputDir, EventsFile)},
			Rows:        summaryRows{Inputs: len(gated), Output: len(events)},
			PassRates:   rates,
			SkipReason:  skips,
			Thresholds:  echo,
			GeneratedAt: now,
		}},
	}
	for _, sc := range sidecars {
		path := sidecarPath(filepath.Join(outputDir, sc.file))
		if err := writeJSON(path, sc.payload); err != nil {
			return err
		}
	}

	removedQC := counts.TotalDays - counts.QCOKDays
	removedGating := counts.QCOKDays - counts.AllowAlertDays
	rawCount, gatedCount, eventCount := len(raw), len(gated), len(events)
	overall := stageSummary{
		GeneratedAt: now,
		Totals: map[string]int{
			"total_days":       counts.TotalDays,
			"qc_ok_days":       counts.QCOKDays,
			"allow_alert_days": counts.AllowAlertDays,
			"raw_alerts":       rawCount,
			"gated_alerts":     gatedCount,
			"events":           eventCount,
		},
		Stages: []stageSummaryEntry{
			{Stage: "02", File: filepath.Join(outputDir, DebugFile), Granularity: "days",
				DaysCount: counts.QCOKDays, RemovedCount: &removedQC},
			{Stage: "03", File: filepath.Join(outputDir, RawAlertsFile), Granularity: "alerts",
				DaysCount: counts.QCOKDays, AlertsCount: &rawCount},
			{Stage: "04", File: filepath.Join(outputDir, GatedAlertsFile), Granularity: "alerts",
				DaysCount: counts.AllowAlertDays, AlertsCount: &gatedCount, RemovedCount: &removedGating},
			{Stage: "05", File: filepath.Join(outputDir, EventsFile), Granularity: "events",
				DaysCount: counts.AllowAlertDays, AlertsCount: &gatedCount, EventsCount: &eventCount},
		},
	}
	return writeJSON(filepath.Join(outputDir, "stage_summary.json"), overall)
}

func sidecarPath(csvPath string) string {
	ext := filepath.Ext(csvPath)
	return csvPath[:len(csvPath)-len(ext)] + ".summary.json"
}

func countDebug(debug []domain.DebugRecord) qcCounts {
	c := qcCounts{TotalDays: len(debug)}
	for _, d := range debug {
		if d.RealObsDay {
			c.RealObsDays++
		}
		if d.RSWindowOK {
			c.RSWindowOKDays++
		}
		if d.QCOK {
			c.QCOKDays++
		}
		if d.AllowAlert {
			c.AllowAlertDays++
		}
	}
	return c
}

func computeRates(debug []domain.DebugRecord, c qcCounts) passRates {
	var r passRates
	if c.TotalDays > 0 {
		r.QCPassRate = round4(float64(c.QCOKDays) / float64(c.TotalDays))
		r.AllowAlertRate = round4(float64(c.AllowAlertDays) / float64(c.TotalDays))
	}
	if c.QCOKDays > 0 {
		r.GatingPassRate = round4(float64(c.AllowAlertDays) / float64(c.QCOKDays))
	}
	return r
}

func skipStats(debug []domain.DebugRecord) map[string]skipReasonStat {
	out := make(map[string]skipReasonStat)
	if len(debug) == 0 {
		return out
	}
	total := float64(len(debug))
	for _, reason := range []domain.SkipReason{
		domain.SkipMissingRemote, domain.SkipMissingWeather, domain.SkipNonfinite, domain.SkipOK,
	} {
		count := 0
		for _, d := range debug {
			if d.SkipReason == reason {
				count++
			}
		}
		out[string(reason)] = skipReasonStat{Count: count, Ratio: round4(float64(count) / total)}
	}
	return out
}

func thresholdEcho(t domain.Thresholds, w domain.WindowConfig, g domain.GatingConfig) map[string]any {
	months := make([]int, 0, len(g.Months))
	for m := range g.Months {
		months = append(months, int(m))
	}
	sort.Ints(months)
	return map[string]any{
		"ndvi_crop":      t.NDVICrop,
		"evi_crop":       t.EVICrop,
		"rs_max_age":     t.RSMaxAge,
		"ndmi_dry":       t.NDMIDry,
		"msi_dry":        t.MSIDry,
		"precip_low7":    t.PrecipLow7,
		"ndmi_wet":       t.NDMIWet,
		"precip_high7":   t.PrecipHigh7,
		"heat_tmean7":    t.HeatTmean7,
		"heat_rh7":       t.HeatRH7,
		"cold_tmin7":     t.ColdTmin7,
		"ndre_low":       t.NDRELow,
		"gndvi_low":      t.GNDVILow,
		"slope7_drop":    t.Slope7Drop,
		"merge_gap_days": t.MergeGapDays,

		"remote_sensing.window_half_days": w.HalfDays,
		"remote_sensing.window_mode":      string(w.Mode),
		"remote_sensing.support_pick":     string(w.Pick),

		"gating.mode":            string(g.Mode),
		"gating.months":          months,
		"gating.canopy_obs_min":  g.CanopyObsMin,
		"gating.canopy_ndvi_min": g.CanopyNDVIMin,
		"gating.canopy_evi_min":  g.CanopyEVIMin,
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func writeJSON(path string, payload any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
