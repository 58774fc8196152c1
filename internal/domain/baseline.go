package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
)

// BaselineConfig configures the day-of-year seasonal NDVI baseline and its
// anomaly detector.
type BaselineConfig struct {
	SmoothWindow int     // cyclic rolling-mean width over the DOY axis
	DevThresh    float64 // trigger: ndvi_fill minus the median band at or below this
	MinRun       int     // minimum consecutive triggering days per event
	Precip7Max   float64 // only trigger when precip_7d is at or under this; NaN disables
	DryThresh    float64 // dry-day definition for the dry_days_share diagnostic

	TrainYears  map[int]bool // years feeding the baseline; nil means all
	TargetYears map[int]bool // years eligible for detection; nil means all
}

// DefaultBaselineConfig returns the documented defaults: a 15-day smoothing
// window and events of at least 5 consecutive days more than 0.08 below the
// median band.
func DefaultBaselineConfig() BaselineConfig {
	return BaselineConfig{
		SmoothWindow: 15,
		DevThresh:    -0.08,
		MinRun:       5,
		Precip7Max:   math.NaN(),
		DryThresh:    5.0,
	}
}

// Validate rejects degenerate window, run, and threshold settings.
func (c BaselineConfig) Validate() error {
	if c.SmoothWindow < 1 {
		return fmt.Errorf("baseline smooth window must be >= 1, got %d", c.SmoothWindow)
	}
	if c.MinRun < 1 {
		return fmt.Errorf("baseline min run must be >= 1, got %d", c.MinRun)
	}
	if !math.IsNaN(c.DevThresh) && c.DevThresh >= 0 {
		return fmt.Errorf("baseline dev threshold must be negative, got %g", c.DevThresh)
	}
	return nil
}

// BaselineRow is one day-of-year of the seasonal baseline: smoothed quantile
// bands of filled NDVI plus the sample count behind them.
type BaselineRow struct {
	DOY int
	P10 float64
	P25 float64
	P50 float64
	P75 float64
	P90 float64
	N   int
}

// BaselineEvent is one maximal run of days sitting below the seasonal
// baseline median by at least the configured deviation.
type BaselineEvent struct {
	EventID      int
	StartDate    time.Time
	EndDate      time.Time
	DurationDays int

	MinDate  time.Time // deepest day of the run
	MinDev   float64
	DepthStd float64 // deepest deviation measured in lower-band widths
	Deficit  float64 // summed negative deviation over the run

	RawAvailShare float64 // share of run days backed by a real observation
	DryDaysShare  float64 // share of run days with precip_7d at or under DryThresh

	SeverityLevel int
	SeverityName  string
	SeverityScore float64

	NDVIAtMin   float64
	Base50AtMin float64
	Precip7Mean float64
}

var baselineSeverityNames = [...]string{"info", "minor", "moderate", "severe"}

// BuildNDVIBaseline aggregates filled NDVI by day of year into
// p10/p25/p50/p75/p90 bands and smooths each band cyclically so the year end
// wraps onto the year start. Feb 29 is dropped to keep the DOY axis stable.
// TrainYears, when set, restricts which rows feed the aggregation; detection
// over other years still reads the same baseline.
func BuildNDVIBaseline(table []DailyRecord, cfg BaselineConfig) []BaselineRow {
	byDOY := make(map[int][]float64)
	for _, rec := range table {
		if isLeapDay(rec.Date) {
			continue
		}
		if cfg.TrainYears != nil && !cfg.TrainYears[rec.Date.Year()] {
			continue
		}
		v := rec.Fill[NDVI]
		if math.IsNaN(v) {
			continue
		}
		doy := rec.Date.YearDay()
		byDOY[doy] = append(byDOY[doy], v)
	}

	doys := make([]int, 0, len(byDOY))
	for d := range byDOY {
		doys = append(doys, d)
	}
	sort.Ints(doys)

	rows := make([]BaselineRow, len(doys))
	bands := make([][]float64, 5)
	for i := range bands {
		bands[i] = make([]float64, len(doys))
	}
	percents := [5]float64{10, 25, 50, 75, 90}
	for i, d := range doys {
		vals := byDOY[d]
		for b, pct := range percents {
			bands[b][i] = quantile(vals, pct)
		}
		rows[i] = BaselineRow{DOY: d, N: len(vals)}
	}
	for b := range bands {
		bands[b] = cyclicSmooth(bands[b], cfg.SmoothWindow)
	}
	for i := range rows {
		rows[i].P10 = bands[0][i]
		rows[i].P25 = bands[1][i]
		rows[i].P50 = bands[2][i]
		rows[i].P75 = bands[3][i]
		rows[i].P90 = bands[4][i]
	}
	return rows
}

// baselineDay pairs one evaluated table row with its deviation from the
// baseline median.
type baselineDay struct {
	rec  DailyRecord
	dev  float64
	base BaselineRow
}

// DetectBaselineEvents compresses runs of at least MinRun consecutive days
// whose filled NDVI sits DevThresh or more below the baseline median into
// scored anomaly events. Runs break on calendar gaps. TargetYears, when set,
// restricts detection without changing the baseline. The table must be
// sorted by date.
func DetectBaselineEvents(table []DailyRecord, baseline []BaselineRow, cfg BaselineConfig) []BaselineEvent {
	byDOY := make(map[int]BaselineRow, len(baseline))
	for _, row := range baseline {
		byDOY[row.DOY] = row
	}

	var days []baselineDay
	for _, rec := range table {
		if isLeapDay(rec.Date) {
			continue
		}
		if cfg.TargetYears != nil && !cfg.TargetYears[rec.Date.Year()] {
			continue
		}
		dev := math.NaN()
		base, ok := byDOY[rec.Date.YearDay()]
		if ok {
			dev = rec.Fill[NDVI] - base.P50
		}
		days = append(days, baselineDay{rec: rec, dev: dev, base: base})
	}

	var events []BaselineEvent
	var run []baselineDay
	flush := func() {
		if len(run) >= cfg.MinRun {
			events = append(events, scoreBaselineRun(run, len(events)+1, cfg))
		}
		run = nil
	}
	for _, d := range days {
		if !baselineTrigger(d, cfg) {
			flush()
			continue
		}
		if len(run) > 0 && daysBetween(run[len(run)-1].rec.Date, d.rec.Date) > 1 {
			flush()
		}
		run = append(run, d)
	}
	flush()
	return events
}

// baselineTrigger reports whether one day counts toward an anomaly run.
func baselineTrigger(d baselineDay, cfg BaselineConfig) bool {
	if math.IsNaN(d.rec.Fill[NDVI]) || math.IsNaN(d.dev) || d.dev > cfg.DevThresh {
		return false
	}
	if !math.IsNaN(cfg.Precip7Max) {
		p := d.rec.Precip7d
		if math.IsNaN(p) || p > cfg.Precip7Max {
			return false
		}
	}
	return true
}

// scoreBaselineRun grades one run. Depth bands set the base level with a
// bump for long durations; the 0-1 score mixes depth, deficit area, and
// duration at 0.5/0.3/0.2.
func scoreBaselineRun(run []baselineDay, id int, cfg BaselineConfig) BaselineEvent {
	duration := len(run)
	minIdx := 0
	deficit := 0.0
	obsDays, dryDays := 0, 0
	var precips []float64
	for i, d := range run {
		if d.dev < run[minIdx].dev {
			minIdx = i
		}
		if d.dev < 0 {
			deficit += -d.dev
		}
		if !math.IsNaN(d.rec.Obs[NDVI]) {
			obsDays++
		}
		if p := d.rec.Precip7d; !math.IsNaN(p) {
			precips = append(precips, p)
			if p <= cfg.DryThresh {
				dryDays++
			}
		}
	}

	deepest := run[minIdx]
	absMinDev := math.Abs(deepest.dev)
	// Guard the band width so a collapsed p50-p10 gap cannot explode the
	// standardized depth.
	lowerBand := deepest.base.P50 - deepest.base.P10
	if !isFinite(lowerBand) || lowerBand < 0.02 {
		lowerBand = 0.02
	}
	depthStd := absMinDev / lowerBand

	level := baselineDepthLevel(absMinDev)
	switch {
	case duration >= 15:
		level += 2
	case duration >= 10:
		level++
	}
	if level > 3 {
		level = 3
	}

	depthScore := math.Min(depthStd/2.0, 1.0)
	areaScore := math.Min(deficit/1.5, 1.0)
	durScore := math.Min(float64(duration)/20.0, 1.0)
	score := math.Round((0.5*depthScore+0.3*areaScore+0.2*durScore)*1000) / 1000

	precipMean := math.NaN()
	if m, err := stats.Mean(precips); err == nil {
		precipMean = m
	}

	return BaselineEvent{
		EventID:       id,
		StartDate:     dayKey(run[0].rec.Date),
		EndDate:       dayKey(run[duration-1].rec.Date),
		DurationDays:  duration,
		MinDate:       dayKey(deepest.rec.Date),
		MinDev:        deepest.dev,
		DepthStd:      depthStd,
		Deficit:       deficit,
		RawAvailShare: float64(obsDays) / float64(duration),
		DryDaysShare:  float64(dryDays) / float64(duration),
		SeverityLevel: level,
		SeverityName:  baselineSeverityNames[level],
		SeverityScore: score,
		NDVIAtMin:     deepest.rec.Fill[NDVI],
		Base50AtMin:   deepest.base.P50,
		Precip7Mean:   precipMean,
	}
}

// baselineDepthLevel bands the deepest deviation of a run.
func baselineDepthLevel(absMinDev float64) int {
	switch {
	case absMinDev < 0.06:
		return 0
	case absMinDev < 0.08:
		return 1
	case absMinDev < 0.12:
		return 2
	default:
		return 3
	}
}

// quantile is Percentile with a small-sample fallback: when too few values
// exist for the requested percentile the smallest value stands in.
func quantile(vals []float64, percent float64) float64 {
	q, err := stats.Percentile(vals, percent)
	if err == nil {
		return q
	}
	m, err := stats.Min(vals)
	if err != nil {
		return math.NaN()
	}
	return m
}

// cyclicSmooth is a centered rolling mean where the series wraps, so the
// first days of the year borrow from the last and vice versa.
func cyclicSmooth(s []float64, window int) []float64 {
	out := make([]float64, len(s))
	if window <= 1 || len(s) == 0 {
		copy(out, s)
		return out
	}
	pad := window / 2
	if pad > len(s) {
		pad = len(s)
	}
	ext := make([]float64, 0, len(s)+2*pad)
	ext = append(ext, s[len(s)-pad:]...)
	ext = append(ext, s...)
	ext = append(ext, s[:pad]...)

	for i := range s {
		width := window
		if width > len(ext)-i {
			width = len(ext) - i
		}
		sum, n := 0.0, 0
		for _, v := range ext[i : i+width] {
			if !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(n)
		}
	}
	return out
}

func isLeapDay(t time.Time) bool {
	return t.Month() == time.February && t.Day() == 29
}
