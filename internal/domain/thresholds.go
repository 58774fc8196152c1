package domain

import (
	"fmt"
	"time"
)

// Thresholds holds every rule and merge threshold the classifier recognizes.
// Defaults follow published agronomic ranges for the indices (NDMI below
// ~0.2 signals water stress, NDRE below ~0.3 low chlorophyll) adjusted for
// the humid subtropical source region.
type Thresholds struct {
	NDVICrop float64 // canopy presence: ndvi_fill at or above this
	EVICrop  float64 // canopy presence: evi_fill at or above this
	RSMaxAge int     // max age in days of the backing observation

	NDMIDry    float64 // drought: ndmi_fill below this
	MSIDry     float64 // drought: msi_fill above this
	PrecipLow7 float64 // drought: precip_7d below this (mm)

	NDMIWet     float64 // waterlogging: ndmi_fill above this
	PrecipHigh7 float64 // waterlogging: precip_7d above this (mm)

	HeatTmean7 float64 // heat: tmean_7d at or above this (degC)
	HeatRH7    float64 // heat: rh_7d at or below this (%)

	ColdTmin7 float64 // cold: tmin_7d at or below this (degC)

	NDRELow  float64 // nutrient/pest: ndre_fill below this
	GNDVILow float64 // nutrient/pest: gndvi_fill below this

	Slope7Drop float64 // growth decline: ndvi_slope7 at or below this

	MergeGapDays int // max day gap bridged when merging same-type alerts
}

// DefaultThresholds returns the documented default threshold set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NDVICrop:     0.45,
		EVICrop:      0.35,
		RSMaxAge:     5,
		NDMIDry:      0.20,
		MSIDry:       1.50,
		PrecipLow7:   15.0,
		NDMIWet:      0.45,
		PrecipHigh7:  60.0,
		HeatTmean7:   30.0,
		HeatRH7:      60.0,
		ColdTmin7:    3.0,
		NDRELow:      0.30,
		GNDVILow:     0.50,
		Slope7Drop:   -0.03,
		MergeGapDays: 1,
	}
}

// WindowMode selects which observations may back a target day.
type WindowMode string

const (
	WindowSymmetric WindowMode = "symmetric" // |d - o| <= W
	WindowPastOnly  WindowMode = "past_only" // 0 <= d - o <= W
)

// SupportPick breaks ties between equidistant candidate observations.
type SupportPick string

const (
	// PickNearest resolves an exact-distance tie to the most recent
	// candidate date (the future one, in a symmetric window).
	PickNearest SupportPick = "nearest"
	// PickPreferPast resolves the tie to the most recent non-future
	// candidate when one exists, falling back to nearest otherwise.
	PickPreferPast SupportPick = "prefer_past"
)

// WindowConfig configures the support-window resolver.
type WindowConfig struct {
	HalfDays int
	Mode     WindowMode
	Pick     SupportPick
}

// DefaultWindowConfig mirrors the RSMaxAge freshness default.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{HalfDays: 5, Mode: WindowSymmetric, Pick: PickNearest}
}

// Validate rejects unrecognized enum values. Unknown modes abort the run at
// startup rather than silently defaulting mid-run.
func (c WindowConfig) Validate() error {
	switch c.Mode {
	case WindowSymmetric, WindowPastOnly:
	default:
		return fmt.Errorf("unknown window mode %q", c.Mode)
	}
	switch c.Pick {
	case PickNearest, PickPreferPast:
	default:
		return fmt.Errorf("unknown support pick %q", c.Pick)
	}
	if c.HalfDays < 0 {
		return fmt.Errorf("window half days must be >= 0, got %d", c.HalfDays)
	}
	return nil
}

// GatingMode selects how calendar and canopy context gate alerts.
type GatingMode string

const (
	GatingOff         GatingMode = "off"
	GatingMonthWindow GatingMode = "month_window"
	GatingCanopyObs   GatingMode = "canopy_obs"
	GatingBoth        GatingMode = "both"
)

// GatingConfig configures the canopy-readiness gate.
type GatingConfig struct {
	Mode          GatingMode
	CanopyObsMin  int
	CanopyNDVIMin float64
	CanopyEVIMin  float64
	Months        map[time.Month]bool
}

// DefaultGatingConfig gates on canopy establishment, with the month set
// covering the April-October growing season of the source region.
func DefaultGatingConfig() GatingConfig {
	return GatingConfig{
		Mode:          GatingCanopyObs,
		CanopyObsMin:  3,
		CanopyNDVIMin: 0.45,
		CanopyEVIMin:  0.35,
		Months:        MonthSet(4, 5, 6, 7, 8, 9, 10),
	}
}

// MonthSet builds a month mask from 1-based month numbers.
func MonthSet(months ...int) map[time.Month]bool {
	set := make(map[time.Month]bool, len(months))
	for _, m := range months {
		set[time.Month(m)] = true
	}
	return set
}

// Validate rejects unrecognized gating modes and out-of-range months.
func (c GatingConfig) Validate() error {
	switch c.Mode {
	case GatingOff, GatingMonthWindow, GatingCanopyObs, GatingBoth:
	default:
		return fmt.Errorf("unknown gating mode %q", c.Mode)
	}
	if c.CanopyObsMin < 0 {
		return fmt.Errorf("canopy obs min must be >= 0, got %d", c.CanopyObsMin)
	}
	for m := range c.Months {
		if m < time.January || m > time.December {
			return fmt.Errorf("month out of range: %d", m)
		}
	}
	return nil
}
