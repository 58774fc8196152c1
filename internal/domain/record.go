package domain

import (
	"math"
	"time"
)

// Indicator identifies one of the six remote-sensing vegetation/moisture
// indices carried by the daily table.
type Indicator int

const (
	NDVI Indicator = iota
	EVI
	NDMI
	NDRE
	GNDVI
	MSI

	numIndicators
)

// Indicators lists all indicators in canonical order.
var Indicators = []Indicator{NDVI, EVI, NDMI, NDRE, GNDVI, MSI}

func (i Indicator) String() string {
	switch i {
	case NDVI:
		return "ndvi"
	case EVI:
		return "evi"
	case NDMI:
		return "ndmi"
	case NDRE:
		return "ndre"
	case GNDVI:
		return "gndvi"
	case MSI:
		return "msi"
	default:
		return "unknown"
	}
}

// EventType classifies a stress alert.
type EventType string

const (
	EventDrought        EventType = "drought"
	EventWaterlogging   EventType = "waterlogging"
	EventHeatStress     EventType = "heat_stress"
	EventColdStress     EventType = "cold_stress"
	EventNutrientOrPest EventType = "nutrient_or_pest"
	EventComposite      EventType = "composite"
)

// SkipReason records why a day was excluded from classification.
type SkipReason string

const (
	SkipMissingRemote  SkipReason = "missing_remote"
	SkipMissingWeather SkipReason = "missing_weather"
	SkipNonfinite      SkipReason = "nonfinite"
	SkipOK             SkipReason = "ok"
)

// NoSupportAge is the rs_support_age sentinel when no qualifying observation
// exists within the support window.
const NoSupportAge = 9999

// DailyRecord is one calendar day of the merged input table. Missing values
// are NaN, mirroring the upstream CSV convention where an absent column or
// empty cell reads as NaN.
type DailyRecord struct {
	Date time.Time

	// Obs holds per-indicator values from actual acquisitions; Fill holds
	// the observed-or-interpolated daily series.
	Obs  [numIndicators]float64
	Fill [numIndicators]float64

	Precip7d float64
	Tmean7d  float64
	RH7d     float64
	Tmin7d   float64

	NDVISlope7 float64
}

// RealObsDay reports whether any indicator was actually observed on this day.
func (r DailyRecord) RealObsDay() bool {
	for _, ind := range Indicators {
		if !math.IsNaN(r.Obs[ind]) {
			return true
		}
	}
	return false
}

// DebugRecord carries the engine's per-day internal judgments, one per input
// row, for the debug output table.
type DebugRecord struct {
	Date           time.Time
	RealObsDay     bool
	RSSupportDate  time.Time // zero when no support found
	RSSupportAge   int
	RSWindowOK     bool
	MissingRemote  bool
	MissingWeather bool
	QCOK           bool
	SkipReason     SkipReason

	CanopyObsStreak int
	CanopyObsReady  bool
	MonthOK         bool
	GatingOK        bool
	AllowAlert      bool
}

// AlertRecord is one day on which a rule fired.
type AlertRecord struct {
	Date      time.Time
	EventType EventType
	Reason    string
}

// MergedEvent is a maximal run of consecutive same-type daily alerts.
// PeakValue is the signed distance of the driving indicator past its rule's
// threshold on the peak day; NaN when no intensity was computable for any
// member (the peak then falls back to the first member).
type MergedEvent struct {
	EventType     EventType
	StartDate     time.Time
	EndDate       time.Time
	DurationDays  int
	PeakDate      time.Time
	PeakValue     float64
	PeakMetric    string
	ReasonSummary string

	SeverityScore float64
	SeverityLevel string
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
