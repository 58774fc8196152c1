package domain

import "math"

// qcIndicators lists the filled indicators required for any rule to be worth
// evaluating (canopy guard plus the moisture signal). The remaining
// indicators are guarded rule-locally so a table missing an optional band
// still classifies.
var qcIndicators = []Indicator{NDVI, EVI, NDMI}

// EvaluateQC decides whether a day is eligible for classification and
// attributes the skip reason by fixed priority: a stale or absent remote
// observation wins over missing weather, which wins over non-finite values.
func EvaluateQC(rec DailyRecord, support SupportInfo) (missingRemote, missingWeather bool, reason SkipReason) {
	missingRemote = !support.OK

	weather := []float64{rec.Precip7d, rec.Tmean7d, rec.RH7d, rec.Tmin7d}
	for _, v := range weather {
		if math.IsNaN(v) {
			missingWeather = true
			break
		}
	}

	nonfinite := false
	for _, v := range weather {
		if math.IsInf(v, 0) {
			nonfinite = true
			break
		}
	}
	if !nonfinite {
		for _, ind := range qcIndicators {
			if !isFinite(rec.Fill[ind]) {
				nonfinite = true
				break
			}
		}
	}

	switch {
	case missingRemote:
		reason = SkipMissingRemote
	case missingWeather:
		reason = SkipMissingWeather
	case nonfinite:
		reason = SkipNonfinite
	default:
		reason = SkipOK
	}
	return missingRemote, missingWeather, reason
}
