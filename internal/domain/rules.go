package domain

import (
	"fmt"
	"strings"
)

// stressRule is one independent classification rule: a predicate over a
// single day plus the evidence string it contributes when it fires. Rules
// never consult each other; mutual exclusions live inside each guard.
type stressRule struct {
	name EventType
	fire func(r DailyRecord, t Thresholds) (bool, string)
}

// stressRules is the fixed evaluation order. Order affects only evidence
// ordering in the composite case, never which rules fire.
var stressRules = []stressRule{
	{EventDrought, fireDrought},
	{EventWaterlogging, fireWaterlogging},
	{EventHeatStress, fireHeatStress},
	{EventColdStress, fireColdStress},
	{EventNutrientOrPest, fireNutrientOrPest},
}

// canopyOK is the shared guard: rules only apply where a crop canopy is
// plausibly present.
func canopyOK(r DailyRecord, t Thresholds) bool {
	if v := r.Fill[NDVI]; isFinite(v) && v >= t.NDVICrop {
		return true
	}
	v := r.Fill[EVI]
	return isFinite(v) && v >= t.EVICrop
}

// fireDrought: dry canopy signal (NDMI low or MSI high) under a dry week.
func fireDrought(r DailyRecord, t Thresholds) (bool, string) {
	ndmi, msi, precip := r.Fill[NDMI], r.Fill[MSI], r.Precip7d
	if !isFinite(precip) || precip >= t.PrecipLow7 {
		return false, ""
	}
	ndmiDry := isFinite(ndmi) && ndmi < t.NDMIDry
	msiDry := isFinite(msi) && msi > t.MSIDry
	if !ndmiDry && !msiDry {
		return false, ""
	}
	var parts []string
	if ndmiDry {
		parts = append(parts, fmt.Sprintf("ndmi_fill=%.3f<%.2f", ndmi, t.NDMIDry))
	}
	if msiDry {
		parts = append(parts, fmt.Sprintf("msi_fill=%.3f>%.2f", msi, t.MSIDry))
	}
	parts = append(parts, fmt.Sprintf("precip_7d=%.1f<%.1f", precip, t.PrecipLow7))
	return true, strings.Join(parts, " & ")
}

// fireWaterlogging: saturated canopy after a wet week while vegetation lags.
func fireWaterlogging(r DailyRecord, t Thresholds) (bool, string) {
	ndmi, precip := r.Fill[NDMI], r.Precip7d
	if !isFinite(ndmi) || ndmi <= t.NDMIWet {
		return false, ""
	}
	if !isFinite(precip) || precip <= t.PrecipHigh7 {
		return false, ""
	}
	evi, ndvi := r.Fill[EVI], r.Fill[NDVI]
	eviLow := isFinite(evi) && evi < t.EVICrop
	ndviLow := isFinite(ndvi) && ndvi < t.NDVICrop
	if !eviLow && !ndviLow {
		return false, ""
	}
	lag := fmt.Sprintf("evi_fill=%.3f<%.2f", evi, t.EVICrop)
	if !eviLow {
		lag = fmt.Sprintf("ndvi_fill=%.3f<%.2f", ndvi, t.NDVICrop)
	}
	return true, fmt.Sprintf("ndmi_fill=%.3f>%.2f & precip_7d=%.1f>%.1f & %s",
		ndmi, t.NDMIWet, precip, t.PrecipHigh7, lag)
}

// fireHeatStress: hot dry week with stalling growth.
func fireHeatStress(r DailyRecord, t Thresholds) (bool, string) {
	tmean, rh := r.Tmean7d, r.RH7d
	if !isFinite(tmean) || tmean < t.HeatTmean7 {
		return false, ""
	}
	if !isFinite(rh) || rh > t.HeatRH7 {
		return false, ""
	}
	evi, slope := r.Fill[EVI], r.NDVISlope7
	eviLow := isFinite(evi) && evi < t.EVICrop
	slopeDrop := isFinite(slope) && slope <= t.Slope7Drop
	if !eviLow && !slopeDrop {
		return false, ""
	}
	growth := fmt.Sprintf("evi_fill=%.3f<%.2f", evi, t.EVICrop)
	if !eviLow {
		growth = fmt.Sprintf("ndvi_slope7=%.3f<=%.2f", slope, t.Slope7Drop)
	}
	return true, fmt.Sprintf("tmean_7d=%.1f>=%.1f & rh_7d=%.1f<=%.1f & %s",
		tmean, t.HeatTmean7, rh, t.HeatRH7, growth)
}

// fireColdStress: cold snap with a weakened or declining canopy.
func fireColdStress(r DailyRecord, t Thresholds) (bool, string) {
	tmin := r.Tmin7d
	if !isFinite(tmin) || tmin > t.ColdTmin7 {
		return false, ""
	}
	evi, ndvi, slope := r.Fill[EVI], r.Fill[NDVI], r.NDVISlope7
	eviLow := isFinite(evi) && evi < 0.40
	ndviLow := isFinite(ndvi) && ndvi < 0.50
	slopeDrop := isFinite(slope) && slope <= t.Slope7Drop
	if !eviLow && !ndviLow && !slopeDrop {
		return false, ""
	}
	var weak string
	switch {
	case eviLow:
		weak = fmt.Sprintf("evi_fill=%.3f<0.40", evi)
	case ndviLow:
		weak = fmt.Sprintf("ndvi_fill=%.3f<0.50", ndvi)
	default:
		weak = fmt.Sprintf("ndvi_slope7=%.3f<=%.2f", slope, t.Slope7Drop)
	}
	return true, fmt.Sprintf("tmin_7d=%.1f<=%.1f & %s", tmin, t.ColdTmin7, weak)
}

// fireNutrientOrPest: low chlorophyll under adequate moisture. The moisture
// guard attributes low-chlorophyll-while-dry to drought instead.
func fireNutrientOrPest(r DailyRecord, t Thresholds) (bool, string) {
	ndmi := r.Fill[NDMI]
	if !isFinite(ndmi) || ndmi < t.NDMIDry {
		return false, ""
	}
	ndre, gndvi := r.Fill[NDRE], r.Fill[GNDVI]
	ndreLow := isFinite(ndre) && ndre < t.NDRELow
	gndviLow := isFinite(gndvi) && gndvi < t.GNDVILow
	if !ndreLow && !gndviLow {
		return false, ""
	}
	var parts []string
	if ndreLow {
		parts = append(parts, fmt.Sprintf("ndre_fill=%.3f<%.2f", ndre, t.NDRELow))
	}
	if gndviLow {
		parts = append(parts, fmt.Sprintf("gndvi_fill=%.3f<%.2f", gndvi, t.GNDVILow))
	}
	parts = append(parts, fmt.Sprintf("ndmi_fill=%.3f>=%.2f", ndmi, t.NDMIDry))
	return true, strings.Join(parts, " & ")
}

// ClassifyDay evaluates every rule for one day and resolves the trigger set:
// zero triggers yield no alert, one yields that event type, several yield a
// composite whose reason joins the triggered rule names.
func ClassifyDay(r DailyRecord, t Thresholds) (EventType, string, bool) {
	if !canopyOK(r, t) {
		return "", "", false
	}
	var names []string
	var reasons []string
	for _, rule := range stressRules {
		fired, evidence := rule.fire(r, t)
		if fired {
			names = append(names, string(rule.name))
			reasons = append(reasons, evidence)
		}
	}
	switch len(names) {
	case 0:
		return "", "", false
	case 1:
		return EventType(names[0]), reasons[0], true
	default:
		return EventComposite, strings.Join(names, "+"), true
	}
}

// Classify runs a full classification pass over the table. The raw pass
// (applyGating=false) requires only qc_ok; the final pass additionally
// requires allow_alert. debug must be parallel to table.
func Classify(table []DailyRecord, debug []DebugRecord, t Thresholds, applyGating bool) []AlertRecord {
	var alerts []AlertRecord
	for i, rec := range table {
		if !debug[i].QCOK {
			continue
		}
		if applyGating && !debug[i].AllowAlert {
			continue
		}
		eventType, reason, ok := ClassifyDay(rec, t)
		if !ok {
			continue
		}
		alerts = append(alerts, AlertRecord{Date: dayKey(rec.Date), EventType: eventType, Reason: reason})
	}
	return alerts
}
