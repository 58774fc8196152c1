package domain

import "math"

// canopyObservation reports whether a real observation day shows an
// established canopy: observed NDVI or EVI at the canopy-presence minimum.
func canopyObservation(rec DailyRecord, cfg GatingConfig) bool {
	ndvi := rec.Obs[NDVI]
	if !math.IsNaN(ndvi) && ndvi >= cfg.CanopyNDVIMin {
		return true
	}
	evi := rec.Obs[EVI]
	return !math.IsNaN(evi) && evi >= cfg.CanopyEVIMin
}

// ResolveGating runs the canopy-streak fold and month mask over the table,
// completing the gating fields of each debug record in place. debug must be
// parallel to table and both must be sorted by date: the streak carries
// forward across non-observation days, so order is load-bearing.
func ResolveGating(table []DailyRecord, debug []DebugRecord, cfg GatingConfig) {
	streak := 0
	for i, rec := range table {
		if rec.RealObsDay() {
			if canopyObservation(rec, cfg) {
				streak++
			} else {
				streak = 0
			}
		}
		d := &debug[i]
		d.CanopyObsStreak = streak
		d.CanopyObsReady = streak >= cfg.CanopyObsMin
		d.MonthOK = cfg.Months[rec.Date.Month()]

		switch cfg.Mode {
		case GatingOff:
			d.GatingOK = true
		case GatingMonthWindow:
			d.GatingOK = d.MonthOK
		case GatingCanopyObs:
			d.GatingOK = d.CanopyObsReady
		case GatingBoth:
			d.GatingOK = d.MonthOK && d.CanopyObsReady
		}
		d.AllowAlert = d.QCOK && d.GatingOK
	}
}
