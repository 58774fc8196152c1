package domain

import (
	"math"
	"time"
)

// ObsColumnAliases returns the acceptable source column names for an
// indicator's observed series, in resolution order. The explicit obs column
// wins; the legacy per-acquisition mean column is the fallback.
func ObsColumnAliases(ind Indicator) []string {
	name := ind.String()
	return []string{name + "_obs", name + "_mean"}
}

// FillColumnAliases returns the acceptable source column names for an
// indicator's filled daily series, in resolution order. NDVI additionally
// accepts the legacy ndvi_mean_daily mirror.
func FillColumnAliases(ind Indicator) []string {
	name := ind.String()
	aliases := []string{name + "_fill"}
	if ind == NDVI {
		aliases = append(aliases, "ndvi_mean_daily")
	}
	return append(aliases, name+"_mean")
}

// ResolveMetrics returns a copy of the table with derived metrics completed:
// ndvi_slope7 is computed from the filled NDVI series wherever the input
// left it NaN. The caller's slice is never mutated.
func ResolveMetrics(table []DailyRecord) []DailyRecord {
	out := make([]DailyRecord, len(table))
	copy(out, table)

	fillByDate := make(map[time.Time]float64, len(out))
	for _, r := range out {
		fillByDate[dayKey(r.Date)] = r.Fill[NDVI]
	}

	for i := range out {
		if !math.IsNaN(out[i].NDVISlope7) {
			continue
		}
		today := out[i].Fill[NDVI]
		weekAgo, ok := fillByDate[dayKey(out[i].Date.AddDate(0, 0, -7))]
		if !ok || math.IsNaN(today) || math.IsNaN(weekAgo) {
			continue
		}
		out[i].NDVISlope7 = today - weekAgo
	}
	return out
}

// dayKey normalizes a date to UTC midnight so rows read from different
// sources key identically.
func dayKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
