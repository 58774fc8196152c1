package domain

import (
	"math"
	"sort"
	"time"
)

// MergeEvents collapses the gated alert stream into discrete events: within
// one event type, consecutive alerts merge while the day gap stays within
// mergeGapDays+1. Different event types never merge, so a composite day only
// joins adjacent composite days. The table supplies indicator values for the
// peak computation.
func MergeEvents(alerts []AlertRecord, table []DailyRecord, t Thresholds) []MergedEvent {
	byDate := make(map[time.Time]DailyRecord, len(table))
	for _, r := range table {
		byDate[dayKey(r.Date)] = r
	}

	byType := make(map[EventType][]AlertRecord)
	for _, a := range alerts {
		byType[a.EventType] = append(byType[a.EventType], a)
	}

	var events []MergedEvent
	for _, group := range byType {
		sort.Slice(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })

		var bucket []AlertRecord
		flush := func() {
			if len(bucket) > 0 {
				events = append(events, buildEvent(bucket, byDate, t))
				bucket = nil
			}
		}
		for _, a := range group {
			if len(bucket) > 0 {
				gap := daysBetween(bucket[len(bucket)-1].Date, a.Date)
				if gap > t.MergeGapDays+1 {
					flush()
				}
			}
			bucket = append(bucket, a)
		}
		flush()
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].StartDate.Before(events[j].StartDate)
		}
		return events[i].EventType < events[j].EventType
	})
	return events
}

func buildEvent(bucket []AlertRecord, byDate map[time.Time]DailyRecord, t Thresholds) MergedEvent {
	start := bucket[0].Date
	end := bucket[len(bucket)-1].Date

	ev := MergedEvent{
		EventType:    bucket[0].EventType,
		StartDate:    start,
		EndDate:      end,
		DurationDays: daysBetween(start, end) + 1,
		PeakValue:    math.NaN(),
	}

	// Peak: maximum-intensity member, falling back to the first member when
	// no member's intensity is computable (composite events always fall back,
	// having no single driving threshold).
	ev.PeakDate = start
	best := math.Inf(-1)
	for _, a := range bucket {
		rec, ok := byDate[a.Date]
		if !ok {
			continue
		}
		value, metric, computable := intensity(a.EventType, rec, t)
		if computable && value > best {
			best = value
			ev.PeakDate = a.Date
			ev.PeakValue = value
			ev.PeakMetric = metric
		}
	}

	ev.ReasonSummary = summarizeReasons(bucket)
	return ev
}

// intensity is the signed distance of the event's driving indicator past its
// rule's own threshold; larger means more severe. Only computable when the
// event's required inputs are finite.
func intensity(eventType EventType, rec DailyRecord, t Thresholds) (float64, string, bool) {
	switch eventType {
	case EventDrought:
		if v := rec.Fill[NDMI]; isFinite(v) {
			return t.NDMIDry - v, "ndmi_fill", true
		}
	case EventWaterlogging:
		if v := rec.Fill[NDMI]; isFinite(v) {
			return v - t.NDMIWet, "ndmi_fill", true
		}
	case EventHeatStress:
		if v := rec.Tmean7d; isFinite(v) {
			return v - t.HeatTmean7, "tmean_7d", true
		}
	case EventColdStress:
		if v := rec.Tmin7d; isFinite(v) {
			return t.ColdTmin7 - v, "tmin_7d", true
		}
	case EventNutrientOrPest:
		if v := rec.Fill[NDRE]; isFinite(v) {
			return t.NDRELow - v, "ndre_fill", true
		}
	}
	return 0, "", false
}

// summarizeReasons keeps up to two distinct reasons from the run, in order
// of first occurrence.
func summarizeReasons(bucket []AlertRecord) string {
	seen := make(map[string]bool, 2)
	var out string
	for _, a := range bucket {
		if a.Reason == "" || seen[a.Reason] {
			continue
		}
		seen[a.Reason] = true
		if out == "" {
			out = a.Reason
		} else {
			return out + " | " + a.Reason
		}
	}
	return out
}
