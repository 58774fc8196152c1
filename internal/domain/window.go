package domain

import (
	"sort"
	"time"
)

// SupportInfo is the resolved remote-sensing backing for one target day.
type SupportInfo struct {
	Date  time.Time // zero when not found
	Age   int       // |target - support| in days; NoSupportAge when not found
	OK    bool      // support found within the window
	Found bool
}

// ObservationDates extracts the sorted list of real observation days from
// the table. The table must already be sorted by date.
func ObservationDates(table []DailyRecord) []time.Time {
	var dates []time.Time
	for _, r := range table {
		if r.RealObsDay() {
			dates = append(dates, dayKey(r.Date))
		}
	}
	return dates
}

// ResolveSupport finds, for each target day, the nearest qualifying
// observation within the configured window. obsDates must be sorted
// ascending; lookup is a binary search per target day.
func ResolveSupport(targets []time.Time, obsDates []time.Time, cfg WindowConfig) []SupportInfo {
	out := make([]SupportInfo, len(targets))
	for i, t := range targets {
		out[i] = resolveOne(dayKey(t), obsDates, cfg)
	}
	return out
}

func resolveOne(day time.Time, obsDates []time.Time, cfg WindowConfig) SupportInfo {
	// First index with obsDates[i] >= day.
	idx := sort.Search(len(obsDates), func(i int) bool {
		return !obsDates[i].Before(day)
	})

	var past, future *time.Time
	if idx > 0 {
		d := obsDates[idx-1]
		if daysBetween(d, day) <= cfg.HalfDays {
			past = &d
		}
	}
	if idx < len(obsDates) && cfg.Mode == WindowSymmetric {
		d := obsDates[idx]
		if daysBetween(day, d) <= cfg.HalfDays {
			future = &d
		}
	}
	// An observation on the target day lands in the "future" slot with
	// distance zero; under past_only it must still qualify.
	if cfg.Mode == WindowPastOnly && idx < len(obsDates) && obsDates[idx].Equal(day) {
		d := obsDates[idx]
		future = &d
	}

	support := pickSupport(day, past, future, cfg.Pick)
	if support == nil {
		return SupportInfo{Age: NoSupportAge}
	}
	age := daysBetween(*support, day)
	if age < 0 {
		age = -age
	}
	return SupportInfo{Date: *support, Age: age, OK: true, Found: true}
}

// pickSupport chooses between the nearest past and nearest future candidate.
// On an exact-distance tie, "nearest" takes the most recent candidate date
// (the future one) while "prefer_past" takes the non-future one.
func pickSupport(day time.Time, past, future *time.Time, pick SupportPick) *time.Time {
	switch {
	case past == nil:
		return future
	case future == nil:
		return past
	}
	distPast := daysBetween(*past, day)
	distFuture := daysBetween(day, *future)
	switch {
	case distPast < distFuture:
		return past
	case distFuture < distPast:
		return future
	case pick == PickPreferPast:
		return past
	default:
		return future
	}
}

// daysBetween returns the whole-day distance from a to b (positive when b is
// after a). Inputs are normalized to UTC midnight by the callers.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
