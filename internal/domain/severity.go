package domain

import (
	"math"

	"github.com/montanaflynn/stats"
)

const severityEps = 1e-9

// AttachSeverity scores each merged event on a 0-1 scale and labels it
// minor/moderate/major. Depth (peak distance past threshold), duration, and
// cumulative load (depth x duration) are each normalized to the maximum in
// the current event set, then weighted 0.4/0.3/0.2 with a 0.1 base so any
// event that survived merging scores above zero. Returns a new slice.
func AttachSeverity(events []MergedEvent) []MergedEvent {
	out := make([]MergedEvent, len(events))
	copy(out, events)
	if len(out) == 0 {
		return out
	}

	depths := make([]float64, len(out))
	durations := make([]float64, len(out))
	loads := make([]float64, len(out))
	for i, ev := range out {
		d := ev.PeakValue
		if !isFinite(d) || d < 0 {
			d = 0
		}
		depths[i] = d
		durations[i] = float64(ev.DurationDays)
		loads[i] = d * float64(ev.DurationDays)
	}

	maxDepth := safeMax(depths)
	maxDuration := safeMax(durations)
	maxLoad := safeMax(loads)

	for i := range out {
		score := 0.40*(depths[i]/(maxDepth+severityEps)) +
			0.30*(durations[i]/(maxDuration+severityEps)) +
			0.20*(loads[i]/(maxLoad+severityEps)) +
			0.10
		score = math.Min(math.Max(score, 0), 1)
		out[i].SeverityScore = math.Round(score*1000) / 1000
		out[i].SeverityLevel = severityLevel(score)
	}
	return out
}

func severityLevel(score float64) string {
	switch {
	case score < 0.4:
		return "minor"
	case score < 0.7:
		return "moderate"
	default:
		return "major"
	}
}

// safeMax is the maximum of the slice, or 1 when the slice is empty, all
// zero, or non-finite, so normalization never divides by zero.
func safeMax(values []float64) float64 {
	m, err := stats.Max(values)
	if err != nil || !isFinite(m) || m <= 0 {
		return 1.0
	}
	return m
}
