package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachSeverity(t *testing.T) {
	start := day(2023, time.June, 1)

	t.Run("empty input stays empty", func(t *testing.T) {
		assert.Empty(t, AttachSeverity(nil))
	})

	t.Run("deepest longest event scores highest", func(t *testing.T) {
		events := []MergedEvent{
			{EventType: EventDrought, StartDate: start, DurationDays: 5, PeakValue: 0.15},
			{EventType: EventDrought, StartDate: start.AddDate(0, 0, 20), DurationDays: 1, PeakValue: 0.02},
		}

		got := AttachSeverity(events)

		require.Len(t, got, 2)
		assert.Greater(t, got[0].SeverityScore, got[1].SeverityScore)
		// The maximal event normalizes to 1 on every component: 0.4+0.3+0.2+0.1.
		assert.InDelta(t, 1.0, got[0].SeverityScore, 0.001)
		assert.Equal(t, "major", got[0].SeverityLevel)
	})

	t.Run("scores stay within bounds and levels match bands", func(t *testing.T) {
		events := []MergedEvent{
			{EventType: EventDrought, DurationDays: 3, PeakValue: 0.10},
			{EventType: EventHeatStress, DurationDays: 1, PeakValue: 2.5},
			{EventType: EventComposite, DurationDays: 2, PeakValue: math.NaN()},
		}

		got := AttachSeverity(events)

		for _, ev := range got {
			assert.GreaterOrEqual(t, ev.SeverityScore, 0.0)
			assert.LessOrEqual(t, ev.SeverityScore, 1.0)
			switch {
			case ev.SeverityScore < 0.4:
				assert.Equal(t, "minor", ev.SeverityLevel)
			case ev.SeverityScore < 0.7:
				assert.Equal(t, "moderate", ev.SeverityLevel)
			default:
				assert.Equal(t, "major", ev.SeverityLevel)
			}
		}
	})

	t.Run("nan peak contributes zero depth but still scores", func(t *testing.T) {
		events := []MergedEvent{
			{EventType: EventComposite, DurationDays: 4, PeakValue: math.NaN()},
		}

		got := AttachSeverity(events)

		require.Len(t, got, 1)
		assert.Greater(t, got[0].SeverityScore, 0.0)
	})

	t.Run("does not mutate the input slice", func(t *testing.T) {
		events := []MergedEvent{
			{EventType: EventDrought, DurationDays: 2, PeakValue: 0.1},
		}

		_ = AttachSeverity(events)

		assert.Zero(t, events[0].SeverityScore)
		assert.Empty(t, events[0].SeverityLevel)
	})
}
