package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func droughtDay(date time.Time, ndmi float64) (DailyRecord, AlertRecord) {
	rec := healthyRecord(date)
	rec.Fill[NDMI] = ndmi
	rec.Precip7d = 5
	return rec, AlertRecord{Date: date, EventType: EventDrought, Reason: "dry"}
}

func TestMergeEvents(t *testing.T) {
	thresholds := DefaultThresholds()
	start := day(2023, time.June, 1)

	t.Run("gap of one day merges under the default gap", func(t *testing.T) {
		// Alerts on days 1 and 3; merge_gap_days=1 bridges gaps up to 2.
		rec1, a1 := droughtDay(start, 0.10)
		rec3, a3 := droughtDay(start.AddDate(0, 0, 2), 0.05)

		events := MergeEvents([]AlertRecord{a1, a3}, []DailyRecord{rec1, rec3}, thresholds)

		require.Len(t, events, 1)
		ev := events[0]
		assert.Equal(t, EventDrought, ev.EventType)
		assert.Equal(t, start, ev.StartDate)
		assert.Equal(t, start.AddDate(0, 0, 2), ev.EndDate)
		assert.Equal(t, 3, ev.DurationDays)
	})

	t.Run("zero gap config splits the same alerts", func(t *testing.T) {
		rec1, a1 := droughtDay(start, 0.10)
		rec3, a3 := droughtDay(start.AddDate(0, 0, 2), 0.05)

		tight := thresholds
		tight.MergeGapDays = 0
		events := MergeEvents([]AlertRecord{a1, a3}, []DailyRecord{rec1, rec3}, tight)

		require.Len(t, events, 2)
		assert.Equal(t, 1, events[0].DurationDays)
		assert.Equal(t, 1, events[1].DurationDays)
	})

	t.Run("peak is the maximum-intensity member", func(t *testing.T) {
		rec1, a1 := droughtDay(start, 0.15)
		rec2, a2 := droughtDay(start.AddDate(0, 0, 1), 0.05)
		rec3, a3 := droughtDay(start.AddDate(0, 0, 2), 0.12)

		events := MergeEvents([]AlertRecord{a1, a2, a3}, []DailyRecord{rec1, rec2, rec3}, thresholds)

		require.Len(t, events, 1)
		ev := events[0]
		assert.Equal(t, start.AddDate(0, 0, 1), ev.PeakDate)
		assert.InDelta(t, 0.15, ev.PeakValue, 1e-9)
		assert.Equal(t, "ndmi_fill", ev.PeakMetric)
	})

	t.Run("composite events fall back to the first member", func(t *testing.T) {
		rec := healthyRecord(start)
		alerts := []AlertRecord{
			{Date: start, EventType: EventComposite, Reason: "drought+heat_stress"},
			{Date: start.AddDate(0, 0, 1), EventType: EventComposite, Reason: "drought+heat_stress"},
		}

		events := MergeEvents(alerts, []DailyRecord{rec}, thresholds)

		require.Len(t, events, 1)
		assert.Equal(t, start, events[0].PeakDate)
		assert.True(t, math.IsNaN(events[0].PeakValue))
		assert.Empty(t, events[0].PeakMetric)
	})

	t.Run("different event types never merge", func(t *testing.T) {
		recD, alertD := droughtDay(start, 0.10)
		recH := healthyRecord(start.AddDate(0, 0, 1))
		recH.Tmean7d = 33
		alertH := AlertRecord{Date: recH.Date, EventType: EventHeatStress, Reason: "hot"}

		events := MergeEvents([]AlertRecord{alertD, alertH}, []DailyRecord{recD, recH}, thresholds)

		require.Len(t, events, 2)
		assert.Equal(t, EventDrought, events[0].EventType)
		assert.Equal(t, EventHeatStress, events[1].EventType)
	})

	t.Run("events sort by start date across types", func(t *testing.T) {
		recH := healthyRecord(start)
		recH.Tmean7d = 33
		alertH := AlertRecord{Date: start, EventType: EventHeatStress, Reason: "hot"}
		recD, alertD := droughtDay(start.AddDate(0, 0, 5), 0.10)

		events := MergeEvents([]AlertRecord{alertD, alertH}, []DailyRecord{recH, recD}, thresholds)

		require.Len(t, events, 2)
		assert.Equal(t, EventHeatStress, events[0].EventType)
		assert.Equal(t, EventDrought, events[1].EventType)
	})

	t.Run("reason summary keeps two distinct reasons", func(t *testing.T) {
		rec1, a1 := droughtDay(start, 0.10)
		rec2, a2 := droughtDay(start.AddDate(0, 0, 1), 0.10)
		rec3, a3 := droughtDay(start.AddDate(0, 0, 2), 0.10)
		a1.Reason = "first"
		a2.Reason = "second"
		a3.Reason = "third"

		events := MergeEvents([]AlertRecord{a1, a2, a3}, []DailyRecord{rec1, rec2, rec3}, thresholds)

		require.Len(t, events, 1)
		assert.Equal(t, "first | second", events[0].ReasonSummary)
	})

	t.Run("per-type intensity metrics", func(t *testing.T) {
		tests := []struct {
			eventType  EventType
			mutate     func(*DailyRecord)
			wantValue  float64
			wantMetric string
		}{
			{EventDrought, func(r *DailyRecord) { r.Fill[NDMI] = 0.05 }, 0.15, "ndmi_fill"},
			{EventWaterlogging, func(r *DailyRecord) { r.Fill[NDMI] = 0.60 }, 0.15, "ndmi_fill"},
			{EventHeatStress, func(r *DailyRecord) { r.Tmean7d = 33 }, 3.0, "tmean_7d"},
			{EventColdStress, func(r *DailyRecord) { r.Tmin7d = 1 }, 2.0, "tmin_7d"},
			{EventNutrientOrPest, func(r *DailyRecord) { r.Fill[NDRE] = 0.22 }, 0.08, "ndre_fill"},
		}
		for _, tt := range tests {
			t.Run(string(tt.eventType), func(t *testing.T) {
				rec := healthyRecord(start)
				tt.mutate(&rec)
				alert := AlertRecord{Date: start, EventType: tt.eventType}

				events := MergeEvents([]AlertRecord{alert}, []DailyRecord{rec}, thresholds)

				require.Len(t, events, 1)
				assert.InDelta(t, tt.wantValue, events[0].PeakValue, 1e-9)
				assert.Equal(t, tt.wantMetric, events[0].PeakMetric)
			})
		}
	})

	t.Run("empty alert stream yields no events", func(t *testing.T) {
		assert.Empty(t, MergeEvents(nil, []DailyRecord{healthyRecord(start)}, thresholds))
	})
}
