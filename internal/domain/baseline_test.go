package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatBaseline covers every DOY in [from, to] with the same quantile bands.
func flatBaseline(from, to time.Time, p50, p10 float64) []BaselineRow {
	var rows []BaselineRow
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if isLeapDay(d) {
			continue
		}
		rows = append(rows, BaselineRow{
			DOY: d.YearDay(),
			P10: p10, P25: p50, P50: p50, P75: p50, P90: p50,
			N: 5,
		})
	}
	return rows
}

// dipTable builds healthy days with filled NDVI lowered on [dipFrom, dipTo].
func dipTable(start time.Time, days, dipFrom, dipTo int, dipFill float64) []DailyRecord {
	table := make([]DailyRecord, days)
	for i := range table {
		rec := healthyRecord(start.AddDate(0, 0, i))
		if i >= dipFrom && i <= dipTo {
			rec.Fill[NDVI] = dipFill
		}
		table[i] = rec
	}
	return table
}

func TestBuildNDVIBaseline(t *testing.T) {
	cfg := DefaultBaselineConfig()
	cfg.SmoothWindow = 1

	t.Run("aggregates by day of year", func(t *testing.T) {
		var table []DailyRecord
		for year := 2014; year <= 2023; year++ {
			r1 := healthyRecord(day(year, time.January, 1))
			r1.Fill[NDVI] = 0.60
			r2 := healthyRecord(day(year, time.January, 2))
			r2.Fill[NDVI] = 0.40
			table = append(table, r1, r2)
		}

		rows := BuildNDVIBaseline(table, cfg)

		require.Len(t, rows, 2)
		assert.Equal(t, 1, rows[0].DOY)
		assert.Equal(t, 2, rows[1].DOY)
		assert.Equal(t, 10, rows[0].N)
		assert.InDelta(t, 0.60, rows[0].P50, 1e-9)
		assert.InDelta(t, 0.40, rows[1].P50, 1e-9)
		// Identical samples collapse every band onto the median.
		assert.InDelta(t, rows[0].P10, rows[0].P90, 1e-9)
	})

	t.Run("bands are ordered on spread data", func(t *testing.T) {
		var table []DailyRecord
		for year := 2014; year <= 2023; year++ {
			r := healthyRecord(day(year, time.June, 1))
			r.Fill[NDVI] = float64(year-2013) / 10 // 0.1 .. 1.0
			table = append(table, r)
		}

		rows := BuildNDVIBaseline(table, cfg)

		require.Len(t, rows, 1)
		b := rows[0]
		assert.LessOrEqual(t, b.P10, b.P25)
		assert.LessOrEqual(t, b.P25, b.P50)
		assert.LessOrEqual(t, b.P50, b.P75)
		assert.LessOrEqual(t, b.P75, b.P90)
		assert.Less(t, b.P10, b.P90)
		assert.InDelta(t, 0.5, b.P50, 0.06)
	})

	t.Run("drops leap day", func(t *testing.T) {
		table := []DailyRecord{
			healthyRecord(day(2024, time.February, 28)),
			healthyRecord(day(2024, time.February, 29)),
			healthyRecord(day(2024, time.March, 1)),
		}

		rows := BuildNDVIBaseline(table, cfg)

		require.Len(t, rows, 2)
		assert.Equal(t, 59, rows[0].DOY)
		assert.Equal(t, 61, rows[1].DOY)
	})

	t.Run("train years restrict the sample", func(t *testing.T) {
		lo := healthyRecord(day(2020, time.January, 1))
		lo.Fill[NDVI] = 0.20
		hi := healthyRecord(day(2021, time.January, 1))
		hi.Fill[NDVI] = 0.80

		trained := cfg
		trained.TrainYears = map[int]bool{2021: true}
		rows := BuildNDVIBaseline([]DailyRecord{lo, hi}, trained)

		require.Len(t, rows, 1)
		assert.Equal(t, 1, rows[0].N)
		assert.InDelta(t, 0.80, rows[0].P50, 1e-9)
	})

	t.Run("skips days without ndvi", func(t *testing.T) {
		rec := emptyRecord(day(2023, time.June, 1))

		rows := BuildNDVIBaseline([]DailyRecord{rec}, cfg)

		assert.Empty(t, rows)
	})
}

func TestCyclicSmooth(t *testing.T) {
	t.Run("wraps the year ends", func(t *testing.T) {
		out := cyclicSmooth([]float64{10, 0, 0, 0, 0}, 3)

		require.Len(t, out, 5)
		// Both ends see the spike through the wrap.
		assert.InDelta(t, 10.0/3, out[0], 1e-9)
		assert.InDelta(t, 10.0/3, out[4], 1e-9)
		assert.InDelta(t, 0, out[2], 1e-9)
	})

	t.Run("window one is the identity", func(t *testing.T) {
		s := []float64{0.1, 0.2, 0.3}

		out := cyclicSmooth(s, 1)

		assert.Equal(t, s, out)
	})

	t.Run("ignores nan neighbors", func(t *testing.T) {
		out := cyclicSmooth([]float64{math.NaN(), 3}, 3)

		assert.InDelta(t, 3, out[0], 1e-9)
		assert.InDelta(t, 3, out[1], 1e-9)
	})
}

func TestDetectBaselineEvents(t *testing.T) {
	start := day(2023, time.June, 1)
	base := flatBaseline(start, day(2023, time.June, 30), 0.60, 0.50)

	t.Run("compresses a run into one scored event", func(t *testing.T) {
		table := dipTable(start, 30, 9, 15, 0.50) // June 10-16, dev -0.10

		events := DetectBaselineEvents(table, base, DefaultBaselineConfig())

		require.Len(t, events, 1)
		ev := events[0]
		assert.Equal(t, 1, ev.EventID)
		assert.Equal(t, day(2023, time.June, 10), ev.StartDate)
		assert.Equal(t, day(2023, time.June, 16), ev.EndDate)
		assert.Equal(t, 7, ev.DurationDays)
		assert.Equal(t, day(2023, time.June, 10), ev.MinDate)
		assert.InDelta(t, -0.10, ev.MinDev, 1e-9)
		assert.InDelta(t, 1.0, ev.DepthStd, 1e-9) // 0.10 over the 0.10 lower band
		assert.InDelta(t, 0.70, ev.Deficit, 1e-9)
		assert.InDelta(t, 0, ev.RawAvailShare, 1e-9)
		assert.InDelta(t, 0, ev.DryDaysShare, 1e-9)
		assert.Equal(t, 2, ev.SeverityLevel)
		assert.Equal(t, "moderate", ev.SeverityName)
		assert.InDelta(t, 0.46, ev.SeverityScore, 1e-9)
		assert.InDelta(t, 0.50, ev.NDVIAtMin, 1e-9)
		assert.InDelta(t, 0.60, ev.Base50AtMin, 1e-9)
		assert.InDelta(t, 25, ev.Precip7Mean, 1e-9)
	})

	t.Run("short runs do not fire", func(t *testing.T) {
		table := dipTable(start, 30, 9, 12, 0.50) // 4 days < MinRun 5

		events := DetectBaselineEvents(table, base, DefaultBaselineConfig())

		assert.Empty(t, events)
	})

	t.Run("calendar gap splits runs", func(t *testing.T) {
		table := dipTable(start, 14, 0, 12, 0.50)
		// Drop June 7 so the run breaks in the middle.
		table = append(table[:6], table[7:]...)

		events := DetectBaselineEvents(table, base, DefaultBaselineConfig())

		require.Len(t, events, 2)
		assert.Equal(t, day(2023, time.June, 1), events[0].StartDate)
		assert.Equal(t, day(2023, time.June, 6), events[0].EndDate)
		assert.Equal(t, 2, events[1].EventID)
		assert.Equal(t, day(2023, time.June, 8), events[1].StartDate)
	})

	t.Run("leap day breaks the run", func(t *testing.T) {
		leapStart := day(2024, time.February, 23)
		leapBase := flatBaseline(leapStart, day(2024, time.March, 5), 0.60, 0.50)
		table := dipTable(leapStart, 12, 0, 11, 0.50) // Feb 23 - Mar 5, all low

		events := DetectBaselineEvents(table, leapBase, DefaultBaselineConfig())

		require.Len(t, events, 2)
		assert.Equal(t, day(2024, time.February, 28), events[0].EndDate)
		assert.Equal(t, day(2024, time.March, 1), events[1].StartDate)
	})

	t.Run("dry filter excludes wet days", func(t *testing.T) {
		cfg := DefaultBaselineConfig()
		cfg.MinRun = 3
		cfg.Precip7Max = 5

		table := dipTable(start, 30, 9, 15, 0.50)
		for i := 9; i <= 15; i++ {
			table[i].Precip7d = 4
		}
		table[12].Precip7d = 25 // wet day in the middle

		events := DetectBaselineEvents(table, base, cfg)

		require.Len(t, events, 2)
		assert.Equal(t, 3, events[0].DurationDays)
		assert.Equal(t, 3, events[1].DurationDays)
		assert.InDelta(t, 1.0, events[0].DryDaysShare, 1e-9)
	})

	t.Run("target years restrict detection", func(t *testing.T) {
		earlier := dipTable(day(2022, time.June, 1), 30, 9, 15, 0.50)
		later := dipTable(start, 30, 9, 15, 0.50)
		table := append(earlier, later...)

		cfg := DefaultBaselineConfig()
		cfg.TargetYears = map[int]bool{2023: true}
		events := DetectBaselineEvents(table, base, cfg)

		require.Len(t, events, 1)
		assert.Equal(t, 2023, events[0].StartDate.Year())
	})

	t.Run("severity escalates with depth and duration", func(t *testing.T) {
		table := dipTable(start, 30, 5, 20, 0.45) // 16 days, dev -0.15

		events := DetectBaselineEvents(table, base, DefaultBaselineConfig())

		require.Len(t, events, 1)
		ev := events[0]
		assert.Equal(t, 16, ev.DurationDays)
		assert.Equal(t, 3, ev.SeverityLevel)
		assert.Equal(t, "severe", ev.SeverityName)
		// 0.5*(1.5/2) + 0.3*1.0 + 0.2*(16/20)
		assert.InDelta(t, 0.835, ev.SeverityScore, 1e-9)
	})

	t.Run("missing ndvi breaks the run", func(t *testing.T) {
		table := dipTable(start, 30, 9, 15, 0.50)
		table[12].Fill[NDVI] = math.NaN()

		events := DetectBaselineEvents(table, base, DefaultBaselineConfig())

		assert.Empty(t, events) // both halves are under MinRun
	})

	t.Run("empty table yields no events", func(t *testing.T) {
		events := DetectBaselineEvents(nil, base, DefaultBaselineConfig())

		assert.Empty(t, events)
	})
}

func TestBaselineConfigValidate(t *testing.T) {
	require.NoError(t, DefaultBaselineConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*BaselineConfig)
	}{
		{"zero smooth window", func(c *BaselineConfig) { c.SmoothWindow = 0 }},
		{"zero min run", func(c *BaselineConfig) { c.MinRun = 0 }},
		{"non-negative dev threshold", func(c *BaselineConfig) { c.DevThresh = 0.05 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultBaselineConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
