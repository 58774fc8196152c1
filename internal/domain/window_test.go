package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSupport(t *testing.T) {
	obs := []time.Time{
		day(2023, time.June, 1),
		day(2023, time.June, 11),
	}

	t.Run("same-day observation resolves with age zero", func(t *testing.T) {
		cfg := WindowConfig{HalfDays: 5, Mode: WindowSymmetric, Pick: PickNearest}
		got := ResolveSupport([]time.Time{day(2023, time.June, 1)}, obs, cfg)

		require.Len(t, got, 1)
		assert.True(t, got[0].OK)
		assert.Equal(t, day(2023, time.June, 1), got[0].Date)
		assert.Equal(t, 0, got[0].Age)
	})

	t.Run("nearest picks the closer side", func(t *testing.T) {
		cfg := WindowConfig{HalfDays: 5, Mode: WindowSymmetric, Pick: PickNearest}
		got := ResolveSupport([]time.Time{day(2023, time.June, 3)}, obs, cfg)

		require.Len(t, got, 1)
		assert.Equal(t, day(2023, time.June, 1), got[0].Date)
		assert.Equal(t, 2, got[0].Age)
	})

	t.Run("prefer_past takes the past on an exact tie", func(t *testing.T) {
		cfg := WindowConfig{HalfDays: 5, Mode: WindowSymmetric, Pick: PickPreferPast}
		got := ResolveSupport([]time.Time{day(2023, time.June, 6)}, obs, cfg)

		require.Len(t, got, 1)
		assert.Equal(t, day(2023, time.June, 1), got[0].Date)
		assert.Equal(t, 5, got[0].Age)
	})

	t.Run("nearest takes the future on an exact tie", func(t *testing.T) {
		cfg := WindowConfig{HalfDays: 5, Mode: WindowSymmetric, Pick: PickNearest}
		got := ResolveSupport([]time.Time{day(2023, time.June, 6)}, obs, cfg)

		require.Len(t, got, 1)
		assert.Equal(t, day(2023, time.June, 11), got[0].Date)
		assert.Equal(t, 5, got[0].Age)
	})

	t.Run("prefer_past falls back to the future when no past exists", func(t *testing.T) {
		cfg := WindowConfig{HalfDays: 5, Mode: WindowSymmetric, Pick: PickPreferPast}
		got := ResolveSupport([]time.Time{day(2023, time.May, 30)}, obs, cfg)

		require.Len(t, got, 1)
		assert.Equal(t, day(2023, time.June, 1), got[0].Date)
		assert.Equal(t, 2, got[0].Age)
	})

	t.Run("past_only ignores future observations", func(t *testing.T) {
		cfg := WindowConfig{HalfDays: 5, Mode: WindowPastOnly, Pick: PickNearest}
		got := ResolveSupport([]time.Time{day(2023, time.June, 10)}, obs, cfg)

		require.Len(t, got, 1)
		assert.False(t, got[0].OK)
		assert.False(t, got[0].Found)
		assert.Equal(t, NoSupportAge, got[0].Age)
	})

	t.Run("past_only still accepts a same-day observation", func(t *testing.T) {
		cfg := WindowConfig{HalfDays: 5, Mode: WindowPastOnly, Pick: PickNearest}
		got := ResolveSupport([]time.Time{day(2023, time.June, 11)}, obs, cfg)

		require.Len(t, got, 1)
		assert.True(t, got[0].OK)
		assert.Equal(t, day(2023, time.June, 11), got[0].Date)
		assert.Equal(t, 0, got[0].Age)
	})

	t.Run("out of window yields the sentinel", func(t *testing.T) {
		cfg := WindowConfig{HalfDays: 3, Mode: WindowSymmetric, Pick: PickNearest}
		got := ResolveSupport([]time.Time{day(2023, time.June, 6)}, obs, cfg)

		require.Len(t, got, 1)
		assert.False(t, got[0].OK)
		assert.True(t, got[0].Date.IsZero())
		assert.Equal(t, NoSupportAge, got[0].Age)
	})

	t.Run("no observations at all", func(t *testing.T) {
		cfg := WindowConfig{HalfDays: 5, Mode: WindowSymmetric, Pick: PickNearest}
		got := ResolveSupport([]time.Time{day(2023, time.June, 6)}, nil, cfg)

		require.Len(t, got, 1)
		assert.False(t, got[0].OK)
		assert.Equal(t, NoSupportAge, got[0].Age)
	})
}

func TestObservationDates(t *testing.T) {
	withObs := healthyRecord(day(2023, time.June, 1))
	withObs.Obs[NDVI] = 0.6
	noObs := healthyRecord(day(2023, time.June, 2))
	eviOnly := healthyRecord(day(2023, time.June, 3))
	eviOnly.Obs[EVI] = 0.4

	got := ObservationDates([]DailyRecord{withObs, noObs, eviOnly})

	assert.Equal(t, []time.Time{day(2023, time.June, 1), day(2023, time.June, 3)}, got)
}

func TestWindowConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     WindowConfig
		wantErr string
	}{
		{"valid symmetric", WindowConfig{HalfDays: 5, Mode: WindowSymmetric, Pick: PickNearest}, ""},
		{"valid past_only", WindowConfig{HalfDays: 0, Mode: WindowPastOnly, Pick: PickPreferPast}, ""},
		{"unknown mode", WindowConfig{HalfDays: 5, Mode: "both_ways", Pick: PickNearest}, "unknown window mode"},
		{"unknown pick", WindowConfig{HalfDays: 5, Mode: WindowSymmetric, Pick: "closest"}, "unknown support pick"},
		{"negative half days", WindowConfig{HalfDays: -1, Mode: WindowSymmetric, Pick: PickNearest}, "half days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
