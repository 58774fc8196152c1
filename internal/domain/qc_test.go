package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateQC(t *testing.T) {
	base := day(2023, time.June, 15)
	goodSupport := SupportInfo{Date: base, Age: 0, OK: true, Found: true}
	noSupport := SupportInfo{Age: NoSupportAge}

	tests := []struct {
		name        string
		mutate      func(*DailyRecord)
		support     SupportInfo
		wantRemote  bool
		wantWeather bool
		wantReason  SkipReason
	}{
		{
			name:       "clean day passes",
			mutate:     func(*DailyRecord) {},
			support:    goodSupport,
			wantReason: SkipOK,
		},
		{
			name:       "stale support attributes missing_remote",
			mutate:     func(*DailyRecord) {},
			support:    noSupport,
			wantRemote: true,
			wantReason: SkipMissingRemote,
		},
		{
			name:        "missing weather",
			mutate:      func(r *DailyRecord) { r.Precip7d = math.NaN() },
			support:     goodSupport,
			wantWeather: true,
			wantReason:  SkipMissingWeather,
		},
		{
			name:        "missing_remote wins over missing_weather",
			mutate:      func(r *DailyRecord) { r.Tmean7d = math.NaN() },
			support:     noSupport,
			wantRemote:  true,
			wantWeather: true,
			wantReason:  SkipMissingRemote,
		},
		{
			name:       "infinite weather is nonfinite, not missing",
			mutate:     func(r *DailyRecord) { r.RH7d = math.Inf(1) },
			support:    goodSupport,
			wantReason: SkipNonfinite,
		},
		{
			name:       "infinite required fill is nonfinite",
			mutate:     func(r *DailyRecord) { r.Fill[NDMI] = math.Inf(-1) },
			support:    goodSupport,
			wantReason: SkipNonfinite,
		},
		{
			name:       "missing required fill is nonfinite",
			mutate:     func(r *DailyRecord) { r.Fill[NDVI] = math.NaN() },
			support:    goodSupport,
			wantReason: SkipNonfinite,
		},
		{
			name:        "missing_weather wins over nonfinite",
			mutate:      func(r *DailyRecord) { r.Tmin7d = math.NaN(); r.Fill[EVI] = math.NaN() },
			support:     goodSupport,
			wantWeather: true,
			wantReason:  SkipMissingWeather,
		},
		{
			name:       "optional band missing stays ok",
			mutate:     func(r *DailyRecord) { r.Fill[NDRE] = math.NaN(); r.Fill[GNDVI] = math.NaN(); r.Fill[MSI] = math.NaN() },
			support:    goodSupport,
			wantReason: SkipOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := healthyRecord(base)
			tt.mutate(&rec)

			missingRemote, missingWeather, reason := EvaluateQC(rec, tt.support)

			assert.Equal(t, tt.wantRemote, missingRemote)
			assert.Equal(t, tt.wantWeather, missingWeather)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}
