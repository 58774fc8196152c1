package domain

import (
	"math"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// emptyRecord returns a record for the given date with every value missing.
func emptyRecord(date time.Time) DailyRecord {
	rec := DailyRecord{
		Date:       date,
		Precip7d:   math.NaN(),
		Tmean7d:    math.NaN(),
		RH7d:       math.NaN(),
		Tmin7d:     math.NaN(),
		NDVISlope7: math.NaN(),
	}
	for _, ind := range Indicators {
		rec.Obs[ind] = math.NaN()
		rec.Fill[ind] = math.NaN()
	}
	return rec
}

// healthyRecord returns a record with an established canopy and unstressed
// weather: no rule fires on it under default thresholds.
func healthyRecord(date time.Time) DailyRecord {
	rec := emptyRecord(date)
	rec.Fill[NDVI] = 0.60
	rec.Fill[EVI] = 0.45
	rec.Fill[NDMI] = 0.30
	rec.Fill[NDRE] = 0.40
	rec.Fill[GNDVI] = 0.60
	rec.Fill[MSI] = 0.90
	rec.Precip7d = 25
	rec.Tmean7d = 24
	rec.RH7d = 70
	rec.Tmin7d = 16
	rec.NDVISlope7 = 0.01
	return rec
}
