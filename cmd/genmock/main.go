// Command genmock generates a deterministic synthetic daily table that
// exercises every stress rule and every skip reason, for tests and demos. It
// runs the actual engine packages over the generated table so the printed
// stats match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/merged_daily.csv -days 120
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/agrisense/crop-alert-engine/internal/domain"
)

var startDate = time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)

// scenario overrides a span of days with values that force one outcome.
type scenario struct {
	name     string
	from, to int // inclusive day offsets
	apply    func(day int, r *row)
}

// row is one generated CSV row. NaN cells write as empty.
type row struct {
	date time.Time

	ndviObs, eviObs              float64
	ndviFill, eviFill, ndmiFill  float64
	ndreFill, gndviFill, msiFill float64

	precip7d, tmean7d, rh7d, tmin7d float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock/merged_daily.csv", "output CSV path")
	days := flag.Int("days", 120, "number of days to generate")
	seed := flag.Int64("seed", 42, "RNG seed")
	flag.Parse()

	if *days < 80 {
		return fmt.Errorf("need at least 80 days to fit all scenarios, got %d", *days)
	}

	// Fixed clock so regenerated fixtures diff cleanly.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2023, time.September, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewSource(*seed))
	rows := generate(*days, rng)

	if err := writeCSV(*out, rows); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d days to %s", len(rows), *out)

	printStats(rows)
	return nil
}

// generate builds a healthy-canopy baseline, then overlays one scenario span
// per rule and per skip reason.
func generate(days int, rng *rand.Rand) []row {
	rows := make([]row, days)
	for i := range rows {
		r := &rows[i]
		r.date = startDate.AddDate(0, 0, i)

		// Observation every 5 days, like a satellite revisit cycle.
		if i%5 == 0 {
			r.ndviObs = 0.60 + rng.Float64()*0.05
			r.eviObs = 0.45 + rng.Float64()*0.05
		} else {
			r.ndviObs = math.NaN()
			r.eviObs = math.NaN()
		}

		r.ndviFill = 0.60 + rng.Float64()*0.05
		r.eviFill = 0.45 + rng.Float64()*0.05
		r.ndmiFill = 0.30 + rng.Float64()*0.05
		r.ndreFill = 0.40 + rng.Float64()*0.05
		r.gndviFill = 0.60 + rng.Float64()*0.05
		r.msiFill = 0.90 + rng.Float64()*0.10

		r.precip7d = 25 + rng.Float64()*10
		r.tmean7d = 24 + rng.Float64()*3
		r.rh7d = 70 + rng.Float64()*10
		r.tmin7d = 16 + rng.Float64()*3
	}

	for _, sc := range scenarios(days) {
		for i := sc.from; i <= sc.to && i < days; i++ {
			sc.apply(i, &rows[i])
		}
	}
	return rows
}

func scenarios(days int) []scenario {
	return []scenario{
		{name: "drought", from: 20, to: 24, apply: func(_ int, r *row) {
			r.ndmiFill = 0.10
			r.msiFill = 1.80
			r.precip7d = 4
		}},
		{name: "waterlogging", from: 30, to: 32, apply: func(_ int, r *row) {
			r.ndmiFill = 0.55
			r.precip7d = 90
			r.eviFill = 0.30
		}},
		{name: "heat_stress", from: 38, to: 40, apply: func(_ int, r *row) {
			r.tmean7d = 33
			r.rh7d = 50
			r.eviFill = 0.30
		}},
		{name: "cold_stress", from: 46, to: 47, apply: func(_ int, r *row) {
			r.tmin7d = 1
			r.eviFill = 0.35
		}},
		{name: "nutrient_or_pest", from: 52, to: 53, apply: func(_ int, r *row) {
			r.ndreFill = 0.20
			r.gndviFill = 0.40
		}},
		// Drought plus heat on the same days resolves to composite.
		{name: "composite", from: 58, to: 59, apply: func(_ int, r *row) {
			r.ndmiFill = 0.10
			r.precip7d = 4
			r.tmean7d = 33
			r.rh7d = 50
			r.eviFill = 0.30
		}},
		// Skip reasons: an observation gap wider than the support window
		// (days 11-14 end up more than 5 days from any observation), a
		// missing weather stretch, and an infinite fill value.
		{name: "missing_remote", from: 6, to: 19, apply: func(_ int, r *row) {
			r.ndviObs = math.NaN()
			r.eviObs = math.NaN()
		}},
		{name: "missing_weather", from: 70, to: 71, apply: func(_ int, r *row) {
			r.precip7d = math.NaN()
		}},
		{name: "nonfinite", from: 75, to: 75, apply: func(_ int, r *row) {
			r.ndmiFill = math.Inf(1)
		}},
	}
}

func writeCSV(path string, rows []row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	records := [][]string{{
		"date",
		"ndvi_obs", "evi_obs",
		"ndvi_fill", "evi_fill", "ndmi_fill", "ndre_fill", "gndvi_fill", "msi_fill",
		"precip_7d", "tmean_7d", "rh_7d", "tmin_7d",
	}}
	for _, r := range rows {
		records = append(records, []string{
			r.date.Format("2006-01-02"),
			cell(r.ndviObs), cell(r.eviObs),
			cell(r.ndviFill), cell(r.eviFill), cell(r.ndmiFill),
			cell(r.ndreFill), cell(r.gndviFill), cell(r.msiFill),
			cell(r.precip7d), cell(r.tmean7d), cell(r.rh7d), cell(r.tmin7d),
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	if math.IsInf(v, 1) {
		return "+Inf"
	}
	if math.IsInf(v, -1) {
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// printStats runs the real engine stages over the generated table and prints
// counts for updating test assertions.
func printStats(rows []row) {
	table := make([]domain.DailyRecord, len(rows))
	for i, r := range rows {
		rec := domain.DailyRecord{
			Date:       r.date,
			Precip7d:   r.precip7d,
			Tmean7d:    r.tmean7d,
			RH7d:       r.rh7d,
			Tmin7d:     r.tmin7d,
			NDVISlope7: math.NaN(),
		}
		for _, ind := range domain.Indicators {
			rec.Obs[ind] = math.NaN()
			rec.Fill[ind] = math.NaN()
		}
		rec.Obs[domain.NDVI] = r.ndviObs
		rec.Obs[domain.EVI] = r.eviObs
		rec.Fill[domain.NDVI] = r.ndviFill
		rec.Fill[domain.EVI] = r.eviFill
		rec.Fill[domain.NDMI] = r.ndmiFill
		rec.Fill[domain.NDRE] = r.ndreFill
		rec.Fill[domain.GNDVI] = r.gndviFill
		rec.Fill[domain.MSI] = r.msiFill
		table[i] = rec
	}

	t := domain.DefaultThresholds()
	table = domain.ResolveMetrics(table)

	obsDates := domain.ObservationDates(table)
	targets := make([]time.Time, len(table))
	for i, r := range table {
		targets[i] = r.Date
	}
	support := domain.ResolveSupport(targets, obsDates, domain.DefaultWindowConfig())

	debug := make([]domain.DebugRecord, len(table))
	skipCounts := map[domain.SkipReason]int{}
	for i, rec := range table {
		missingRemote, missingWeather, reason := domain.EvaluateQC(rec, support[i])
		debug[i] = domain.DebugRecord{
			Date:           rec.Date,
			RealObsDay:     rec.RealObsDay(),
			RSWindowOK:     support[i].OK,
			MissingRemote:  missingRemote,
			MissingWeather: missingWeather,
			QCOK:           reason == domain.SkipOK,
			SkipReason:     reason,
		}
		skipCounts[reason]++
	}
	domain.ResolveGating(table, debug, domain.DefaultGatingConfig())

	raw := domain.Classify(table, debug, t, false)
	gated := domain.Classify(table, debug, t, true)
	events := domain.MergeEvents(gated, table, t)

	typeCounts := map[domain.EventType]int{}
	for _, a := range gated {
		typeCounts[a.EventType]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Days: %d, observation days: %d\n", len(table), len(obsDates))
	fmt.Printf("Skip reasons: missing_remote=%d, missing_weather=%d, nonfinite=%d, ok=%d\n",
		skipCounts[domain.SkipMissingRemote], skipCounts[domain.SkipMissingWeather],
		skipCounts[domain.SkipNonfinite], skipCounts[domain.SkipOK])
	fmt.Printf("Raw alerts: %d, gated alerts: %d, events: %d\n", len(raw), len(gated), len(events))
	fmt.Printf("Gated by type: drought=%d, waterlogging=%d, heat=%d, cold=%d, nutrient=%d, composite=%d\n",
		typeCounts[domain.EventDrought], typeCounts[domain.EventWaterlogging],
		typeCounts[domain.EventHeatStress], typeCounts[domain.EventColdStress],
		typeCounts[domain.EventNutrientOrPest], typeCounts[domain.EventComposite])
	for _, ev := range events {
		fmt.Printf("  %s %s..%s dur=%d peak=%s\n",
			ev.EventType, ev.StartDate.Format("2006-01-02"), ev.EndDate.Format("2006-01-02"),
			ev.DurationDays, ev.PeakMetric)
	}
}
