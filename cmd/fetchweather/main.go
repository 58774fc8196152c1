// Command fetchweather pulls daily ERA5 reanalysis weather from the
// Open-Meteo archive API and writes the raw weather CSV plus a metadata JSON
// consumed by the upstream merge stage.
//
// Usage:
//
//	go run ./cmd/fetchweather \
//	  -lat 23.5 -lon 116.6 \
//	  -start 2023-01-01 -end 2023-12-31 \
//	  -out data/raw/weather_daily.csv
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/agrisense/crop-alert-engine/internal/adapter/openmeteo"
	"github.com/agrisense/crop-alert-engine/internal/config"
	"github.com/agrisense/crop-alert-engine/internal/domain"
	"github.com/agrisense/crop-alert-engine/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fetchweather:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	lat := flag.Float64("lat", 0, "latitude of the region center")
	lon := flag.Float64("lon", 0, "longitude of the region center")
	start := flag.String("start", "", "start date (YYYY-MM-DD, inclusive)")
	end := flag.String("end", "", "end date (YYYY-MM-DD, inclusive)")
	out := flag.String("out", "data/raw/weather_daily.csv", "output CSV path")
	timezone := flag.String("timezone", "auto", "IANA timezone or auto")
	vars := flag.String("vars", "", "comma-separated daily variables (default: full set)")
	timeout := flag.Duration("timeout", 60*time.Second, "request timeout")
	flag.Parse()

	if *start == "" || *end == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -start, -end")
	}
	for _, d := range []string{*start, *end} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("invalid date %q: %w", d, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req := openmeteo.Request{
		Latitude:  *lat,
		Longitude: *lon,
		StartDate: *start,
		EndDate:   *end,
		Timezone:  *timezone,
	}
	if *vars != "" {
		req.DailyVars = strings.Split(*vars, ",")
	}

	client := openmeteo.NewClient(*timeout, logger)
	result, err := client.FetchDaily(ctx, req)
	if err != nil {
		return err
	}
	logger.Info("weather fetched",
		"days", len(result.Dates),
		"variables", len(result.Series),
		"fallback_used", result.FallbackUsed,
	)

	if err := writeCSV(*out, result); err != nil {
		return err
	}
	logger.Info("weather csv written", "path", *out)

	metaPath := filepath.Join(filepath.Dir(*out), "weather_meta.json")
	if err := writeMeta(metaPath, req, result); err != nil {
		return err
	}
	logger.Info("weather metadata written", "path", metaPath)
	return nil
}

func writeCSV(path string, result openmeteo.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	names := make([]string, 0, len(result.Series))
	for name := range result.Series {
		names = append(names, name)
	}
	// Deterministic column order: the minimal set first, extras alphabetical.
	ordered := orderVariables(names)

	rows := [][]string{append([]string{"date"}, ordered...)}
	for i, date := range result.Dates {
		row := make([]string, 0, len(ordered)+1)
		row = append(row, date)
		for _, name := range ordered {
			series := result.Series[name]
			if i >= len(series) || math.IsNaN(series[i]) {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(series[i], 'f', 3, 64))
		}
		rows = append(rows, row)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func orderVariables(names []string) []string {
	preferred := append([]string{}, openmeteo.DefaultDailyVars...)
	var ordered []string
	seen := make(map[string]bool)
	for _, p := range preferred {
		for _, n := range names {
			if n == p {
				ordered = append(ordered, n)
				seen[n] = true
			}
		}
	}
	var extras []string
	for _, n := range names {
		if !seen[n] {
			extras = append(extras, n)
		}
	}
	sort.Strings(extras)
	return append(ordered, extras...)
}

func writeMeta(path string, req openmeteo.Request, result openmeteo.Result) error {
	vars := make([]string, 0, len(result.Series))
	for name := range result.Series {
		vars = append(vars, name)
	}
	meta := map[string]any{
		"source":               "open-meteo/era5",
		"latitude":             req.Latitude,
		"longitude":            req.Longitude,
		"timezone":             result.Timezone,
		"start_date":           req.StartDate,
		"end_date":             req.EndDate,
		"effective_daily_vars": orderVariables(vars),
		"daily_units":          result.Units,
		"fallback_used":        result.FallbackUsed,
		"generated_at":         domain.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
