// Command baseline builds the day-of-year seasonal NDVI baseline from the
// merged daily table and compresses runs below the median band into scored
// anomaly events. It writes ndvi_baseline.csv and alerts_baseline.csv next
// to the engine outputs, giving a second alert channel independent of the
// composite rules.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/agrisense/crop-alert-engine/internal/adapter/csvio"
	"github.com/agrisense/crop-alert-engine/internal/config"
	"github.com/agrisense/crop-alert-engine/internal/domain"
	"github.com/agrisense/crop-alert-engine/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	table, err := csvio.ReadDailyTable(cfg.InputPath)
	if err != nil {
		return err
	}
	table = domain.ResolveMetrics(table)
	logger.Info("daily table loaded", "path", cfg.InputPath, "days", len(table))

	baseline := domain.BuildNDVIBaseline(table, cfg.Baseline)
	events := domain.DetectBaselineEvents(table, baseline, cfg.Baseline)

	basePath := filepath.Join(cfg.OutputDir, csvio.BaselineFile)
	if err := csvio.WriteBaseline(basePath, baseline); err != nil {
		return err
	}
	logger.Info("output written", "path", basePath, "doys", len(baseline))

	eventsPath := filepath.Join(cfg.OutputDir, csvio.BaselineEventsFile)
	if err := csvio.WriteBaselineEvents(eventsPath, events); err != nil {
		return err
	}
	logger.Info("output written", "path", eventsPath, "events", len(events))

	return nil
}
