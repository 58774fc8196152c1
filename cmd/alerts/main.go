// Command alerts runs the composite crop-stress alert engine over a merged
// daily table and writes the raw-alert, gated-alert, merged-event, and debug
// tables with their JSON summaries. A Markdown report, Kafka event
// publishing, and a Pushgateway metrics push are each enabled by
// configuration.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/agrisense/crop-alert-engine/internal/adapter/csvio"
	kafkaadapter "github.com/agrisense/crop-alert-engine/internal/adapter/kafka"
	"github.com/agrisense/crop-alert-engine/internal/config"
	"github.com/agrisense/crop-alert-engine/internal/domain"
	"github.com/agrisense/crop-alert-engine/internal/observability"
	"github.com/agrisense/crop-alert-engine/internal/pipeline"
	"github.com/agrisense/crop-alert-engine/internal/report"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	table, err := csvio.ReadDailyTable(cfg.InputPath)
	if err != nil {
		return err
	}
	logger.Info("daily table loaded", "path", cfg.InputPath, "days", len(table))

	engine, err := pipeline.New(pipeline.Config{
		Thresholds: cfg.Thresholds,
		Window:     cfg.Window,
		Gating:     cfg.Gating,
	}, logger, metrics)
	if err != nil {
		return err
	}

	result, err := engine.Run(ctx, table)
	if err != nil {
		return err
	}

	outputs := []struct {
		file  string
		write func(string) error
	}{
		{csvio.DebugFile, func(p string) error { return csvio.WriteDebug(p, result.Debug) }},
		{csvio.RawAlertsFile, func(p string) error { return csvio.WriteAlerts(p, result.RawAlerts) }},
		{csvio.GatedAlertsFile, func(p string) error { return csvio.WriteAlerts(p, result.GatedAlerts) }},
		{csvio.EventsFile, func(p string) error { return csvio.WriteEvents(p, result.Events) }},
	}
	for _, out := range outputs {
		path := filepath.Join(cfg.OutputDir, out.file)
		if err := out.write(path); err != nil {
			return err
		}
		logger.Info("output written", "path", path)
	}

	if err := csvio.WriteSummaries(cfg.OutputDir, cfg.InputPath,
		result.Debug, result.RawAlerts, result.GatedAlerts, result.Events,
		cfg.Thresholds, cfg.Window, cfg.Gating); err != nil {
		return err
	}

	if cfg.ReportPath != "" {
		md := report.Render(result.Events, domain.Now())
		if err := os.WriteFile(cfg.ReportPath, []byte(md), 0o644); err != nil {
			return err
		}
		logger.Info("report written", "path", cfg.ReportPath)
	}

	if cfg.KafkaEnabled {
		publisher := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic, logger)
		pubCtx, cancel := context.WithTimeout(ctx, cfg.KafkaTimeout)
		err := publisher.PublishEvents(pubCtx, result.Events)
		cancel()
		if closeErr := publisher.Close(); closeErr != nil {
			logger.Error("kafka publisher close error", "error", closeErr)
		}
		if err != nil {
			return err
		}
	} else {
		logger.Info("kafka publishing disabled")
	}

	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(cfg.PushgatewayURL, cfg.MetricsJob); err != nil {
			// A missing gateway should not fail an otherwise good run.
			logger.Error("metrics push failed", "error", err)
		}
	}

	return nil
}
