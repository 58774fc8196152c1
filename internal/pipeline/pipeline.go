package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agrisense/crop-alert-engine/internal/domain"
	"github.com/agrisense/crop-alert-engine/internal/observability"
)

// Config bundles the engine's threshold, window, and gating settings.
type Config struct {
	Thresholds domain.Thresholds
	Window     domain.WindowConfig
	Gating     domain.GatingConfig
}

// Validate rejects unrecognized enum values before any row is processed.
func (c Config) Validate() error {
	if err := c.Window.Validate(); err != nil {
		return err
	}
	return c.Gating.Validate()
}

// Result holds the four derived tables of one engine run.
type Result struct {
	Debug       []domain.DebugRecord
	RawAlerts   []domain.AlertRecord
	GatedAlerts []domain.AlertRecord
	Events      []domain.MergedEvent
}

// Engine runs the classification stages over an in-memory daily table.
// It is a pure function of the table and configuration: running it twice on
// identical input yields identical output.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Engine. Configuration errors surface here, at startup.
func New(cfg Config, logger *slog.Logger, metrics *observability.Metrics) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return &Engine{cfg: cfg, logger: logger, metrics: metrics}, nil
}

// Run executes the full stage sequence: metric resolution, support-window
// resolution, QC, gating, the raw and gated classification passes, event
// merging, and severity scoring. The input table must be sorted by date with
// no duplicates; violations abort the run with no partial output.
func (e *Engine) Run(ctx context.Context, table []domain.DailyRecord) (Result, error) {
	start := time.Now()

	if err := validateTable(table); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	table = domain.ResolveMetrics(table)

	obsDates := domain.ObservationDates(table)
	targets := make([]time.Time, len(table))
	for i, r := range table {
		targets[i] = r.Date
	}
	support := domain.ResolveSupport(targets, obsDates, e.cfg.Window)

	debug := make([]domain.DebugRecord, len(table))
	qcOK := 0
	for i, rec := range table {
		missingRemote, missingWeather, reason := domain.EvaluateQC(rec, support[i])
		debug[i] = domain.DebugRecord{
			Date:           rec.Date,
			RealObsDay:     rec.RealObsDay(),
			RSSupportDate:  support[i].Date,
			RSSupportAge:   support[i].Age,
			RSWindowOK:     support[i].OK,
			MissingRemote:  missingRemote,
			MissingWeather: missingWeather,
			QCOK:           reason == domain.SkipOK,
			SkipReason:     reason,
		}
		if debug[i].QCOK {
			qcOK++
		}
		e.metrics.SkipReasons.WithLabelValues(string(reason)).Inc()
	}

	domain.ResolveGating(table, debug, e.cfg.Gating)

	allowed := 0
	for _, d := range debug {
		if d.AllowAlert {
			allowed++
		}
	}

	raw := domain.Classify(table, debug, e.cfg.Thresholds, false)
	gated := domain.Classify(table, debug, e.cfg.Thresholds, true)
	events := domain.MergeEvents(gated, table, e.cfg.Thresholds)
	events = domain.AttachSeverity(events)

	e.metrics.DaysProcessed.Add(float64(len(table)))
	e.metrics.QCPassDays.Add(float64(qcOK))
	e.metrics.AllowAlertDays.Add(float64(allowed))
	e.metrics.RawAlerts.Add(float64(len(raw)))
	e.metrics.GatedAlerts.Add(float64(len(gated)))
	e.metrics.EventsMerged.Add(float64(len(events)))
	e.metrics.RunDuration.Observe(time.Since(start).Seconds())

	e.logger.Info("engine run complete",
		"days", len(table),
		"observation_days", len(obsDates),
		"qc_ok_days", qcOK,
		"allow_alert_days", allowed,
		"raw_alerts", len(raw),
		"gated_alerts", len(gated),
		"events", len(events),
	)

	return Result{Debug: debug, RawAlerts: raw, GatedAlerts: gated, Events: events}, nil
}

// validateTable enforces the input invariant: dates strictly increasing, one
// row per date.
func validateTable(table []domain.DailyRecord) error {
	for i := 1; i < len(table); i++ {
		prev, cur := table[i-1].Date, table[i].Date
		if !cur.After(prev) {
			return fmt.Errorf("daily table not strictly increasing at row %d: %s then %s",
				i, prev.Format("2006-01-02"), cur.Format("2006-01-02"))
		}
	}
	return nil
}
