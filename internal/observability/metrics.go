package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the Prometheus counters and histograms for one engine run.
// The engine runs to completion rather than serving traffic, so metrics are
// registered on a private registry and pushed to a Pushgateway at exit.
type Metrics struct {
	registry *prometheus.Registry

	DaysProcessed  prometheus.Counter
	QCPassDays     prometheus.Counter
	AllowAlertDays prometheus.Counter
	RawAlerts      prometheus.Counter
	GatedAlerts    prometheus.Counter
	EventsMerged   prometheus.Counter

	SkipReasons *prometheus.CounterVec // label: reason={missing_remote,missing_weather,nonfinite,ok}

	RunDuration prometheus.Histogram
}

// NewMetrics creates and registers all engine metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DaysProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_alerts",
			Name:      "days_processed_total",
			Help:      "Total daily rows read from the merged input table.",
		}),
		QCPassDays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_alerts",
			Name:      "qc_pass_days_total",
			Help:      "Days that passed quality control.",
		}),
		AllowAlertDays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_alerts",
			Name:      "allow_alert_days_total",
			Help:      "Days eligible for gated alerting (QC and gating both passed).",
		}),
		RawAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_alerts",
			Name:      "raw_alerts_total",
			Help:      "Alerts emitted by the ungated classification pass.",
		}),
		GatedAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_alerts",
			Name:      "gated_alerts_total",
			Help:      "Alerts emitted by the gated classification pass.",
		}),
		EventsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_alerts",
			Name:      "events_merged_total",
			Help:      "Merged stress events produced from the gated alert stream.",
		}),
		SkipReasons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_alerts",
			Name:      "skip_reasons_total",
			Help:      "Per-day QC outcomes by reason.",
		}, []string{"reason"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crop_alerts",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete engine run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	m.registry.MustRegister(
		m.DaysProcessed,
		m.QCPassDays,
		m.AllowAlertDays,
		m.RawAlerts,
		m.GatedAlerts,
		m.EventsMerged,
		m.SkipReasons,
		m.RunDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without a registry so tests can call
// the engine repeatedly without push side effects.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DaysProcessed:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_alerts", Name: "days_processed_total"}),
		QCPassDays:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_alerts", Name: "qc_pass_days_total"}),
		AllowAlertDays: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_alerts", Name: "allow_alert_days_total"}),
		RawAlerts:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_alerts", Name: "raw_alerts_total"}),
		GatedAlerts:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_alerts", Name: "gated_alerts_total"}),
		EventsMerged:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_alerts", Name: "events_merged_total"}),
		SkipReasons:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_alerts", Name: "skip_reasons_total"}, []string{"reason"}),
		RunDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crop_alerts", Name: "run_duration_seconds"}),
	}
}

// Push sends the collected metrics to a Pushgateway under the given job name.
// No-op when the metrics were built for testing.
func (m *Metrics) Push(gatewayURL, job string) error {
	if m.registry == nil {
		return nil
	}
	return push.New(gatewayURL, job).Gatherer(m.registry).Push()
}
