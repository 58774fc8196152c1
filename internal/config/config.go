package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agrisense/crop-alert-engine/internal/domain"
)

// Config holds all engine settings, populated from environment variables.
type Config struct {
	InputPath  string
	OutputDir  string
	ReportPath string
	LogLevel   string
	LogFormat  string

	Thresholds domain.Thresholds
	Window     domain.WindowConfig
	Gating     domain.GatingConfig
	Baseline   domain.BaselineConfig

	// Kafka event publishing configuration.
	KafkaBrokers     []string
	KafkaEventsTopic string
	KafkaEnabled     bool
	KafkaTimeout     time.Duration

	// Pushgateway configuration.
	PushgatewayURL string
	MetricsJob     string
}

// Load reads configuration from environment variables, applying defaults
// where unset. Malformed numbers and unrecognized enum values fail here, at
// startup, never mid-run.
func Load() (*Config, error) {
	thresholds, err := loadThresholds()
	if err != nil {
		return nil, err
	}

	window, err := loadWindow(thresholds.RSMaxAge)
	if err != nil {
		return nil, err
	}

	gating, err := loadGating(thresholds)
	if err != nil {
		return nil, err
	}

	baseline, err := loadBaseline()
	if err != nil {
		return nil, err
	}

	kafkaTimeoutStr := envOrDefault("KAFKA_TIMEOUT", "10s")
	kafkaTimeout, err := time.ParseDuration(kafkaTimeoutStr)
	if err != nil || kafkaTimeout <= 0 {
		return nil, errors.New("invalid KAFKA_TIMEOUT")
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		InputPath:  envOrDefault("INPUT_PATH", "data/merged_daily.csv"),
		OutputDir:  envOrDefault("OUTPUT_DIR", "out"),
		ReportPath: os.Getenv("REPORT_PATH"),
		LogLevel:   envOrDefault("LOG_LEVEL", "info"),
		LogFormat:  envOrDefault("LOG_FORMAT", "json"),

		Thresholds: thresholds,
		Window:     window,
		Gating:     gating,
		Baseline:   baseline,

		KafkaBrokers:     brokers,
		KafkaEventsTopic: envOrDefault("KAFKA_EVENTS_TOPIC", "crop-stress-events"),
		KafkaEnabled:     kafkaEnabled,
		KafkaTimeout:     kafkaTimeout,

		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
		MetricsJob:     envOrDefault("METRICS_JOB", "crop-alert-engine"),
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func loadThresholds() (domain.Thresholds, error) {
	t := domain.DefaultThresholds()
	var err error

	floats := []struct {
		key string
		dst *float64
	}{
		{"NDVI_CROP", &t.NDVICrop},
		{"EVI_CROP", &t.EVICrop},
		{"NDMI_DRY", &t.NDMIDry},
		{"MSI_DRY", &t.MSIDry},
		{"PRECIP_LOW7", &t.PrecipLow7},
		{"NDMI_WET", &t.NDMIWet},
		{"PRECIP_HIGH7", &t.PrecipHigh7},
		{"HEAT_TMEAN7", &t.HeatTmean7},
		{"HEAT_RH7", &t.HeatRH7},
		{"COLD_TMIN7", &t.ColdTmin7},
		{"NDRE_LOW", &t.NDRELow},
		{"GNDVI_LOW", &t.GNDVILow},
		{"SLOPE7_DROP", &t.Slope7Drop},
	}
	for _, f := range floats {
		if *f.dst, err = envFloat(f.key, *f.dst); err != nil {
			return t, err
		}
	}

	if t.RSMaxAge, err = envInt("RS_MAX_AGE", t.RSMaxAge); err != nil {
		return t, err
	}
	if t.MergeGapDays, err = envInt("MERGE_GAP_DAYS", t.MergeGapDays); err != nil {
		return t, err
	}
	if t.RSMaxAge < 0 {
		return t, errors.New("RS_MAX_AGE must be >= 0")
	}
	if t.MergeGapDays < 0 {
		return t, errors.New("MERGE_GAP_DAYS must be >= 0")
	}
	return t, nil
}

func loadWindow(rsMaxAge int) (domain.WindowConfig, error) {
	w := domain.DefaultWindowConfig()
	w.HalfDays = rsMaxAge

	var err error
	if w.HalfDays, err = envInt("WINDOW_HALF_DAYS", w.HalfDays); err != nil {
		return w, err
	}
	w.Mode = domain.WindowMode(envOrDefault("WINDOW_MODE", string(w.Mode)))
	w.Pick = domain.SupportPick(envOrDefault("SUPPORT_PICK", string(w.Pick)))

	if err := w.Validate(); err != nil {
		return w, err
	}
	return w, nil
}

func loadGating(t domain.Thresholds) (domain.GatingConfig, error) {
	g := domain.DefaultGatingConfig()
	g.CanopyNDVIMin = t.NDVICrop
	g.CanopyEVIMin = t.EVICrop

	var err error
	g.Mode = domain.GatingMode(envOrDefault("GATING_MODE", string(g.Mode)))
	if g.CanopyObsMin, err = envInt("GATING_CANOPY_OBS_MIN", g.CanopyObsMin); err != nil {
		return g, err
	}
	if g.CanopyNDVIMin, err = envFloat("GATING_CANOPY_NDVI_MIN", g.CanopyNDVIMin); err != nil {
		return g, err
	}
	if g.CanopyEVIMin, err = envFloat("GATING_CANOPY_EVI_MIN", g.CanopyEVIMin); err != nil {
		return g, err
	}
	if s := os.Getenv("GATING_MONTHS"); s != "" {
		months, err := parseMonths(s)
		if err != nil {
			return g, err
		}
		g.Months = months
	}

	if err := g.Validate(); err != nil {
		return g, err
	}
	return g, nil
}

func loadBaseline() (domain.BaselineConfig, error) {
	b := domain.DefaultBaselineConfig()
	var err error
	if b.SmoothWindow, err = envInt("BASELINE_SMOOTH_WINDOW", b.SmoothWindow); err != nil {
		return b, err
	}
	if b.DevThresh, err = envFloat("BASELINE_DEV_THRESH", b.DevThresh); err != nil {
		return b, err
	}
	if b.MinRun, err = envInt("BASELINE_MIN_RUN", b.MinRun); err != nil {
		return b, err
	}
	if b.Precip7Max, err = envFloat("BASELINE_PRECIP7_MAX", b.Precip7Max); err != nil {
		return b, err
	}
	if b.DryThresh, err = envFloat("BASELINE_DRY_THRESH", b.DryThresh); err != nil {
		return b, err
	}
	if b.TrainYears, err = parseYears("BASELINE_TRAIN_YEARS"); err != nil {
		return b, err
	}
	if b.TargetYears, err = parseYears("BASELINE_TARGET_YEARS"); err != nil {
		return b, err
	}

	if err := b.Validate(); err != nil {
		return b, err
	}
	return b, nil
}

// parseYears parses a comma-separated list of calendar years, e.g.
// "2019,2020,2021". Unset means no year restriction.
func parseYears(key string) (map[int]bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return nil, nil
	}
	years := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil || y < 1900 || y > 2200 {
			return nil, fmt.Errorf("invalid %s entry %q", key, part)
		}
		years[y] = true
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("%s is set but empty", key)
	}
	return years, nil
}

// parseMonths parses a comma-separated list of 1-based month numbers,
// e.g. "4,5,6,7,8,9,10".
func parseMonths(s string) (map[time.Month]bool, error) {
	var months []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 12 {
			return nil, fmt.Errorf("invalid GATING_MONTHS entry %q", part)
		}
		months = append(months, n)
	}
	if len(months) == 0 {
		return nil, errors.New("GATING_MONTHS is set but empty")
	}
	return domain.MonthSet(months...), nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}
