package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"fte-forecaster/calendar"
	customerrors "fte-forecaster/errors"
	"fte-forecaster/forecast"
	"fte-forecaster/regression"
	"fte-forecaster/staffing"

	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "FTE_FORECASTER_"

// Config captures every tunable of a forecasting and staffing run.
type Config struct {
	Forecast ForecastConfig `yaml:"forecast"`
	Model    ModelConfig    `yaml:"model"`
	Staffing StaffingConfig `yaml:"staffing"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ForecastConfig controls series preparation and the forecasters.
type ForecastConfig struct {
	HoldoutDays     int `yaml:"holdoutDays"`
	HorizonDays     int `yaml:"horizonDays"`
	SmoothingWindow int `yaml:"smoothingWindow"`
	// StartDate is YYYY-MM-DD; empty keeps the whole history.
	StartDate   string             `yaml:"startDate"`
	Workers     int                `yaml:"workers"`
	Corrections []CorrectionConfig `yaml:"corrections"`
}

// CorrectionConfig is the YAML form of forecast.Correction.
type CorrectionConfig struct {
	Date        string `yaml:"date"`
	WindowStart string `yaml:"windowStart"`
	WindowEnd   string `yaml:"windowEnd"`
	Strategy    string `yaml:"strategy"`
}

// ModelConfig tunes the gradient-boosted regressor.
type ModelConfig struct {
	Estimators     int     `yaml:"estimators"`
	LearningRate   float64 `yaml:"learningRate"`
	MaxDepth       int     `yaml:"maxDepth"`
	MinSamplesLeaf int     `yaml:"minSamplesLeaf"`
	Lambda         float64 `yaml:"lambda"`
}

// StaffingConfig holds the Erlang C inputs.
type StaffingConfig struct {
	TargetWaitSeconds  float64 `yaml:"targetWaitSeconds"`
	TargetServiceLevel float64 `yaml:"targetServiceLevel"`
	Shrinkage          float64 `yaml:"shrinkage"`
	IntervalSeconds    float64 `yaml:"intervalSeconds"`
	MaxAgents          int     `yaml:"maxAgents"`
	// AHTOverrideSeconds replaces the historical handle time when non-zero.
	AHTOverrideSeconds float64 `yaml:"ahtOverrideSeconds"`
	// CapacityPerDay caps the seats shared by all series; 0 is unlimited.
	CapacityPerDay int `yaml:"capacityPerDay"`
	// Priorities ranks clients for seat allocation, 1 being served first.
	Priorities map[string]int `yaml:"priorities"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig controls how run metrics leave the process.
type MetricsConfig struct {
	// Address serves /metrics when set, e.g. ":2112".
	Address string `yaml:"address"`
	// PushURL pushes to a Prometheus Pushgateway when set.
	PushURL string `yaml:"pushURL"`
	Job     string `yaml:"job"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	var corrections []CorrectionConfig
	for _, c := range forecast.DefaultCorrections() {
		corrections = append(corrections, CorrectionConfig{
			Date:        c.Date.Format(calendar.DateLayout),
			WindowStart: c.WindowStart.Format(calendar.DateLayout),
			WindowEnd:   c.WindowEnd.Format(calendar.DateLayout),
			Strategy:    string(c.Strategy),
		})
	}
	model := regression.DefaultOptions()

	return Config{
		Forecast: ForecastConfig{
			HoldoutDays:     forecast.DefaultHoldoutDays,
			HorizonDays:     forecast.DefaultHorizonDays,
			SmoothingWindow: 3,
			Workers:         4,
			Corrections:     corrections,
		},
		Model: ModelConfig{
			Estimators:     model.Estimators,
			LearningRate:   model.LearningRate,
			MaxDepth:       model.MaxDepth,
			MinSamplesLeaf: model.MinSamplesLeaf,
			Lambda:         model.Lambda,
		},
		Staffing: StaffingConfig{
			TargetWaitSeconds:  30,
			TargetServiceLevel: 0.70,
			Shrinkage:          0.30,
			IntervalSeconds:    staffing.DefaultIntervalSeconds,
			MaxAgents:          staffing.DefaultMaxAgents,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Metrics: MetricsConfig{Job: "fte_forecaster"},
	}
}

func applyEnvOverrides(cfg *Config) error {
	ints := map[string]*int{
		"HOLDOUT_DAYS": &cfg.Forecast.HoldoutDays,
		"HORIZON_DAYS": &cfg.Forecast.HorizonDays,
		"WORKERS":      &cfg.Forecast.Workers,
	}
	for name, dst := range ints {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("env %s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"TARGET_WAIT":   &cfg.Staffing.TargetWaitSeconds,
		"SERVICE_LEVEL": &cfg.Staffing.TargetServiceLevel,
		"SHRINKAGE":     &cfg.Staffing.Shrinkage,
		"AHT_OVERRIDE":  &cfg.Staffing.AHTOverrideSeconds,
	}
	for name, dst := range floats {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("env %s%s: %w", EnvPrefix, name, err)
			}
			*dst = f
		}
	}

	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); strings.EqualFold(v, "json") {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv(EnvPrefix + "METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Address = v
	}
	if v := os.Getenv(EnvPrefix + "PUSH_URL"); v != "" {
		cfg.Metrics.PushURL = v
	}
	return nil
}

// Validate checks every bound a run depends on. The staffing ranges are
// the operational limits planners are allowed to choose from.
func (c *Config) Validate() error {
	f, m, s := c.Forecast, c.Model, c.Staffing
	switch {
	case f.HoldoutDays < 5:
		return invalid("forecast.holdoutDays", f.HoldoutDays, "must be >= 5")
	case f.HorizonDays <= 0:
		return invalid("forecast.horizonDays", f.HorizonDays, "must be > 0")
	case f.Workers < 1:
		return invalid("forecast.workers", f.Workers, "must be >= 1")
	case f.SmoothingWindow < 1 || f.SmoothingWindow%2 == 0:
		return invalid("forecast.smoothingWindow", f.SmoothingWindow, "must be odd and >= 1")
	case m.Estimators < 1:
		return invalid("model.estimators", m.Estimators, "must be >= 1")
	case !(m.LearningRate > 0 && m.LearningRate <= 1):
		return invalid("model.learningRate", m.LearningRate, "must be in (0, 1]")
	case m.MaxDepth < 1:
		return invalid("model.maxDepth", m.MaxDepth, "must be >= 1")
	case m.MinSamplesLeaf < 1:
		return invalid("model.minSamplesLeaf", m.MinSamplesLeaf, "must be >= 1")
	case m.Lambda < 0:
		return invalid("model.lambda", m.Lambda, "must be >= 0")
	case s.TargetWaitSeconds < 0:
		return invalid("staffing.targetWaitSeconds", s.TargetWaitSeconds, "must be >= 0")
	case s.TargetServiceLevel < 0.30 || s.TargetServiceLevel > 1:
		return invalid("staffing.targetServiceLevel", s.TargetServiceLevel, "must be in [0.30, 1.00]")
	case s.Shrinkage < 0 || s.Shrinkage > 0.70:
		return invalid("staffing.shrinkage", s.Shrinkage, "must be in [0.00, 0.70]")
	case s.AHTOverrideSeconds != 0 && (s.AHTOverrideSeconds < 30 || s.AHTOverrideSeconds > 1800):
		return invalid("staffing.ahtOverrideSeconds", s.AHTOverrideSeconds, "must be 0 or in [30, 1800]")
	case s.IntervalSeconds <= 0:
		return invalid("staffing.intervalSeconds", s.IntervalSeconds, "must be > 0")
	case s.MaxAgents < 1:
		return invalid("staffing.maxAgents", s.MaxAgents, "must be >= 1")
	case s.CapacityPerDay < 0:
		return invalid("staffing.capacityPerDay", s.CapacityPerDay, "must be >= 0")
	}
	for client, p := range s.Priorities {
		if p < 1 {
			return invalid("staffing.priorities."+client, p, "must be >= 1")
		}
	}

	if _, err := c.SeriesOptions(); err != nil {
		return err
	}
	if _, err := c.HistoricalOptions(); err != nil {
		return err
	}
	return nil
}

// SeriesOptions converts the forecast section for forecast.BuildSeries.
func (c *Config) SeriesOptions() (forecast.SeriesOptions, error) {
	opts := forecast.SeriesOptions{SmoothingWindow: c.Forecast.SmoothingWindow}
	if c.Forecast.StartDate != "" {
		start, err := parseDate("forecast.startDate", c.Forecast.StartDate)
		if err != nil {
			return opts, err
		}
		opts.StartDate = start
	}
	return opts, nil
}

// HistoricalOptions converts the forecast section, including corrections.
func (c *Config) HistoricalOptions() (forecast.HistoricalOptions, error) {
	opts := forecast.HistoricalOptions{HoldoutDays: c.Forecast.HoldoutDays}
	for i, cc := range c.Forecast.Corrections {
		prefix := fmt.Sprintf("forecast.corrections[%d].", i)
		var corr forecast.Correction
		var err error
		if corr.Date, err = parseDate(prefix+"date", cc.Date); err != nil {
			return opts, err
		}
		if corr.WindowStart, err = parseDate(prefix+"windowStart", cc.WindowStart); err != nil {
			return opts, err
		}
		if corr.WindowEnd, err = parseDate(prefix+"windowEnd", cc.WindowEnd); err != nil {
			return opts, err
		}
		corr.Strategy = forecast.CorrectionStrategy(cc.Strategy)
		if corr.Strategy == "" {
			corr.Strategy = forecast.WindowMean
		}
		if err := corr.Validate(); err != nil {
			return opts, invalid(prefix[:len(prefix)-1], cc.Date, err.Error())
		}
		opts.Corrections = append(opts.Corrections, corr)
	}
	return opts, nil
}

// ModelOptions converts the model section.
func (c *Config) ModelOptions() regression.Options {
	return regression.Options{
		Estimators:     c.Model.Estimators,
		LearningRate:   c.Model.LearningRate,
		MaxDepth:       c.Model.MaxDepth,
		MinSamplesLeaf: c.Model.MinSamplesLeaf,
		Lambda:         c.Model.Lambda,
	}
}

// StaffingParams converts the staffing section.
func (c *Config) StaffingParams() staffing.Params {
	return staffing.Params{
		TargetWaitSeconds:  c.Staffing.TargetWaitSeconds,
		TargetServiceLevel: c.Staffing.TargetServiceLevel,
		Shrinkage:          c.Staffing.Shrinkage,
		IntervalSeconds:    c.Staffing.IntervalSeconds,
		MaxAgents:          c.Staffing.MaxAgents,
		AHTOverrideSeconds: c.Staffing.AHTOverrideSeconds,
	}
}

func parseDate(name, value string) (time.Time, error) {
	t, err := calendar.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, invalid(name, value, "must be a YYYY-MM-DD date")
	}
	return t, nil
}

func invalid(name string, value any, reason string) error {
	return &customerrors.InvalidParameterError{Name: name, Value: value, Reason: reason}
}
