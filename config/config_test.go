package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fte-forecaster/calendar"
	customerrors "fte-forecaster/errors"
	"fte-forecaster/forecast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30, cfg.Forecast.HoldoutDays)
	assert.Equal(t, 20, cfg.Forecast.HorizonDays)
	assert.Equal(t, 3, cfg.Forecast.SmoothingWindow)
	assert.Equal(t, 4, cfg.Forecast.Workers)
	assert.Equal(t, 50, cfg.Model.Estimators)
	assert.Equal(t, 0.70, cfg.Staffing.TargetServiceLevel)
	assert.Equal(t, 0.30, cfg.Staffing.Shrinkage)
	assert.Equal(t, 32400.0, cfg.Staffing.IntervalSeconds)
	assert.Equal(t, 500, cfg.Staffing.MaxAgents)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "fte_forecaster", cfg.Metrics.Job)

	hist, err := cfg.HistoricalOptions()
	require.NoError(t, err)
	assert.Equal(t, forecast.DefaultCorrections(), hist.Corrections)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
forecast:
  holdoutDays: 10
  startDate: "2025-01-06"
  corrections:
    - date: "2025-05-01"
      windowStart: "2025-04-28"
      windowEnd: "2025-05-06"
model:
  estimators: 80
staffing:
  targetServiceLevel: 0.9
  ahtOverrideSeconds: 420
  capacityPerDay: 120
  priorities:
    acme: 1
    beta: 2
logging:
  json: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.Forecast.HoldoutDays)
	assert.Equal(t, 20, cfg.Forecast.HorizonDays, "unset keys keep defaults")
	assert.Equal(t, 80, cfg.Model.Estimators)
	assert.Equal(t, 0.1, cfg.Model.LearningRate)
	assert.True(t, cfg.Logging.JSON)

	series, err := cfg.SeriesOptions()
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2025, time.January, 6), series.StartDate)

	hist, err := cfg.HistoricalOptions()
	require.NoError(t, err)
	require.Len(t, hist.Corrections, 1)
	assert.Equal(t, calendar.Date(2025, time.May, 1), hist.Corrections[0].Date)
	assert.Equal(t, forecast.WindowMean, hist.Corrections[0].Strategy)

	params := cfg.StaffingParams()
	assert.Equal(t, 0.9, params.TargetServiceLevel)
	assert.Equal(t, 420.0, params.AHTOverrideSeconds)
	assert.NoError(t, params.Validate())
	assert.Equal(t, 120, cfg.Staffing.CapacityPerDay)
	assert.Equal(t, map[string]int{"acme": 1, "beta": 2}, cfg.Staffing.Priorities)

	assert.Equal(t, 80, cfg.ModelOptions().Estimators)
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := writeConfig(t, "forecast:\n  workers: 2\n")
	t.Setenv(EnvPrefix+"CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Forecast.Workers)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "forecast: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", "")
	t.Setenv(EnvPrefix+"HORIZON_DAYS", "15")
	t.Setenv(EnvPrefix+"SERVICE_LEVEL", "0.85")
	t.Setenv(EnvPrefix+"SHRINKAGE", "0.25")
	t.Setenv(EnvPrefix+"LOG_LEVEL", "debug")
	t.Setenv(EnvPrefix+"LOG_FORMAT", "JSON")
	t.Setenv(EnvPrefix+"PUSH_URL", "http://pushgateway:9091")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Forecast.HorizonDays)
	assert.Equal(t, 0.85, cfg.Staffing.TargetServiceLevel)
	assert.Equal(t, 0.25, cfg.Staffing.Shrinkage)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "http://pushgateway:9091", cfg.Metrics.PushURL)
}

func TestLoad_EnvOverrideNotANumber(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", "")
	t.Setenv(EnvPrefix+"WORKERS", "many")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPrefix+"WORKERS")
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		mutate   func(c *Config)
		contains string
	}{
		"ServiceLevelTooLow": {
			mutate:   func(c *Config) { c.Staffing.TargetServiceLevel = 0.2 },
			contains: "staffing.targetServiceLevel",
		},
		"ServiceLevelAboveOne": {
			mutate:   func(c *Config) { c.Staffing.TargetServiceLevel = 1.01 },
			contains: "staffing.targetServiceLevel",
		},
		"ShrinkageTooHigh": {
			mutate:   func(c *Config) { c.Staffing.Shrinkage = 0.75 },
			contains: "staffing.shrinkage",
		},
		"AHTOverrideTooShort": {
			mutate:   func(c *Config) { c.Staffing.AHTOverrideSeconds = 10 },
			contains: "staffing.ahtOverrideSeconds",
		},
		"AHTOverrideTooLong": {
			mutate:   func(c *Config) { c.Staffing.AHTOverrideSeconds = 2000 },
			contains: "staffing.ahtOverrideSeconds",
		},
		"NegativeWait": {
			mutate:   func(c *Config) { c.Staffing.TargetWaitSeconds = -1 },
			contains: "staffing.targetWaitSeconds",
		},
		"ZeroInterval": {
			mutate:   func(c *Config) { c.Staffing.IntervalSeconds = 0 },
			contains: "staffing.intervalSeconds",
		},
		"ShortHoldout": {
			mutate:   func(c *Config) { c.Forecast.HoldoutDays = 4 },
			contains: "forecast.holdoutDays",
		},
		"ZeroHorizon": {
			mutate:   func(c *Config) { c.Forecast.HorizonDays = 0 },
			contains: "forecast.horizonDays",
		},
		"NoWorkers": {
			mutate:   func(c *Config) { c.Forecast.Workers = 0 },
			contains: "forecast.workers",
		},
		"EvenSmoothing": {
			mutate:   func(c *Config) { c.Forecast.SmoothingWindow = 4 },
			contains: "forecast.smoothingWindow",
		},
		"LearningRateZero": {
			mutate:   func(c *Config) { c.Model.LearningRate = 0 },
			contains: "model.learningRate",
		},
		"NoDepth": {
			mutate:   func(c *Config) { c.Model.MaxDepth = 0 },
			contains: "model.maxDepth",
		},
		"NegativeCapacity": {
			mutate:   func(c *Config) { c.Staffing.CapacityPerDay = -1 },
			contains: "staffing.capacityPerDay",
		},
		"ZeroPriority": {
			mutate:   func(c *Config) { c.Staffing.Priorities = map[string]int{"acme": 0} },
			contains: "staffing.priorities.acme",
		},
		"BadStartDate": {
			mutate:   func(c *Config) { c.Forecast.StartDate = "06/01/2025" },
			contains: "forecast.startDate",
		},
		"CorrectionOutsideWindow": {
			mutate: func(c *Config) {
				c.Forecast.Corrections = []CorrectionConfig{{
					Date: "2025-05-10", WindowStart: "2025-05-01", WindowEnd: "2025-05-05",
				}}
			},
			contains: "forecast.corrections[0]",
		},
		"UnknownStrategy": {
			mutate: func(c *Config) {
				c.Forecast.Corrections = []CorrectionConfig{{
					Date: "2025-05-02", WindowStart: "2025-05-01", WindowEnd: "2025-05-05", Strategy: "median",
				}}
			},
			contains: "median",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, customerrors.ErrInvalidParameter)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestValidate_Boundaries(t *testing.T) {
	cfg := defaultConfig()
	cfg.Staffing.TargetServiceLevel = 0.30
	cfg.Staffing.Shrinkage = 0.70
	cfg.Staffing.AHTOverrideSeconds = 1800
	cfg.Forecast.HoldoutDays = 5
	cfg.Forecast.SmoothingWindow = 1
	assert.NoError(t, cfg.Validate())

	cfg.Staffing.TargetServiceLevel = 1.0
	cfg.Staffing.AHTOverrideSeconds = 30
	assert.NoError(t, cfg.Validate())
}
