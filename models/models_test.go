package models_test

import (
	"fmt"
	"testing"
	"time"

	"fte-forecaster/models"

	"github.com/stretchr/testify/assert"
)

func TestSeriesKey_Label(t *testing.T) {
	key := models.SeriesKey{Client: "acme", Language: "en"}
	assert.Equal(t, "acme/en", key.Label())
}

func TestSeriesKey_EmbeddingKeepsDefaultFormat(t *testing.T) {
	key := models.SeriesKey{Client: "acme", Language: "en"}
	rec := models.ForecastRecord{
		SeriesKey:        key,
		PredictionRecord: models.PredictionRecord{Date: time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC), Point: 120},
	}

	formatted := fmt.Sprintf("%v", rec)
	assert.NotEqual(t, "acme/en", formatted)
	assert.Contains(t, formatted, "120")

	row := models.StaffingRow{SeriesKey: key, Calls: 42}
	assert.Contains(t, fmt.Sprintf("%v", row), "42")
}

func TestSeriesKey_Less(t *testing.T) {
	tests := map[string]struct {
		a, b     models.SeriesKey
		expected bool
	}{
		"ByClient":   {a: models.SeriesKey{Client: "acme", Language: "fr"}, b: models.SeriesKey{Client: "beta", Language: "en"}, expected: true},
		"ByLanguage": {a: models.SeriesKey{Client: "acme", Language: "en"}, b: models.SeriesKey{Client: "acme", Language: "es"}, expected: true},
		"Equal":      {a: models.SeriesKey{Client: "acme", Language: "en"}, b: models.SeriesKey{Client: "acme", Language: "en"}, expected: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.a.Less(tc.b))
		})
	}
}
