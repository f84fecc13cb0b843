package forecast_test

import (
	"math"
	"testing"
	"time"

	"fte-forecaster/calendar"
	customerrors "fte-forecaster/errors"
	"fte-forecaster/forecast"
	"fte-forecaster/models"
	"fte-forecaster/regression"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var acmeEN = models.SeriesKey{Client: "acme", Language: "en"}

func TestFitAndEvaluate_LinearSeries(t *testing.T) {
	// 45 observations -> 40 lag-complete records.
	series := seriesFor(acmeEN, calendar.Date(2025, time.January, 6), 45, linear)
	require.Len(t, series.Records, 40)

	h := forecast.NewHistoricalForecaster(lagOneFactory(0), forecast.HistoricalOptions{HoldoutDays: 30})
	result, err := h.FitAndEvaluate(series)
	require.NoError(t, err)

	require.Len(t, result.Records, 30)
	require.Len(t, result.Real, 30)
	assert.Equal(t, series.Records[10].Date, result.Records[0].Date)
	assert.Equal(t, series.Records[39].Date, result.Records[29].Date)

	predictor, ok := result.Predictor.(*lagOnePredictor)
	require.True(t, ok)
	assert.Equal(t, 10, predictor.trained, "only records before the cutoff train the model")

	// Every prediction is off by exactly one call, so the residual spread is zero.
	mapeSum := 0.0
	for i, rec := range result.Records {
		assert.Equal(t, result.Real[i]-1, rec.Point)
		assert.Equal(t, rec.Point, rec.Lower95)
		assert.Equal(t, rec.Point, rec.Upper95)
		mapeSum += 1 / result.Real[i]
	}
	assert.Equal(t, 1.0, result.Metrics.MAE)
	assert.Equal(t, 1.0, result.Metrics.RMSE)
	require.NotNil(t, result.Metrics.MAPE)
	assert.InDelta(t, math.Round(mapeSum/30*100*100)/100, *result.Metrics.MAPE, 1e-9)

	require.NotNil(t, result.AHTSeconds)
	assert.Equal(t, 300.0, *result.AHTSeconds)
}

func TestFitAndEvaluate_InsufficientData(t *testing.T) {
	tests := map[string]struct {
		observations int
		expectError  bool
	}{
		"ThirtyRecords":    {observations: 35, expectError: true},
		"ThirtyOneRecords": {observations: 36, expectError: false},
		"NoRecords":        {observations: 4, expectError: true},
	}

	h := forecast.NewHistoricalForecaster(lagOneFactory(0), forecast.HistoricalOptions{HoldoutDays: 30})
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			series := seriesFor(acmeEN, calendar.Date(2025, time.January, 6), tc.observations, linear)
			result, err := h.FitAndEvaluate(series)
			if tc.expectError {
				assert.ErrorIs(t, err, customerrors.ErrInsufficientData)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Len(t, result.Records, 30)
		})
	}
}

func TestFitAndEvaluate_IntervalInvariants(t *testing.T) {
	wave := func(i int) float64 {
		return 200 + 80*math.Sin(float64(i)/2) + float64(i%5)*15
	}
	series := seriesFor(acmeEN, calendar.Date(2025, time.January, 6), 120, wave)

	h := forecast.NewHistoricalForecaster(
		regression.NewFactory(regression.DefaultOptions()),
		forecast.HistoricalOptions{HoldoutDays: 30},
	)
	result, err := h.FitAndEvaluate(series)
	require.NoError(t, err)
	require.Len(t, result.Records, 30)

	for _, rec := range result.Records {
		assert.True(t, calendar.IsBusinessDay(rec.Date))
		assert.GreaterOrEqual(t, rec.Lower95, 0.0)
		assert.LessOrEqual(t, rec.Lower95, rec.Point)
		assert.LessOrEqual(t, rec.Point, rec.Upper95)
	}
	assert.Greater(t, result.Metrics.RMSE, 0.0)
	assert.GreaterOrEqual(t, result.Metrics.RMSE, result.Metrics.MAE)
}

func TestFitAndEvaluate_ZeroTruthLeavesMAPEMissing(t *testing.T) {
	zero := func(int) float64 { return 0 }
	series := seriesFor(acmeEN, calendar.Date(2025, time.January, 6), 45, zero)

	h := forecast.NewHistoricalForecaster(lagOneFactory(0), forecast.HistoricalOptions{HoldoutDays: 30})
	result, err := h.FitAndEvaluate(series)
	require.NoError(t, err)

	assert.Nil(t, result.Metrics.MAPE)
	assert.Equal(t, 0.0, result.Metrics.MAE)
}

func TestFitAndEvaluate_Corrections(t *testing.T) {
	outlier := calendar.Date(2025, time.April, 21)
	start := calendar.Date(2025, time.March, 3)
	obs := observations(acmeEN, start, 45, ptr(300), func(int) float64 { return 100 })
	for i := range obs {
		if obs[i].Date.Equal(outlier) {
			obs[i].Volume = 1000
		}
	}
	series := forecastSeries(obs)[acmeEN]

	realOn := func(t *testing.T, r *forecast.HistoricalResult, d time.Time) float64 {
		for i, rec := range r.Records {
			if rec.Date.Equal(d) {
				return r.Real[i]
			}
		}
		t.Fatalf("date %s not in evaluation window", d.Format(calendar.DateLayout))
		return 0
	}

	tests := map[string]struct {
		corrections []forecast.Correction
		expected    float64
	}{
		"DefaultRule": {corrections: forecast.DefaultCorrections(), expected: 100},
		"NoRules":     {corrections: nil, expected: 1000},
		"RuleOutsideWindow": {
			corrections: []forecast.Correction{{
				Date:        calendar.Date(2024, time.April, 22),
				WindowStart: calendar.Date(2024, time.April, 17),
				WindowEnd:   calendar.Date(2024, time.April, 26),
				Strategy:    forecast.WindowMean,
			}},
			expected: 1000,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			h := forecast.NewHistoricalForecaster(lagOneFactory(0), forecast.HistoricalOptions{
				HoldoutDays: 30,
				Corrections: tc.corrections,
			})
			result, err := h.FitAndEvaluate(series)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, realOn(t, result, outlier))
		})
	}
}

func TestFitAndEvaluate_CorrectionUsesEvaluationWindowOnly(t *testing.T) {
	// 35 training days at 100, then 10 evaluated days at 200 starting on
	// the outlier date 2025-04-21.
	outlier := calendar.Date(2025, time.April, 21)
	obs := observations(acmeEN, calendar.Date(2025, time.March, 3), 45, ptr(300), func(i int) float64 {
		if i < 35 {
			return 100
		}
		return 200
	})
	require.True(t, obs[35].Date.Equal(outlier))
	obs[35].Volume = 1000

	h := forecast.NewHistoricalForecaster(lagOneFactory(0), forecast.HistoricalOptions{
		HoldoutDays: 10,
		Corrections: forecast.DefaultCorrections(),
	})
	result, err := h.FitAndEvaluate(forecastSeries(obs)[acmeEN])
	require.NoError(t, err)

	require.Len(t, result.Records, 10)
	assert.Equal(t, outlier, result.Records[0].Date)
	assert.Equal(t, 200.0, result.Real[0], "training days 04-16..04-18 stay out of the mean")
	for _, v := range result.Real[1:] {
		assert.Equal(t, 200.0, v)
	}
}

func TestCorrectionValidate(t *testing.T) {
	assert.NoError(t, forecast.DefaultCorrections()[0].Validate())

	bad := forecast.Correction{
		Date:        calendar.Date(2025, time.April, 30),
		WindowStart: calendar.Date(2025, time.April, 16),
		WindowEnd:   calendar.Date(2025, time.April, 25),
		Strategy:    forecast.WindowMean,
	}
	assert.Error(t, bad.Validate())

	bad = forecast.DefaultCorrections()[0]
	bad.Strategy = "median"
	assert.Error(t, bad.Validate())
}
