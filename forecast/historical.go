// Package forecast turns daily call series into holdout-evaluated and
// recursive future volume forecasts.
package forecast

import (
	"fmt"
	"math"
	"time"

	"fte-forecaster/calendar"
	customerrors "fte-forecaster/errors"
	"fte-forecaster/models"
	"fte-forecaster/regression"
)

// DefaultHoldoutDays is the trailing evaluation window, in business days.
const DefaultHoldoutDays = 30

// HistoricalOptions configures a HistoricalForecaster.
type HistoricalOptions struct {
	HoldoutDays int
	Corrections []Correction
}

// HistoricalResult is the outcome of fitting one series.
type HistoricalResult struct {
	Key     models.SeriesKey
	Records []models.PredictionRecord
	// Real holds the evaluation truths after corrections, aligned with Records.
	Real      []float64
	Predictor regression.Predictor
	Metrics   models.EvaluationMetrics
	// AHTSeconds is the series' mean handle time, nil when none was observed.
	AHTSeconds *float64
}

// Tail returns the corrected evaluation window as the seed for future
// forecasting.
func (r *HistoricalResult) Tail() []Point {
	out := make([]Point, len(r.Records))
	for i, rec := range r.Records {
		out[i] = Point{Date: rec.Date, Volume: r.Real[i]}
	}
	return out
}

// ForecastRecords tags the evaluation predictions with key, truth and AHT.
func (r *HistoricalResult) ForecastRecords() []models.ForecastRecord {
	out := make([]models.ForecastRecord, len(r.Records))
	for i, rec := range r.Records {
		truth := r.Real[i]
		out[i] = models.ForecastRecord{
			SeriesKey:        r.Key,
			PredictionRecord: rec,
			Real:             &truth,
			AHTSeconds:       r.AHTSeconds,
		}
	}
	return out
}

// HistoricalForecaster trains one predictor per series on everything before
// the holdout window and evaluates it on the window.
type HistoricalForecaster struct {
	newPredictor regression.Factory
	holdout      int
	corrections  []Correction
}

// NewHistoricalForecaster builds a forecaster. A non-positive holdout falls
// back to DefaultHoldoutDays.
func NewHistoricalForecaster(factory regression.Factory, opts HistoricalOptions) *HistoricalForecaster {
	if opts.HoldoutDays <= 0 {
		opts.HoldoutDays = DefaultHoldoutDays
	}
	return &HistoricalForecaster{
		newPredictor: factory,
		holdout:      opts.HoldoutDays,
		corrections:  opts.Corrections,
	}
}

// FitAndEvaluate trains on the records before the cutoff date and predicts
// the trailing holdout window. Series with fewer than holdout+1 business-day
// records yield an InsufficientDataError and no partial result.
func (h *HistoricalForecaster) FitAndEvaluate(series models.DailySeries) (*HistoricalResult, error) {
	records := businessDays(series.Records)
	need := h.holdout + 1
	if len(records) < need {
		return nil, &customerrors.InsufficientDataError{Series: series.Key.Label(), Have: len(records), Need: need}
	}

	cutoff := records[len(records)-h.holdout].Date
	var trainX, evalX [][]float64
	var trainY, evalY []float64
	var evalDates []time.Time
	for _, r := range records {
		if r.Date.Before(cutoff) {
			trainX = append(trainX, r.Features())
			trainY = append(trainY, r.Volume)
			continue
		}
		evalX = append(evalX, r.Features())
		evalY = append(evalY, r.Volume)
		evalDates = append(evalDates, r.Date)
	}

	predictor := h.newPredictor()
	if err := predictor.Train(trainX, trainY); err != nil {
		return nil, fmt.Errorf("train %s: %w", series.Key.Label(), err)
	}

	truth := applyCorrections(h.corrections, evalDates, evalY)

	points := make([]float64, len(evalX))
	residuals := make([]float64, len(evalX))
	for i, x := range evalX {
		points[i] = math.Max(predictor.Predict(x), 0)
		residuals[i] = truth[i] - points[i]
	}

	spread := sampleStdDev(residuals)
	out := make([]models.PredictionRecord, len(points))
	for i, p := range points {
		out[i] = predictionRecord(evalDates[i], p, spread)
	}

	result := &HistoricalResult{
		Key:       series.Key,
		Records:   out,
		Real:      truth,
		Predictor: predictor,
		Metrics:   evaluate(truth, residuals),
	}
	if series.HasAHT && len(records) > 0 {
		aht := records[len(records)-1].AHTSeconds
		result.AHTSeconds = &aht
	}
	return result, nil
}

func businessDays(records []models.DailyRecord) []models.DailyRecord {
	out := make([]models.DailyRecord, 0, len(records))
	for _, r := range records {
		if calendar.IsBusinessDay(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// evaluate computes MAE, RMSE and MAPE (percent) rounded to two decimals.
// MAPE skips zero truths and is nil when none remain.
func evaluate(truth, residuals []float64) models.EvaluationMetrics {
	var absSum, sqSum, pctSum float64
	pctCount := 0
	for i, r := range residuals {
		absSum += math.Abs(r)
		sqSum += r * r
		if truth[i] != 0 {
			pctSum += math.Abs(r / truth[i])
			pctCount++
		}
	}
	n := float64(len(residuals))
	m := models.EvaluationMetrics{
		MAE:  round(absSum/n, 2),
		RMSE: round(math.Sqrt(sqSum/n), 2),
	}
	if pctCount > 0 {
		mape := round(pctSum/float64(pctCount)*100, 2)
		m.MAPE = &mape
	}
	return m
}
