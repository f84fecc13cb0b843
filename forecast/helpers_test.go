package forecast_test

import (
	"time"

	"fte-forecaster/calendar"
	"fte-forecaster/forecast"
	"fte-forecaster/models"
	"fte-forecaster/regression"
)

// lagOnePredictor predicts yesterday's volume plus a fixed step.
type lagOnePredictor struct {
	step    float64
	trained int
}

func (p *lagOnePredictor) Train(features [][]float64, target []float64) error {
	if len(features) == 0 {
		return regression.ErrEmptyTrainingSet
	}
	p.trained = len(features)
	return nil
}

func (p *lagOnePredictor) Predict(features []float64) float64 {
	return features[2] + p.step
}

func lagOneFactory(step float64) regression.Factory {
	return func() regression.Predictor {
		return &lagOnePredictor{step: step}
	}
}

// observations returns n business-day observations starting at start with
// volume volume(i).
func observations(key models.SeriesKey, start time.Time, n int, aht *float64, volume func(i int) float64) []models.DailyObservation {
	out := make([]models.DailyObservation, 0, n)
	d := start
	for len(out) < n {
		if calendar.IsBusinessDay(d) {
			out = append(out, models.DailyObservation{
				Date:       d,
				Client:     key.Client,
				Language:   key.Language,
				Volume:     volume(len(out)),
				AHTSeconds: aht,
			})
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}

func linear(i int) float64 { return 100 + float64(i) }

func seriesFor(key models.SeriesKey, start time.Time, n int, volume func(i int) float64) models.DailySeries {
	aht := 300.0
	obs := observations(key, start, n, &aht, volume)
	return forecastSeries(obs)[key]
}

func ptr(v float64) *float64 { return &v }

func forecastSeries(obs []models.DailyObservation) map[models.SeriesKey]models.DailySeries {
	return forecast.BuildSeries(obs, forecast.SeriesOptions{SmoothingWindow: 1})
}
