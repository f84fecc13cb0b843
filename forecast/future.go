package forecast

import (
	"sort"
	"time"

	"fte-forecaster/calendar"
	customerrors "fte-forecaster/errors"
	"fte-forecaster/models"
	"fte-forecaster/regression"
)

// Point is one observed daily volume.
type Point struct {
	Date   time.Time
	Volume float64
}

// PredictFuture forecasts the next horizon business days after the tail by
// feeding each prediction back in as lag_1 of the following day.
//
// Every step uses the same interval half-width, 1.96 times the sample
// standard deviation of the tail volumes. This is an approximation: it does
// not widen with the horizon.
func PredictFuture(predictor regression.Predictor, tail []Point, horizon int) ([]models.PredictionRecord, error) {
	if horizon <= 0 {
		return nil, &customerrors.InvalidParameterError{
			Name:   "horizon",
			Value:  horizon,
			Reason: "must be a positive number of business days",
			Err:    customerrors.ErrEmptyHorizon,
		}
	}

	observed := make([]Point, 0, len(tail))
	for _, p := range tail {
		if calendar.IsBusinessDay(p.Date) {
			observed = append(observed, p)
		}
	}
	if len(observed) < models.NumLags {
		return nil, &customerrors.InsufficientDataError{Have: len(observed), Need: models.NumLags}
	}
	sort.SliceStable(observed, func(i, j int) bool { return observed[i].Date.Before(observed[j].Date) })

	volumes := make([]float64, len(observed))
	for i, p := range observed {
		volumes[i] = p.Volume
	}
	spread := sampleStdDev(volumes)
	buf := newLagBuffer(volumes)

	dates := calendar.NextBusinessDays(observed[len(observed)-1].Date, horizon)
	out := make([]models.PredictionRecord, 0, horizon)
	for _, d := range dates {
		x := models.FeatureVector(calendar.DayOfWeek(d), calendar.IsMonthEnd(d), buf.lags())
		point := predictor.Predict(x)
		buf.push(point)
		out = append(out, predictionRecord(d, point, spread))
	}
	return out, nil
}
