package forecast

import (
	"math"
	"time"

	"fte-forecaster/models"

	"gonum.org/v1/gonum/stat"
)

// z95 is the two-sided 95% normal quantile.
const z95 = 1.96

// sampleStdDev is the n-1 standard deviation, zero for fewer than two values.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// predictionRecord clamps the point estimate at zero and wraps it in a
// symmetric interval whose lower edge is floored at zero.
func predictionRecord(date time.Time, point, spread float64) models.PredictionRecord {
	point = math.Max(point, 0)
	return models.PredictionRecord{
		Date:    date,
		Point:   point,
		Lower95: math.Max(point-z95*spread, 0),
		Upper95: point + z95*spread,
	}
}

func round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
