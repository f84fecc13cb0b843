package models

import "time"

// SeriesKey identifies one (client, language) call series.
type SeriesKey struct {
	Client   string `json:"cliente"`
	Language string `json:"idioma"`
}

// Label renders the key as client/language. It is not a String method so
// that structs embedding the key keep their default formatting.
func (k SeriesKey) Label() string {
	return k.Client + "/" + k.Language
}

// Less orders keys by client, then language.
func (k SeriesKey) Less(other SeriesKey) bool {
	if k.Client != other.Client {
		return k.Client < other.Client
	}
	return k.Language < other.Language
}

// DailyObservation is one cleaned input row as supplied by the upstream ETL.
// AHTSeconds is nil when the row carried no handle time.
type DailyObservation struct {
	Date       time.Time
	Client     string
	Language   string
	Volume     float64
	AHTSeconds *float64
}

// NumLags is the number of lag features carried by each DailyRecord.
const NumLags = 5

// DailyRecord is one business day of a series with its calendar and lag features.
type DailyRecord struct {
	Date       time.Time
	Volume     float64
	AHTSeconds float64
	DayOfWeek  int
	IsMonthEnd bool
	Lags       [NumLags]float64
}

// Features returns the regression input vector
// (dayofweek, is_month_end, lag_1..lag_5).
func (r DailyRecord) Features() []float64 {
	return FeatureVector(r.DayOfWeek, r.IsMonthEnd, r.Lags)
}

// FeatureVector builds the regression input from its parts.
func FeatureVector(dayOfWeek int, isMonthEnd bool, lags [NumLags]float64) []float64 {
	f := make([]float64, 0, 2+NumLags)
	f = append(f, float64(dayOfWeek))
	if isMonthEnd {
		f = append(f, 1)
	} else {
		f = append(f, 0)
	}
	return append(f, lags[:]...)
}

// DailySeries is the ordered, lag-complete history of one series.
// Dates are strictly increasing business days.
type DailySeries struct {
	Key     SeriesKey
	Records []DailyRecord
	// HasAHT is false when no handle time was observed for the key.
	HasAHT bool
}


// PredictionRecord is one forecast point with its 95% interval.
// Invariant: 0 <= Lower95 <= Point <= Upper95.
type PredictionRecord struct {
	Date    time.Time `json:"date"`
	Point   float64   `json:"pred"`
	Lower95 float64   `json:"ic_95_inf"`
	Upper95 float64   `json:"ic_95_sup"`
}

// ForecastRecord is a prediction tagged with its series and the boundary
// attributes the presentation layer needs. Real is nil for future dates and
// AHTSeconds is nil when no handle time is known.
type ForecastRecord struct {
	SeriesKey
	PredictionRecord
	Real       *float64 `json:"real,omitempty"`
	AHTSeconds *float64 `json:"aht,omitempty"`
}

// EvaluationMetrics are the holdout errors of one series. MAPE is nil when
// every true value in the window is zero.
type EvaluationMetrics struct {
	MAE  float64  `json:"mae"`
	RMSE float64  `json:"rmse"`
	MAPE *float64 `json:"mape"`
}

// StaffingEstimate is the Erlang C staffing result for one day.
// Invariant: AgentsAdjusted >= AgentsNet >= ceil(Erlangs) when Erlangs > 0.
type StaffingEstimate struct {
	Date                 time.Time `json:"date"`
	PredictedVolume      float64   `json:"predicted_volume"`
	AHTSeconds           float64   `json:"aht_seconds"`
	Erlangs              float64   `json:"erlangs"`
	AgentsNet            int       `json:"agents_net"`
	AgentsAdjusted       int       `json:"agents_adjusted"`
	AchievedServiceLevel float64   `json:"achieved_service_level"`
	// Unresolved is true when the agent cap was reached before the target
	// service level.
	Unresolved bool `json:"unresolved"`
}

// StaffingRow is one line of the staffing table. Estimate is nil when no
// handle time was available or the predicted volume was not positive.
type StaffingRow struct {
	SeriesKey
	Date       time.Time         `json:"date"`
	Calls      int               `json:"llamadas_estimadas"`
	AHTSeconds *float64          `json:"aht_seg"`
	Estimate   *StaffingEstimate `json:"estimate"`
}
