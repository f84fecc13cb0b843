package staffing

import (
	"sort"

	"fte-forecaster/models"

	"gonum.org/v1/gonum/stat"
)

// SeriesSummary aggregates the adjusted agents of one series over the plan.
type SeriesSummary struct {
	models.SeriesKey
	Days    int     `json:"days"`
	MinFTE  int     `json:"min_fte"`
	MaxFTE  int     `json:"max_fte"`
	MeanFTE float64 `json:"mean_fte"`
}

// Summary is the headline view of a staffing plan.
type Summary struct {
	// Series is sorted by MeanFTE, largest first.
	Series []SeriesSummary `json:"series"`
	// TotalMeanFTE is the sum of the per-series means.
	TotalMeanFTE float64 `json:"total_mean_fte"`
	// MeanServiceLevel is nil when no row has an estimate.
	MeanServiceLevel *float64 `json:"mean_service_level"`
	Unresolved       int      `json:"unresolved"`
	// Shortfalls is filled by the caller from CheckCapacity.
	Shortfalls []Shortfall `json:"shortfalls,omitempty"`
}

// Summarize aggregates rows that carry an estimate.
func Summarize(rows []models.StaffingRow) Summary {
	fte := make(map[models.SeriesKey][]float64)
	var levels []float64
	var s Summary
	for _, r := range rows {
		if r.Estimate == nil {
			continue
		}
		fte[r.SeriesKey] = append(fte[r.SeriesKey], float64(r.Estimate.AgentsAdjusted))
		levels = append(levels, r.Estimate.AchievedServiceLevel)
		if r.Estimate.Unresolved {
			s.Unresolved++
		}
	}

	for key, values := range fte {
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		ss := SeriesSummary{
			SeriesKey: key,
			Days:      len(values),
			MinFTE:    int(sorted[0]),
			MaxFTE:    int(sorted[len(sorted)-1]),
			MeanFTE:   round(stat.Mean(values, nil), 2),
		}
		s.Series = append(s.Series, ss)
		s.TotalMeanFTE += ss.MeanFTE
	}
	sort.Slice(s.Series, func(i, j int) bool {
		if s.Series[i].MeanFTE != s.Series[j].MeanFTE {
			return s.Series[i].MeanFTE > s.Series[j].MeanFTE
		}
		return s.Series[i].SeriesKey.Less(s.Series[j].SeriesKey)
	})
	s.TotalMeanFTE = round(s.TotalMeanFTE, 2)

	if len(levels) > 0 {
		mean := stat.Mean(levels, nil)
		s.MeanServiceLevel = &mean
	}
	return s
}
