package staffing

import (
	"errors"
	"math"
	"sort"
	"time"

	"fte-forecaster/calendar"
	customerrors "fte-forecaster/errors"
	"fte-forecaster/logging"
	"fte-forecaster/metrics"
	"fte-forecaster/models"

	"github.com/sirupsen/logrus"
)

// Planner turns future forecasts into a staffing table.
type Planner struct {
	params Params
	logger logrus.FieldLogger
}

// NewPlanner validates params up front. A nil logger discards output.
func NewPlanner(params Params, logger logrus.FieldLogger) (*Planner, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Planner{params: params, logger: logger}, nil
}

// Plan computes one staffing row per future record, ordered by
// (client, language, date). Rows without a usable handle time or with a
// non-positive predicted volume carry no estimate. Days whose agent search
// hits the cap are kept and flagged Unresolved.
func (p *Planner) Plan(future []models.ForecastRecord) ([]models.StaffingRow, error) {
	start := time.Now()
	defer func() {
		metrics.StaffingDurationSeconds.Observe(time.Since(start).Seconds())
	}()
	metrics.ResetRunGauges()

	rows := make([]models.StaffingRow, 0, len(future))
	for _, rec := range future {
		row := models.StaffingRow{
			SeriesKey: rec.SeriesKey,
			Date:      rec.Date,
			Calls:     int(math.Round(rec.Point)),
		}

		aht := rec.AHTSeconds
		if p.params.AHTOverrideSeconds > 0 {
			override := p.params.AHTOverrideSeconds
			aht = &override
		}
		if aht != nil {
			v := round(*aht, 2)
			row.AHTSeconds = &v
		}

		if aht != nil && *aht > 0 && rec.Point > 0 {
			est, err := EstimateStaffing(rec.Date, rec.Point, *aht, p.params)
			if err != nil && !errors.Is(err, customerrors.ErrUnresolvedStaffing) {
				return nil, err
			}
			if est.Unresolved {
				metrics.UnresolvedEstimatesTotal.Inc()
				p.logger.WithFields(logrus.Fields{
					"client":        rec.Client,
					"language":      rec.Language,
					"date":          rec.Date.Format(calendar.DateLayout),
					"erlangs":       est.Erlangs,
					"service_level": est.AchievedServiceLevel,
				}).Warn("service level target not reachable within agent cap")
			}
			row.Estimate = &est
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SeriesKey != rows[j].SeriesKey {
			return rows[i].SeriesKey.Less(rows[j].SeriesKey)
		}
		return rows[i].Date.Before(rows[j].Date)
	})
	recordGauges(rows)
	return rows, nil
}

func recordGauges(rows []models.StaffingRow) {
	last := make(map[models.SeriesKey]*models.StaffingEstimate)
	for i := range rows {
		if rows[i].Estimate != nil {
			last[rows[i].SeriesKey] = rows[i].Estimate
		}
	}
	for key, est := range last {
		metrics.FTERequired.WithLabelValues(key.Client, key.Language).Set(float64(est.AgentsAdjusted))
	}

	s := Summarize(rows)
	metrics.FTEMeanTotal.Set(s.TotalMeanFTE)
	if s.MeanServiceLevel != nil {
		metrics.ServiceLevelMean.Set(*s.MeanServiceLevel)
	}
}
