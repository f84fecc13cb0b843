package forecast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	customerrors "fte-forecaster/errors"
	"fte-forecaster/logging"
	"fte-forecaster/metrics"
	"fte-forecaster/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultHorizonDays is the future window, in business days.
const DefaultHorizonDays = 20

// RunResult is the merged output of one multi-series run.
type RunResult struct {
	// Historical and Future are sorted by (client, language, date).
	Historical []models.ForecastRecord
	Future     []models.ForecastRecord
	Metrics    map[models.SeriesKey]models.EvaluationMetrics
	// Skipped lists the series dropped for lack of history, with the reason.
	Skipped map[models.SeriesKey]error
}

// Orchestrator fans the historical and future forecasters out over many
// series and merges their tables.
type Orchestrator struct {
	historical *HistoricalForecaster
	horizon    int
	workers    int
	logger     logrus.FieldLogger
}

// NewOrchestrator wires the forecasters. Non-positive horizon or workers use
// the defaults; a nil logger discards output.
func NewOrchestrator(historical *HistoricalForecaster, horizon, workers int, logger logrus.FieldLogger) *Orchestrator {
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Orchestrator{
		historical: historical,
		horizon:    horizon,
		workers:    workers,
		logger:     logger,
	}
}

type seriesOutcome struct {
	historical *HistoricalResult
	future     []models.ForecastRecord
	skipped    error
}

// Run forecasts every series independently. Series lacking history are
// skipped and reported in RunResult.Skipped; any other failure aborts the run.
func (o *Orchestrator) Run(ctx context.Context, seriesByKey map[models.SeriesKey]models.DailySeries) (*RunResult, error) {
	start := time.Now()
	defer func() {
		metrics.ForecastRunDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	keys := make([]models.SeriesKey, 0, len(seriesByKey))
	for k := range seriesByKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	outcomes := make([]seriesOutcome, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := o.runSeries(seriesByKey[key])
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &RunResult{
		Metrics: make(map[models.SeriesKey]models.EvaluationMetrics),
		Skipped: make(map[models.SeriesKey]error),
	}
	aht := make(map[models.SeriesKey]*float64)
	for i, out := range outcomes {
		if out.skipped != nil {
			result.Skipped[keys[i]] = out.skipped
			continue
		}
		result.Historical = append(result.Historical, out.historical.ForecastRecords()...)
		result.Future = append(result.Future, out.future...)
		result.Metrics[keys[i]] = out.historical.Metrics
		aht[keys[i]] = out.historical.AHTSeconds
	}
	AttachAHT(result.Future, aht)
	sortRecords(result.Historical)
	sortRecords(result.Future)

	o.logger.WithFields(logrus.Fields{
		"series":  len(keys),
		"skipped": len(result.Skipped),
		"horizon": o.horizon,
	}).Info("forecast run complete")
	return result, nil
}

func (o *Orchestrator) runSeries(series models.DailySeries) (seriesOutcome, error) {
	start := time.Now()
	defer func() {
		metrics.SeriesFitDurationSeconds.Observe(time.Since(start).Seconds())
	}()
	log := o.logger.WithFields(logrus.Fields{
		"client":   series.Key.Client,
		"language": series.Key.Language,
	})

	hist, err := o.historical.FitAndEvaluate(series)
	if err != nil {
		return o.skipOrFail(log, err)
	}
	future, err := PredictFuture(hist.Predictor, hist.Tail(), o.horizon)
	if err != nil {
		return o.skipOrFail(log, err)
	}

	metrics.SeriesProcessedTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	if hist.Metrics.MAPE != nil {
		metrics.HoldoutMAPE.Observe(*hist.Metrics.MAPE)
	}
	log.WithFields(logrus.Fields{
		"mae":  hist.Metrics.MAE,
		"rmse": hist.Metrics.RMSE,
	}).Debug("series forecast")

	records := make([]models.ForecastRecord, len(future))
	for i, p := range future {
		records[i] = models.ForecastRecord{SeriesKey: series.Key, PredictionRecord: p}
	}
	return seriesOutcome{historical: hist, future: records}, nil
}

func (o *Orchestrator) skipOrFail(log logrus.FieldLogger, err error) (seriesOutcome, error) {
	if errors.Is(err, customerrors.ErrInsufficientData) {
		metrics.SeriesProcessedTotal.WithLabelValues(metrics.OutcomeInsufficientData).Inc()
		log.WithError(err).Warn("skipping series")
		return seriesOutcome{skipped: err}, nil
	}
	metrics.SeriesProcessedTotal.WithLabelValues(metrics.OutcomeError).Inc()
	return seriesOutcome{}, fmt.Errorf("forecast series: %w", err)
}

// AttachAHT copies each key's historical handle time onto future records.
// A record that already carries its own AHT keeps it.
func AttachAHT(future []models.ForecastRecord, ahtByKey map[models.SeriesKey]*float64) {
	for i := range future {
		if future[i].AHTSeconds != nil {
			continue
		}
		if v, ok := ahtByKey[future[i].SeriesKey]; ok && v != nil {
			aht := *v
			future[i].AHTSeconds = &aht
		}
	}
}

func sortRecords(records []models.ForecastRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].SeriesKey != records[j].SeriesKey {
			return records[i].SeriesKey.Less(records[j].SeriesKey)
		}
		return records[i].Date.Before(records[j].Date)
	})
}
