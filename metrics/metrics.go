// Package metrics provides Prometheus observability metrics for the forecaster.
// It includes Critical and Important metrics for business and operational visibility.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// Series outcome labels.
const (
	OutcomeOK               = "ok"
	OutcomeInsufficientData = "insufficient_data"
	OutcomeError            = "error"
)

// =============================================================================
// CRITICAL METRICS - Business Impact Visibility
// =============================================================================

// FTERequired tracks shrinkage-adjusted agents for the last planned day of
// each series.
var FTERequired = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "staffing",
	Name:      "fte_required",
	Help:      "Shrinkage-adjusted agents required on the last planned day",
}, []string{"client", "language"})

// FTEMeanTotal tracks the sum over languages of mean adjusted agents.
var FTEMeanTotal = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "staffing",
	Name:      "fte_mean_total",
	Help:      "Sum across languages of the mean adjusted agents per day",
})

// ServiceLevelMean tracks the mean achieved service level of the last plan.
var ServiceLevelMean = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "staffing",
	Name:      "service_level_mean",
	Help:      "Mean achieved service level across all planned days",
})

// UnresolvedEstimatesTotal counts days whose agent search hit the cap.
// Non-zero values mean the target cannot be met with the configured cap.
var UnresolvedEstimatesTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "staffing",
	Name:      "unresolved_estimates_total",
	Help:      "Staffing estimates that reached the agent cap without meeting the service level",
})

// CapacityShortfallsTotal counts planned days whose adjusted agents exceed
// the configured seat capacity.
var CapacityShortfallsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "staffing",
	Name:      "capacity_shortfalls_total",
	Help:      "Planned days on which demand exceeded the seat capacity",
})

// SeriesProcessedTotal counts forecast series by outcome.
var SeriesProcessedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "forecast",
	Name:      "series_processed_total",
	Help:      "Series processed by the forecaster, by outcome",
}, []string{"outcome"})

// HoldoutMAPE tracks the holdout MAPE (percent) per series fit.
var HoldoutMAPE = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "forecast",
	Name:      "holdout_mape_percent",
	Help:      "Mean absolute percentage error over the holdout window",
	Buckets:   []float64{1, 2.5, 5, 10, 15, 20, 30, 50, 100},
})

// =============================================================================
// IMPORTANT METRICS - Operational Health
// =============================================================================

// ParserErrorsTotal tracks parse errors by error type.
var ParserErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "errors_total",
	Help:      "Total parse errors by error type",
}, []string{"error_type"})

// ParserRecordsTotal tracks total records successfully parsed.
var ParserRecordsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "records_total",
	Help:      "Total CSV records successfully parsed",
})

// ParserDurationSeconds tracks time to parse input files.
var ParserDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "parser",
	Name:      "duration_seconds",
	Help:      "Time taken to parse CSV input file",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
})

// ForecastRunDurationSeconds tracks time to forecast all series.
var ForecastRunDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "forecast",
	Name:      "run_duration_seconds",
	Help:      "Time taken to forecast every series in a run",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
})

// SeriesFitDurationSeconds tracks time to fit and forecast one series.
var SeriesFitDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "forecast",
	Name:      "series_duration_seconds",
	Help:      "Time taken to fit, evaluate and extend one series",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
})

// StaffingDurationSeconds tracks time to build a staffing plan.
var StaffingDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "staffing",
	Name:      "duration_seconds",
	Help:      "Time taken to compute the staffing plan",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
})

// =============================================================================
// Helper Functions
// =============================================================================

// ResetRunGauges resets all staffing gauges before a new planning run.
// Call this at the start of staffing.Plan.
func ResetRunGauges() {
	FTERequired.Reset()
	FTEMeanTotal.Set(0)
	ServiceLevelMean.Set(0)
}
