package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"fte-forecaster/calendar"
	"fte-forecaster/config"
	"fte-forecaster/forecast"
	"fte-forecaster/formatter"
	"fte-forecaster/logging"
	"fte-forecaster/metrics"
	"fte-forecaster/parser"
	"fte-forecaster/regression"
	"fte-forecaster/staffing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Sections printed by the forecast command.
const (
	sectionHistorical = "historical"
	sectionFuture     = "future"
	sectionMetrics    = "metrics"
)

var errMissingInput = errors.New("--input is required")

// flags holds every command-line value before it is folded into the config.
type flags struct {
	configPath    string
	input         string
	format        string
	metricsAddr   string
	pushURL       string
	waitForScrape bool
	logLevel      string
	logJSON       bool

	horizon int
	section string

	wait         float64
	serviceLevel float64
	shrinkage    float64
	aht          float64
	capacity     int
}

// runner carries the state shared by the subcommands of one invocation.
type runner struct {
	flags   flags
	out     io.Writer
	cfg     *config.Config
	logger  *logrus.Logger
	metrics *http.Server
}

func newRootCmd(out io.Writer) *cobra.Command {
	r := &runner{out: out}

	cmd := &cobra.Command{
		Use:   "fte-forecaster",
		Short: "Forecast daily call volumes and size the agent headcount behind them",
		Long: `fte-forecaster trains a gradient-boosted model per (client, language) call
series, evaluates it on a holdout window, forecasts the next business days and
turns the forecast into Erlang C staffing requirements.`,
		PersistentPreRunE:  r.setup,
		PersistentPostRunE: r.finish,
		SilenceUsage:       true,
		SilenceErrors:      true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&r.flags.configPath, "config", "c", "", "Path to YAML configuration file")
	pf.StringVarP(&r.flags.input, "input", "i", "", "Daily call CSV (date,cliente,idioma,y,aht)")
	pf.StringVarP(&r.flags.format, "format", "f", "text", "Output format: text|json|csv")
	pf.IntVar(&r.flags.horizon, "horizon", forecast.DefaultHorizonDays, "Business days to forecast")
	pf.StringVar(&r.flags.metricsAddr, "metrics-addr", "", "Address to expose Prometheus metrics (e.g., :9090)")
	pf.StringVar(&r.flags.pushURL, "push-url", "", "Pushgateway URL to push metrics to (e.g., http://localhost:9091)")
	pf.BoolVar(&r.flags.waitForScrape, "wait-for-scrape", false, "Keep process running after completion to allow for metric scraping")
	pf.StringVar(&r.flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.BoolVar(&r.flags.logJSON, "log-json", false, "Emit logs as JSON")

	cmd.AddCommand(r.forecastCmd(), r.staffingCmd())
	return cmd
}

func (r *runner) forecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print holdout predictions, future forecasts or holdout metrics",
		Args:  cobra.NoArgs,
		RunE:  r.runForecast,
	}
	cmd.Flags().StringVar(&r.flags.section, "section", sectionFuture, "Table to print: historical|future|metrics")
	return cmd
}

func (r *runner) staffingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staffing",
		Short: "Print the Erlang C staffing plan for the forecast horizon",
		Args:  cobra.NoArgs,
		RunE:  r.runStaffing,
	}
	f := cmd.Flags()
	f.Float64Var(&r.flags.wait, "wait", 30, "Target answer time in seconds")
	f.Float64Var(&r.flags.serviceLevel, "service-level", 0.70, "Target service level (0.30-1.00)")
	f.Float64Var(&r.flags.shrinkage, "shrinkage", 0.30, "Shrinkage fraction (0.00-0.70)")
	f.Float64Var(&r.flags.aht, "aht", 0, "Handle time override in seconds (0 = historical average)")
	f.IntVar(&r.flags.capacity, "capacity", 0, "Seats available per day across all series (0 = unlimited)")
	return cmd
}

// setup loads the config, folds explicitly set flags over it and starts the
// metrics endpoint.
func (r *runner) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(r.flags.configPath)
	if err != nil {
		return err
	}
	r.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	r.cfg = cfg

	r.logger, err = logging.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	if err != nil {
		return err
	}

	if cfg.Metrics.Address != "" {
		r.startMetricsServer(cfg.Metrics.Address)
	}
	return nil
}

func (r *runner) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("horizon") {
		cfg.Forecast.HorizonDays = r.flags.horizon
	}
	if changed("metrics-addr") {
		cfg.Metrics.Address = r.flags.metricsAddr
	}
	if changed("push-url") {
		cfg.Metrics.PushURL = r.flags.pushURL
	}
	if changed("log-level") {
		cfg.Logging.Level = r.flags.logLevel
	}
	if changed("log-json") {
		cfg.Logging.JSON = r.flags.logJSON
	}
	if changed("wait") {
		cfg.Staffing.TargetWaitSeconds = r.flags.wait
	}
	if changed("service-level") {
		cfg.Staffing.TargetServiceLevel = r.flags.serviceLevel
	}
	if changed("shrinkage") {
		cfg.Staffing.Shrinkage = r.flags.shrinkage
	}
	if changed("aht") {
		cfg.Staffing.AHTOverrideSeconds = r.flags.aht
	}
	if changed("capacity") {
		cfg.Staffing.CapacityPerDay = r.flags.capacity
	}
}

func (r *runner) startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	r.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		r.logger.WithField("address", addr).Info("metrics server listening on /metrics")
		if err := r.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.WithError(err).Error("metrics server error")
		}
	}()
}

// forecast runs the shared pipeline: parse, build series, fit and extend.
func (r *runner) forecast(ctx context.Context) (*forecast.RunResult, error) {
	if r.flags.input == "" {
		return nil, errMissingInput
	}
	file, err := os.Open(r.flags.input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	observations, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}

	seriesOpts, err := r.cfg.SeriesOptions()
	if err != nil {
		return nil, err
	}
	histOpts, err := r.cfg.HistoricalOptions()
	if err != nil {
		return nil, err
	}

	series := forecast.BuildSeries(observations, seriesOpts)
	r.logger.WithFields(logrus.Fields{
		"observations": len(observations),
		"series":       len(series),
	}).Info("input loaded")

	historical := forecast.NewHistoricalForecaster(regression.NewFactory(r.cfg.ModelOptions()), histOpts)
	orchestrator := forecast.NewOrchestrator(historical, r.cfg.Forecast.HorizonDays, r.cfg.Forecast.Workers, r.logger)
	return orchestrator.Run(ctx, series)
}

func (r *runner) runForecast(cmd *cobra.Command, _ []string) error {
	format, err := formatter.ParseFormat(r.flags.format)
	if err != nil {
		return err
	}
	switch r.flags.section {
	case sectionHistorical, sectionFuture, sectionMetrics:
	default:
		return fmt.Errorf("unknown section %q (want historical, future or metrics)", r.flags.section)
	}

	result, err := r.forecast(cmd.Context())
	if err != nil {
		return err
	}

	switch r.flags.section {
	case sectionHistorical:
		fmt.Fprint(r.out, formatter.FormatForecast(result.Historical, format))
	case sectionMetrics:
		fmt.Fprint(r.out, formatter.FormatMetrics(result.Metrics, format))
	default:
		fmt.Fprint(r.out, formatter.FormatForecast(result.Future, format))
	}
	return nil
}

func (r *runner) runStaffing(cmd *cobra.Command, _ []string) error {
	format, err := formatter.ParseFormat(r.flags.format)
	if err != nil {
		return err
	}
	planner, err := staffing.NewPlanner(r.cfg.StaffingParams(), r.logger)
	if err != nil {
		return err
	}

	result, err := r.forecast(cmd.Context())
	if err != nil {
		return err
	}
	rows, err := planner.Plan(result.Future)
	if err != nil {
		return err
	}

	summary := staffing.Summarize(rows)
	summary.Shortfalls = staffing.CheckCapacity(rows, r.cfg.Staffing.CapacityPerDay, r.cfg.Staffing.Priorities)
	for _, s := range summary.Shortfalls {
		r.logger.WithFields(logrus.Fields{
			"date":  s.Date.Format(calendar.DateLayout),
			"unmet": s.Unmet,
		}).Warn("seat capacity exceeded")
	}

	fmt.Fprint(r.out, formatter.FormatStaffing(rows, summary, format))
	return nil
}

// finish pushes metrics and, when asked, keeps the scrape endpoint alive
// until the process is interrupted.
func (r *runner) finish(cmd *cobra.Command, _ []string) error {
	if r.cfg.Metrics.PushURL != "" {
		if err := push.New(r.cfg.Metrics.PushURL, r.cfg.Metrics.Job).Gatherer(metrics.Registry).Push(); err != nil {
			r.logger.WithError(err).Error("error pushing to Pushgateway")
		} else {
			r.logger.Info("metrics successfully pushed to Pushgateway")
		}
	}

	if r.metrics == nil {
		return nil
	}
	if r.flags.waitForScrape {
		r.logger.Info("process kept alive for metric scraping, press Ctrl+C to exit")
		<-cmd.Context().Done()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.metrics.Shutdown(shutdownCtx)
}
