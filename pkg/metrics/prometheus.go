package metrics

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	forecasts    *prometheus.CounterVec
	windowDays   *prometheus.HistogramVec
	lastR2       *prometheus.GaugeVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	seriesLength *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		forecasts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trendcast_forecasts_total",
			Help: "Forecasts computed by method and outcome",
		}, []string{"method", "outcome"}),
		windowDays: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trendcast_forecast_window_days",
			Help:    "Lookback window used per forecast",
			Buckets: []float64{15, 30, 60, 90, 180, 360, 720, 1440},
		}, []string{"method"}),
		lastR2: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trendcast_forecast_r2",
			Help: "Cross-validated R² of the last selected trend window",
		}, []string{"method"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trendcast_errors_total",
			Help: "Errors by kind",
		}, []string{"type"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trendcast_operation_duration_seconds",
			Help:    "Duration of operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		seriesLength: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trendcast_series_length",
			Help: "Number of daily points last read per instrument",
		}, []string{"instrument"}),
	}
}

// RecordForecast counts one forecast and its diagnostics.
func (r *Recorder) RecordForecast(method string, failed bool, windowDays int, r2 float64) {
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	r.forecasts.WithLabelValues(method, outcome).Inc()
	r.windowDays.WithLabelValues(method).Observe(float64(windowDays))
	if !math.IsNaN(r2) && !math.IsInf(r2, 0) {
		r.lastR2.WithLabelValues(method).Set(r2)
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordSeriesLength records the size of the series read for instrument.
func (r *Recorder) RecordSeriesLength(instrument string, n int) {
	r.seriesLength.WithLabelValues(instrument).Set(float64(n))
}
