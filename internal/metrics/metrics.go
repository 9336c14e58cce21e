package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes scan metrics to Prometheus
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	tickersTotal    *prometheus.CounterVec
	upstreamErrors  *prometheus.CounterVec
	directionsTotal *prometheus.CounterVec
	breakerTrips    prometheus.Counter
	runDuration     *prometheus.HistogramVec
	lastRunTime     prometheus.Gauge
	cacheTotal      *prometheus.CounterVec
}

// New creates a recorder on its own registry (plus Go runtime collectors)
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanner_runs_total",
				Help: "Total number of scan runs by mode and status",
			},
			[]string{"mode", "status"},
		),
		tickersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanner_tickers_total",
				Help: "Tickers processed by outcome",
			},
			[]string{"outcome"},
		),
		upstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanner_upstream_errors_total",
				Help: "Upstream failures by source and kind",
			},
			[]string{"source", "kind"},
		),
		directionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanner_signals_total",
				Help: "Signals produced by direction",
			},
			[]string{"direction"},
		),
		breakerTrips: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "scanner_breaker_trips_total",
				Help: "Circuit breaker trips (unauthorized upstream)",
			},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scanner_run_duration_seconds",
				Help:    "Duration of scan runs in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"mode"},
		),
		lastRunTime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "scanner_last_run_timestamp_seconds",
				Help: "Unix time of the last completed run",
			},
		),
		cacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanner_cache_requests_total",
				Help: "Upstream cache lookups by kind and result",
			},
			[]string{"kind", "result"},
		),
	}
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.DefaultGatherer
	}
	return r.registry
}

// RecordRun records a finished run
func (r *Recorder) RecordRun(mode, status string, seconds float64, unixTime int64) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(mode, status).Inc()
	r.runDuration.WithLabelValues(mode).Observe(seconds)
	r.lastRunTime.Set(float64(unixTime))
}

// RecordTicker records one ticker outcome (included, skipped, no_data)
func (r *Recorder) RecordTicker(outcome string) {
	if r == nil {
		return
	}
	r.tickersTotal.WithLabelValues(outcome).Inc()
}

// RecordUpstreamError records a classified upstream failure
func (r *Recorder) RecordUpstreamError(source, kind string) {
	if r == nil {
		return
	}
	r.upstreamErrors.WithLabelValues(source, kind).Inc()
}

// RecordSignal records a scored direction
func (r *Recorder) RecordSignal(direction string) {
	if r == nil {
		return
	}
	r.directionsTotal.WithLabelValues(direction).Inc()
}

// RecordBreakerTrip records a circuit breaker trip
func (r *Recorder) RecordBreakerTrip() {
	if r == nil {
		return
	}
	r.breakerTrips.Inc()
}

// RecordCache records a cache hit or miss
func (r *Recorder) RecordCache(kind string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheTotal.WithLabelValues(kind, result).Inc()
}
