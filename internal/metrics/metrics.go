// Package metrics exposes Prometheus collectors for the HTTP layer and the
// personalization pipeline. Collectors are registered with the default
// registry at package initialization.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Estimate outcomes.
const (
	OutcomeResolved    = "resolved"
	OutcomeUnavailable = "unavailable"
	OutcomeFetchError  = "fetch_error"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Number of client rate limit buckets currently tracked",
		},
	)

	EstimatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pksim_estimates_total",
			Help: "Decay constant estimations by outcome",
		},
		[]string{"outcome"},
	)

	EstimateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pksim_estimate_duration_seconds",
			Help:    "Time to fetch observations and fit a decay constant",
			Buckets: prometheus.DefBuckets,
		},
	)

	StaleEstimatesDiscarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pksim_stale_estimates_discarded_total",
			Help: "Estimates dropped because their regimen changed or disappeared",
		},
	)

	TasksProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pksim_tasks_processed_total",
			Help: "Background tasks processed by type and result",
		},
		[]string{"type", "result"},
	)

	ActiveWorkspaces = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pksim_active_workspaces",
			Help: "Regimen workspaces held in memory",
		},
	)

	SimulatedRegimens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pksim_simulated_regimens_total",
			Help: "Regimens simulated across all chart builds",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBucketsTotal,
		EstimatesTotal,
		EstimateDuration,
		StaleEstimatesDiscarded,
		TasksProcessed,
		ActiveWorkspaces,
		SimulatedRegimens,
	)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTask records the result of one background task.
func ObserveTask(taskType string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	TasksProcessed.WithLabelValues(taskType, result).Inc()
}
