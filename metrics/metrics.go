// Package metrics provides Prometheus metrics for the HTTP server and the
// mapping reloads.
//
// HTTP metrics are labelled by chi route pattern:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Mapping metrics:
//   - cie10_mapping_entries: Gauge with the number of codes served
//   - cie10_reload_total: Counter with a result label (success, failure)
//   - cie10_reload_duration_seconds: Histogram of reload durations
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ReloadSuccess = "success"
	ReloadFailure = "failure"
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
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	MappingEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cie10_mapping_entries",
			Help: "Number of codes in the current mapping",
		},
	)

	ReloadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cie10_reload_total",
			Help: "Mapping reloads by result",
		},
		[]string{"result"},
	)

	ReloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cie10_reload_duration_seconds",
			Help:    "Time spent reading and normalizing the mapping file",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(MappingEntries)
	prometheus.MustRegister(ReloadTotal)
	prometheus.MustRegister(ReloadDuration)
}

// ObserveReload records a reload attempt. entries is only used on success.
func ObserveReload(success bool, duration time.Duration, entries int) {
	ReloadDuration.Observe(duration.Seconds())

	if !success {
		ReloadTotal.WithLabelValues(ReloadFailure).Inc()
		return
	}

	ReloadTotal.WithLabelValues(ReloadSuccess).Inc()
	MappingEntries.Set(float64(entries))
}
