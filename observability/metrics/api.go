package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics tracks HTTP gateway activity for the issuance daemon.
type APIMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	apiOnce     sync.Once
	apiRegistry *APIMetrics
)

// API returns the lazily-initialised HTTP metrics registry.
func API() *APIMetrics {
	apiOnce.Do(func() {
		apiRegistry = &APIMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synthvault",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total HTTP requests segmented by route and outcome.",
			}, []string{"route", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synthvault",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Total HTTP errors segmented by route and status code.",
			}, []string{"route", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "synthvault",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for HTTP handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route"}),
		}
		prometheus.MustRegister(apiRegistry.requests, apiRegistry.errors, apiRegistry.latency)
	})
	return apiRegistry
}

// Observe records the outcome of one HTTP request. status is the code written
// to the response.
func (m *APIMetrics) Observe(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	outcome := "ok"
	if status >= 400 {
		outcome = "error"
		m.errors.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}
	m.requests.WithLabelValues(route, outcome).Inc()
	m.latency.WithLabelValues(route).Observe(duration.Seconds())
}
