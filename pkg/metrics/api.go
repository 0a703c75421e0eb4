package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// APIMetrics provides observability for the REST API.
//
// Routes are recorded by their gin route template (e.g.
// "/api/directories/:id/"), never by the raw path, to keep label
// cardinality bounded.
type APIMetrics interface {
	// RecordRequest records a completed request.
	RecordRequest(method, route string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight gauge for a route.
	RecordRequestStart(method, route string)

	// RecordRequestEnd decrements the in-flight gauge for a route.
	RecordRequestEnd(method, route string)

	// RecordBytesTransferred records upload ("in") or download ("out") bytes.
	RecordBytesTransferred(direction string, bytes int64)

	// RecordRateLimited records a request rejected by the rate limiter.
	RecordRateLimited(route string)
}

type apiMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	bytesTransferred *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
}

// NewAPIMetrics creates a Prometheus-backed APIMetrics instance, or a no-op
// implementation if metrics are not enabled.
func NewAPIMetrics() APIMetrics {
	if !IsEnabled() {
		return NewNoopAPIMetrics()
	}

	reg := GetRegistry()

	return &apiMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of API requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of API requests in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.005, // 5ms
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.5,   // 500ms
					1,     // 1s
					5,     // 5s
				},
			},
			[]string{"method", "route"},
		),
		requestsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of API requests being processed",
			},
			[]string{"method", "route"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_bytes_transferred_total",
				Help:      "Total file bytes uploaded (in) and downloaded (out)",
			},
			[]string{"direction"},
		),
		rateLimited: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_rate_limited_total",
				Help:      "Total number of API requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
	}
}

func (m *apiMetrics) RecordRequest(method, route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *apiMetrics) RecordRequestStart(method, route string) {
	m.requestsInFlight.WithLabelValues(method, route).Inc()
}

func (m *apiMetrics) RecordRequestEnd(method, route string) {
	m.requestsInFlight.WithLabelValues(method, route).Dec()
}

func (m *apiMetrics) RecordBytesTransferred(direction string, bytes int64) {
	m.bytesTransferred.WithLabelValues(direction).Add(float64(bytes))
}

func (m *apiMetrics) RecordRateLimited(route string) {
	m.rateLimited.WithLabelValues(route).Inc()
}

// noopAPIMetrics is a no-op implementation of APIMetrics with zero overhead.
type noopAPIMetrics struct{}

// NewNoopAPIMetrics returns an APIMetrics that records nothing.
func NewNoopAPIMetrics() APIMetrics {
	return noopAPIMetrics{}
}

func (noopAPIMetrics) RecordRequest(string, string, int, time.Duration) {}
func (noopAPIMetrics) RecordRequestStart(string, string)               {}
func (noopAPIMetrics) RecordRequestEnd(string, string)                 {}
func (noopAPIMetrics) RecordBytesTransferred(string, int64)            {}
func (noopAPIMetrics) RecordRateLimited(string)                        {}
