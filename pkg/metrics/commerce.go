package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics records outbound calls to the remote commerce API.
type CommerceMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewCommerceMetrics registers the commerce call metrics on the provided registerer.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commerce_request_duration_seconds",
		Help:    "Duration of remote commerce API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_requests_total",
		Help: "Remote commerce API calls by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	reg.MustRegister(duration, requests)
	return &CommerceMetrics{
		duration: duration,
		requests: requests,
	}
}

// ObserveDuration records the duration for the named endpoint.
func (c *CommerceMetrics) ObserveDuration(endpoint string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(endpoint)).Observe(duration.Seconds())
}

// IncOutcome counts one call outcome (success, business_error, transport_error).
func (c *CommerceMetrics) IncOutcome(endpoint, outcome string) {
	if c == nil || c.requests == nil {
		return
	}
	c.requests.WithLabelValues(normalizeLabel(endpoint), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
