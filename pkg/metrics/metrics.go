package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values for restmock_requests_total.
const (
	OutcomeMocked    = "mocked"
	OutcomeTransport = "transport"
	OutcomeError     = "error"
)

// Result label values for restmock_responder_total.
const (
	ResultServed     = "served"
	ResultURLMiss    = "url_miss"
	ResultFilterMiss = "filter_miss"
)

// Metrics holds the restmock collectors.
type Metrics struct {
	requests  *prometheus.CounterVec
	responder *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
// A nil reg creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restmock_requests_total",
				Help: "Total requests dispatched through a connection chain.",
			},
			[]string{"connection", "outcome"},
		),
		responder: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restmock_responder_total",
				Help: "Mock responder decisions by fixture URL.",
			},
			[]string{"url", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "restmock_dispatch_duration_seconds",
				Help:    "Duration of request dispatch in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"connection"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.responder, m.duration)
	}
	return m
}

// Request records one request on a connection with its outcome.
func (m *Metrics) Request(connection, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(connection, outcome).Inc()
	m.duration.WithLabelValues(connection).Observe(elapsed.Seconds())
}

// Responder records one responder decision.
func (m *Metrics) Responder(url, result string) {
	if m == nil {
		return
	}
	m.responder.WithLabelValues(url, result).Inc()
}

// Collectors returns the underlying collectors, for registering elsewhere.
func (m *Metrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{m.requests, m.responder, m.duration}
}
