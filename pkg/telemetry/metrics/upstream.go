package metrics

import (
	"time"

	"mercator-hq/luminous/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks outbound calls made through the resilient client
// and tunnel negotiations with the broker.
//
// Metrics:
//   - luminous_upstream_requests_total: Attempts by client, host and status
//   - luminous_upstream_latency_seconds: Attempt latency
//   - luminous_upstream_retries_total: Retries scheduled
//   - luminous_broker_negotiations_total: Negotiations by outcome
//   - luminous_broker_negotiation_duration_seconds: Negotiation duration
type UpstreamMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	retries  *prometheus.CounterVec

	negotiations        *prometheus.CounterVec
	negotiationDuration prometheus.Histogram
}

// NewUpstreamMetrics creates and registers upstream metrics with the provided registry.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of outbound HTTP attempts",
			},
			[]string{"client", "host", "status"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "latency_seconds",
				Help:      "Outbound HTTP attempt latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"client", "host"},
		),

		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "retries_total",
				Help:      "Total number of retries after transient upstream failures",
			},
			[]string{"client", "host"},
		),

		negotiations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "broker",
				Name:      "negotiations_total",
				Help:      "Total number of tunnel negotiations by outcome",
			},
			[]string{"outcome"},
		),

		negotiationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "broker",
				Name:      "negotiation_duration_seconds",
				Help:      "Duration of tunnel negotiations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(
		um.requests,
		um.latency,
		um.retries,
		um.negotiations,
		um.negotiationDuration,
	)

	return um
}

// RecordRequest records one outbound attempt.
func (um *UpstreamMetrics) RecordRequest(client, host, status string, duration time.Duration) {
	um.requests.WithLabelValues(client, host, status).Inc()
	um.latency.WithLabelValues(client, host).Observe(duration.Seconds())
}

// RecordNegotiation records one negotiation.
func (um *UpstreamMetrics) RecordNegotiation(outcome string, duration time.Duration) {
	um.negotiations.WithLabelValues(outcome).Inc()
	um.negotiationDuration.Observe(duration.Seconds())
}
