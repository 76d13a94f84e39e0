package metrics

import (
	"time"

	"mercator-hq/luminous/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// httpDurationBuckets cover the manifest path, which spans two upstream
// round trips through a proxy tunnel.
var httpDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}

// HTTPMetrics tracks inbound request handling.
//
// Metrics:
//   - luminous_http_requests_total: Request count by route and status
//   - luminous_http_request_duration_seconds: Request duration histogram
//   - luminous_http_requests_in_flight: Requests currently admitted
//   - luminous_http_requests_shed_total: Requests rejected at admission
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	shedTotal       prometheus.Counter
}

// NewHTTPMetrics creates and registers HTTP metrics with the provided registry.
func NewHTTPMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of inbound HTTP requests",
			},
			[]string{"route", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of inbound HTTP requests in seconds",
				Buckets:   httpDurationBuckets,
			},
			[]string{"route"},
		),

		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of inbound requests currently being served",
			},
		),

		shedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_shed_total",
				Help:      "Total number of requests rejected because the server was at capacity",
			},
		),
	}

	registry.MustRegister(
		hm.requestsTotal,
		hm.requestDuration,
		hm.inFlight,
		hm.shedTotal,
	)

	return hm
}

// RecordRequest records metrics for a completed request.
func (hm *HTTPMetrics) RecordRequest(route, status string, duration time.Duration) {
	hm.requestsTotal.WithLabelValues(route, status).Inc()
	hm.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
