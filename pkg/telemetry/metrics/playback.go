package metrics

import (
	"time"

	"mercator-hq/luminous/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// PlaybackMetrics tracks manifests served and deep-status probes.
//
// Metrics:
//   - luminous_manifests_total: Manifests served by kind and viewer country
//   - luminous_probe_results_total: Deep-status probe results
//   - luminous_probe_duration_seconds: Deep-status probe duration
//   - luminous_online: Last probe result (1=online, 0=offline)
type PlaybackMetrics struct {
	manifests     *prometheus.CounterVec
	probes        *prometheus.CounterVec
	probeDuration prometheus.Histogram
	online        prometheus.Gauge
}

// NewPlaybackMetrics creates and registers playback metrics with the provided registry.
func NewPlaybackMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PlaybackMetrics {
	pm := &PlaybackMetrics{
		manifests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "manifests_total",
				Help:      "Total number of playlist manifests served",
			},
			[]string{"kind", "country"},
		),

		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "probe",
				Name:      "results_total",
				Help:      "Total number of deep-status probes by result",
			},
			[]string{"result"},
		),

		probeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "probe",
				Name:      "duration_seconds",
				Help:      "Duration of deep-status probes in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		online: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "online",
				Help:      "Result of the last deep-status probe (1=online, 0=offline)",
			},
		),
	}

	registry.MustRegister(
		pm.manifests,
		pm.probes,
		pm.probeDuration,
		pm.online,
	)

	return pm
}

// RecordProbe records a probe result and updates the online gauge.
func (pm *PlaybackMetrics) RecordProbe(online bool, duration time.Duration) {
	result := "offline"
	value := 0.0
	if online {
		result = "online"
		value = 1
	}
	pm.probes.WithLabelValues(result).Inc()
	pm.probeDuration.Observe(duration.Seconds())
	pm.online.Set(value)
}
