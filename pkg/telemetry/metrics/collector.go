package metrics

import (
	"strconv"
	"sync"
	"time"

	"mercator-hq/luminous/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// maxLabelSets bounds label combinations derived from upstream data.
const maxLabelSets = 10000

// Collector is the main orchestrator for all Prometheus metrics in Luminous.
// It manages metric registration and implements transport.Observer,
// broker.Observer and gateway.Observer.
//
// A Collector built from a disabled config still satisfies every observer
// interface; its recording methods become no-ops.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	httpMetrics     *HTTPMetrics
	upstreamMetrics *UpstreamMetrics
	playbackMetrics *PlaybackMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry with the Go
// runtime and process collectors is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "luminous",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(maxLabelSets),
	}

	c.httpMetrics = NewHTTPMetrics(cfg, registry)
	c.upstreamMetrics = NewUpstreamMetrics(cfg, registry)
	c.playbackMetrics = NewPlaybackMetrics(cfg, registry)

	return c
}

// RecordHTTPRequest records a completed inbound request.
//
// Parameters:
//   - route: Route name (e.g., "live", "vod", "status")
//   - status: Response status code
//   - duration: Time spent in the handler chain
func (c *Collector) RecordHTTPRequest(route string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.httpMetrics.RecordRequest(route, strconv.Itoa(status), duration)
}

// IncInFlight increments the in-flight request gauge.
func (c *Collector) IncInFlight() {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.inFlight.Inc()
}

// DecInFlight decrements the in-flight request gauge.
func (c *Collector) DecInFlight() {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.inFlight.Dec()
}

// RecordShed records a request rejected at admission.
func (c *Collector) RecordShed() {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.shedTotal.Inc()
}

// ObserveUpstream records one outbound HTTP attempt. A zero status means the
// attempt failed before a response was received.
func (c *Collector) ObserveUpstream(client, host string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	host = c.limit("upstream", host)
	statusLabel := "error"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}
	c.upstreamMetrics.RecordRequest(client, host, statusLabel, duration)
}

// ObserveRetry records a retry scheduled by the resilient client.
func (c *Collector) ObserveRetry(client, host string) {
	if !c.config.Enabled {
		return
	}

	c.upstreamMetrics.retries.WithLabelValues(client, c.limit("upstream", host)).Inc()
}

// ObserveNegotiation records a tunnel broker negotiation.
//
// Parameters:
//   - outcome: "success", "blocked" or "error"
//   - duration: Time spent negotiating
func (c *Collector) ObserveNegotiation(outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.upstreamMetrics.RecordNegotiation(outcome, duration)
}

// ObserveManifest records a manifest served for kind ("live" or "vod") to a
// viewer in country.
func (c *Collector) ObserveManifest(kind, country string) {
	if !c.config.Enabled {
		return
	}

	if country == "" {
		country = "unknown"
	}
	c.playbackMetrics.manifests.WithLabelValues(kind, c.limit("manifest", country)).Inc()
}

// RecordProbe records a deep-status probe result.
func (c *Collector) RecordProbe(online bool, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.playbackMetrics.RecordProbe(online, duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// limit folds value into "other" once metric has too many label sets.
func (c *Collector) limit(metric, value string) string {
	if !c.cardinalityLimiter.Allow(metric + ":" + value) {
		return "other"
	}
	return value
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
