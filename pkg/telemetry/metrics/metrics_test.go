package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/luminous/pkg/broker"
	"mercator-hq/luminous/pkg/config"
	"mercator-hq/luminous/pkg/gateway"
	"mercator-hq/luminous/pkg/transport"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	_ transport.Observer = (*Collector)(nil)
	_ broker.Observer    = (*Collector)(nil)
	_ gateway.Observer   = (*Collector)(nil)
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Path:      "/metrics",
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_DefaultNamespace(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	NewCollector(cfg, prometheus.NewRegistry())

	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("Namespace = %q, want %q", cfg.Namespace, config.DefaultMetricsNamespace)
	}
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordHTTPRequest("live", 200, 300*time.Millisecond)
	collector.RecordHTTPRequest("live", 200, 100*time.Millisecond)
	collector.RecordHTTPRequest("vod", 400, time.Millisecond)

	if got := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("live", "200")); got != 2 {
		t.Errorf("live/200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("vod", "400")); got != 1 {
		t.Errorf("vod/400 = %v, want 1", got)
	}
}

func TestCollector_InFlightAndShed(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.IncInFlight()
	collector.IncInFlight()
	collector.DecInFlight()
	collector.RecordShed()

	if got := testutil.ToFloat64(collector.httpMetrics.inFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.httpMetrics.shedTotal); got != 1 {
		t.Errorf("shed = %v, want 1", got)
	}
}

func TestCollector_ObserveUpstream(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.ObserveUpstream("upstream", "gql.example", 200, 50*time.Millisecond)
	collector.ObserveUpstream("upstream", "gql.example", 0, time.Second)
	collector.ObserveRetry("upstream", "gql.example")

	if got := testutil.ToFloat64(collector.upstreamMetrics.requests.WithLabelValues("upstream", "gql.example", "200")); got != 1 {
		t.Errorf("200 attempts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.upstreamMetrics.requests.WithLabelValues("upstream", "gql.example", "error")); got != 1 {
		t.Errorf("failed attempts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.upstreamMetrics.retries.WithLabelValues("upstream", "gql.example")); got != 1 {
		t.Errorf("retries = %v, want 1", got)
	}
}

func TestCollector_ObserveNegotiation(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.ObserveNegotiation("success", time.Second)
	collector.ObserveNegotiation("blocked", time.Second)
	collector.ObserveNegotiation("success", time.Second)

	if got := testutil.ToFloat64(collector.upstreamMetrics.negotiations.WithLabelValues("success")); got != 2 {
		t.Errorf("success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.upstreamMetrics.negotiations.WithLabelValues("blocked")); got != 1 {
		t.Errorf("blocked = %v, want 1", got)
	}
}

func TestCollector_ObserveManifest(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.ObserveManifest("live", "DE")
	collector.ObserveManifest("vod", "")

	if got := testutil.ToFloat64(collector.playbackMetrics.manifests.WithLabelValues("live", "DE")); got != 1 {
		t.Errorf("live/DE = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.playbackMetrics.manifests.WithLabelValues("vod", "unknown")); got != 1 {
		t.Errorf("vod/unknown = %v, want 1", got)
	}
}

func TestCollector_RecordProbe(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordProbe(true, time.Second)
	if got := testutil.ToFloat64(collector.playbackMetrics.online); got != 1 {
		t.Errorf("online = %v, want 1", got)
	}

	collector.RecordProbe(false, time.Second)
	if got := testutil.ToFloat64(collector.playbackMetrics.online); got != 0 {
		t.Errorf("online = %v, want 0", got)
	}
	if got := testutil.ToFloat64(collector.playbackMetrics.probes.WithLabelValues("offline")); got != 1 {
		t.Errorf("offline probes = %v, want 1", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordHTTPRequest("live", 200, time.Second)
	collector.ObserveUpstream("upstream", "host", 200, time.Second)
	collector.ObserveNegotiation("success", time.Second)
	collector.ObserveManifest("live", "US")
	collector.RecordProbe(true, time.Second)

	if got := testutil.CollectAndCount(collector.httpMetrics.requestsTotal); got != 0 {
		t.Errorf("disabled collector recorded %d series", got)
	}
}

func TestCollector_CardinalityOverflow(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(1)

	collector.ObserveManifest("live", "US")
	collector.ObserveManifest("live", "FR")

	if got := testutil.ToFloat64(collector.playbackMetrics.manifests.WithLabelValues("live", "other")); got != 1 {
		t.Errorf("overflow = %v, want 1", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(3)

	for _, label := range []string{"label1", "label2", "label3"} {
		if !limiter.Allow(label) {
			t.Errorf("Expected %s to be allowed", label)
		}
	}

	if limiter.Allow("label4") {
		t.Error("Expected fourth label to be rejected")
	}
	if !limiter.Allow("label1") {
		t.Error("Expected existing label to be allowed")
	}
	if limiter.Count() != 3 {
		t.Errorf("Expected count=3, got %d", limiter.Count())
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordHTTPRequest("status", 200, time.Millisecond)

	server := httptest.NewServer(collector.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `test_http_requests_total{route="status",status="200"} 1`) {
		t.Errorf("scrape output missing request counter:\n%s", body)
	}
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.RecordHTTPRequest("live", 200, time.Millisecond)
				collector.ObserveManifest("live", "US")
			}
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("live", "200")); got != 1000 {
		t.Errorf("Expected 1000 requests, got %v", got)
	}
}
