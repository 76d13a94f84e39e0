package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// maxConcurrentScrapes bounds scrapes, which bypass the gateway's
	// admission control.
	maxConcurrentScrapes = 4

	scrapeTimeout = 10 * time.Second
)

// Handler serves the collector's private registry in the Prometheus
// exposition format. Mount it outside the gateway middleware chain so
// scrapes keep working while requests are shed:
//
//	root.Handle("GET /metrics", collector.Handler())
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics:   true,
		ErrorHandling:       promhttp.ContinueOnError,
		ErrorLog:            slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
		MaxRequestsInFlight: maxConcurrentScrapes,
		Timeout:             scrapeTimeout,
	})
}
