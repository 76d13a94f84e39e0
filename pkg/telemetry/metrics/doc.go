// Package metrics provides Prometheus metrics collection for Luminous.
//
// # Overview
//
// The Collector owns a private Prometheus registry and implements the
// observer interfaces of the transport, broker and gateway packages, so
// those packages never import Prometheus directly.
//
// # Metrics Categories
//
//   - HTTP Metrics: inbound request count, duration, in-flight and shed count
//   - Upstream Metrics: outbound call count, latency, retries and tunnel negotiations
//   - Playback Metrics: manifests served by kind and viewer country, deep-status probes
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	client, _ := transport.New(transport.Config{Name: "upstream", Observer: collector})
//	gw := gateway.New(gwCfg, client, allow, collector)
//
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// # Prometheus Endpoint
//
//	# HELP luminous_http_requests_total Total number of inbound HTTP requests
//	# TYPE luminous_http_requests_total counter
//	luminous_http_requests_total{route="live",status="200"} 1234
//
// # Cardinality Management
//
// Country and host labels come from upstream data. The collector caps the
// number of distinct label sets and folds overflow into "other".
package metrics
