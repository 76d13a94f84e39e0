// Package server composes the playback gateway's HTTP surface.
//
// It registers the manifest, status and optional compatibility routes,
// wraps them in the middleware chain and manages the listener lifecycle
// including TLS with certificate reload.
//
// # Basic Usage
//
//	srv := server.NewServer(cfg, server.Dependencies{
//	    Gateway:        gw,
//	    Status:         status,
//	    Prober:         prober,
//	    Metrics:        collector,
//	    TruestatSecret: secret,
//	})
//
//	// Blocks until ctx is cancelled, then drains in-flight requests.
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// # Routes
//
//	GET /live/{channel}      live manifest
//	GET /vod/{id}            VOD manifest
//	GET /status              {"online": bool}
//	GET /truestat/{secret}   deep probe (health.deep_status)
//	GET /playlist/{channel}  path-encoded query form (gateway.compat_paths)
//	GET /ping                empty 200 (gateway.compat_paths)
//	GET /metrics             Prometheus scrape (telemetry.metrics.enabled)
//
// The scrape endpoint is served outside the middleware chain so it stays
// available while requests are being shed. Every other route gets a server
// span named after its route when tracing is enabled.
//
// # Graceful Shutdown
//
// Cancelling the context passed to Start stops accepting connections and
// waits up to server.shutdown_timeout for in-flight requests. Signal
// handling is left to the caller.
package server
