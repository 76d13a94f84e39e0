// Package tracing provides OpenTelemetry tracing for the gateway.
//
// # Overview
//
// Spans are exported over OTLP gRPC when telemetry.tracing.enabled is set.
// When disabled, a noop provider is installed and span creation costs a
// few allocations at most.
//
// Inbound W3C trace context is honoured so a gateway request can join a
// caller's trace. Trace context is never injected into requests sent to
// the upstream platform.
//
// # Span Layout
//
//	GET live                  server span, named after the matched route
//	  gateway.process         manifest resolution for one request
//	    upstream.request      one attempt against the platform
//	  health.probe            deep status probe
//
// # Configuration
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: "otel-collector:4317"
//	    insecure: true
//	    sampler: ratio      # always, never, ratio
//	    sample_ratio: 0.1
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracing.StartSpan(ctx, "gateway.process",
//	    attribute.String("gateway.kind", "live"))
//	defer func() { tracing.End(span, err) }()
package tracing
