// Package telemetry groups the gateway's observability packages.
//
// # Components
//
//   - logging: structured slog setup with credential redaction
//   - metrics: Prometheus collector on a private registry
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//
// # Usage
//
//	logger, err := logging.Setup(logging.Config{
//	    Level:  cfg.Telemetry.Logging.Level,
//	    Format: cfg.Telemetry.Logging.Format,
//	    Redact: !cfg.Broker.LogSecrets,
//	})
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
// Request IDs and trace IDs placed on the request context are added to
// every log record written with that context.
package telemetry
