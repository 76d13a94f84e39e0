package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration. All validation errors are
// collected and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateBroker(&cfg.Broker)...)
	errs = append(errs, validateHealth(&cfg.Health)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	}
	if cfg.MaxInFlight < 1 {
		errs = append(errs, FieldError{Field: "server.max_in_flight", Message: "must be at least 1"})
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, FieldError{Field: "server.request_timeout", Message: "must be positive"})
	}
	if cfg.WriteTimeout > 0 && cfg.WriteTimeout <= cfg.RequestTimeout {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "must exceed server.request_timeout so timeouts can be reported",
		})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_header_bytes", Message: "must be non-negative"})
	}

	return errs
}

func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if cfg.Proxy != "" {
		u, err := url.Parse(cfg.Proxy)
		if err != nil || u.Host == "" {
			errs = append(errs, FieldError{Field: "upstream.proxy", Message: "must be scheme://host:port"})
		} else {
			switch u.Scheme {
			case "http", "https", "socks5", "socks5h":
			default:
				errs = append(errs, FieldError{
					Field:   "upstream.proxy",
					Message: fmt.Sprintf("unsupported proxy scheme %q", u.Scheme),
				})
			}
		}
	}
	for field, raw := range map[string]string{"upstream.gql_url": cfg.GQLURL, "upstream.usher_url": cfg.UsherURL} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{Field: field, Message: "must be an absolute URL"})
		}
	}
	if cfg.Retry.MinDelay <= 0 || cfg.Retry.MaxDelay < cfg.Retry.MinDelay {
		errs = append(errs, FieldError{Field: "upstream.retry", Message: "require 0 < min_delay <= max_delay"})
	}
	if cfg.Retry.MaxDuration < 0 {
		errs = append(errs, FieldError{Field: "upstream.retry.max_duration", Message: "must be non-negative"})
	}

	return errs
}

func validateBroker(cfg *BrokerConfig) []FieldError {
	var errs []FieldError

	switch cfg.ProxyType {
	case "direct", "lum":
	default:
		errs = append(errs, FieldError{
			Field:   "broker.proxy_type",
			Message: fmt.Sprintf("must be \"direct\" or \"lum\", got %q", cfg.ProxyType),
		})
	}
	if len(cfg.Region) != 2 {
		errs = append(errs, FieldError{Field: "broker.region", Message: "must be a two-letter region code"})
	}
	if cfg.Limit < 1 {
		errs = append(errs, FieldError{Field: "broker.limit", Message: "must be at least 1"})
	}

	return errs
}

func validateHealth(cfg *HealthConfig) []FieldError {
	var errs []FieldError

	if cfg.DeepStatus && cfg.Secret == "" {
		errs = append(errs, FieldError{Field: "health.secret", Message: "required when deep_status is enabled"})
	}
	if cfg.ProbeSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ProbeSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "health.probe_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	switch cfg.History.Driver {
	case "sqlite", "sqlite3":
	default:
		errs = append(errs, FieldError{
			Field:   "health.history.driver",
			Message: fmt.Sprintf("must be \"sqlite\" or \"sqlite3\", got %q", cfg.History.Driver),
		})
	}
	if cfg.History.MaxRecords < 0 {
		errs = append(errs, FieldError{Field: "health.history.max_records", Message: "must be non-negative"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown log level %q", cfg.Logging.Level),
		})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown log format %q", cfg.Logging.Format),
		})
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}
	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("unknown sampler %q (valid: always, never, ratio)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0 and 1"})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "required when tracing is enabled"})
		}
	}

	return errs
}

func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{Field: "security.tls.cert_file", Message: "required when TLS is enabled"})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{Field: "security.tls.key_file", Message: "required when TLS is enabled"})
		}
	}

	return errs
}
