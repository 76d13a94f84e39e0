package config

import "time"

// Config is the root configuration structure for the luminous playback gateway.
// It contains the serving, upstream, broker, gateway, health, telemetry and
// security sections.
type Config struct {
	// Server contains the inbound HTTP server configuration including listen
	// address, timeouts and the admission limits applied around every handler.
	Server ServerConfig `yaml:"server"`

	// Upstream contains configuration for outbound traffic to the streaming
	// platform: proxy selection, timeouts, retry policy and client identity.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Broker contains configuration for the tunnel broker used to obtain a
	// proxy endpoint when no static proxy is configured.
	Broker BrokerConfig `yaml:"broker"`

	// Identity contains configuration for the persisted session identity.
	Identity IdentityConfig `yaml:"identity"`

	// Gateway contains request pipeline settings: allow-list source,
	// manifest redaction and compatibility paths.
	Gateway GatewayConfig `yaml:"gateway"`

	// Health contains configuration for the deep status probe.
	Health HealthConfig `yaml:"health"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains TLS settings for the inbound server.
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains configuration for the inbound HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the gateway to listen on.
	// Default: "127.0.0.1:9595"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must exceed RequestTimeout so timeouts can be reported.
	// Default: 45s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxInFlight is the concurrency ceiling for manifest requests. Requests
	// beyond it are rejected immediately with 503.
	// Default: 64
	MaxInFlight int `yaml:"max_in_flight"`

	// RequestTimeout is the hard wall-clock limit for one inbound request.
	// Default: 40s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Compression enables gzip compression of responses.
	// Default: false
	Compression bool `yaml:"compression"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS configuration. Manifests carry no secrets once
// issued so any origin is allowed by default.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins. ["*"] allows all.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods.
	// Default: ["GET", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`
}

// UpstreamConfig contains configuration for requests to the streaming platform.
type UpstreamConfig struct {
	// Proxy is a static proxy URL used instead of broker negotiation.
	// Format: scheme://[user:pass@]host:port with scheme one of
	// http, https, socks5, socks5h.
	Proxy string `yaml:"proxy"`

	// ConnectTimeout bounds dialing and the TLS handshake.
	// Default: 20s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// TotalTimeout bounds a single outbound attempt end to end.
	// Default: 20s
	TotalTimeout time.Duration `yaml:"total_timeout"`

	// Retry configures exponential backoff for transient failures.
	Retry RetryConfig `yaml:"retry"`

	// UserAgent overrides the User-Agent sent upstream. When empty, the
	// inbound request's User-Agent is used, falling back to a desktop default.
	UserAgent string `yaml:"user_agent"`

	// ClientID is the public web player client identifier.
	ClientID string `yaml:"client_id"`

	// GQLURL is the platform's GraphQL endpoint.
	GQLURL string `yaml:"gql_url"`

	// UsherURL is the base URL of the manifest-serving endpoint.
	UsherURL string `yaml:"usher_url"`
}

// RetryConfig configures exponential backoff.
type RetryConfig struct {
	// MinDelay is the backoff floor.
	// Default: 1ms
	MinDelay time.Duration `yaml:"min_delay"`

	// MaxDelay is the backoff ceiling per attempt.
	// Default: 2s
	MaxDelay time.Duration `yaml:"max_delay"`

	// MaxDuration is the total retry budget.
	// Default: 15s
	MaxDuration time.Duration `yaml:"max_duration"`
}

// BrokerConfig contains tunnel broker settings.
type BrokerConfig struct {
	// BaseURL is the broker's client CGI root.
	// Default: "https://client.hola.org/client_cgi/"
	BaseURL string `yaml:"base_url"`

	// Region is the region code tunnels are requested in.
	// Default: "ru"
	Region string `yaml:"region"`

	// ProxyType selects the tunnel flavour: "direct" or "lum".
	// Default: "direct"
	ProxyType string `yaml:"proxy_type"`

	// Limit is the number of tunnel candidates requested.
	// Default: 3
	Limit int `yaml:"limit"`

	// ExtVersion is the client version string presented to the broker.
	ExtVersion string `yaml:"ext_version"`

	// Timeout bounds each broker call.
	// Default: 20s
	Timeout time.Duration `yaml:"timeout"`

	// DiscardCreds skips writing the identity back after negotiation.
	DiscardCreds bool `yaml:"discard_creds"`

	// RegenCreds ignores the stored identity and negotiates a fresh one.
	RegenCreds bool `yaml:"regen_creds"`

	// LogSecrets allows the proxy password to appear in debug logs.
	// Intended for development builds only.
	LogSecrets bool `yaml:"log_secrets"`
}

// IdentityConfig contains configuration for the persisted identity record.
type IdentityConfig struct {
	// Path is the identity file location. When empty, a file under the
	// per-user configuration directory is used.
	Path string `yaml:"path"`
}

// GatewayConfig contains request pipeline settings.
type GatewayConfig struct {
	// AllowlistFile is an optional YAML file listing the inbound query keys
	// forwarded upstream. When empty, the built-in list is used.
	AllowlistFile string `yaml:"allowlist_file"`

	// WatchAllowlist reloads AllowlistFile when it changes on disk.
	// Default: false
	WatchAllowlist bool `yaml:"watch_allowlist"`

	// RedactIP rewrites USER-IP markers in manifests.
	// Default: false
	RedactIP bool `yaml:"redact_ip"`

	// IPPlaceholder replaces the address in USER-IP markers.
	// Default: "0.0.0.0"
	IPPlaceholder string `yaml:"ip_placeholder"`

	// CompatPaths enables the path-encoded query form and /ping.
	// Default: false
	CompatPaths bool `yaml:"compat_paths"`
}

// HealthConfig contains deep status probe configuration.
type HealthConfig struct {
	// DeepStatus enables the /truestat endpoint and lets /status report 503
	// when the last probe failed.
	// Default: false
	DeepStatus bool `yaml:"deep_status"`

	// Secret must match the /truestat path segment exactly.
	Secret string `yaml:"secret"`

	// ProbeTimeout bounds one probe run.
	// Default: 30s
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// ProbeSchedule is an optional cron expression running the probe in the
	// background. Empty means probes only run when /truestat is hit.
	ProbeSchedule string `yaml:"probe_schedule"`

	// Discovery configures the featured-streams query.
	Discovery DiscoveryConfig `yaml:"discovery"`

	// History configures the probe result store.
	History HistoryConfig `yaml:"history"`
}

// DiscoveryConfig configures the featured-streams discovery query.
type DiscoveryConfig struct {
	// Language filters featured streams.
	// Default: "en"
	Language string `yaml:"language"`

	// First is the number of featured entries requested.
	// Default: 8
	First int `yaml:"first"`

	// ExcludePrefix drops channels whose login starts with it.
	// Default: "prime"
	ExcludePrefix string `yaml:"exclude_prefix"`
}

// HistoryConfig configures persistence of probe results.
type HistoryConfig struct {
	// Enabled controls whether probe results are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Driver selects the SQLite driver: "sqlite" (pure Go) or "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file path.
	// Default: "data/probes.db"
	Path string `yaml:"path"`

	// MaxRecords caps the number of stored results. 0 keeps everything.
	// Default: 1000
	MaxRecords int `yaml:"max_records"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text".
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes all metric names.
	// Default: "luminous"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Trace
// context is never forwarded to the upstream platform.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Sampler is the sampling strategy: "always", "never" or "ratio".
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces sampled by the "ratio" sampler.
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName identifies this process in traces.
	// Default: "luminous"
	ServiceName string `yaml:"service_name"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	// TLS contains TLS configuration for the inbound server.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS configuration.
type TLSConfig struct {
	// Enabled controls whether the server terminates TLS itself.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM private key.
	KeyFile string `yaml:"key_file"`

	// ReloadInterval is how often certificate files are checked for changes.
	// Default: 1h
	ReloadInterval time.Duration `yaml:"reload_interval"`
}
