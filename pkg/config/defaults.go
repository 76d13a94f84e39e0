package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:9595"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 45 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxInFlight     = 64
	DefaultRequestTimeout  = 40 * time.Second

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600

	// Upstream defaults
	DefaultConnectTimeout   = 20 * time.Second
	DefaultTotalTimeout     = 20 * time.Second
	DefaultRetryMinDelay    = time.Millisecond
	DefaultRetryMaxDelay    = 2 * time.Second
	DefaultRetryMaxDuration = 15 * time.Second
	DefaultClientID         = "kimne78kx3ncx6brgo4mv6wki5h1ko"
	DefaultGQLURL           = "https://gql.twitch.tv/gql"
	DefaultUsherURL         = "https://usher.ttvnw.net/"

	// DefaultUserAgent is a current desktop Firefox user agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/115.0"

	// Broker defaults
	DefaultBrokerBaseURL    = "https://client.hola.org/client_cgi/"
	DefaultBrokerRegion     = "ru"
	DefaultBrokerProxyType  = "direct"
	DefaultBrokerLimit      = 3
	DefaultBrokerExtVersion = "1.186.727"
	DefaultBrokerTimeout    = 20 * time.Second

	// Gateway defaults
	DefaultIPPlaceholder = "0.0.0.0"

	// Health defaults
	DefaultProbeTimeout           = 30 * time.Second
	DefaultDiscoveryLanguage      = "en"
	DefaultDiscoveryFirst         = 8
	DefaultDiscoveryExcludePrefix = "prime"
	DefaultHistoryDriver          = "sqlite"
	DefaultHistoryPath            = "data/probes.db"
	DefaultHistoryMaxRecords      = 1000

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "luminous"
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultTracingTimeout   = 10 * time.Second
	DefaultTracingSampler   = "ratio"
	DefaultSampleRatio      = 0.1
	DefaultServiceName      = "luminous"

	// Security defaults
	DefaultTLSReloadInterval = time.Hour
)

// appName names the per-user configuration directory.
const appName = "luminous"

// NewDefault returns a configuration populated with default values. Loading
// decodes YAML on top of it so that boolean defaults of true survive files
// that do not mention them.
func NewDefault() *Config {
	cfg := &Config{}
	cfg.Server.CORS.Enabled = DefaultCORSEnabled
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-valued field with its default.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxInFlight == 0 {
		cfg.Server.MaxInFlight = DefaultMaxInFlight
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if len(cfg.Server.CORS.AllowedOrigins) == 0 {
		cfg.Server.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.Server.CORS.AllowedMethods) == 0 {
		cfg.Server.CORS.AllowedMethods = []string{"GET", "HEAD", "OPTIONS"}
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}

	// Upstream defaults
	if cfg.Upstream.ConnectTimeout == 0 {
		cfg.Upstream.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.Upstream.TotalTimeout == 0 {
		cfg.Upstream.TotalTimeout = DefaultTotalTimeout
	}
	if cfg.Upstream.Retry.MinDelay == 0 {
		cfg.Upstream.Retry.MinDelay = DefaultRetryMinDelay
	}
	if cfg.Upstream.Retry.MaxDelay == 0 {
		cfg.Upstream.Retry.MaxDelay = DefaultRetryMaxDelay
	}
	if cfg.Upstream.Retry.MaxDuration == 0 {
		cfg.Upstream.Retry.MaxDuration = DefaultRetryMaxDuration
	}
	if cfg.Upstream.ClientID == "" {
		cfg.Upstream.ClientID = DefaultClientID
	}
	if cfg.Upstream.GQLURL == "" {
		cfg.Upstream.GQLURL = DefaultGQLURL
	}
	if cfg.Upstream.UsherURL == "" {
		cfg.Upstream.UsherURL = DefaultUsherURL
	}

	// Broker defaults
	if cfg.Broker.BaseURL == "" {
		cfg.Broker.BaseURL = DefaultBrokerBaseURL
	}
	if cfg.Broker.Region == "" {
		cfg.Broker.Region = DefaultBrokerRegion
	}
	if cfg.Broker.ProxyType == "" {
		cfg.Broker.ProxyType = DefaultBrokerProxyType
	}
	if cfg.Broker.Limit == 0 {
		cfg.Broker.Limit = DefaultBrokerLimit
	}
	if cfg.Broker.ExtVersion == "" {
		cfg.Broker.ExtVersion = DefaultBrokerExtVersion
	}
	if cfg.Broker.Timeout == 0 {
		cfg.Broker.Timeout = DefaultBrokerTimeout
	}

	// Identity defaults
	if cfg.Identity.Path == "" {
		cfg.Identity.Path = DefaultIdentityPath()
	}

	// Gateway defaults
	if cfg.Gateway.IPPlaceholder == "" {
		cfg.Gateway.IPPlaceholder = DefaultIPPlaceholder
	}

	// Health defaults
	if cfg.Health.ProbeTimeout == 0 {
		cfg.Health.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.Health.Discovery.Language == "" {
		cfg.Health.Discovery.Language = DefaultDiscoveryLanguage
	}
	if cfg.Health.Discovery.First == 0 {
		cfg.Health.Discovery.First = DefaultDiscoveryFirst
	}
	if cfg.Health.Discovery.ExcludePrefix == "" {
		cfg.Health.Discovery.ExcludePrefix = DefaultDiscoveryExcludePrefix
	}
	if cfg.Health.History.Driver == "" {
		cfg.Health.History.Driver = DefaultHistoryDriver
	}
	if cfg.Health.History.Path == "" {
		cfg.Health.History.Path = DefaultHistoryPath
	}
	if cfg.Health.History.MaxRecords == 0 {
		cfg.Health.History.MaxRecords = DefaultHistoryMaxRecords
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultServiceName
	}

	// Security defaults
	if cfg.Security.TLS.ReloadInterval == 0 {
		cfg.Security.TLS.ReloadInterval = DefaultTLSReloadInterval
	}
}

// DefaultIdentityPath returns the identity file location inside the per-user
// configuration directory, falling back to the working directory when the
// platform does not define one.
func DefaultIdentityPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".", appName+"-identity.yaml")
	}
	return filepath.Join(dir, appName, "identity.yaml")
}
