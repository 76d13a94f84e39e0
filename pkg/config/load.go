package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "LUMINOUS_"

// LoadConfig loads configuration from a YAML file at the specified path.
// YAML is decoded on top of the defaults, so omitted fields keep their
// default values. A missing file is not an error when allowMissing is set;
// the defaults are returned instead.
func LoadConfig(path string, allowMissing bool) (*Config, error) {
	cfg := NewDefault()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	case allowMissing && errors.Is(err, fs.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention LUMINOUS_SECTION_FIELD (e.g., LUMINOUS_SERVER_LISTEN_ADDRESS)
// and always take precedence over the file.
func LoadConfigWithEnvOverrides(path string, allowMissing bool) (*Config, error) {
	cfg, err := LoadConfig(path, allowMissing)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	envInt("SERVER_MAX_IN_FLIGHT", &cfg.Server.MaxInFlight)
	envBool("SERVER_COMPRESSION", &cfg.Server.Compression)

	// Upstream overrides
	envString("UPSTREAM_PROXY", &cfg.Upstream.Proxy)
	envString("UPSTREAM_USER_AGENT", &cfg.Upstream.UserAgent)
	envDuration("UPSTREAM_CONNECT_TIMEOUT", &cfg.Upstream.ConnectTimeout)
	envDuration("UPSTREAM_TOTAL_TIMEOUT", &cfg.Upstream.TotalTimeout)
	envDuration("UPSTREAM_RETRY_MAX_DURATION", &cfg.Upstream.Retry.MaxDuration)

	// Broker overrides
	envString("BROKER_REGION", &cfg.Broker.Region)
	envString("BROKER_PROXY_TYPE", &cfg.Broker.ProxyType)
	envBool("BROKER_DISCARD_CREDS", &cfg.Broker.DiscardCreds)
	envBool("BROKER_REGEN_CREDS", &cfg.Broker.RegenCreds)

	// Identity overrides
	envString("IDENTITY_PATH", &cfg.Identity.Path)

	// Gateway overrides
	envString("GATEWAY_ALLOWLIST_FILE", &cfg.Gateway.AllowlistFile)
	envBool("GATEWAY_REDACT_IP", &cfg.Gateway.RedactIP)
	envBool("GATEWAY_COMPAT_PATHS", &cfg.Gateway.CompatPaths)

	// Health overrides
	envBool("HEALTH_DEEP_STATUS", &cfg.Health.DeepStatus)
	envString("HEALTH_SECRET", &cfg.Health.Secret)
	envString("HEALTH_PROBE_SCHEDULE", &cfg.Health.ProbeSchedule)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)

	// Security overrides
	envBool("SECURITY_TLS_ENABLED", &cfg.Security.TLS.Enabled)
	envString("SECURITY_TLS_CERT_FILE", &cfg.Security.TLS.CertFile)
	envString("SECURITY_TLS_KEY_FILE", &cfg.Security.TLS.KeyFile)
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
