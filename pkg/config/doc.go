// Package config provides configuration management for the luminous gateway.
//
// Configuration is read from a YAML file, decoded on top of built-in defaults,
// optionally overridden from the environment, and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("luminous.yaml", true)
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention LUMINOUS_SECTION_FIELD:
//
//   - LUMINOUS_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - LUMINOUS_UPSTREAM_PROXY overrides upstream.proxy
//   - LUMINOUS_HEALTH_SECRET overrides health.secret
//   - LUMINOUS_TELEMETRY_TRACING_ENDPOINT overrides telemetry.tracing.endpoint
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Command-line flags (applied by the run command)
//
// Validation collects every field error and reports them together.
package config
