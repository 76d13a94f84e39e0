package secrets

import (
	"context"
	"fmt"
	"os"
)

// EnvProvider loads secrets from environment variables. An optional prefix
// namespaces the variable names.
type EnvProvider struct {
	Prefix string
}

// NewEnvProvider creates a new environment variable secret provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{Prefix: prefix}
}

// GetSecret reads the variable Prefix+name. An unset or empty variable is
// reported as ErrNotFound.
func (p *EnvProvider) GetSecret(_ context.Context, name string) (string, error) {
	value := os.Getenv(p.Prefix + name)
	if value == "" {
		return "", fmt.Errorf("%w: environment variable %s", ErrNotFound, p.Prefix+name)
	}
	return value, nil
}

// Provider returns the provider name.
func (p *EnvProvider) Provider() string {
	return "env"
}
