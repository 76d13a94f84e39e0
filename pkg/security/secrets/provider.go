package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a referenced secret does not exist.
var ErrNotFound = errors.New("secret not found")

// SecretProvider retrieves secrets from a backend.
type SecretProvider interface {
	// GetSecret retrieves a secret by name.
	GetSecret(ctx context.Context, name string) (string, error)

	// Provider returns the provider name used as the reference scheme.
	Provider() string
}

// Resolver maps reference schemes to providers.
type Resolver struct {
	providers map[string]SecretProvider
}

// NewResolver creates a resolver for the given providers.
func NewResolver(providers ...SecretProvider) *Resolver {
	r := &Resolver{providers: make(map[string]SecretProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Provider()] = p
	}
	return r
}

// DefaultResolver resolves env: and file: references.
func DefaultResolver() *Resolver {
	return NewResolver(NewEnvProvider(""), NewFileProvider())
}

// Resolve returns the value ref points to. References without a known
// scheme are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	scheme, name, ok := strings.Cut(ref, ":")
	if !ok {
		return ref, nil
	}

	p, known := r.providers[scheme]
	if !known {
		return ref, nil
	}

	if name == "" {
		return "", fmt.Errorf("empty %s secret reference", scheme)
	}

	value, err := p.GetSecret(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s secret: %w", scheme, err)
	}
	return value, nil
}
