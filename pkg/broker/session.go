package broker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// IdentityStore persists the session identity between process starts.
type IdentityStore interface {
	Load() (*uuid.UUID, error)
	Save(id uuid.UUID) error
}

// AcquireOptions controls identity reuse during Acquire.
type AcquireOptions struct {
	// Regenerate ignores the stored identity and negotiates a fresh one.
	Regenerate bool

	// Discard skips writing the negotiated identity back to the store.
	Discard bool
}

// Acquire negotiates a credential using the stored identity and persists
// the identity afterwards, as directed by opts.
func (c *Client) Acquire(ctx context.Context, store IdentityStore, opts AcquireOptions) (Credential, error) {
	var stored *uuid.UUID
	if !opts.Regenerate {
		id, err := store.Load()
		if err != nil {
			return Credential{}, fmt.Errorf("failed to load identity: %w", err)
		}
		stored = id
	}

	cred, id, err := c.Negotiate(ctx, stored)
	if err != nil {
		return Credential{}, err
	}

	slog.Info("negotiated upstream tunnel", "credential", cred)

	if opts.Discard {
		return cred, nil
	}
	if stored != nil && *stored == id {
		return cred, nil
	}

	if err := store.Save(id); err != nil {
		return Credential{}, fmt.Errorf("failed to save identity: %w", err)
	}
	slog.Debug("saved session identity")

	return cred, nil
}
