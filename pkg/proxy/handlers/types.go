package handlers

import (
	"context"

	"mercator-hq/luminous/pkg/gateway"
)

// Processor turns a stream request into a manifest. *gateway.Gateway
// satisfies it.
type Processor interface {
	Process(ctx context.Context, req gateway.StreamRequest) (string, error)
	UserAgent(inbound string) string
}

// StatusReader reports the last probe result. *health.Status satisfies it.
type StatusReader interface {
	Online() bool
}

// DeepProber runs a full pipeline probe. *health.Prober satisfies it.
type DeepProber interface {
	DeepStatus(ctx context.Context) bool
}
