package broker

import (
	"errors"
	"fmt"
)

// ErrNoTunnels is returned when the tunnel list is empty.
var ErrNoTunnels = errors.New("broker returned no tunnels")

// BlockedError is returned when the broker refuses the session identity.
// It is fatal; the operator must regenerate the identity.
type BlockedError struct {
	// Permanent is set when the broker flagged the block as permanent.
	Permanent bool

	// Country is the region reported by the broker, if any.
	Country string
}

// Error implements the error interface.
func (e *BlockedError) Error() string {
	kind := "blocked"
	if e.Permanent {
		kind = "permanently blocked"
	}
	return fmt.Sprintf("session %s by tunnel broker (country %q); rerun with --regen-creds", kind, e.Country)
}

// ResponseError is returned when a broker endpoint answers with an
// unexpected status or an undecodable body.
type ResponseError struct {
	// Endpoint is the broker endpoint name (e.g. "background_init").
	Endpoint string

	// StatusCode is the HTTP status (0 if the body failed to decode).
	StatusCode int

	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("broker %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("broker %s returned an invalid response: %v", e.Endpoint, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ResponseError) Unwrap() error {
	return e.Cause
}
