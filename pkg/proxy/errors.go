package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"mercator-hq/luminous/pkg/broker"
	"mercator-hq/luminous/pkg/gateway"
	"mercator-hq/luminous/pkg/telemetry/logging"
	"mercator-hq/luminous/pkg/transport"
)

// Kind classifies an Error.
type Kind string

// Error kinds.
const (
	KindInvalidRequest Kind = "invalid_request"
	KindForbidden      Kind = "forbidden"
	KindUpstream       Kind = "upstream"
	KindTransport      Kind = "transport"
	KindOverloaded     Kind = "overloaded"
	KindUnavailable    Kind = "unavailable"
	KindTimeout        Kind = "timeout"
	KindInternal       Kind = "internal"
)

// Error is the only error type written to HTTP clients.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Status is the HTTP status code to return.
	Status int

	// Message is safe to show to clients.
	Message string

	// Cause is the underlying error (if any). Never shown to clients.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error without a cause.
func NewError(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// Overloaded is returned when a request is shed at admission.
func Overloaded() *Error {
	return NewError(KindOverloaded, http.StatusServiceUnavailable, "too many requests in flight")
}

// Timeout is returned when the boundary timeout fires.
func Timeout() *Error {
	return NewError(KindTimeout, http.StatusGatewayTimeout, "request timed out")
}

// Forbidden is returned for a rejected deep-status secret.
func Forbidden() *Error {
	return NewError(KindForbidden, http.StatusForbidden, "forbidden")
}

// HandleError converts any error into an *Error, choosing the status code
// and redacting upstream URLs from the message.
//
// Example usage:
//
//	if err != nil {
//	    WriteError(w, r, err)
//	    return
//	}
func HandleError(err error) *Error {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr
	}

	var invalid *gateway.InvalidRequestError
	if errors.As(err, &invalid) {
		return &Error{Kind: KindInvalidRequest, Status: http.StatusBadRequest, Message: invalid.Error(), Cause: err}
	}

	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		return &Error{
			Kind:    KindUpstream,
			Status:  statusErr.StatusCode,
			Message: RedactURL(statusErr.Error()),
			Cause:   err,
		}
	}

	var unavailable *gateway.TokenUnavailableError
	if errors.As(err, &unavailable) {
		return &Error{Kind: KindUpstream, Status: http.StatusNotFound, Message: unavailable.Error(), Cause: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Status: http.StatusGatewayTimeout, Message: "request timed out", Cause: err}
	}

	var blocked *broker.BlockedError
	var brokerErr *broker.ResponseError
	if errors.As(err, &blocked) || errors.As(err, &brokerErr) || errors.Is(err, broker.ErrNoTunnels) {
		return &Error{Kind: KindTransport, Status: http.StatusBadGateway, Message: "upstream proxy unavailable", Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: KindTransport, Status: http.StatusBadGateway, Message: RedactURL(err.Error()), Cause: err}
	}

	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: "internal error", Cause: err}
}

// RedactURL strips query strings and userinfo from every URL in msg.
func RedactURL(msg string) string {
	return logging.RedactURLs(msg)
}

const truestatPrefix = "/truestat/"

// RedactPath masks the secret segment of /truestat paths so inbound paths
// can be logged.
func RedactPath(path string) string {
	if rest, ok := strings.CutPrefix(path, truestatPrefix); ok && rest != "" {
		return truestatPrefix + "***"
	}
	return path
}
