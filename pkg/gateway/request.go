package gateway

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// StreamKind distinguishes live channels from recorded videos.
type StreamKind int

const (
	// Live is a live channel addressed by login.
	Live StreamKind = iota

	// VOD is a recorded video addressed by numeric id.
	VOD
)

// String returns the lowercase kind name.
func (k StreamKind) String() string {
	switch k {
	case Live:
		return "live"
	case VOD:
		return "vod"
	default:
		return "unknown"
	}
}

// StreamRequest is one inbound manifest request.
type StreamRequest struct {
	Kind StreamKind

	// ID is the lowercase channel login for Live, the numeric id for VOD.
	ID string

	// Params are the inbound query parameters, unfiltered.
	Params url.Values

	// UserAgent is the effective user agent for outbound calls.
	UserAgent string
}

// InvalidRequestError is returned for stream requests rejected before any
// upstream call.
type InvalidRequestError struct {
	Kind    StreamKind
	ID      string
	Message string
}

// Error implements the error interface.
func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid %s id %q: %s", e.Kind, e.ID, e.Message)
}

// NewStreamRequest validates id for kind and returns a normalized request.
// Live ids are case-folded; VOD ids must parse as unsigned integers.
func NewStreamRequest(kind StreamKind, id string, params url.Values, userAgent string) (StreamRequest, error) {
	if params == nil {
		params = url.Values{}
	}

	switch kind {
	case Live:
		login := strings.ToLower(strings.TrimSpace(id))
		if login == "" {
			return StreamRequest{}, &InvalidRequestError{Kind: kind, ID: id, Message: "channel is required"}
		}
		if strings.ContainsAny(login, "/?#") {
			return StreamRequest{}, &InvalidRequestError{Kind: kind, ID: id, Message: "channel contains reserved characters"}
		}
		id = login
	case VOD:
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			return StreamRequest{}, &InvalidRequestError{Kind: kind, ID: id, Message: "must be an unsigned integer"}
		}
	default:
		return StreamRequest{}, &InvalidRequestError{Kind: kind, ID: id, Message: "unknown stream kind"}
	}

	return StreamRequest{Kind: kind, ID: id, Params: params, UserAgent: userAgent}, nil
}
