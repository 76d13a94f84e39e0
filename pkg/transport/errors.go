package transport

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of an error response body is kept.
const maxErrorBody = 4 << 10

// StatusError is returned for non-2xx upstream responses. The upstream
// status code is preserved so callers can reflect 4xx as 4xx.
type StatusError struct {
	// StatusCode is the upstream HTTP status.
	StatusCode int

	// URL is the full request URL. It may carry credentials in its query
	// string and must be redacted before leaving the process.
	URL string

	// Body is a prefix of the upstream response body.
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	msg := fmt.Sprintf("HTTP status %d %s for url (%s)",
		e.StatusCode, http.StatusText(e.StatusCode), e.URL)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Temporary reports whether the status is a server-side failure.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// CheckStatus returns a *StatusError when resp is not 2xx. The body is
// partially consumed in that case; the caller still owns closing it.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	target := ""
	if resp.Request != nil && resp.Request.URL != nil {
		target = resp.Request.URL.String()
	}

	return &StatusError{
		StatusCode: resp.StatusCode,
		URL:        target,
		Body:       strings.TrimSpace(string(data)),
	}
}
