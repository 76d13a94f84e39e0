package types

// ErrorResponse is returned for every error condition.
type ErrorResponse struct {
	// Code repeats the HTTP status code.
	Code int `json:"code"`

	// Error is a human-readable, redacted error message.
	Error string `json:"error"`
}

// NewErrorResponse creates an error response.
func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{Code: code, Error: message}
}
