package proxy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"mercator-hq/luminous/pkg/proxy/types"
)

// WriteJSONResponse writes a JSON response to the HTTP response writer.
// It sets the appropriate content-type header and handles marshaling errors.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteError normalizes err and writes it as {"code", "error"}.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	pErr := HandleError(err)

	level := slog.LevelWarn
	if pErr.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request failed",
		"path", RedactPath(r.URL.Path),
		"kind", string(pErr.Kind),
		"status", pErr.Status,
		"error", pErr.Cause,
	)

	if writeErr := WriteJSONResponse(w, pErr.Status, types.NewErrorResponse(pErr.Status, pErr.Message)); writeErr != nil {
		slog.Debug("failed to write error response", "error", writeErr)
	}
}
