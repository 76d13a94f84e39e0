package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"mercator-hq/luminous/pkg/proxy"
)

// RecoveryMiddleware recovers from panics in HTTP handlers and returns a 500
// Internal Server Error in the standard error body. It logs the panic with
// stack trace for debugging but does not expose internal details to clients.
//
// Example usage:
//
//	handler = RecoveryMiddleware(handler)
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}

				slog.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"method", r.Method,
					"path", proxy.RedactPath(r.URL.Path),
					"stack", string(debug.Stack()),
				)

				proxy.WriteError(w, r, proxy.NewError(proxy.KindInternal, http.StatusInternalServerError, "internal error"))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
