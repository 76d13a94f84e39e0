package middleware

import "net/http"

// NoCacheMiddleware marks every response as uncacheable. Manifests embed
// short-lived playback tokens, and status answers change with the probe.
func NoCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store")
		next.ServeHTTP(w, r)
	})
}
