package middleware

import (
	"net/http"
	"time"
)

// RequestRecorder receives per-route request outcomes.
type RequestRecorder interface {
	RecordHTTPRequest(route string, status int, duration time.Duration)
}

// InstrumentRoute records status and duration for requests to one route.
//
// Example usage:
//
//	mux.Handle("GET /live/{channel}", InstrumentRoute(collector, "live")(liveHandler))
func InstrumentRoute(recorder RequestRecorder, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			recorder.RecordHTTPRequest(route, rw.statusCode, time.Since(start))
		})
	}
}
