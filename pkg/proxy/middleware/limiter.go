package middleware

import (
	"net/http"
	"sync/atomic"

	"mercator-hq/luminous/pkg/proxy"
)

// ConcurrentLimiter limits the number of simultaneous in-flight requests.
//
// It is a counting semaphore built on atomic operations:
//
//  1. Atomically increment counter
//  2. Check if counter exceeds limit
//  3. If yes: decrement and reject
//  4. If no: admit the request
//  5. On completion: decrement counter
//
// A limit of zero or less disables the limiter.
type ConcurrentLimiter struct {
	limit   int64
	current atomic.Int64
}

// NewConcurrentLimiter creates a new concurrent request limiter.
//
// Example:
//
//	limiter := NewConcurrentLimiter(512)
//	if limiter.Acquire() {
//	    defer limiter.Release()
//	    // Process request
//	}
func NewConcurrentLimiter(limit int) *ConcurrentLimiter {
	return &ConcurrentLimiter{limit: int64(limit)}
}

// Acquire attempts to acquire a concurrency slot.
// Returns true if acquired, false if limit reached.
//
// If this returns true, the caller MUST call Release() when done.
func (cl *ConcurrentLimiter) Acquire() bool {
	current := cl.current.Add(1)
	if cl.limit > 0 && current > cl.limit {
		cl.current.Add(-1)
		return false
	}
	return true
}

// Release releases a concurrency slot.
// This MUST be called after a successful Acquire().
func (cl *ConcurrentLimiter) Release() {
	cl.current.Add(-1)
}

// Current returns the current number of in-flight requests.
func (cl *ConcurrentLimiter) Current() int64 {
	return cl.current.Load()
}

// Limit returns the configured concurrency limit.
func (cl *ConcurrentLimiter) Limit() int64 {
	return cl.limit
}

// AdmissionObserver receives admission events.
type AdmissionObserver interface {
	IncInFlight()
	DecInFlight()
	RecordShed()
}

// ConcurrencyMiddleware admits at most limiter.Limit() requests at once and
// rejects the rest immediately with 503. Rejected requests never reach the
// wrapped handler, so they trigger no upstream traffic.
//
// Example usage:
//
//	handler = ConcurrencyMiddleware(NewConcurrentLimiter(512), collector)(handler)
func ConcurrencyMiddleware(limiter *ConcurrentLimiter, observer AdmissionObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Acquire() {
				if observer != nil {
					observer.RecordShed()
				}
				w.Header().Set("Retry-After", "1")
				proxy.WriteError(w, r, proxy.Overloaded())
				return
			}
			defer limiter.Release()

			if observer != nil {
				observer.IncInFlight()
				defer observer.DecInFlight()
			}

			next.ServeHTTP(w, r)
		})
	}
}
