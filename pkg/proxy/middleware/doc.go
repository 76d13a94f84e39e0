// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// This package implements middleware functions that handle common functionality
// across all HTTP requests including admission control, request ID
// generation, logging, CORS, cache headers, compression, panic recovery and
// timeout enforcement.
//
// # Middleware Chain
//
// The server composes the chain at startup from configuration:
//
//	handler = CORS(NoCache(Recovery(RequestID(Tracing(Logging(Concurrency(Compression(Timeout(mux)))))))))
//
// Order (outermost first):
//  1. CORS: Add Cross-Origin Resource Sharing headers
//  2. NoCache: Mark responses uncacheable
//  3. Recovery: Recover from panics, return 500
//  4. RequestID: Generate and propagate request ID
//  5. Tracing: Start the server span (tracing.Middleware)
//  6. Logging: Log request/response details, deep status secret masked
//  7. Concurrency: Shed requests beyond the in-flight limit with 503
//  8. Compression: gzip responses (optional)
//  9. Timeout: Enforce per-request timeout, return 504
//
// Per-route metrics are attached at registration with InstrumentRoute.
//
// # Admission Control
//
// ConcurrencyMiddleware rejects requests immediately once the in-flight
// limit is reached. A rejected request never reaches a handler and so never
// triggers an upstream call:
//
//	HTTP/1.1 503 Service Unavailable
//	Retry-After: 1
//
//	{"code":503,"error":"too many requests in flight"}
//
// # Request ID
//
// RequestIDMiddleware generates a UUID for each request unless the client
// sent one in X-Request-ID. The ID is stored with logging.WithRequestID so
// every log record emitted with the request context carries it.
//
// # Timeout
//
// TimeoutMiddleware buffers the handler's response. If the deadline fires
// first, the buffered response is discarded and the client receives:
//
//	{"code":504,"error":"request timed out"}
//
// Writes made by the handler after that point fail with
// http.ErrHandlerTimeout.
//
// # Thread Safety
//
// All middleware functions are thread-safe and can be called concurrently
// from multiple goroutines.
package middleware
