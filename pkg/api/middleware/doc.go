// Package middleware provides the HTTP middleware used by the genre map server.
//
//   - recovery.go: panic recovery
//   - request_id.go: X-Request-ID propagation
//   - logging.go: structured request logging
//   - security_headers.go: browser hardening headers
//   - metrics.go: request metrics keyed by route pattern
//
// All middleware has the shape func(http.Handler) http.Handler, so a chain
// reads outermost first:
//
//	handler := middleware.PanicRecovery(logger)(mux)
//	handler = middleware.Logging(logger, middleware.GetRequestID)(handler)
//	handler = middleware.RequestID()(handler)
package middleware
