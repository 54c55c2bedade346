// Package middleware provides HTTP middleware for the maestro API.
//
// The stack is intentionally small: request ID propagation, structured
// request logging, and panic recovery. Middlewares compose with Chain,
// applied in the order given:
//
//	wrapped := middleware.Chain(mux,
//		middleware.RequestID,
//		middleware.Logger,
//		middleware.Recovery,
//	)
//
// RequestID honors an incoming X-Request-ID header and generates one
// otherwise; the id rides the request context and every log line.
// Recovery converts a handler panic into an RFC 9457 internal-error
// response instead of tearing down the connection.
package middleware
