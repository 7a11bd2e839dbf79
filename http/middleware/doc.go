// Package middleware provides the operational surface wrapped around
// dispatching an HTTP request: request IDs, request logging, session
// injection, rate limiting, CORS, HTTPS enforcement, and panic reporting.
//
// Middlewares are [Adapter] functions glued together with [Chain].
package middleware
