// Package middleware provides gin middleware for the HTTP API.
//
// Middleware:
//   - CORS: cross-origin access for browser clients
//   - RateLimit: per-IP token bucket
//   - User: resolves or assigns the caller's X-User-ID
package middleware
