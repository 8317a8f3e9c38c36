// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Run submission with Server-Sent Events streaming
//   - Run cancellation
//   - Thread message history
//   - Health checks
//   - Prometheus metrics
package http
