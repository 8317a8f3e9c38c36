// Package websocket provides real-time event streaming via WebSocket.
//
// Clients connect to /api/v1/runs/:id/ws to receive a run's protocol
// events off the event bus, independently of the connection that
// started the run.
package websocket
