// Package domain holds the core types for agent orchestration:
// conversation messages, graph nodes and edges, agent definitions,
// run identity, and the error taxonomy shared by the engine and APIs.
package domain
