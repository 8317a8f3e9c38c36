// Package ports defines the interfaces between the orchestration core
// and its collaborators: language model clients, tools, conversation
// storage, the event bus, and metrics.
//
// Adapters under pkg/adapters implement these interfaces; the engine
// and APIs depend only on the ports.
package ports
