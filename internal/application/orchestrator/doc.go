// Package orchestrator coordinates run execution end to end: it
// compiles or synthesizes the graph, validates tool references, loads
// conversation history, drives the engine and the stream normalizer,
// fans protocol events out to the event bus, and persists appended
// messages at run end.
//
// Runs are tracked for cancellation; concurrency is bounded by the
// workers run pool.
package orchestrator
