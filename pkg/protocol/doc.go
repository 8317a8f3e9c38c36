// Package protocol defines the externally visible event stream: the
// typed event union emitted for every run and its wire encoding as a
// text event stream.
//
// The event vocabulary is the one stable contract of the orchestrator.
// Internal signal shapes between the engine and the normalizer are
// implementation detail and may change; these events may not.
package protocol
