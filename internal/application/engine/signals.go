package engine

import "context"

// SignalKind tags the raw internal signal union. Signals are low-level
// occurrences observed during node execution; they are noisy by design
// and carry no well-formedness guarantees. The normalizer owns pairing,
// deduplication and ordering.
type SignalKind int

const (
	// SignalNodeEnter and SignalNodeExit bracket one node execution.
	// Nested sub-executions re-enter the same step; the normalizer
	// keeps an activation count and only surfaces the outermost pair.
	SignalNodeEnter SignalKind = iota
	SignalNodeExit

	// SignalTextDelta carries one model token delta for a turn.
	SignalTextDelta

	// SignalTurnEnd marks a model turn as settled, with or without
	// pending tool calls.
	SignalTurnEnd

	// Tool call lifecycle fragments, possibly duplicated or fragmented
	// across chunks.
	SignalToolCallStart
	SignalToolCallArgs
	SignalToolCallEnd
	SignalToolCallResult

	// SignalRouting reports the supervisor's routing decision.
	SignalRouting

	// SignalRunError reports a fatal run failure.
	SignalRunError
)

// Signal is one raw internal occurrence. Context is the hierarchical
// context tag (outer node id plus inner-call depth marker, for example
// "researcher/turn-2") that lets the normalizer correlate nested
// sub-executions without shared mutable state.
type Signal struct {
	Kind    SignalKind
	Step    string
	Context string

	// TurnID identifies the logical model turn; it doubles as the
	// candidate message id for flushed text.
	TurnID string
	Role   string
	Delta  string

	ToolCallID   string
	ToolCallName string
	Content      string

	// Target is the routing decision destination.
	Target string

	Code string
	Err  error

	// HasToolCalls qualifies SignalTurnEnd: true when the settled turn
	// requested at least one tool invocation.
	HasToolCalls bool
}

// emit delivers a signal unless the run has been cancelled. It returns
// false once the context is done so callers can stop producing.
func emit(ctx context.Context, out chan<- Signal, sig Signal) bool {
	select {
	case out <- sig:
		return true
	case <-ctx.Done():
		return false
	}
}
