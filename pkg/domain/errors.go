package domain

import (
	"errors"
	"fmt"
)

// GraphError reports a malformed graph. It fails run construction and
// is surfaced to the caller before any protocol event is emitted.
type GraphError struct {
	Reason string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph error: %s", e.Reason)
}

// NewGraphError builds a GraphError with a formatted reason.
func NewGraphError(format string, args ...interface{}) *GraphError {
	return &GraphError{Reason: fmt.Sprintf(format, args...)}
}

// NodeExecutionError wraps a single node's model or tool failure. The
// engine recovers locally: the failure is recorded as an error-tagged
// message and execution continues to the node's normal successor.
type NodeExecutionError struct {
	NodeID string
	Err    error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s: %v", e.NodeID, e.Err)
}

func (e *NodeExecutionError) Unwrap() error { return e.Err }

// RoutingError is fatal for a run: the supervisor's routing node itself
// failed, so no sensible next step exists.
type RoutingError struct {
	Err error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing failed: %v", e.Err)
}

func (e *RoutingError) Unwrap() error { return e.Err }

// ErrStepLimit marks a run that hit its configured step cap. It is not
// an error condition for callers: the run ends quietly at RUN_FINISHED
// with whatever partial output was produced.
var ErrStepLimit = errors.New("step limit exceeded")

// ErrToolNotFound marks a tool node referencing an unregistered tool.
// The node is treated as a no-op pass-through.
var ErrToolNotFound = errors.New("tool not found")

// IsFatal reports whether an engine error must abort the run instead of
// being recorded inline and recovered.
func IsFatal(err error) bool {
	var re *RoutingError
	return errors.As(err, &re)
}
