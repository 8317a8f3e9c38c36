package domain

// Mode distinguishes the two orchestration styles.
type Mode string

const (
	// ModeSupervisor executes a synthesized star graph in which a
	// routing node picks the next agent turn by turn.
	ModeSupervisor Mode = "supervisor"

	// ModeDAG executes a user-authored graph whose edges fix the
	// execution order.
	ModeDAG Mode = "dag"
)

// RunID identifies one execution of a graph against a starting message
// list. All in-flight buffers and dedup state are scoped to it and
// discarded at run end.
type RunID struct {
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
}

// RunOptions carries caller-selected runtime options for a run.
type RunOptions struct {
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}
