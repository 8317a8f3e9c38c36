package ports

import "time"

// MetricsCollector records orchestration metrics. The prometheus
// adapter implements it; tests use a no-op.
type MetricsCollector interface {
	RecordRunStarted(mode string)
	RecordRunCompleted(mode, status string, duration time.Duration)
	RecordStepExecuted(nodeType, status string, duration time.Duration)
	RecordLLMCall(model string, duration time.Duration)
	RecordToolExecution(tool, status string, duration time.Duration)
	RecordEventEmitted(eventType string)
	RecordRunnerSlots(idle, busy int)
}
