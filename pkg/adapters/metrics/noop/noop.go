// Package noop provides a metrics collector that records nothing,
// for tests and metric-less deployments.
package noop

import "time"

// Collector discards every metric.
type Collector struct{}

// NewCollector creates a no-op collector.
func NewCollector() *Collector { return &Collector{} }

func (*Collector) RecordRunStarted(string)                           {}
func (*Collector) RecordRunCompleted(string, string, time.Duration)  {}
func (*Collector) RecordStepExecuted(string, string, time.Duration)  {}
func (*Collector) RecordLLMCall(string, time.Duration)               {}
func (*Collector) RecordToolExecution(string, string, time.Duration) {}
func (*Collector) RecordEventEmitted(string)                         {}
func (*Collector) RecordRunnerSlots(int, int)                        {}
