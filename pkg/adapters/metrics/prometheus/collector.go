package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements MetricsCollector using Prometheus.
type Collector struct {
	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	stepsExecuted *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec

	llmCalls   *prometheus.CounterVec
	llmLatency *prometheus.HistogramVec

	toolExecutions *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec

	eventsEmitted *prometheus.CounterVec

	runnerIdle prometheus.Gauge
	runnerBusy prometheus.Gauge
}

// NewCollector creates a Prometheus metrics collector.
func NewCollector() *Collector {
	return &Collector{
		runsStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agor_runs_started_total",
				Help: "Total number of runs started",
			},
			[]string{"mode"},
		),
		runsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agor_runs_completed_total",
				Help: "Total number of runs completed",
			},
			[]string{"mode", "status"},
		),
		runDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agor_run_duration_seconds",
				Help:    "Run duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"mode"},
		),
		stepsExecuted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agor_steps_executed_total",
				Help: "Total number of node steps executed",
			},
			[]string{"node_type", "status"},
		),
		stepDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agor_step_duration_seconds",
				Help:    "Node step duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"node_type"},
		),
		llmCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agor_llm_calls_total",
				Help: "Total number of model API calls",
			},
			[]string{"model"},
		),
		llmLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agor_llm_latency_seconds",
				Help:    "Model API call latency in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 60},
			},
			[]string{"model"},
		),
		toolExecutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agor_tool_executions_total",
				Help: "Total number of tool executions",
			},
			[]string{"tool", "status"},
		),
		toolDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agor_tool_duration_seconds",
				Help:    "Tool execution duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 30},
			},
			[]string{"tool"},
		),
		eventsEmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agor_events_emitted_total",
				Help: "Total number of protocol events emitted",
			},
			[]string{"type"},
		),
		runnerIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "agor_runner_slots_idle",
				Help: "Number of idle run slots",
			},
		),
		runnerBusy: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "agor_runner_slots_busy",
				Help: "Number of busy run slots",
			},
		),
	}
}

// RecordRunStarted counts one run start.
func (c *Collector) RecordRunStarted(mode string) {
	c.runsStarted.WithLabelValues(mode).Inc()
}

// RecordRunCompleted counts one run end and observes its duration.
func (c *Collector) RecordRunCompleted(mode, status string, duration time.Duration) {
	c.runsCompleted.WithLabelValues(mode, status).Inc()
	c.runDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordStepExecuted counts one node step and observes its duration.
func (c *Collector) RecordStepExecuted(nodeType, status string, duration time.Duration) {
	c.stepsExecuted.WithLabelValues(nodeType, status).Inc()
	c.stepDuration.WithLabelValues(nodeType).Observe(duration.Seconds())
}

// RecordLLMCall counts one model call and observes its latency.
func (c *Collector) RecordLLMCall(model string, duration time.Duration) {
	c.llmCalls.WithLabelValues(model).Inc()
	c.llmLatency.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordToolExecution counts one tool execution and observes its
// duration.
func (c *Collector) RecordToolExecution(tool, status string, duration time.Duration) {
	c.toolExecutions.WithLabelValues(tool, status).Inc()
	c.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordEventEmitted counts one protocol event.
func (c *Collector) RecordEventEmitted(eventType string) {
	c.eventsEmitted.WithLabelValues(eventType).Inc()
}

// RecordRunnerSlots records run pool occupancy.
func (c *Collector) RecordRunnerSlots(idle, busy int) {
	c.runnerIdle.Set(float64(idle))
	c.runnerBusy.Set(float64(busy))
}
