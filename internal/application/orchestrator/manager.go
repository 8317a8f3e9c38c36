package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/agor/internal/application/engine"
	"github.com/aescanero/agor/internal/application/graph"
	"github.com/aescanero/agor/internal/application/stream"
	"github.com/aescanero/agor/internal/application/workers"
	"github.com/aescanero/agor/pkg/domain"
	"github.com/aescanero/agor/pkg/ports"
	"github.com/aescanero/agor/pkg/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunTopic returns the event-bus topic carrying one run's protocol
// events, for consumers beyond the run's own response stream.
func RunTopic(runID string) string {
	return "run.events:" + runID
}

// RunRequest starts one run. A nil Nodes list selects supervisor mode
// against the manager's configured agent roster; otherwise Nodes and
// Edges define a DAG.
type RunRequest struct {
	ThreadID string
	Messages []domain.Message
	Nodes    []domain.Node
	Edges    []domain.Edge
	Options  domain.RunOptions
}

// Manager coordinates run execution.
type Manager struct {
	runner    *engine.Runner
	store     ports.ConversationStore
	bus       ports.EventBus
	metrics   ports.MetricsCollector
	validator *Validator
	pool      *workers.Pool
	agents    []domain.AgentDefinition
	policy    stream.Policy
	logger    *zap.Logger

	runTimeout time.Duration

	// Track active runs for cancellation.
	runs sync.Map // map[string]*activeRun
}

type activeRun struct {
	run       domain.RunID
	startedAt time.Time
	cancel    context.CancelFunc
}

// NewManager creates an orchestration manager.
func NewManager(
	runner *engine.Runner,
	store ports.ConversationStore,
	bus ports.EventBus,
	metrics ports.MetricsCollector,
	validator *Validator,
	pool *workers.Pool,
	agents []domain.AgentDefinition,
	policy stream.Policy,
	logger *zap.Logger,
	runTimeout time.Duration,
) *Manager {
	return &Manager{
		runner:     runner,
		store:      store,
		bus:        bus,
		metrics:    metrics,
		validator:  validator,
		pool:       pool,
		agents:     agents,
		policy:     policy,
		logger:     logger,
		runTimeout: runTimeout,
	}
}

// ExecuteRun runs one orchestration to completion, streaming protocol
// events to sink as they resolve. It blocks until the run ends.
//
// A non-nil error means the run never started and no event was
// emitted; everything after RUN_STARTED, including fatal routing
// failures, is surfaced on the stream itself.
func (m *Manager) ExecuteRun(ctx context.Context, req RunRequest, sink ports.EventHandler) (domain.RunID, error) {
	g, err := m.buildGraph(req)
	if err != nil {
		return domain.RunID{}, err
	}
	if err := m.validator.Validate(g); err != nil {
		return domain.RunID{}, err
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.New().String()
	}
	run := domain.RunID{ThreadID: threadID, RunID: uuid.New().String()}

	if err := m.pool.Acquire(ctx); err != nil {
		return domain.RunID{}, fmt.Errorf("acquire run slot: %w", err)
	}
	defer m.pool.Release()

	history, err := m.store.History(ctx, threadID)
	if err != nil {
		m.logger.Warn("history load failed, starting empty",
			zap.String("thread_id", threadID),
			zap.Error(err))
		history = nil
	}
	msgs := make([]domain.Message, 0, len(history)+len(req.Messages))
	msgs = append(msgs, history...)
	msgs = append(msgs, req.Messages...)

	runCtx, cancel := context.WithTimeout(ctx, m.runTimeout)
	defer cancel()
	m.runs.Store(run.RunID, &activeRun{run: run, startedAt: time.Now(), cancel: cancel})
	defer m.runs.Delete(run.RunID)

	norm := stream.NewNormalizer(run, m.policy, m.fanout(run, sink), m.logger)
	if err := norm.Begin(ctx); err != nil {
		return domain.RunID{}, fmt.Errorf("event sink rejected run start: %w", err)
	}

	m.metrics.RecordRunStarted(string(g.Mode))
	m.logger.Info("run started",
		zap.String("thread_id", run.ThreadID),
		zap.String("run_id", run.RunID),
		zap.String("mode", string(g.Mode)))

	started := time.Now()
	appended, execErr := m.executeStream(ctx, runCtx, run, norm, g, msgs, req.Options)

	status := "completed"
	switch {
	case errors.Is(execErr, context.Canceled):
		status = "cancelled"
	case execErr != nil:
		status = "failed"
	}
	m.metrics.RecordRunCompleted(string(g.Mode), status, time.Since(started))

	if len(appended) > 0 {
		if err := m.store.Append(context.WithoutCancel(ctx), threadID, appended); err != nil {
			m.logger.Error("append messages failed",
				zap.String("thread_id", threadID),
				zap.Error(err))
		}
	}

	m.logger.Info("run finished",
		zap.String("run_id", run.RunID),
		zap.String("status", status),
		zap.Int("appended", len(appended)),
		zap.Duration("duration", time.Since(started)))

	return run, nil
}

// executeStream drives the engine and normalizer for one run. The
// engine produces signals on its own goroutine; this goroutine is the
// single consumer and the only writer to the sink, so emitted order is
// exactly buffer-resolution order.
func (m *Manager) executeStream(ctx, runCtx context.Context, run domain.RunID, norm *stream.Normalizer, g *graph.ExecutableGraph, msgs []domain.Message, opts domain.RunOptions) ([]domain.Message, error) {
	signals := make(chan engine.Signal, 64)
	var appended []domain.Message
	var execErr error
	go func() {
		defer close(signals)
		appended, execErr = m.runner.Execute(runCtx, g, msgs, opts, signals)
	}()

	sinkDead := false
	for sig := range signals {
		if sinkDead {
			continue
		}
		if err := norm.Handle(ctx, sig); err != nil {
			// Consumer is gone; stop the engine but keep draining so
			// the producer goroutine can finish.
			sinkDead = true
			m.cancelActive(run.RunID)
		}
	}

	if sinkDead {
		return appended, execErr
	}
	if errors.Is(execErr, context.Canceled) {
		// Aborted run: no further protocol events.
		return appended, execErr
	}
	if err := norm.Finish(ctx, execErr); err != nil {
		return appended, execErr
	}
	return appended, execErr
}

// fanout wraps the caller's sink so every event is also published on
// the run's bus topic and counted.
func (m *Manager) fanout(run domain.RunID, sink ports.EventHandler) ports.EventHandler {
	topic := RunTopic(run.RunID)
	return func(ctx context.Context, ev protocol.Event) error {
		m.metrics.RecordEventEmitted(string(ev.Type))
		if err := m.bus.Publish(ctx, topic, ev); err != nil {
			m.logger.Warn("event bus publish failed",
				zap.String("run_id", run.RunID),
				zap.String("type", string(ev.Type)),
				zap.Error(err))
		}
		return sink(ctx, ev)
	}
}

func (m *Manager) buildGraph(req RunRequest) (*graph.ExecutableGraph, error) {
	if len(req.Nodes) == 0 {
		if len(m.agents) == 0 {
			return nil, domain.NewGraphError("supervisor mode requires a configured agent roster")
		}
		return graph.SynthesizeSupervisor(m.agents), nil
	}
	return graph.Compile(req.Nodes, req.Edges)
}

// CancelRun aborts an in-flight run.
func (m *Manager) CancelRun(runID string) error {
	if !m.cancelActive(runID) {
		return fmt.Errorf("run not found: %s", runID)
	}
	m.logger.Info("run cancelled", zap.String("run_id", runID))
	return nil
}

func (m *Manager) cancelActive(runID string) bool {
	val, ok := m.runs.Load(runID)
	if !ok {
		return false
	}
	val.(*activeRun).cancel()
	return true
}

// ActiveRuns returns the number of in-flight runs.
func (m *Manager) ActiveRuns() int {
	count := 0
	m.runs.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Shutdown cancels every in-flight run.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down orchestration manager")
	m.runs.Range(func(_, value any) bool {
		value.(*activeRun).cancel()
		return true
	})
	return nil
}
