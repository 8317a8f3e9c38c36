package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aescanero/agor/internal/application/engine"
	"github.com/aescanero/agor/internal/application/stream"
	"github.com/aescanero/agor/internal/application/workers"
	eventsmemory "github.com/aescanero/agor/pkg/adapters/events/memory"
	"github.com/aescanero/agor/pkg/adapters/llm/fake"
	"github.com/aescanero/agor/pkg/adapters/metrics/noop"
	storagememory "github.com/aescanero/agor/pkg/adapters/storage/memory"
	"github.com/aescanero/agor/pkg/domain"
	"github.com/aescanero/agor/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type eventRecorder struct {
	events []protocol.Event
	fail   bool
}

func (r *eventRecorder) sink(_ context.Context, ev protocol.Event) error {
	if r.fail {
		return errors.New("client went away")
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) types() []protocol.EventType {
	out := make([]protocol.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type managerFixture struct {
	manager *Manager
	client  *fake.Client
	store   *storagememory.ConversationStore
	bus     *eventsmemory.Bus
}

func newManagerFixture(t *testing.T, agents []domain.AgentDefinition) *managerFixture {
	t.Helper()

	logger := zap.NewNop()
	metrics := noop.NewCollector()
	client := fake.NewClient()
	store := storagememory.NewConversationStore()
	bus := eventsmemory.NewBus()

	runner := engine.NewRunner(client, fixedSource{}, metrics, logger, engine.DefaultConfig())
	pool := workers.NewPool(2, metrics, logger, time.Minute)

	m := NewManager(
		runner,
		store,
		bus,
		metrics,
		NewValidator(fixedSource{}),
		pool,
		agents,
		stream.DefaultPolicy(),
		logger,
		30*time.Second,
	)
	return &managerFixture{manager: m, client: client, store: store, bus: bus}
}

func linearRequest() RunRequest {
	return RunRequest{
		ThreadID: "thread-1",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hello"}},
		Nodes: []domain.Node{
			{ID: "start", Type: domain.NodeTypeStart},
			{ID: "writer", Type: domain.NodeTypeAgent, Agent: &domain.AgentConfig{Prompt: "write"}},
			{ID: "end", Type: domain.NodeTypeEnd},
		},
		Edges: []domain.Edge{
			{Source: "start", Target: "writer"},
			{Source: "writer", Target: "end"},
		},
	}
}

func TestExecuteRunStreamsAndPersists(t *testing.T) {
	f := newManagerFixture(t, nil)
	f.client.Queue(fake.Turn{Text: "Hi there."})

	rec := &eventRecorder{}
	run, err := f.manager.ExecuteRun(context.Background(), linearRequest(), rec.sink)
	require.NoError(t, err)
	assert.Equal(t, "thread-1", run.ThreadID)
	assert.NotEmpty(t, run.RunID)

	assert.Equal(t, []protocol.EventType{
		protocol.EventRunStarted,
		protocol.EventStepStarted,
		protocol.EventTextMessageStart,
		protocol.EventTextMessageContent,
		protocol.EventTextMessageEnd,
		protocol.EventStepFinished,
		protocol.EventRunFinished,
	}, rec.types())

	// The appended assistant message is persisted after the run.
	msgs, err := f.store.History(context.Background(), "thread-1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hi there.", msgs[0].Content)
}

func TestExecuteRunLoadsHistory(t *testing.T) {
	f := newManagerFixture(t, nil)
	require.NoError(t, f.store.Append(context.Background(), "thread-1", []domain.Message{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleAssistant, Content: "earlier answer"},
	}))
	f.client.Queue(fake.Turn{Text: "follow-up answer"})

	rec := &eventRecorder{}
	_, err := f.manager.ExecuteRun(context.Background(), linearRequest(), rec.sink)
	require.NoError(t, err)

	msgs, err := f.store.History(context.Background(), "thread-1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "follow-up answer", msgs[2].Content)
}

func TestExecuteRunInvalidGraph(t *testing.T) {
	f := newManagerFixture(t, nil)

	req := linearRequest()
	req.Edges = nil

	rec := &eventRecorder{}
	_, err := f.manager.ExecuteRun(context.Background(), req, rec.sink)

	var graphErr *domain.GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Empty(t, rec.events)
}

func TestExecuteRunSupervisorWithoutRoster(t *testing.T) {
	f := newManagerFixture(t, nil)

	rec := &eventRecorder{}
	_, err := f.manager.ExecuteRun(context.Background(), RunRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	}, rec.sink)

	var graphErr *domain.GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Empty(t, rec.events)
}

func TestExecuteRunSupervisorMode(t *testing.T) {
	f := newManagerFixture(t, []domain.AgentDefinition{
		{Name: "researcher", Prompt: "research"},
	})
	f.client.Queue(
		fake.Turn{Structured: json.RawMessage(`{"next":"RESPOND","reason":"trivial"}`)},
		fake.Turn{Text: "Direct answer."},
	)

	rec := &eventRecorder{}
	_, err := f.manager.ExecuteRun(context.Background(), RunRequest{
		ThreadID: "thread-2",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "easy one"}},
	}, rec.sink)
	require.NoError(t, err)

	types := rec.types()
	assert.Equal(t, protocol.EventRunStarted, types[0])
	assert.Equal(t, protocol.EventRunFinished, types[len(types)-1])
	assert.Contains(t, types, protocol.EventTextMessageContent)

	// STEP_STARTED(responder) is never announced; the responder output
	// streams without a step frame.
	for _, ev := range rec.events {
		assert.NotEqual(t, "responder", ev.StepName)
	}
}

func TestExecuteRunRoutingFailure(t *testing.T) {
	f := newManagerFixture(t, []domain.AgentDefinition{{Name: "a"}})
	f.client.Queue(fake.Turn{Err: errors.New("model unreachable")})

	rec := &eventRecorder{}
	_, err := f.manager.ExecuteRun(context.Background(), RunRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	}, rec.sink)

	// The failure is surfaced on the stream, not as a call error.
	require.NoError(t, err)
	types := rec.types()
	require.NotEmpty(t, types)
	assert.Equal(t, protocol.EventRunError, types[len(types)-1])
	assert.Equal(t, "ROUTING_ERROR", rec.events[len(rec.events)-1].Code)
}

func TestExecuteRunFansOutToBus(t *testing.T) {
	f := newManagerFixture(t, nil)
	f.client.Queue(fake.Turn{Text: "published too"})

	var busEvents []protocol.Event
	busCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Topic is derived from the run id, which is not known up front;
	// subscribe to it from the first sink event instead.
	rec := &eventRecorder{}
	subscribed := false
	sink := func(ctx context.Context, ev protocol.Event) error {
		if !subscribed && ev.RunID != "" {
			subscribed = true
			_ = f.bus.Subscribe(busCtx, RunTopic(ev.RunID), func(_ context.Context, busEv protocol.Event) error {
				busEvents = append(busEvents, busEv)
				return nil
			})
		}
		return rec.sink(ctx, ev)
	}

	_, err := f.manager.ExecuteRun(context.Background(), linearRequest(), sink)
	require.NoError(t, err)

	// Everything after RUN_STARTED reaches bus subscribers as well.
	require.NotEmpty(t, busEvents)
	assert.Equal(t, protocol.EventRunFinished, busEvents[len(busEvents)-1].Type)
}

func TestExecuteRunDeadSinkStopsQuietly(t *testing.T) {
	f := newManagerFixture(t, nil)
	f.client.Queue(fake.Turn{Text: "never delivered"})

	rec := &eventRecorder{fail: true}
	_, err := f.manager.ExecuteRun(context.Background(), linearRequest(), rec.sink)

	// The sink rejected RUN_STARTED, so the run never started.
	require.Error(t, err)
	assert.Empty(t, rec.events)
}

func TestCancelRunUnknownID(t *testing.T) {
	f := newManagerFixture(t, nil)
	assert.Error(t, f.manager.CancelRun("missing"))
}

func TestActiveRunsCount(t *testing.T) {
	f := newManagerFixture(t, nil)
	assert.Equal(t, 0, f.manager.ActiveRuns())
}
