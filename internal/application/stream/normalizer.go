package stream

import (
	"context"
	"errors"

	"github.com/aescanero/agor/internal/application/engine"
	"github.com/aescanero/agor/pkg/domain"
	"github.com/aescanero/agor/pkg/ports"
	"github.com/aescanero/agor/pkg/protocol"
	"go.uber.org/zap"
)

// Policy tunes the heuristic parts of normalization. The boundary
// between "discard as reasoning" and "flush as content" is a policy
// choice, not an invariant, so it is configurable per deployment.
type Policy struct {
	// MarkupTags lists tag names whose inline blocks are stripped from
	// text before flushing, for models that encode tool calls as
	// textual markup instead of structured fragments.
	MarkupTags []string

	// SuppressReasoning discards a turn's buffered text once the turn
	// produces a tool-call fragment, treating it as the model thinking
	// out loud rather than user-facing content.
	SuppressReasoning bool
}

// DefaultPolicy returns the normalization policy used when the caller
// does not override it.
func DefaultPolicy() Policy {
	return Policy{
		MarkupTags:        []string{"tool_call"},
		SuppressReasoning: true,
	}
}

// turnBuffer holds one model turn's not-yet-flushed text. Text is
// tentative until the turn resolves: a tool-call fragment voids it,
// a turn end without tool calls flushes it.
type turnBuffer struct {
	step    string
	context string
	role    string
	text    []byte
	voided  bool
}

// toolCallState tracks the dedup lifecycle of one tool call id.
type toolCallState struct {
	started  bool
	ended    bool
	resulted bool
}

// Normalizer converts raw engine signals for one run into a
// well-formed protocol event sequence. It is the only writer to its
// sink, so the emitted order is authoritative. Not safe for concurrent
// use; one goroutine feeds one normalizer.
type Normalizer struct {
	run    domain.RunID
	policy Policy
	sink   ports.EventHandler
	logger *zap.Logger

	// turns buffers per-turn text, keyed by turn id; turnOrder
	// preserves creation order so end-of-step flushes are
	// deterministic.
	turns     map[string]*turnBuffer
	turnOrder []string

	toolCalls map[string]*toolCallState

	// stepDepth counts activations per step name; only the outermost
	// enter/exit pair surfaces as STEP events. announced marks steps
	// whose STEP_STARTED was already emitted by a routing decision.
	stepDepth map[string]int
	announced map[string]bool

	errored bool
}

// NewNormalizer creates a normalizer for one run writing to sink.
func NewNormalizer(run domain.RunID, policy Policy, sink ports.EventHandler, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		run:       run,
		policy:    policy,
		sink:      sink,
		logger:    logger,
		turns:     make(map[string]*turnBuffer),
		toolCalls: make(map[string]*toolCallState),
		stepDepth: make(map[string]int),
		announced: make(map[string]bool),
	}
}

// Begin opens the run's event stream.
func (n *Normalizer) Begin(ctx context.Context) error {
	return n.emit(ctx, protocol.RunStarted(n.run.ThreadID, n.run.RunID))
}

// Handle processes one raw signal. Internal faults never surface as
// stream errors; the returned error is only a sink failure.
func (n *Normalizer) Handle(ctx context.Context, sig engine.Signal) error {
	switch sig.Kind {
	case engine.SignalNodeEnter:
		return n.nodeEnter(ctx, sig.Step)
	case engine.SignalNodeExit:
		return n.nodeExit(ctx, sig.Step)
	case engine.SignalTextDelta:
		n.textDelta(sig)
		return nil
	case engine.SignalTurnEnd:
		return n.turnEnd(ctx, sig)
	case engine.SignalToolCallStart:
		return n.toolCallStart(ctx, sig)
	case engine.SignalToolCallArgs:
		return n.toolCallArgs(ctx, sig)
	case engine.SignalToolCallEnd:
		return n.toolCallEnd(ctx, sig)
	case engine.SignalToolCallResult:
		return n.toolCallResult(ctx, sig)
	case engine.SignalRouting:
		return n.routing(ctx, sig)
	case engine.SignalRunError:
		return n.runError(ctx, sig)
	default:
		n.logger.Warn("unknown signal kind", zap.Int("kind", int(sig.Kind)))
		return nil
	}
}

// Finish flushes whatever remains and closes the run's stream. A fatal
// engine error becomes RUN_ERROR; anything else, including a quietly
// hit step limit, becomes RUN_FINISHED.
func (n *Normalizer) Finish(ctx context.Context, runErr error) error {
	if err := n.flushAll(ctx); err != nil {
		return err
	}
	if runErr != nil && !n.errored {
		n.errored = true
		if err := n.emit(ctx, protocol.RunError(runErr.Error(), errorCode(runErr))); err != nil {
			return err
		}
	}
	if n.errored {
		return nil
	}
	return n.emit(ctx, protocol.RunFinished(n.run.ThreadID, n.run.RunID))
}

func (n *Normalizer) nodeEnter(ctx context.Context, step string) error {
	n.stepDepth[step]++
	if n.stepDepth[step] > 1 {
		return nil
	}
	if n.announced[step] {
		delete(n.announced, step)
		return nil
	}
	return n.emit(ctx, protocol.StepStarted(step))
}

// nodeExit closes a step at its outermost exit only, after resolving
// any text still buffered for it.
func (n *Normalizer) nodeExit(ctx context.Context, step string) error {
	depth := n.stepDepth[step]
	if depth == 0 {
		n.logger.Warn("exit for inactive step", zap.String("step", step))
		return nil
	}
	n.stepDepth[step] = depth - 1
	if depth > 1 {
		return nil
	}
	if err := n.flushStep(ctx, step); err != nil {
		return err
	}
	return n.emit(ctx, protocol.StepFinished(step))
}

func (n *Normalizer) textDelta(sig engine.Signal) {
	buf, ok := n.turns[sig.TurnID]
	if !ok {
		buf = &turnBuffer{step: sig.Step, context: sig.Context, role: sig.Role}
		n.turns[sig.TurnID] = buf
		n.turnOrder = append(n.turnOrder, sig.TurnID)
	}
	if buf.voided {
		return
	}
	buf.text = append(buf.text, sig.Delta...)
}

// turnEnd resolves the turn's buffer: discarded when the turn carried
// tool calls and suppression is on, flushed otherwise.
func (n *Normalizer) turnEnd(ctx context.Context, sig engine.Signal) error {
	if sig.HasToolCalls && n.policy.SuppressReasoning {
		n.voidTurn(sig.TurnID)
	}
	return n.resolveTurn(ctx, sig.TurnID)
}

func (n *Normalizer) toolCallStart(ctx context.Context, sig engine.Signal) error {
	n.voidSameContext(sig)
	state := n.toolCall(sig.ToolCallID)
	if state.started {
		return nil
	}
	state.started = true
	return n.emit(ctx, protocol.ToolCallStart(sig.ToolCallID, sig.ToolCallName))
}

func (n *Normalizer) toolCallArgs(ctx context.Context, sig engine.Signal) error {
	n.voidSameContext(sig)
	state := n.toolCall(sig.ToolCallID)
	if state.ended {
		return nil
	}
	if !state.started {
		// Fragment arrived before its start marker; open the call so
		// the args are attributable.
		state.started = true
		if err := n.emit(ctx, protocol.ToolCallStart(sig.ToolCallID, sig.ToolCallName)); err != nil {
			return err
		}
	}
	return n.emit(ctx, protocol.ToolCallArgs(sig.ToolCallID, sig.Delta))
}

func (n *Normalizer) toolCallEnd(ctx context.Context, sig engine.Signal) error {
	state := n.toolCall(sig.ToolCallID)
	if state.ended || !state.started {
		return nil
	}
	state.ended = true
	return n.emit(ctx, protocol.ToolCallEnd(sig.ToolCallID))
}

func (n *Normalizer) toolCallResult(ctx context.Context, sig engine.Signal) error {
	state := n.toolCall(sig.ToolCallID)
	if state.resulted {
		return nil
	}
	if state.started && !state.ended {
		state.ended = true
		if err := n.emit(ctx, protocol.ToolCallEnd(sig.ToolCallID)); err != nil {
			return err
		}
	}
	state.resulted = true
	return n.emit(ctx, protocol.ToolCallResult(sig.ToolCallID, sig.TurnID, sig.Content))
}

// routing surfaces a supervisor decision as the target step's
// STEP_STARTED; the rationale text itself never reaches the stream.
func (n *Normalizer) routing(ctx context.Context, sig engine.Signal) error {
	if n.announced[sig.Target] || n.stepDepth[sig.Target] > 0 {
		return nil
	}
	n.announced[sig.Target] = true
	return n.emit(ctx, protocol.StepStarted(sig.Target))
}

func (n *Normalizer) runError(ctx context.Context, sig engine.Signal) error {
	if n.errored {
		return nil
	}
	n.errored = true
	if err := n.flushAll(ctx); err != nil {
		return err
	}
	msg := "run failed"
	if sig.Err != nil {
		msg = sig.Err.Error()
	}
	return n.emit(ctx, protocol.RunError(msg, sig.Code))
}

// voidSameContext discards buffered text for the turn a tool-call
// fragment belongs to. Models sometimes narrate their tool arguments
// as text before emitting the structured fragments; once a fragment
// appears, that narration is not content.
func (n *Normalizer) voidSameContext(sig engine.Signal) {
	if !n.policy.SuppressReasoning {
		return
	}
	if sig.TurnID != "" {
		n.voidTurn(sig.TurnID)
	}
}

func (n *Normalizer) toolCall(id string) *toolCallState {
	state, ok := n.toolCalls[id]
	if !ok {
		state = &toolCallState{}
		n.toolCalls[id] = state
	}
	return state
}

func (n *Normalizer) voidTurn(turnID string) {
	if buf, ok := n.turns[turnID]; ok {
		buf.voided = true
		buf.text = nil
	}
}

// resolveTurn flushes or discards one turn's buffer and forgets it.
func (n *Normalizer) resolveTurn(ctx context.Context, turnID string) error {
	buf, ok := n.turns[turnID]
	if !ok {
		return nil
	}
	delete(n.turns, turnID)
	for i, id := range n.turnOrder {
		if id == turnID {
			n.turnOrder = append(n.turnOrder[:i], n.turnOrder[i+1:]...)
			break
		}
	}
	if buf.voided {
		return nil
	}
	text := stripMarkup(string(buf.text), n.policy.MarkupTags)
	if text == "" {
		return nil
	}
	role := buf.role
	if role == "" {
		role = string(domain.RoleAssistant)
	}
	if err := n.emit(ctx, protocol.TextMessageStart(turnID, role)); err != nil {
		return err
	}
	if err := n.emit(ctx, protocol.TextMessageContent(turnID, text)); err != nil {
		return err
	}
	return n.emit(ctx, protocol.TextMessageEnd(turnID))
}

// flushStep resolves every turn still buffered for a step, in buffer
// creation order. Turns without an explicit end marker get their end
// synthesized here.
func (n *Normalizer) flushStep(ctx context.Context, step string) error {
	for _, turnID := range pending(n.turnOrder, n.turns, step) {
		if err := n.resolveTurn(ctx, turnID); err != nil {
			return err
		}
	}
	return nil
}

func (n *Normalizer) flushAll(ctx context.Context) error {
	for _, turnID := range append([]string(nil), n.turnOrder...) {
		if err := n.resolveTurn(ctx, turnID); err != nil {
			return err
		}
	}
	return nil
}

func pending(order []string, turns map[string]*turnBuffer, step string) []string {
	var ids []string
	for _, id := range order {
		if buf, ok := turns[id]; ok && buf.step == step {
			ids = append(ids, id)
		}
	}
	return ids
}

func (n *Normalizer) emit(ctx context.Context, ev protocol.Event) error {
	if err := n.sink(ctx, ev); err != nil {
		n.logger.Warn("event sink failed",
			zap.String("type", string(ev.Type)),
			zap.Error(err))
		return err
	}
	return nil
}

func errorCode(err error) string {
	if domain.IsFatal(err) {
		return "ROUTING_ERROR"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "RUN_CANCELLED"
	}
	return "RUN_ERROR"
}
