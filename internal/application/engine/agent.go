package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aescanero/agor/internal/application/graph"
	"github.com/aescanero/agor/pkg/domain"
	"github.com/aescanero/agor/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// runAgent executes an agent node: an internal model/tool loop that
// keeps calling the model with accumulated messages until a turn
// requests no further tools or the turn cap is hit. Each inner turn
// gets its own hierarchical context tag so the normalizer can tell
// nested output apart.
func (r *Runner) runAgent(ctx context.Context, g *graph.ExecutableGraph, node domain.Node, msgs []domain.Message, opts domain.RunOptions, out chan<- Signal) (string, []domain.Message, error) {
	step := stepName(node)
	emit(ctx, out, Signal{Kind: SignalNodeEnter, Step: step})
	defer emit(ctx, out, Signal{Kind: SignalNodeExit, Step: step})

	var prompt string
	var toolNames []string
	if node.Agent != nil {
		prompt = node.Agent.Prompt
		toolNames = node.Agent.Tools
	}
	descriptors := r.tools.Descriptors(toolNames)

	var loopErr error
	for turn := 0; turn < r.cfg.AgentMaxTurns; turn++ {
		turnCtx := node.ID + "/turn-" + strconv.Itoa(turn)

		req := &ports.LLMRequest{
			Model:       opts.Model,
			System:      prompt,
			Messages:    msgs,
			Tools:       descriptors,
			Temperature: opts.Temperature,
		}

		resp, err := r.streamTurn(ctx, req, step, turnCtx, out)
		if err != nil {
			if ctx.Err() != nil {
				return terminated, msgs, ctx.Err()
			}
			msgs = append(msgs, domain.Message{
				Role:    domain.RoleAssistant,
				Content: fmt.Sprintf("model call failed: %v", err),
				Name:    step,
				Error:   true,
			})
			loopErr = &domain.NodeExecutionError{NodeID: node.ID, Err: err}
			break
		}

		if resp.Content != "" {
			msgs = append(msgs, domain.Message{
				Role:    domain.RoleAssistant,
				Content: resp.Content,
				Name:    step,
			})
		}

		if len(resp.ToolCalls) == 0 {
			break
		}

		for _, call := range resp.ToolCalls {
			result, isErr := r.invokeTool(ctx, call)
			if !emit(ctx, out, Signal{
				Kind:       SignalToolCallResult,
				Step:       step,
				Context:    turnCtx,
				TurnID:     uuid.New().String(),
				ToolCallID: call.ID,
				Content:    result,
			}) {
				return terminated, msgs, ctx.Err()
			}
			msgs = append(msgs, domain.Message{
				Role:    domain.RoleTool,
				Name:    call.Name,
				Content: result,
				Error:   isErr,
			})
		}
	}

	if g.Mode == domain.ModeSupervisor {
		return graph.SupervisorNodeID, msgs, loopErr
	}
	next, msgs := r.dagSuccessor(g, node, msgs)
	return next, msgs, loopErr
}

// streamTurn consumes one model turn incrementally, forwarding deltas
// and tool-call fragments as raw signals, and reports the settled turn
// with a SignalTurnEnd.
func (r *Runner) streamTurn(ctx context.Context, req *ports.LLMRequest, step, turnCtx string, out chan<- Signal) (*ports.LLMResponse, error) {
	started := time.Now()
	turnID := uuid.New().String()

	chunks, err := r.llm.Stream(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp *ports.LLMResponse
	for chunk := range chunks {
		if chunk.Err != nil {
			return nil, chunk.Err
		}
		if chunk.TextDelta != "" {
			if !emit(ctx, out, Signal{
				Kind:    SignalTextDelta,
				Step:    step,
				Context: turnCtx,
				TurnID:  turnID,
				Role:    string(domain.RoleAssistant),
				Delta:   chunk.TextDelta,
			}) {
				return nil, ctx.Err()
			}
		}
		if chunk.ToolCallID != "" {
			if chunk.ToolCallName != "" {
				if !emit(ctx, out, Signal{
					Kind:         SignalToolCallStart,
					Step:         step,
					Context:      turnCtx,
					TurnID:       turnID,
					ToolCallID:   chunk.ToolCallID,
					ToolCallName: chunk.ToolCallName,
				}) {
					return nil, ctx.Err()
				}
			}
			if chunk.ArgsDelta != "" {
				if !emit(ctx, out, Signal{
					Kind:       SignalToolCallArgs,
					Step:       step,
					Context:    turnCtx,
					TurnID:     turnID,
					ToolCallID: chunk.ToolCallID,
					Delta:      chunk.ArgsDelta,
				}) {
					return nil, ctx.Err()
				}
			}
			if chunk.ToolCallDone {
				if !emit(ctx, out, Signal{
					Kind:       SignalToolCallEnd,
					Step:       step,
					Context:    turnCtx,
					TurnID:     turnID,
					ToolCallID: chunk.ToolCallID,
				}) {
					return nil, ctx.Err()
				}
			}
		}
		if chunk.Final != nil {
			resp = chunk.Final
		}
	}

	r.metrics.RecordLLMCall(req.Model, time.Since(started))

	if resp == nil {
		resp = &ports.LLMResponse{}
	}

	if !emit(ctx, out, Signal{
		Kind:         SignalTurnEnd,
		Step:         step,
		Context:      turnCtx,
		TurnID:       turnID,
		HasToolCalls: len(resp.ToolCalls) > 0,
	}) {
		return nil, ctx.Err()
	}

	return resp, nil
}

// invokeTool executes one model-requested tool call, mapping missing
// tools and execution failures to error results the model can react to.
func (r *Runner) invokeTool(ctx context.Context, call ports.ToolCall) (string, bool) {
	tool, ok := r.tools.Get(call.Name)
	if !ok {
		r.logger.Warn("tool not found", zap.String("tool", call.Name))
		r.metrics.RecordToolExecution(call.Name, "missing", 0)
		return "tool not found: " + call.Name, true
	}

	started := time.Now()
	result, err := tool.Invoke(ctx, call.Input)
	duration := time.Since(started)
	if err != nil {
		r.logger.Warn("tool execution failed",
			zap.String("tool", call.Name),
			zap.Error(err))
		r.metrics.RecordToolExecution(call.Name, "failed", duration)
		return fmt.Sprintf("tool %s failed: %v", call.Name, err), true
	}
	r.metrics.RecordToolExecution(call.Name, "completed", duration)
	return result, false
}

// runTool executes a tool node: a direct invocation with statically
// configured input and no model call. A missing tool is logged and the
// node skipped rather than failing the run.
func (r *Runner) runTool(ctx context.Context, g *graph.ExecutableGraph, node domain.Node, msgs []domain.Message, out chan<- Signal) (string, []domain.Message, error) {
	step := stepName(node)

	if node.Tool == nil || node.Tool.Name == "" {
		r.logger.Warn("tool node without tool config, skipping", zap.String("node_id", node.ID))
		next, msgs := r.dagSuccessor(g, node, msgs)
		return next, msgs, nil
	}

	tool, ok := r.tools.Get(node.Tool.Name)
	if !ok {
		r.logger.Warn("tool not found, skipping node",
			zap.String("node_id", node.ID),
			zap.String("tool", node.Tool.Name))
		next, msgs := r.dagSuccessor(g, node, msgs)
		return next, msgs, nil
	}

	emit(ctx, out, Signal{Kind: SignalNodeEnter, Step: step})
	defer emit(ctx, out, Signal{Kind: SignalNodeExit, Step: step})

	input := node.Tool.Input
	if input == "" {
		input = "{}"
	}

	callID := uuid.New().String()
	emit(ctx, out, Signal{Kind: SignalToolCallStart, Step: step, Context: node.ID, ToolCallID: callID, ToolCallName: node.Tool.Name})
	emit(ctx, out, Signal{Kind: SignalToolCallArgs, Step: step, Context: node.ID, ToolCallID: callID, Delta: input})
	emit(ctx, out, Signal{Kind: SignalToolCallEnd, Step: step, Context: node.ID, ToolCallID: callID})

	started := time.Now()
	result, err := tool.Invoke(ctx, json.RawMessage(input))
	duration := time.Since(started)

	isErr := false
	if err != nil {
		if ctx.Err() != nil {
			return terminated, msgs, ctx.Err()
		}
		r.metrics.RecordToolExecution(node.Tool.Name, "failed", duration)
		result = fmt.Sprintf("tool %s failed: %v", node.Tool.Name, err)
		isErr = true
	} else {
		r.metrics.RecordToolExecution(node.Tool.Name, "completed", duration)
	}

	emit(ctx, out, Signal{
		Kind:       SignalToolCallResult,
		Step:       step,
		Context:    node.ID,
		TurnID:     uuid.New().String(),
		ToolCallID: callID,
		Content:    result,
	})

	msgs = append(msgs, domain.Message{
		Role:    domain.RoleTool,
		Name:    node.Tool.Name,
		Content: result,
		Error:   isErr,
	})

	next, msgs := r.dagSuccessor(g, node, msgs)
	var nodeErr error
	if isErr {
		nodeErr = &domain.NodeExecutionError{NodeID: node.ID, Err: err}
	}
	return next, msgs, nodeErr
}

func stepName(node domain.Node) string {
	if node.Name != "" {
		return node.Name
	}
	return node.ID
}
