package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aescanero/agor/internal/application/graph"
	"github.com/aescanero/agor/pkg/domain"
	"github.com/aescanero/agor/pkg/ports"
	"go.uber.org/zap"
)

// routingDecision is the structured output the routing node is
// constrained to produce.
type routingDecision struct {
	Next   string `json:"next"`
	Reason string `json:"reason"`
}

// runRouting asks the model which node runs next. The decision is
// constrained to the agent roster plus the RESPOND and TERMINATE
// keywords via a JSON schema enum, so the model cannot route to a node
// that does not exist. The rationale is appended as an internal message
// visible to the router on later turns but filtered from the final
// response context.
//
// A routing failure is fatal: without a decision the run has no next
// state.
func (r *Runner) runRouting(ctx context.Context, g *graph.ExecutableGraph, msgs []domain.Message, opts domain.RunOptions, out chan<- Signal) (string, []domain.Message, error) {
	targets := g.RoutingTargets()

	req := &ports.LLMRequest{
		Model:       opts.Model,
		System:      routingPrompt(g),
		Messages:    msgs,
		Temperature: opts.Temperature,
	}

	raw, err := r.llm.InvokeStructured(ctx, req, routingSchema(targets))
	if err != nil {
		return r.routingFailed(ctx, msgs, err, out)
	}

	var decision routingDecision
	if err := json.Unmarshal(raw, &decision); err != nil {
		return r.routingFailed(ctx, msgs, fmt.Errorf("decode routing decision: %w", err), out)
	}

	r.logger.Debug("routing decision",
		zap.String("next", decision.Next),
		zap.String("reason", decision.Reason))

	if decision.Reason != "" {
		msgs = append(msgs, domain.Message{
			Role:     domain.RoleAssistant,
			Content:  decision.Reason,
			Name:     graph.SupervisorNodeID,
			Internal: true,
		})
	}

	switch decision.Next {
	case graph.RouteRespond:
		return graph.ResponderNodeID, msgs, nil
	case graph.RouteTerminate:
		return terminated, msgs, nil
	default:
		if _, ok := g.Agents[decision.Next]; !ok {
			r.logger.Warn("routing decision names unknown agent, terminating",
				zap.String("next", decision.Next))
			return terminated, msgs, nil
		}
		if !emit(ctx, out, Signal{Kind: SignalRouting, Target: decision.Next}) {
			return terminated, msgs, ctx.Err()
		}
		return decision.Next, msgs, nil
	}
}

func (r *Runner) routingFailed(ctx context.Context, msgs []domain.Message, err error, out chan<- Signal) (string, []domain.Message, error) {
	if ctx.Err() != nil {
		return terminated, msgs, ctx.Err()
	}
	r.logger.Error("routing failed", zap.Error(err))
	emit(ctx, out, Signal{
		Kind: SignalRunError,
		Code: "ROUTING_ERROR",
		Err:  err,
	})
	return terminated, msgs, &domain.RoutingError{Err: err}
}

// runResponder produces the run's final user-facing answer: one
// streaming turn over the conversation with internal routing notes
// stripped, no tools, always terminating afterwards.
func (r *Runner) runResponder(ctx context.Context, msgs []domain.Message, opts domain.RunOptions, out chan<- Signal) (string, []domain.Message, error) {
	req := &ports.LLMRequest{
		Model:       opts.Model,
		System:      responderPrompt,
		Messages:    domain.FilterInternal(msgs),
		Temperature: opts.Temperature,
	}

	resp, err := r.streamTurn(ctx, req, graph.ResponderNodeID, graph.ResponderNodeID+"/turn-0", out)
	if err != nil {
		if ctx.Err() != nil {
			return terminated, msgs, ctx.Err()
		}
		msgs = append(msgs, domain.Message{
			Role:    domain.RoleAssistant,
			Content: fmt.Sprintf("response generation failed: %v", err),
			Name:    graph.ResponderNodeID,
			Error:   true,
		})
		return terminated, msgs, &domain.NodeExecutionError{NodeID: graph.ResponderNodeID, Err: err}
	}

	if resp.Content != "" {
		msgs = append(msgs, domain.Message{
			Role:    domain.RoleAssistant,
			Content: resp.Content,
			Name:    graph.ResponderNodeID,
		})
	}
	return terminated, msgs, nil
}

const responderPrompt = "You are the responder. Compose the final answer for the user " +
	"from the conversation so far. Answer directly; do not mention the " +
	"other agents or the orchestration process."

// routingPrompt describes the roster and the decision contract to the
// routing model.
func routingPrompt(g *graph.ExecutableGraph) string {
	var b strings.Builder
	b.WriteString("You are a supervisor coordinating a team of agents. ")
	b.WriteString("Given the conversation so far, decide which agent acts next.\n\n")
	b.WriteString("Agents:\n")
	for _, name := range g.RoutingTargets() {
		switch name {
		case graph.RouteRespond, graph.RouteTerminate:
			continue
		}
		a := g.Agents[name]
		b.WriteString("- ")
		b.WriteString(a.Name)
		if a.Prompt != "" {
			b.WriteString(": ")
			b.WriteString(summarizePrompt(a.Prompt))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nChoose ")
	b.WriteString(graph.RouteRespond)
	b.WriteString(" when the gathered information suffices to answer the user, and ")
	b.WriteString(graph.RouteTerminate)
	b.WriteString(" when nothing useful remains to do.")
	return b.String()
}

// summarizePrompt truncates an agent prompt to its first line for the
// roster listing.
func summarizePrompt(prompt string) string {
	if i := strings.IndexByte(prompt, '\n'); i >= 0 {
		prompt = prompt[:i]
	}
	const max = 200
	if len(prompt) > max {
		prompt = prompt[:max]
	}
	return strings.TrimSpace(prompt)
}

// routingSchema builds the JSON schema constraining the routing
// decision to the known targets.
func routingSchema(targets []string) json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"next": map[string]any{
				"type": "string",
				"enum": targets,
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "Short justification for the choice.",
			},
		},
		"required": []string{"next"},
	}
	raw, _ := json.Marshal(schema)
	return raw
}
