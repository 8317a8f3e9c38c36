package engine

import (
	"context"
	"time"

	"github.com/aescanero/agor/internal/application/graph"
	"github.com/aescanero/agor/pkg/domain"
	"github.com/aescanero/agor/pkg/ports"
	"go.uber.org/zap"
)

// terminated is the synthetic terminal state of the run state machine.
const terminated = ""

// Config bounds engine execution. Supervisor runs get a tighter step
// cap than DAG runs because every agent step costs an extra routing
// turn; the agent turn cap bounds a single node's internal model/tool
// loop.
type Config struct {
	SupervisorMaxSteps int
	DAGMaxSteps        int
	AgentMaxTurns      int
}

// DefaultConfig returns the engine limits used when the caller does not
// override them.
func DefaultConfig() Config {
	return Config{
		SupervisorMaxSteps: 12,
		DAGMaxSteps:        48,
		AgentMaxTurns:      8,
	}
}

// Runner executes runs. One Runner serves many concurrent runs; all
// per-run state lives on the stack of Execute.
type Runner struct {
	llm     ports.LLMClient
	tools   ports.ToolSource
	metrics ports.MetricsCollector
	logger  *zap.Logger
	cfg     Config
}

// NewRunner creates an engine runner.
func NewRunner(llm ports.LLMClient, tools ports.ToolSource, metrics ports.MetricsCollector, logger *zap.Logger, cfg Config) *Runner {
	return &Runner{
		llm:     llm,
		tools:   tools,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Execute walks the graph from its entry node until termination, a step
// cap, or cancellation, emitting raw signals to out. It returns the
// messages appended during the run. The returned error is non-nil only
// for fatal conditions: a routing failure or cancellation. Node-level
// failures are recovered inline and never surface here.
//
// Execute does not close out; the caller owns the channel.
func (r *Runner) Execute(ctx context.Context, g *graph.ExecutableGraph, history []domain.Message, opts domain.RunOptions, out chan<- Signal) ([]domain.Message, error) {
	maxSteps := r.cfg.DAGMaxSteps
	if g.Mode == domain.ModeSupervisor {
		maxSteps = r.cfg.SupervisorMaxSteps
	}

	msgs := make([]domain.Message, len(history))
	copy(msgs, history)
	appendedFrom := len(msgs)

	state := g.Entry
	for step := 0; state != terminated; step++ {
		if err := ctx.Err(); err != nil {
			return msgs[appendedFrom:], err
		}
		if step >= maxSteps {
			r.logger.Warn("step limit reached, ending run",
				zap.String("mode", string(g.Mode)),
				zap.Int("steps", step))
			break
		}

		node, ok := g.Node(state)
		if !ok {
			r.logger.Error("transition to unknown node", zap.String("node_id", state))
			break
		}

		started := time.Now()
		var next string
		var err error

		switch {
		case g.Mode == domain.ModeSupervisor && node.ID == graph.SupervisorNodeID:
			next, msgs, err = r.runRouting(ctx, g, msgs, opts, out)
		case g.Mode == domain.ModeSupervisor && node.ID == graph.ResponderNodeID:
			next, msgs, err = r.runResponder(ctx, msgs, opts, out)
		case node.Type == domain.NodeTypeAgent:
			next, msgs, err = r.runAgent(ctx, g, node, msgs, opts, out)
		case node.Type == domain.NodeTypeTool:
			next, msgs, err = r.runTool(ctx, g, node, msgs, out)
		case node.Type == domain.NodeTypeCondition:
			next = r.runCondition(g, node, msgs)
		case node.Type == domain.NodeTypeEnd:
			next = terminated
		case node.Type == domain.NodeTypeStart:
			// Start carries no behavior; follow its edge.
			next, _ = g.Successor(node.ID)
		default:
			r.logger.Error("unknown node type",
				zap.String("node_id", node.ID),
				zap.String("type", string(node.Type)))
			next = terminated
		}

		duration := time.Since(started)
		status := "completed"
		if err != nil {
			status = "failed"
		}
		r.metrics.RecordStepExecuted(string(node.Type), status, duration)

		if err != nil {
			if domain.IsFatal(err) || ctx.Err() != nil {
				return msgs[appendedFrom:], err
			}
			// Recovered node failure: already recorded inline, keep
			// walking the normal transition.
			r.logger.Warn("node execution recovered",
				zap.String("node_id", node.ID),
				zap.Error(err))
		}

		state = next
	}

	return msgs[appendedFrom:], nil
}

// runCondition applies the keyword routing rule to the latest message.
// Condition nodes never append messages.
func (r *Runner) runCondition(g *graph.ExecutableGraph, node domain.Node, msgs []domain.Message) string {
	latest := domain.Latest(msgs)
	target, ok := g.ChooseEdge(node.ID, latest.Content)
	if !ok {
		r.logger.Warn("condition node has no outgoing edges, terminating",
			zap.String("node_id", node.ID))
		return terminated
	}
	r.logger.Debug("condition routed",
		zap.String("node_id", node.ID),
		zap.String("target", target))
	return target
}

// dagSuccessor resolves the single next node of a non-condition node.
// More than one outgoing edge on such a node is a structural error; the
// run records it and terminates because no deterministic successor
// exists.
func (r *Runner) dagSuccessor(g *graph.ExecutableGraph, node domain.Node, msgs []domain.Message) (string, []domain.Message) {
	edges := g.Outgoing[node.ID]
	switch len(edges) {
	case 0:
		return terminated, msgs
	case 1:
		next := edges[0].Target
		if n, ok := g.Node(next); ok && n.Type == domain.NodeTypeEnd {
			return terminated, msgs
		}
		return next, msgs
	default:
		r.logger.Error("non-condition node has multiple outgoing edges",
			zap.String("node_id", node.ID),
			zap.Int("edges", len(edges)))
		msgs = append(msgs, domain.Message{
			Role:    domain.RoleSystem,
			Content: "ambiguous transition from node " + node.ID,
			Name:    node.ID,
			Error:   true,
		})
		return terminated, msgs
	}
}
