package orchestrator

import (
	"github.com/aescanero/agor/internal/application/graph"
	"github.com/aescanero/agor/pkg/domain"
	"github.com/aescanero/agor/pkg/ports"
)

// Validator preflights compiled graphs before RUN_STARTED is emitted.
// Structural shape is already enforced by compilation; the validator
// checks what compilation cannot see, chiefly that every referenced
// tool resolves against the tool source.
type Validator struct {
	tools ports.ToolSource
}

// NewValidator creates a graph validator bound to a tool source.
func NewValidator(tools ports.ToolSource) *Validator {
	return &Validator{tools: tools}
}

// Validate checks a compiled graph's external references. Failures are
// GraphErrors and fail run construction.
func (v *Validator) Validate(g *graph.ExecutableGraph) error {
	if g == nil {
		return domain.NewGraphError("graph is nil")
	}

	for id, node := range g.Nodes {
		switch node.Type {
		case domain.NodeTypeAgent:
			if node.Agent == nil {
				continue
			}
			for _, name := range node.Agent.Tools {
				if _, ok := v.tools.Get(name); !ok {
					return domain.NewGraphError("agent node %s references unknown tool: %s", id, name)
				}
			}
		case domain.NodeTypeCondition:
			if len(g.Outgoing[id]) == 0 {
				return domain.NewGraphError("condition node %s has no outgoing edges", id)
			}
		}
	}

	for name, agent := range g.Agents {
		for _, tool := range agent.Tools {
			if _, ok := v.tools.Get(tool); !ok {
				return domain.NewGraphError("agent %s references unknown tool: %s", name, tool)
			}
		}
	}

	return nil
}
