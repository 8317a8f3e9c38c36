package graph

import (
	"sort"

	"github.com/aescanero/agor/pkg/domain"
)

// Reserved node ids and routing keywords of the synthesized supervisor
// graph.
const (
	SupervisorNodeID = "supervisor"
	ResponderNodeID  = "responder"

	RouteRespond   = "RESPOND"
	RouteTerminate = "TERMINATE"
)

// SynthesizeSupervisor builds the supervisor-mode graph from an agent
// roster. The topology is a star: the routing node may dispatch to any
// agent, the responder, or terminate; every agent's only destination is
// back to the routing node; the responder always terminates. Control
// therefore returns to the router after every step regardless of how
// many agents are configured.
func SynthesizeSupervisor(agents []domain.AgentDefinition) *ExecutableGraph {
	g := &ExecutableGraph{
		Mode:     domain.ModeSupervisor,
		Entry:    SupervisorNodeID,
		Nodes:    make(map[string]domain.Node, len(agents)+2),
		Outgoing: make(map[string][]domain.Edge),
		Agents:   make(map[string]domain.AgentDefinition, len(agents)),
	}

	g.Nodes[SupervisorNodeID] = domain.Node{
		ID:   SupervisorNodeID,
		Type: domain.NodeTypeAgent,
		Name: SupervisorNodeID,
	}
	g.Nodes[ResponderNodeID] = domain.Node{
		ID:   ResponderNodeID,
		Type: domain.NodeTypeAgent,
		Name: ResponderNodeID,
	}

	for _, a := range agents {
		g.Agents[a.Name] = a
		g.Nodes[a.Name] = domain.Node{
			ID:   a.Name,
			Type: domain.NodeTypeAgent,
			Name: a.Name,
			Agent: &domain.AgentConfig{
				Prompt: a.Prompt,
				Tools:  a.Tools,
			},
		}
		g.Outgoing[SupervisorNodeID] = append(g.Outgoing[SupervisorNodeID],
			domain.Edge{Source: SupervisorNodeID, Target: a.Name})
		g.Outgoing[a.Name] = []domain.Edge{
			{Source: a.Name, Target: SupervisorNodeID},
		}
	}

	g.Outgoing[SupervisorNodeID] = append(g.Outgoing[SupervisorNodeID],
		domain.Edge{Source: SupervisorNodeID, Target: ResponderNodeID})

	return g
}

// RoutingTargets returns the names the routing node may choose from:
// the agent roster plus the RESPOND and TERMINATE keywords.
func (g *ExecutableGraph) RoutingTargets() []string {
	targets := make([]string, 0, len(g.Agents)+2)
	for name := range g.Agents {
		targets = append(targets, name)
	}
	sort.Strings(targets)
	targets = append(targets, RouteRespond, RouteTerminate)
	return targets
}
