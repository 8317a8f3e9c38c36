package graph

import (
	"strings"

	"github.com/aescanero/agor/pkg/domain"
)

// ExecutableGraph is the compiled form walked by the engine.
type ExecutableGraph struct {
	Mode  domain.Mode
	Entry string

	Nodes    map[string]domain.Node
	Outgoing map[string][]domain.Edge

	// Agents is populated for supervisor-mode graphs: the roster the
	// routing node may dispatch to, keyed by agent name.
	Agents map[string]domain.AgentDefinition
}

// Compile builds an ExecutableGraph from a user-authored node and edge
// list. It fails with a GraphError when no start node exists, when the
// start node has no outgoing edge, or when an edge references an
// unknown node.
func Compile(nodes []domain.Node, edges []domain.Edge) (*ExecutableGraph, error) {
	g := &ExecutableGraph{
		Mode:     domain.ModeDAG,
		Nodes:    make(map[string]domain.Node, len(nodes)),
		Outgoing: make(map[string][]domain.Edge),
	}

	var start *domain.Node
	for _, n := range nodes {
		if n.ID == "" {
			return nil, domain.NewGraphError("node without id")
		}
		if _, dup := g.Nodes[n.ID]; dup {
			return nil, domain.NewGraphError("duplicate node id: %s", n.ID)
		}
		g.Nodes[n.ID] = n
		if n.Type == domain.NodeTypeStart {
			if start != nil {
				return nil, domain.NewGraphError("multiple start nodes: %s and %s", start.ID, n.ID)
			}
			s := n
			start = &s
		}
	}

	if start == nil {
		return nil, domain.NewGraphError("no start node")
	}

	for _, e := range edges {
		if _, ok := g.Nodes[e.Source]; !ok {
			return nil, domain.NewGraphError("edge references unknown source node: %s", e.Source)
		}
		if _, ok := g.Nodes[e.Target]; !ok {
			return nil, domain.NewGraphError("edge references unknown target node: %s", e.Target)
		}
		g.Outgoing[e.Source] = append(g.Outgoing[e.Source], e)
	}

	startEdges := g.Outgoing[start.ID]
	if len(startEdges) == 0 {
		return nil, domain.NewGraphError("start node %s has no outgoing edge", start.ID)
	}
	g.Entry = startEdges[0].Target

	return g, nil
}

// Node returns a node by id.
func (g *ExecutableGraph) Node(id string) (domain.Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// Successor returns the single outgoing target of a node. Non-condition
// nodes with more than one outgoing edge are malformed; ok is false for
// them and for nodes with no successor.
func (g *ExecutableGraph) Successor(id string) (string, bool) {
	edges := g.Outgoing[id]
	if len(edges) != 1 {
		return "", false
	}
	return edges[0].Target, true
}

// ChooseEdge applies the condition-node routing rule to a node's
// outgoing edges: the first edge whose keyword substring-matches the
// latest message content (case-insensitive) wins, falling back to the
// first edge with no keyword, then any edge. ok is false when the node
// has no outgoing edges at all, which terminates the run.
func (g *ExecutableGraph) ChooseEdge(id string, latest string) (string, bool) {
	edges := g.Outgoing[id]
	if len(edges) == 0 {
		return "", false
	}

	content := strings.ToLower(latest)
	for _, e := range edges {
		if e.Condition != "" && strings.Contains(content, strings.ToLower(e.Condition)) {
			return e.Target, true
		}
	}
	for _, e := range edges {
		if e.Condition == "" {
			return e.Target, true
		}
	}
	return edges[0].Target, true
}
