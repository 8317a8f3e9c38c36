package graph

import (
	"testing"

	"github.com/aescanero/agor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearNodes() []domain.Node {
	return []domain.Node{
		{ID: "start", Type: domain.NodeTypeStart},
		{ID: "worker", Type: domain.NodeTypeAgent, Agent: &domain.AgentConfig{Prompt: "do work"}},
		{ID: "end", Type: domain.NodeTypeEnd},
	}
}

func linearEdges() []domain.Edge {
	return []domain.Edge{
		{Source: "start", Target: "worker"},
		{Source: "worker", Target: "end"},
	}
}

func TestCompileResolvesEntry(t *testing.T) {
	g, err := Compile(linearNodes(), linearEdges())
	require.NoError(t, err)

	assert.Equal(t, domain.ModeDAG, g.Mode)
	assert.Equal(t, "worker", g.Entry)

	next, ok := g.Successor("worker")
	require.True(t, ok)
	assert.Equal(t, "end", next)
}

func TestCompileRejectsMissingStart(t *testing.T) {
	_, err := Compile([]domain.Node{
		{ID: "worker", Type: domain.NodeTypeAgent},
	}, nil)

	var graphErr *domain.GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Contains(t, err.Error(), "no start node")
}

func TestCompileRejectsStartWithoutEdge(t *testing.T) {
	_, err := Compile([]domain.Node{
		{ID: "start", Type: domain.NodeTypeStart},
		{ID: "worker", Type: domain.NodeTypeAgent},
	}, nil)

	var graphErr *domain.GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Contains(t, err.Error(), "no outgoing edge")
}

func TestCompileRejectsDanglingEdge(t *testing.T) {
	_, err := Compile(linearNodes(), []domain.Edge{
		{Source: "start", Target: "ghost"},
	})

	var graphErr *domain.GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Contains(t, err.Error(), "unknown target")
}

func TestCompileRejectsDuplicateNodeIDs(t *testing.T) {
	_, err := Compile([]domain.Node{
		{ID: "start", Type: domain.NodeTypeStart},
		{ID: "start", Type: domain.NodeTypeAgent},
	}, nil)

	var graphErr *domain.GraphError
	require.ErrorAs(t, err, &graphErr)
}

func TestCompileRejectsMultipleStartNodes(t *testing.T) {
	_, err := Compile([]domain.Node{
		{ID: "a", Type: domain.NodeTypeStart},
		{ID: "b", Type: domain.NodeTypeStart},
	}, nil)

	var graphErr *domain.GraphError
	require.ErrorAs(t, err, &graphErr)
}

func TestSuccessorAmbiguousForMultipleEdges(t *testing.T) {
	nodes := append(linearNodes(), domain.Node{ID: "other", Type: domain.NodeTypeAgent})
	edges := append(linearEdges(), domain.Edge{Source: "worker", Target: "other"})

	g, err := Compile(nodes, edges)
	require.NoError(t, err)

	_, ok := g.Successor("worker")
	assert.False(t, ok)
}

func TestChooseEdgeKeywordMatch(t *testing.T) {
	g, err := Compile([]domain.Node{
		{ID: "start", Type: domain.NodeTypeStart},
		{ID: "check", Type: domain.NodeTypeCondition},
		{ID: "sunny", Type: domain.NodeTypeAgent},
		{ID: "rainy", Type: domain.NodeTypeAgent},
		{ID: "fallback", Type: domain.NodeTypeAgent},
	}, []domain.Edge{
		{Source: "start", Target: "check"},
		{Source: "check", Target: "sunny", Condition: "sunny"},
		{Source: "check", Target: "rainy", Condition: "rain"},
		{Source: "check", Target: "fallback"},
	})
	require.NoError(t, err)

	target, ok := g.ChooseEdge("check", "The forecast says SUNNY skies.")
	require.True(t, ok)
	assert.Equal(t, "sunny", target)

	target, ok = g.ChooseEdge("check", "heavy rain expected")
	require.True(t, ok)
	assert.Equal(t, "rainy", target)

	target, ok = g.ChooseEdge("check", "no idea")
	require.True(t, ok)
	assert.Equal(t, "fallback", target)
}

func TestChooseEdgeFallsBackToFirstEdge(t *testing.T) {
	g, err := Compile([]domain.Node{
		{ID: "start", Type: domain.NodeTypeStart},
		{ID: "check", Type: domain.NodeTypeCondition},
		{ID: "a", Type: domain.NodeTypeAgent},
		{ID: "b", Type: domain.NodeTypeAgent},
	}, []domain.Edge{
		{Source: "start", Target: "check"},
		{Source: "check", Target: "a", Condition: "alpha"},
		{Source: "check", Target: "b", Condition: "beta"},
	})
	require.NoError(t, err)

	// No keyword matches and no unconditional edge exists; the first
	// edge wins so routing stays deterministic.
	target, ok := g.ChooseEdge("check", "gamma")
	require.True(t, ok)
	assert.Equal(t, "a", target)
}

func TestChooseEdgeNoEdges(t *testing.T) {
	g, err := Compile(linearNodes(), linearEdges())
	require.NoError(t, err)

	_, ok := g.ChooseEdge("end", "anything")
	assert.False(t, ok)
}
