package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aescanero/agor/internal/application/graph"
	"github.com/aescanero/agor/pkg/domain"
	"github.com/aescanero/agor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedTool struct{ name string }

func (t fixedTool) Name() string                 { return t.name }
func (t fixedTool) Description() string          { return "fixed" }
func (t fixedTool) InputSchema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (t fixedTool) Invoke(context.Context, json.RawMessage) (string, error) {
	return "ok", nil
}

type fixedSource map[string]ports.Tool

func (s fixedSource) Get(name string) (ports.Tool, bool) {
	t, ok := s[name]
	return t, ok
}

func (s fixedSource) Descriptors(names []string) []ports.ToolDescriptor {
	var out []ports.ToolDescriptor
	for _, name := range names {
		if t, ok := s[name]; ok {
			out = append(out, ports.ToolDescriptor{Name: t.Name()})
		}
	}
	return out
}

func TestValidateAcceptsResolvableTools(t *testing.T) {
	v := NewValidator(fixedSource{"web_search": fixedTool{name: "web_search"}})

	g, err := graph.Compile([]domain.Node{
		{ID: "start", Type: domain.NodeTypeStart},
		{ID: "a", Type: domain.NodeTypeAgent, Agent: &domain.AgentConfig{Tools: []string{"web_search"}}},
	}, []domain.Edge{{Source: "start", Target: "a"}})
	require.NoError(t, err)

	assert.NoError(t, v.Validate(g))
}

func TestValidateRejectsUnknownAgentNodeTool(t *testing.T) {
	v := NewValidator(fixedSource{})

	g, err := graph.Compile([]domain.Node{
		{ID: "start", Type: domain.NodeTypeStart},
		{ID: "a", Type: domain.NodeTypeAgent, Agent: &domain.AgentConfig{Tools: []string{"nope"}}},
	}, []domain.Edge{{Source: "start", Target: "a"}})
	require.NoError(t, err)

	err = v.Validate(g)
	var graphErr *domain.GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Contains(t, err.Error(), "nope")
}

func TestValidateRejectsConditionWithoutEdges(t *testing.T) {
	v := NewValidator(fixedSource{})

	g, err := graph.Compile([]domain.Node{
		{ID: "start", Type: domain.NodeTypeStart},
		{ID: "check", Type: domain.NodeTypeCondition},
	}, []domain.Edge{{Source: "start", Target: "check"}})
	require.NoError(t, err)

	err = v.Validate(g)
	var graphErr *domain.GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Contains(t, err.Error(), "no outgoing edges")
}

func TestValidateRejectsUnknownRosterTool(t *testing.T) {
	v := NewValidator(fixedSource{})

	g := graph.SynthesizeSupervisor([]domain.AgentDefinition{
		{Name: "researcher", Tools: []string{"web_search"}},
	})

	err := v.Validate(g)
	var graphErr *domain.GraphError
	require.ErrorAs(t, err, &graphErr)
}

func TestValidateNilGraph(t *testing.T) {
	v := NewValidator(fixedSource{})
	assert.Error(t, v.Validate(nil))
}
