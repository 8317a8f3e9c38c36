package fake

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aescanero/agor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamReplaysTurn(t *testing.T) {
	c := NewClient(Turn{
		Text:      "hello world",
		DeltaSize: 5,
		ToolCalls: []ports.ToolCall{
			{ID: "c1", Name: "lookup", Input: json.RawMessage(`{"q":"x"}`)},
		},
	})

	chunks, err := c.Stream(context.Background(), &ports.LLMRequest{})
	require.NoError(t, err)

	var text string
	var sawStart, sawDone bool
	var final *ports.LLMResponse
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		text += chunk.TextDelta
		if chunk.ToolCallName != "" {
			sawStart = true
		}
		if chunk.ToolCallDone {
			sawDone = true
		}
		if chunk.Final != nil {
			final = chunk.Final
		}
	}

	assert.Equal(t, "hello world", text)
	assert.True(t, sawStart)
	assert.True(t, sawDone)
	require.NotNil(t, final)
	assert.Len(t, final.ToolCalls, 1)
	assert.Equal(t, 1, c.Calls())
}

func TestExhaustedScriptFails(t *testing.T) {
	c := NewClient()

	_, err := c.Invoke(context.Background(), &ports.LLMRequest{})
	assert.Error(t, err)
}

func TestInvokeStructured(t *testing.T) {
	c := NewClient(Turn{Structured: json.RawMessage(`{"next":"RESPOND"}`)})

	raw, err := c.InvokeStructured(context.Background(), &ports.LLMRequest{}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"next":"RESPOND"}`, string(raw))
}

func TestSplitDeltas(t *testing.T) {
	assert.Nil(t, splitDeltas("", 4))
	assert.Equal(t, []string{"abc"}, splitDeltas("abc", 0))
	assert.Equal(t, []string{"abcd", "ef"}, splitDeltas("abcdef", 4))
}
