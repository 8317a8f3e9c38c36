package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aescanero/agor/pkg/ports"
)

// Turn scripts one model invocation of the fake client.
type Turn struct {
	// Text is streamed as deltas and returned as the turn's content.
	Text string

	// DeltaSize splits Text into deltas of at most this many bytes;
	// zero streams the whole text as one delta.
	DeltaSize int

	// ToolCalls are emitted as structured fragments after the text.
	ToolCalls []ports.ToolCall

	// Structured is returned by InvokeStructured.
	Structured json.RawMessage

	// Err fails the invocation.
	Err error
}

// Client replays scripted turns in order. It serves tests and offline
// development where no model API is reachable.
type Client struct {
	mu    sync.Mutex
	turns []Turn
	next  int
}

// NewClient creates a fake client with no script; every call fails
// until turns are queued.
func NewClient(turns ...Turn) *Client {
	return &Client{turns: turns}
}

// Queue appends turns to the script.
func (c *Client) Queue(turns ...Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turns...)
}

// Calls reports how many turns have been consumed.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

func (c *Client) take() (Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.next >= len(c.turns) {
		return Turn{}, fmt.Errorf("fake llm: no scripted turn for call %d", c.next+1)
	}
	t := c.turns[c.next]
	c.next++
	return t, nil
}

// Invoke returns the next scripted turn whole.
func (c *Client) Invoke(ctx context.Context, req *ports.LLMRequest) (*ports.LLMResponse, error) {
	t, err := c.take()
	if err != nil {
		return nil, err
	}
	if t.Err != nil {
		return nil, t.Err
	}
	return &ports.LLMResponse{Content: t.Text, ToolCalls: t.ToolCalls}, nil
}

// Stream replays the next scripted turn incrementally: text deltas
// first, then tool-call fragments, then the assembled response.
func (c *Client) Stream(ctx context.Context, req *ports.LLMRequest) (<-chan ports.Chunk, error) {
	t, err := c.take()
	if err != nil {
		return nil, err
	}

	out := make(chan ports.Chunk)
	go func() {
		defer close(out)

		send := func(chunk ports.Chunk) bool {
			select {
			case out <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if t.Err != nil {
			send(ports.Chunk{Err: t.Err})
			return
		}

		for _, delta := range splitDeltas(t.Text, t.DeltaSize) {
			if !send(ports.Chunk{TextDelta: delta}) {
				return
			}
		}

		for _, call := range t.ToolCalls {
			if !send(ports.Chunk{ToolCallID: call.ID, ToolCallName: call.Name}) {
				return
			}
			if len(call.Input) > 0 {
				if !send(ports.Chunk{ToolCallID: call.ID, ArgsDelta: string(call.Input)}) {
					return
				}
			}
			if !send(ports.Chunk{ToolCallID: call.ID, ToolCallDone: true}) {
				return
			}
		}

		send(ports.Chunk{Final: &ports.LLMResponse{Content: t.Text, ToolCalls: t.ToolCalls}})
	}()

	return out, nil
}

// InvokeStructured returns the next scripted turn's structured output.
func (c *Client) InvokeStructured(ctx context.Context, req *ports.LLMRequest, schema json.RawMessage) (json.RawMessage, error) {
	t, err := c.take()
	if err != nil {
		return nil, err
	}
	if t.Err != nil {
		return nil, t.Err
	}
	if t.Structured == nil {
		return nil, fmt.Errorf("fake llm: scripted turn has no structured output")
	}
	return t.Structured, nil
}

func splitDeltas(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 || size >= len(text) {
		return []string{text}
	}
	var out []string
	for len(text) > size {
		out = append(out, text[:size])
		text = text[size:]
	}
	return append(out, text)
}
