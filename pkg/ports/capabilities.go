package ports

import (
	"context"
	"encoding/json"

	"github.com/aescanero/agor/pkg/domain"
)

// LLMRequest is a single completion request against a model.
type LLMRequest struct {
	Model       string
	System      string
	Messages    []domain.Message
	Tools       []ToolDescriptor
	Temperature float64
	MaxTokens   int
}

// LLMResponse is one assembled model turn.
type LLMResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolCall is a structured tool invocation request produced by a model.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// Chunk is one increment of a streamed model turn. A chunk carries a
// content delta, a tool-call argument delta, or the final assembled
// message; Err terminates the stream.
type Chunk struct {
	TextDelta string

	// ToolCallID and ToolCallName identify the call a fragment belongs
	// to; ArgsDelta carries partial JSON arguments. ToolCallDone marks
	// the call's arguments as complete.
	ToolCallID   string
	ToolCallName string
	ArgsDelta    string
	ToolCallDone bool

	// Final is non-nil on the last chunk of a successful stream.
	Final *LLMResponse

	Err error
}

// LLMClient is the language-model capability consumed by the engine.
//
// Stream must deliver chunks incrementally; the engine forwards them to
// the caller while the turn is still in flight. Implementations close
// the returned channel when the turn ends.
type LLMClient interface {
	// Invoke performs a non-streaming completion.
	Invoke(ctx context.Context, req *LLMRequest) (*LLMResponse, error)

	// Stream performs a streaming completion.
	Stream(ctx context.Context, req *LLMRequest) (<-chan Chunk, error)

	// InvokeStructured performs a completion constrained to the given
	// JSON schema and returns the raw structured output.
	InvokeStructured(ctx context.Context, req *LLMRequest, schema json.RawMessage) (json.RawMessage, error)
}

// ToolDescriptor advertises a tool to a model.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Tool is the named, schema-described capability invoked by agent and
// tool nodes.
type Tool interface {
	Name() string
	Description() string
	InputSchema() json.RawMessage
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

// ToolSource resolves tool names to implementations. Lookup order and
// scoping (for example tenant-bound retrieval tools) are up to the
// implementation.
type ToolSource interface {
	Get(name string) (Tool, bool)
	Descriptors(names []string) []ToolDescriptor
}
