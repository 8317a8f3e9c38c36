package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aescanero/agor/pkg/domain"
	"github.com/aescanero/agor/pkg/ports"
	"go.uber.org/zap"
)

const (
	defaultMaxTokens = 8192

	// structuredToolName is the synthetic tool used to force
	// schema-constrained output.
	structuredToolName = "respond"
)

// Client implements the LLM capability against the Anthropic API.
type Client struct {
	sdk          anthropic.Client
	defaultModel string
	maxTokens    int64
	logger       *zap.Logger
}

// NewClient creates an Anthropic LLM client.
func NewClient(apiKey, defaultModel string, maxTokens int, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if defaultModel == "" {
		defaultModel = string(anthropic.ModelClaudeSonnet4_20250514)
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{
		sdk:          anthropic.NewClient(option.WithAPIKey(apiKey)),
		defaultModel: defaultModel,
		maxTokens:    int64(maxTokens),
		logger:       logger,
	}, nil
}

// Invoke performs a non-streaming completion.
func (c *Client) Invoke(ctx context.Context, req *ports.LLMRequest) (*ports.LLMResponse, error) {
	resp, err := c.sdk.Messages.New(ctx, c.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic call: %w", err)
	}
	return convertMessage(resp), nil
}

// Stream performs a streaming completion, emitting text deltas and
// tool-call fragments as they arrive and the assembled message last.
func (c *Client) Stream(ctx context.Context, req *ports.LLMRequest) (<-chan ports.Chunk, error) {
	stream := c.sdk.Messages.NewStreaming(ctx, c.buildParams(req))

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

		var message anthropic.Message
		toolIDs := make(map[int64]string)

		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				send(ports.Chunk{Err: fmt.Errorf("accumulate stream event: %w", err)})
				return
			}

			switch ev := event.AsAny().(type) {
			case anthropic.ContentBlockStartEvent:
				if tu, ok := ev.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
					toolIDs[ev.Index] = tu.ID
					if !send(ports.Chunk{ToolCallID: tu.ID, ToolCallName: tu.Name}) {
						return
					}
				}
			case anthropic.ContentBlockDeltaEvent:
				switch d := ev.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if !send(ports.Chunk{TextDelta: d.Text}) {
						return
					}
				case anthropic.InputJSONDelta:
					if id := toolIDs[ev.Index]; id != "" && d.PartialJSON != "" {
						if !send(ports.Chunk{ToolCallID: id, ArgsDelta: d.PartialJSON}) {
							return
						}
					}
				}
			case anthropic.ContentBlockStopEvent:
				if id := toolIDs[ev.Index]; id != "" {
					if !send(ports.Chunk{ToolCallID: id, ToolCallDone: true}) {
						return
					}
				}
			}
		}

		if err := stream.Err(); err != nil {
			send(ports.Chunk{Err: fmt.Errorf("anthropic stream: %w", err)})
			return
		}

		send(ports.Chunk{Final: convertMessage(&message)})
	}()

	return out, nil
}

// InvokeStructured forces the model through a synthetic tool whose
// input schema is the requested output schema, then returns the tool
// input as the structured result.
func (c *Client) InvokeStructured(ctx context.Context, req *ports.LLMRequest, schema json.RawMessage) (json.RawMessage, error) {
	params := c.buildParams(req)

	tool, err := structuredTool(schema)
	if err != nil {
		return nil, err
	}
	params.Tools = []anthropic.ToolUnionParam{tool}
	params.ToolChoice = anthropic.ToolChoiceUnionParam{
		OfTool: &anthropic.ToolChoiceToolParam{Name: structuredToolName},
	}

	resp, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic structured call: %w", err)
	}

	for _, block := range resp.Content {
		if tu, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			return json.RawMessage(tu.Input), nil
		}
	}
	return nil, fmt.Errorf("model produced no structured output")
}

func (c *Client) buildParams(req *ports.LLMRequest) anthropic.MessageNewParams {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  buildMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}
	return params
}

// buildMessages maps domain messages onto the API's two roles. Tool
// and system messages become attributed user-role text; consecutive
// same-role messages are coalesced because the API requires
// alternation.
func buildMessages(msgs []domain.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	lastRole := ""

	appendBlock := func(role, text string) {
		block := anthropic.NewTextBlock(text)
		if role == lastRole && len(out) > 0 {
			out[len(out)-1].Content = append(out[len(out)-1].Content, block)
			return
		}
		if role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
		lastRole = role
	}

	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case domain.RoleAssistant:
			appendBlock("assistant", m.Content)
		case domain.RoleTool:
			appendBlock("user", fmt.Sprintf("[tool %s result] %s", m.Name, m.Content))
		case domain.RoleSystem:
			appendBlock("user", fmt.Sprintf("[system] %s", m.Content))
		default:
			appendBlock("user", m.Content)
		}
	}

	if len(out) == 0 {
		out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock("(empty conversation)")))
	}
	return out
}

func buildTools(tools []ports.ToolDescriptor) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema, err := inputSchema(t.InputSchema)
		if err != nil {
			continue
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			},
		})
	}
	return out
}

func structuredTool(schema json.RawMessage) (anthropic.ToolUnionParam, error) {
	input, err := inputSchema(schema)
	if err != nil {
		return anthropic.ToolUnionParam{}, err
	}
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        structuredToolName,
			Description: anthropic.String("Record your answer in the required structure."),
			InputSchema: input,
		},
	}, nil
}

// inputSchema converts a raw JSON schema into the SDK's tool input
// schema form.
func inputSchema(raw json.RawMessage) (anthropic.ToolInputSchemaParam, error) {
	var parsed struct {
		Properties map[string]interface{} `json:"properties"`
		Required   []string               `json:"required"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return anthropic.ToolInputSchemaParam{}, fmt.Errorf("parse tool schema: %w", err)
		}
	}
	if parsed.Properties == nil {
		parsed.Properties = map[string]interface{}{}
	}
	return anthropic.ToolInputSchemaParam{
		Properties: parsed.Properties,
		Required:   parsed.Required,
	}, nil
}

// convertMessage flattens an API message into the engine's response
// shape.
func convertMessage(msg *anthropic.Message) *ports.LLMResponse {
	resp := &ports.LLMResponse{}
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content += variant.Text
		case anthropic.ToolUseBlock:
			resp.ToolCalls = append(resp.ToolCalls, ports.ToolCall{
				ID:    variant.ID,
				Name:  variant.Name,
				Input: json.RawMessage(variant.Input),
			})
		}
	}
	return resp
}
