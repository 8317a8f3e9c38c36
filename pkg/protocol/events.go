package protocol

import "encoding/json"

// EventType tags the protocol event union.
type EventType string

const (
	EventRunStarted  EventType = "RUN_STARTED"
	EventRunFinished EventType = "RUN_FINISHED"
	EventRunError    EventType = "RUN_ERROR"

	EventStepStarted  EventType = "STEP_STARTED"
	EventStepFinished EventType = "STEP_FINISHED"

	EventTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTextMessageEnd     EventType = "TEXT_MESSAGE_END"

	EventToolCallStart  EventType = "TOOL_CALL_START"
	EventToolCallArgs   EventType = "TOOL_CALL_ARGS"
	EventToolCallEnd    EventType = "TOOL_CALL_END"
	EventToolCallResult EventType = "TOOL_CALL_RESULT"

	EventCustom EventType = "CUSTOM"
)

// Event is one record of the protocol stream. Only the fields relevant
// to Type are populated; IDs are opaque strings scoped to one run.
type Event struct {
	Type EventType `json:"type"`

	// Run lifecycle.
	ThreadID string `json:"threadId,omitempty"`
	RunID    string `json:"runId,omitempty"`

	// RUN_ERROR.
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`

	// Step lifecycle.
	StepName string `json:"stepName,omitempty"`

	// Text message stream.
	MessageID string `json:"messageId,omitempty"`
	Role      string `json:"role,omitempty"`
	Delta     string `json:"delta,omitempty"`

	// Tool call stream.
	ToolCallID   string `json:"toolCallId,omitempty"`
	ToolCallName string `json:"toolCallName,omitempty"`
	Content      string `json:"content,omitempty"`

	// CUSTOM.
	Name  string          `json:"name,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// RunStarted builds the run lifecycle open event.
func RunStarted(threadID, runID string) Event {
	return Event{Type: EventRunStarted, ThreadID: threadID, RunID: runID}
}

// RunFinished builds the run lifecycle close event.
func RunFinished(threadID, runID string) Event {
	return Event{Type: EventRunFinished, ThreadID: threadID, RunID: runID}
}

// RunError builds the terminal error event that replaces RUN_FINISHED.
func RunError(message, code string) Event {
	return Event{Type: EventRunError, Message: message, Code: code}
}

// StepStarted marks one node execution beginning.
func StepStarted(stepName string) Event {
	return Event{Type: EventStepStarted, StepName: stepName}
}

// StepFinished marks one node execution ending.
func StepFinished(stepName string) Event {
	return Event{Type: EventStepFinished, StepName: stepName}
}

// TextMessageStart opens a streamed text message.
func TextMessageStart(messageID, role string) Event {
	return Event{Type: EventTextMessageStart, MessageID: messageID, Role: role}
}

// TextMessageContent carries one content delta of an open message.
func TextMessageContent(messageID, delta string) Event {
	return Event{Type: EventTextMessageContent, MessageID: messageID, Delta: delta}
}

// TextMessageEnd closes a streamed text message.
func TextMessageEnd(messageID string) Event {
	return Event{Type: EventTextMessageEnd, MessageID: messageID}
}

// ToolCallStart opens a streamed tool call.
func ToolCallStart(toolCallID, toolCallName string) Event {
	return Event{Type: EventToolCallStart, ToolCallID: toolCallID, ToolCallName: toolCallName}
}

// ToolCallArgs carries one argument delta of an open tool call.
func ToolCallArgs(toolCallID, delta string) Event {
	return Event{Type: EventToolCallArgs, ToolCallID: toolCallID, Delta: delta}
}

// ToolCallEnd closes the argument stream of a tool call.
func ToolCallEnd(toolCallID string) Event {
	return Event{Type: EventToolCallEnd, ToolCallID: toolCallID}
}

// ToolCallResult carries the tool's output, attributed to a synthetic
// tool-role message.
func ToolCallResult(toolCallID, messageID, content string) Event {
	return Event{
		Type:       EventToolCallResult,
		ToolCallID: toolCallID,
		MessageID:  messageID,
		Role:       "tool",
		Content:    content,
	}
}

// Custom builds a free-form named event.
func Custom(name string, value json.RawMessage) Event {
	return Event{Type: EventCustom, Name: name, Value: value}
}
