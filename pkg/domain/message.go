package domain

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is the unit of conversational state threaded through a graph.
// The sequence is ordered and append-only for the duration of one run.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Name carries the producing node or tool name when relevant.
	Name string `json:"name,omitempty"`

	// Internal marks messages that must never reach the caller's text
	// stream, such as the supervisor's routing rationale.
	Internal bool `json:"internal,omitempty"`

	// Error marks messages that record a recovered node failure.
	Error bool `json:"error,omitempty"`
}

// Latest returns the most recent message, or a zero Message for an
// empty history.
func Latest(messages []Message) Message {
	if len(messages) == 0 {
		return Message{}
	}
	return messages[len(messages)-1]
}

// FilterInternal returns the messages with Internal entries removed.
// The responder node uses this so routing rationale never leaks into
// its model context.
func FilterInternal(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Internal {
			continue
		}
		out = append(out, m)
	}
	return out
}
