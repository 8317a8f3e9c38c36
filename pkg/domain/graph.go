package domain

// NodeType enumerates the vertex kinds understood by the engine.
type NodeType string

const (
	NodeTypeStart     NodeType = "start"
	NodeTypeEnd       NodeType = "end"
	NodeTypeAgent     NodeType = "agent"
	NodeTypeTool      NodeType = "tool"
	NodeTypeCondition NodeType = "condition"
)

// Node is a graph vertex. Config is type-dependent: agent nodes carry
// Agent, tool nodes carry Tool; start, end and condition nodes have no
// intrinsic config.
type Node struct {
	ID    string       `json:"id"`
	Type  NodeType     `json:"type"`
	Name  string       `json:"name,omitempty"`
	Agent *AgentConfig `json:"agent,omitempty"`
	Tool  *ToolConfig  `json:"tool,omitempty"`
}

// AgentConfig configures an agent node: a prompt plus the ordered set
// of tool names the node is allowed to call.
type AgentConfig struct {
	Prompt string   `json:"prompt"`
	Tools  []string `json:"tools,omitempty"`
}

// ToolConfig configures a tool node: the tool name and its static
// input, invoked directly without a model call.
type ToolConfig struct {
	Name  string `json:"name"`
	Input string `json:"input,omitempty"`
}

// Edge connects two nodes. Condition is an optional keyword used by
// condition nodes: the first outgoing edge whose keyword
// substring-matches the latest message content (case-insensitive) wins.
type Edge struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Condition string `json:"condition,omitempty"`
}

// AgentDefinition describes one agent in a supervisor-mode roster.
// Definitions are ephemeral: constructed per run from static config
// plus dynamically bound tools, never persisted.
type AgentDefinition struct {
	Name   string   `json:"name"`
	Prompt string   `json:"prompt"`
	Tools  []string `json:"tools,omitempty"`
}
