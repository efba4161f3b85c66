// Package llms provides language-model provider abstractions.
package llms

// Message represents one entry in a model conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant", "tool"
	Content string `json:"content"`

	// Name identifies the tool for role "tool" messages.
	Name string `json:"name,omitempty"`

	// ToolCalls carries function calls issued by an assistant message.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a structured function call requested by the model.
type ToolCall struct {
	ID        string                 `json:"id,omitempty"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// ToolDefinition describes a callable tool to the model.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// Provider is the chat-completion interface consumed by the agent.
type Provider interface {
	// Generate produces a response with optional function calling.
	// Returns the text, any tool calls, and the total tokens used.
	Generate(messages []Message, tools []ToolDefinition) (string, []ToolCall, int, error)

	GetModelName() string

	Close() error
}

// SingleInputSchema is the JSON schema shared by all single-string-input tools.
func SingleInputSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"input": map[string]interface{}{
				"type":        "string",
				"description": description,
			},
		},
	}
}
