// Package tools implements the agent's capability tools: web search,
// Gmail, Calendar, Docs, GitHub and PDF handling.
package tools

import (
	"context"
	"time"
)

// ToolInfo describes a tool to the routing model.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters,omitempty"`
}

// ToolParameter describes one tool argument.
type ToolParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolResult is the outcome of one tool execution.
type ToolResult struct {
	Success       bool          `json:"success"`
	Content       string        `json:"content,omitempty"`
	Error         string        `json:"error,omitempty"`
	ToolName      string        `json:"tool_name"`
	ExecutionTime time.Duration `json:"execution_time,omitempty"`
}

// Observation flattens the result to the single string fed back to the
// model. Failures carry a recognizable prefix instead of surfacing as
// transport errors.
func (r ToolResult) Observation() string {
	if r.Success {
		return r.Content
	}
	if r.Error != "" {
		return "❌ " + r.Error
	}
	return "❌ tool failed"
}

// Tool is one capability available to the agent.
type Tool interface {
	GetInfo() ToolInfo

	Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error)

	GetName() string

	GetDescription() string
}

// singleInputParameter is shared by every tool taking one free-form
// string argument.
func singleInputParameter(description string) []ToolParameter {
	return []ToolParameter{
		{
			Name:        "input",
			Type:        "string",
			Description: description,
			Required:    false,
		},
	}
}

// inputArg extracts the conventional single "input" argument.
func inputArg(args map[string]interface{}) string {
	if v, ok := args["input"].(string); ok {
		return v
	}
	return ""
}
