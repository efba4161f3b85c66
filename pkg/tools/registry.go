package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/research-copilot/copilot/pkg/observability"
)

// Registry holds the tools available to the agent. It is injected at
// agent construction so tests can substitute doubles per tool.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(tool Tool) error {
	name := tool.GetName()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	r.tools[name] = tool
	return nil
}

// GetTool looks up a tool by name.
func (r *Registry) GetTool(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool, nil
}

// ListTools returns all tool descriptors, sorted by name.
func (r *Registry) ListTools() []ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ToolInfo, 0, len(r.tools))
	for _, tool := range r.tools {
		infos = append(infos, tool.GetInfo())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	return infos
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// ExecuteTool runs a tool by name and records metrics. An unknown name
// yields a failure result the caller can feed back as an observation.
func (r *Registry) ExecuteTool(ctx context.Context, name string, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	tool, err := r.GetTool(name)
	if err != nil {
		if metrics := observability.GetGlobalMetrics(); metrics != nil {
			metrics.RecordToolExecution(ctx, name, time.Since(start), err)
		}
		return ToolResult{
			Success:  false,
			Error:    err.Error(),
			ToolName: name,
		}, err
	}

	result, execErr := tool.Execute(ctx, args)
	duration := time.Since(start)

	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		recordErr := execErr
		if recordErr == nil && !result.Success {
			recordErr = fmt.Errorf("%s", result.Error)
		}
		metrics.RecordToolExecution(ctx, name, duration, recordErr)
	}

	return result, execErr
}
