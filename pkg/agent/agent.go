// Package agent routes conversational queries through a bounded
// tool-using reasoning loop.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/research-copilot/copilot/pkg/config"
	"github.com/research-copilot/copilot/pkg/llms"
	"github.com/research-copilot/copilot/pkg/observability"
	"github.com/research-copilot/copilot/pkg/tools"
)

const summarizerToolName = "PDFSummarizer"

const systemPrompt = `You are a personal research assistant. You can search the web,
read and send the user's Gmail, list their calendar events, work with their Google
Docs, list their GitHub repositories and read or summarize their uploaded documents.
Use the provided tools when a question needs live data; answer directly otherwise.
Keep answers concise and plain.`

// Agent is the intent router: one Ask call runs one conversational
// turn to completion.
type Agent struct {
	provider      llms.Provider
	registry      *tools.Registry
	history       *HistoryService
	maxIterations int
}

// New creates an agent. The registry is injected so callers (and
// tests) control exactly which tools exist.
func New(provider llms.Provider, registry *tools.Registry, history *HistoryService, cfg *config.AgentConfig) *Agent {
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 5
	}

	return &Agent{
		provider:      provider,
		registry:      registry,
		history:       history,
		maxIterations: maxIterations,
	}
}

// History exposes the conversation store.
func (a *Agent) History() *HistoryService {
	return a.history
}

// Ask answers one user query. The invocation (identity, tokens,
// current document) travels in ctx for the tools.
func (a *Agent) Ask(ctx context.Context, sessionID, query string) (string, error) {
	start := time.Now()

	answer, tokens, err := a.ask(ctx, sessionID, query)

	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordAskTurn(ctx, time.Since(start), tokens, err)
	}

	return answer, err
}

func (a *Agent) ask(ctx context.Context, sessionID, query string) (string, int, error) {
	// Summarization requests skip tool selection entirely. Matching is
	// keyword-based and deliberately broad; a stray mention of both
	// words routes here too.
	if wantsSummary(query) {
		result, err := a.registry.ExecuteTool(ctx, summarizerToolName, map[string]interface{}{})
		if err != nil && result.Error == "" {
			return "", 0, fmt.Errorf("summarization failed: %w", err)
		}
		return result.Observation(), 0, nil
	}

	messages := []llms.Message{{Role: "system", Content: systemPrompt}}
	messages = append(messages, a.history.Get(sessionID)...)
	messages = append(messages, llms.Message{Role: "user", Content: query})

	defs := a.toolDefinitions()
	totalTokens := 0

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		text, toolCalls, tokens, err := a.generate(ctx, messages, defs)
		totalTokens += tokens
		if err != nil {
			return "", totalTokens, fmt.Errorf("model request failed: %w", err)
		}

		if len(toolCalls) > 0 {
			messages = append(messages, llms.Message{
				Role:      "assistant",
				Content:   text,
				ToolCalls: toolCalls,
			})
			for _, call := range toolCalls {
				messages = append(messages, a.runTool(ctx, call.Name, call.Arguments))
			}
			continue
		}

		dir, err := parseDirective(text)
		if errors.Is(err, ErrRoutingParse) {
			slog.Debug("recovering from malformed tool directive", "session_id", sessionID)
			messages = append(messages,
				llms.Message{Role: "assistant", Content: text},
				llms.Message{Role: "user", Content: "Your tool directive was malformed. Either answer directly or write exactly: Tool: <name>, Input: <input>"},
			)
			continue
		}
		if dir != nil {
			messages = append(messages, llms.Message{Role: "assistant", Content: text})
			messages = append(messages, a.runTool(ctx, dir.Tool, map[string]interface{}{"input": dir.Input}))
			continue
		}

		a.remember(sessionID, query, text)
		return text, totalTokens, nil
	}

	// Iteration bound reached: force a plain answer, no tools offered.
	messages = append(messages, llms.Message{
		Role:    "user",
		Content: "Give your final answer now using what you already know. Do not request any more tools.",
	})
	text, _, tokens, err := a.generate(ctx, messages, nil)
	totalTokens += tokens
	if err != nil {
		return "", totalTokens, fmt.Errorf("model request failed: %w", err)
	}

	a.remember(sessionID, query, text)
	return text, totalTokens, nil
}

func (a *Agent) generate(ctx context.Context, messages []llms.Message, defs []llms.ToolDefinition) (string, []llms.ToolCall, int, error) {
	start := time.Now()
	text, toolCalls, tokens, err := a.provider.Generate(messages, defs)

	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordLLMCall(ctx, a.provider.GetModelName(), time.Since(start), tokens, err)
	}

	return text, toolCalls, tokens, err
}

// runTool executes one tool and wraps its observation as a tool
// message. Failures come back as observations, never as errors that
// would abort the turn.
func (a *Agent) runTool(ctx context.Context, name string, args map[string]interface{}) llms.Message {
	result, err := a.registry.ExecuteTool(ctx, name, args)
	if err != nil && result.Error == "" {
		result.Error = err.Error()
	}

	return llms.Message{
		Role:    "tool",
		Name:    name,
		Content: result.Observation(),
	}
}

func (a *Agent) remember(sessionID, query, answer string) {
	a.history.Append(sessionID, llms.Message{Role: "user", Content: query})
	a.history.Append(sessionID, llms.Message{Role: "assistant", Content: answer})
}

func (a *Agent) toolDefinitions() []llms.ToolDefinition {
	infos := a.registry.ListTools()
	defs := make([]llms.ToolDefinition, 0, len(infos))
	for _, info := range infos {
		defs = append(defs, llms.ToolDefinition{
			Name:        info.Name,
			Description: info.Description,
			Parameters:  llms.SingleInputSchema(parameterDescription(info)),
		})
	}
	return defs
}

func parameterDescription(info tools.ToolInfo) string {
	for _, p := range info.Parameters {
		if p.Name == "input" {
			return p.Description
		}
	}
	return "Tool input."
}

// wantsSummary detects document-summarization intent.
func wantsSummary(query string) bool {
	upper := strings.ToUpper(query)
	return (strings.Contains(upper, "PDF") || strings.Contains(upper, "DOCUMENT")) &&
		strings.Contains(upper, "SUMMARIZE")
}
