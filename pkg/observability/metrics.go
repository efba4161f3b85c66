// Package observability provides Prometheus-backed metrics for the
// ask pipeline: agent turns, tool executions and model calls.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics wires an otel meter to a Prometheus exporter and returns
// the metrics recorder plus the /metrics HTTP handler.
func InitMetrics(ctx context.Context) (*PrometheusMetrics, http.Handler, error) {
	promExporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("copilot")

	askDuration, err := meter.Float64Histogram(
		"copilot_ask_duration_seconds",
		metric.WithDescription("End-to-end /ask turn duration in seconds"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create ask duration histogram: %w", err)
	}

	askTotal, err := meter.Int64Counter(
		"copilot_ask_requests_total",
		metric.WithDescription("Total /ask turns"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create ask counter: %w", err)
	}

	askErrors, err := meter.Int64Counter(
		"copilot_ask_errors_total",
		metric.WithDescription("Total failed /ask turns"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create ask errors counter: %w", err)
	}

	toolDuration, err := meter.Float64Histogram(
		"copilot_tool_execution_duration_seconds",
		metric.WithDescription("Tool execution duration in seconds"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}

	toolCalls, err := meter.Int64Counter(
		"copilot_tool_calls_total",
		metric.WithDescription("Total tool executions"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}

	toolErrors, err := meter.Int64Counter(
		"copilot_tool_errors_total",
		metric.WithDescription("Total failed tool executions"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tool errors counter: %w", err)
	}

	llmDuration, err := meter.Float64Histogram(
		"copilot_llm_request_duration_seconds",
		metric.WithDescription("Model request duration in seconds"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create llm duration histogram: %w", err)
	}

	llmTokens, err := meter.Int64Counter(
		"copilot_llm_tokens_total",
		metric.WithDescription("Total tokens used across model requests"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create llm tokens counter: %w", err)
	}

	llmErrors, err := meter.Int64Counter(
		"copilot_llm_errors_total",
		metric.WithDescription("Total failed model requests"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create llm errors counter: %w", err)
	}

	m := &PrometheusMetrics{
		askDuration:  askDuration,
		askTotal:     askTotal,
		askErrors:    askErrors,
		toolDuration: toolDuration,
		toolCalls:    toolCalls,
		toolErrors:   toolErrors,
		llmDuration:  llmDuration,
		llmTokens:    llmTokens,
		llmErrors:    llmErrors,
	}

	return m, promhttp.Handler(), nil
}
