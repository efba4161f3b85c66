package llms

import (
	"fmt"

	"github.com/research-copilot/copilot/pkg/config"
)

// NewProvider constructs a Provider from configuration.
func NewProvider(cfg *config.LLMProviderConfig) (Provider, error) {
	switch cfg.Type {
	case "gemini":
		return NewGeminiProviderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider type: %s", cfg.Type)
	}
}
