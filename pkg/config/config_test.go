package config

import (
	"strings"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	if cfg.Server.Port != 5000 {
		t.Errorf("unexpected default port: %d", cfg.Server.Port)
	}
	if cfg.Server.CookieName != "session_id" {
		t.Errorf("unexpected default cookie name: %q", cfg.Server.CookieName)
	}
	if cfg.Server.BaseURL != "http://localhost:5000" {
		t.Errorf("unexpected default base URL: %q", cfg.Server.BaseURL)
	}
	if cfg.LLM.Type != "gemini" || cfg.LLM.Model == "" {
		t.Errorf("unexpected LLM defaults: %+v", cfg.LLM)
	}
	if cfg.Agent.MaxIterations != 5 || cfg.Agent.HistorySize != 20 {
		t.Errorf("unexpected agent defaults: %+v", cfg.Agent)
	}
	if cfg.Uploads.Dir != "./uploads" || len(cfg.Uploads.AllowedExtensions) == 0 {
		t.Errorf("unexpected upload defaults: %+v", cfg.Uploads)
	}
	if cfg.Speech.STT.Model != "whisper-1" {
		t.Errorf("unexpected STT defaults: %+v", cfg.Speech.STT)
	}
	if cfg.Speech.TTS.Language != "en" {
		t.Errorf("unexpected TTS defaults: %+v", cfg.Speech.TTS)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = -1 }, "server"},
		{"bad llm type", func(c *Config) { c.LLM.Type = "gpt4" }, "llm"},
		{"negative iterations", func(c *Config) { c.Agent.MaxIterations = -1 }, "agent"},
		{"negative file size", func(c *Config) { c.Uploads.MaxFileSize = -1 }, "uploads"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.SetDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOAuthEnabled(t *testing.T) {
	cfg := OAuthConfig{}
	if cfg.Enabled() {
		t.Error("empty provider must be disabled")
	}
	cfg.ClientID = "id"
	if cfg.Enabled() {
		t.Error("provider without a secret must be disabled")
	}
	cfg.ClientSecret = "secret"
	if !cfg.Enabled() {
		t.Error("configured provider must be enabled")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("COPILOT_TEST_KEY", "secret-value")
	t.Setenv("COPILOT_TEST_EMPTY", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"braced", "key: ${COPILOT_TEST_KEY}", "key: secret-value"},
		{"simple", "key: $COPILOT_TEST_KEY", "key: secret-value"},
		{"default used", "key: ${COPILOT_TEST_EMPTY:-fallback}", "key: fallback"},
		{"default ignored", "key: ${COPILOT_TEST_KEY:-fallback}", "key: secret-value"},
		{"unset expands empty", "key: ${COPILOT_TEST_UNSET}", "key: "},
		{"no dollar passthrough", "key: plain", "key: plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnvVars(tt.input); got != tt.want {
				t.Errorf("ExpandEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadConfigFromString(t *testing.T) {
	t.Setenv("COPILOT_TEST_API_KEY", "from-env")

	yaml := `
name: copilot
server:
  port: 8081
llm:
  type: gemini
  model: gemini-2.5-flash
  api_key: ${COPILOT_TEST_API_KEY}
agent:
  max_iterations: 3
`

	cfg, err := LoadConfigFromString(yaml)
	if err != nil {
		t.Fatalf("LoadConfigFromString failed: %v", err)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("unexpected port: %d", cfg.Server.Port)
	}
	if cfg.LLM.APIKey != "from-env" {
		t.Errorf("env expansion failed: %q", cfg.LLM.APIKey)
	}
	if cfg.Agent.MaxIterations != 3 {
		t.Errorf("unexpected max iterations: %d", cfg.Agent.MaxIterations)
	}
	// Unset sections still get defaults.
	if cfg.Uploads.Dir != "./uploads" {
		t.Errorf("defaults not applied: %q", cfg.Uploads.Dir)
	}
}

func TestLoadConfigFromStringRejectsInvalid(t *testing.T) {
	if _, err := LoadConfigFromString("llm:\n  type: llama\n"); err == nil {
		t.Error("invalid config must fail validation")
	}
}
