// Package config provides configuration types and loading for the copilot backend.
package config

import (
	"fmt"
	"time"
)

// Config is the complete configuration, the single entry point loaded from YAML.
type Config struct {
	Name string `yaml:"name,omitempty"`

	Server      ServerConfig      `yaml:"server,omitempty"`
	Google      OAuthConfig       `yaml:"google,omitempty"`
	GitHub      OAuthConfig       `yaml:"github,omitempty"`
	LLM         LLMProviderConfig `yaml:"llm,omitempty"`
	Agent       AgentConfig       `yaml:"agent,omitempty"`
	Credentials CredentialsConfig `yaml:"credentials,omitempty"`
	Uploads     UploadsConfig     `yaml:"uploads,omitempty"`
	Speech      SpeechConfig      `yaml:"speech,omitempty"`
	Metrics     MetricsConfig     `yaml:"metrics,omitempty"`
}

// Validate implements validation for Config
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := c.Google.Validate(); err != nil {
		return fmt.Errorf("google config validation failed: %w", err)
	}
	if err := c.GitHub.Validate(); err != nil {
		return fmt.Errorf("github config validation failed: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm config validation failed: %w", err)
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("agent config validation failed: %w", err)
	}
	if err := c.Credentials.Validate(); err != nil {
		return fmt.Errorf("credentials config validation failed: %w", err)
	}
	if err := c.Uploads.Validate(); err != nil {
		return fmt.Errorf("uploads config validation failed: %w", err)
	}
	if err := c.Speech.Validate(); err != nil {
		return fmt.Errorf("speech config validation failed: %w", err)
	}
	return nil
}

// SetDefaults implements defaulting for Config
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Google.SetDefaults()
	c.GitHub.SetDefaults()
	c.LLM.SetDefaults()
	c.Agent.SetDefaults()
	c.Credentials.SetDefaults()
	c.Uploads.SetDefaults()
	c.Speech.SetDefaults()
	c.Metrics.SetDefaults()
}

// ============================================================================
// SERVER CONFIGURATION
// ============================================================================

// ServerConfig contains the HTTP server configuration
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	BaseURL     string `yaml:"base_url,omitempty"`     // Public URL, used for OAuth redirect URIs
	FrontendURL string `yaml:"frontend_url,omitempty"` // Where OAuth callbacks redirect the browser

	// Session cookie settings
	CookieName   string `yaml:"cookie_name"`
	CookieSecure bool   `yaml:"cookie_secure"`

	// CORS origins allowed to send credentials
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`

	// Optional directory with a built frontend to serve at /
	StaticDir string `yaml:"static_dir,omitempty"`
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}
	if c.FrontendURL == "" {
		c.FrontendURL = c.BaseURL
	}
	if c.CookieName == "" {
		c.CookieName = "session_id"
	}
}

// ============================================================================
// OAUTH PROVIDER CONFIGURATION
// ============================================================================

// OAuthConfig holds client settings for one OAuth2 identity provider.
type OAuthConfig struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes,omitempty"`
}

func (c *OAuthConfig) Validate() error {
	// Providers are optional; login routes reject requests when unset.
	return nil
}

func (c *OAuthConfig) SetDefaults() {}

// Enabled reports whether the provider has been configured.
func (c *OAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// ============================================================================
// LLM PROVIDER CONFIGURATION
// ============================================================================

// LLMProviderConfig configures the chat-completion provider used for routing
// and summarization.
type LLMProviderConfig struct {
	Type        string  `yaml:"type"` // "gemini"
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Host        string  `yaml:"host,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Timeout     int     `yaml:"timeout,omitempty"` // Seconds
	MaxRetries  int     `yaml:"max_retries,omitempty"`
}

func (c *LLMProviderConfig) Validate() error {
	if c.Type != "gemini" {
		return fmt.Errorf("unsupported llm type: %s", c.Type)
	}
	if c.Model == "" {
		return fmt.Errorf("llm model is required")
	}
	return nil
}

func (c *LLMProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "gemini"
	}
	if c.Model == "" {
		c.Model = "gemini-2.5-flash"
	}
	if c.Host == "" {
		c.Host = "https://generativelanguage.googleapis.com"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2048
	}
	if c.Timeout == 0 {
		c.Timeout = 60
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// TimeoutDuration returns the request timeout as a time.Duration.
func (c *LLMProviderConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// ============================================================================
// AGENT CONFIGURATION
// ============================================================================

// AgentConfig bounds the reasoning loop and conversation memory.
type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations,omitempty"`
	HistorySize   int `yaml:"history_size,omitempty"` // Max messages kept per session
}

func (c *AgentConfig) Validate() error {
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations cannot be negative")
	}
	return nil
}

func (c *AgentConfig) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 5
	}
	if c.HistorySize == 0 {
		c.HistorySize = 20
	}
}

// ============================================================================
// CREDENTIALS CONFIGURATION
// ============================================================================

// CredentialsConfig configures the durable token store.
type CredentialsConfig struct {
	DBPath        string `yaml:"db_path"`
	EncryptionKey string `yaml:"encryption_key"` // Fernet key, base64url
}

func (c *CredentialsConfig) Validate() error {
	return nil
}

func (c *CredentialsConfig) SetDefaults() {
	if c.DBPath == "" {
		c.DBPath = "copilot.db"
	}
}

// ============================================================================
// UPLOADS CONFIGURATION
// ============================================================================

// UploadsConfig configures document upload handling.
type UploadsConfig struct {
	Dir               string   `yaml:"dir"`
	AllowedExtensions []string `yaml:"allowed_extensions,omitempty"`
	MaxFileSize       int64    `yaml:"max_file_size,omitempty"` // Bytes
}

func (c *UploadsConfig) Validate() error {
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size cannot be negative")
	}
	return nil
}

func (c *UploadsConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "./uploads"
	}
	if len(c.AllowedExtensions) == 0 {
		c.AllowedExtensions = []string{"pdf", "txt", "docx", "png", "jpg", "jpeg"}
	}
	if c.MaxFileSize == 0 {
		c.MaxFileSize = 32 << 20 // 32 MiB
	}
}

// ============================================================================
// SPEECH CONFIGURATION
// ============================================================================

// SpeechConfig configures the speech-to-text and text-to-speech clients.
type SpeechConfig struct {
	STT STTConfig `yaml:"stt,omitempty"`
	TTS TTSConfig `yaml:"tts,omitempty"`
}

func (c *SpeechConfig) Validate() error {
	return nil
}

func (c *SpeechConfig) SetDefaults() {
	c.STT.SetDefaults()
	c.TTS.SetDefaults()
}

// STTConfig points at a Whisper-compatible transcription API.
type STTConfig struct {
	Host   string `yaml:"host"`
	Model  string `yaml:"model"`
	APIKey string `yaml:"api_key,omitempty"`
}

func (c *STTConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "http://localhost:8000"
	}
	if c.Model == "" {
		c.Model = "whisper-1"
	}
}

// TTSConfig configures speech synthesis.
type TTSConfig struct {
	Host     string `yaml:"host,omitempty"`
	Language string `yaml:"language,omitempty"`
}

func (c *TTSConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "https://translate.google.com"
	}
	if c.Language == "" {
		c.Language = "en"
	}
}

// ============================================================================
// METRICS CONFIGURATION
// ============================================================================

// MetricsConfig enables the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

func (c *MetricsConfig) SetDefaults() {}
