package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the complete configuration from a YAML file.
// Environment variables in the file are expanded before parsing.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadConfigFromString(string(data))
}

// LoadConfigFromString loads configuration from a YAML string.
func LoadConfigFromString(yamlContent string) (*Config, error) {
	expanded := ExpandEnvVars(yamlContent)

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns a configuration with all defaults applied,
// suitable for zero-config startup driven entirely by environment variables.
func DefaultConfig() *Config {
	config := &Config{}

	config.Google.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	config.Google.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	config.GitHub.ClientID = os.Getenv("GITHUB_CLIENT_ID")
	config.GitHub.ClientSecret = os.Getenv("GITHUB_CLIENT_SECRET")
	config.LLM.APIKey = os.Getenv("GOOGLE_API_KEY")
	config.Credentials.EncryptionKey = os.Getenv("ENCRYPTION_KEY")

	config.SetDefaults()
	return config
}
