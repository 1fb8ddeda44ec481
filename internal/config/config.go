// Package config loads and saves the deskpilot YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the default config file location.
const DefaultPath = "~/.deskpilot/config.yaml"

// Config is the top-level configuration.
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	Display DisplayConfig `yaml:"display"`
	Gateway GatewayConfig `yaml:"gateway"`
	Tracing TracingConfig `yaml:"tracing"`
}

// AgentConfig configures the loop and the model endpoint.
type AgentConfig struct {
	Model         string `yaml:"model"`
	MaxIterations int    `yaml:"maxIterations"`
	MaxTokens     int    `yaml:"maxTokens"`
	System        string `yaml:"system,omitempty"`

	// APIKey is resolved in order: this field, DESKPILOT_API_KEY, the OS
	// keychain. Prefer leaving it empty so the key stays out of the file.
	APIKey  string `yaml:"apiKey,omitempty"`
	APIBase string `yaml:"apiBase,omitempty"`

	// ActionsPerMinute caps executor actions per session. 0 = unlimited.
	ActionsPerMinute int `yaml:"actionsPerMinute"`
}

// DisplayConfig declares the display geometry sent to the endpoint.
type DisplayConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// GatewayConfig configures the WebSocket gateway.
type GatewayConfig struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token,omitempty"`

	// RequestsPerMinute rate-limits each client. 0 = disabled.
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	Burst             int `yaml:"burst"`
}

// TracingConfig configures the OTLP span exporter. Tracing is disabled
// unless an endpoint is set.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint,omitempty"`
	Protocol    string `yaml:"protocol,omitempty"` // "grpc" (default) or "http"
	Insecure    bool   `yaml:"insecure,omitempty"`
	ServiceName string `yaml:"serviceName,omitempty"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			Model:            "claude-sonnet-4-5",
			MaxIterations:    30,
			MaxTokens:        4096,
			ActionsPerMinute: 120,
		},
		Display: DisplayConfig{
			Width:  1280,
			Height: 800,
		},
		Gateway: GatewayConfig{
			Host:              "127.0.0.1",
			Port:              7801,
			RequestsPerMinute: 60,
			Burst:             10,
		},
	}
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config file, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	expanded := ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(expanded, data, 0o600)
}

// Validate checks invariants the loop depends on.
func (c *Config) Validate() error {
	if c.Agent.Model == "" {
		return fmt.Errorf("agent.model is required")
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("agent.maxIterations must be >= 1, got %d", c.Agent.MaxIterations)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display dimensions must be positive, got %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.Gateway.Port < 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port out of range: %d", c.Gateway.Port)
	}
	switch c.Tracing.Protocol {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("tracing.protocol must be \"grpc\" or \"http\", got %q", c.Tracing.Protocol)
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
