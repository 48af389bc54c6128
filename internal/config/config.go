// Package config loads Project Z configuration from ~/.projectz/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Project Z configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM completion configuration
	LLM LLMConfig `yaml:"llm"`

	// Embedding configuration
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Guardian configuration
	Guardian GuardianConfig `yaml:"guardian"`

	// Memory snippet store configuration
	Memory MemoryConfig `yaml:"memory"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the reasoning client.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, genai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // openai, genai
	Model    string `yaml:"model"`
}

// GuardianConfig configures the context guardian.
type GuardianConfig struct {
	// Poll intervals
	ContactPollInterval string `yaml:"contact_poll_interval"` // Default: 500ms
	DriftPollInterval   string `yaml:"drift_poll_interval"`   // Default: 2s

	// Drift detection
	DriftThreshold  float64 `yaml:"drift_threshold"`  // Below this = drifting (default: 0.4)
	CooldownSeconds int     `yaml:"cooldown_seconds"` // Min gap between drift warnings (default: 600)
	GraceSeconds    int     `yaml:"grace_seconds"`    // Re-arm grace after restoreFocus (default: 60)

	// Message apps always monitored for guarded contacts
	MessageApps []string `yaml:"message_apps"`
}

// MemoryConfig configures the snippet memory store.
type MemoryConfig struct {
	DatabasePath string `yaml:"database_path"`
	MaxSnippets  int    `yaml:"max_snippets"` // Ranked snippets handed to clipboard-RAG
}

// LoggingConfig configures categorized file logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "Project Z",
		Version: "1.0.0",

		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			BaseURL:  "https://api.openai.com/v1",
			Timeout:  "60s",
		},

		Embedding: EmbeddingConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},

		Guardian: GuardianConfig{
			ContactPollInterval: "500ms",
			DriftPollInterval:   "2s",
			DriftThreshold:      0.4,
			CooldownSeconds:     600,
			GraceSeconds:        60,
			MessageApps: []string{
				"Messages", "WhatsApp", "Telegram", "Slack", "Discord", "Signal",
			},
		},

		Memory: MemoryConfig{
			DatabasePath: "", // Resolved under the data dir when empty
			MaxSnippets:  5,
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// DataDir returns the Project Z data directory (~/.projectz).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home dir: %w", err)
	}
	return filepath.Join(home, ".projectz"), nil
}

// Load loads configuration from a YAML file.
// Returns defaults if the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API key from environment (check in priority order)
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "genai"
		c.Embedding.Provider = "genai"
	}
	if key := os.Getenv("PROJECTZ_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}

	if path := os.Getenv("PROJECTZ_DB"); path != "" {
		c.Memory.DatabasePath = path
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetContactPollInterval returns the contact-guard poll interval.
func (c *Config) GetContactPollInterval() time.Duration {
	d, err := time.ParseDuration(c.Guardian.ContactPollInterval)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// GetDriftPollInterval returns the drift-monitor poll interval.
func (c *Config) GetDriftPollInterval() time.Duration {
	d, err := time.ParseDuration(c.Guardian.DriftPollInterval)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// GetCooldown returns the minimum gap between drift warnings.
func (c *Config) GetCooldown() time.Duration {
	if c.Guardian.CooldownSeconds <= 0 {
		return 600 * time.Second
	}
	return time.Duration(c.Guardian.CooldownSeconds) * time.Second
}

// GetGracePeriod returns the re-arm grace window after a focus restore.
func (c *Config) GetGracePeriod() time.Duration {
	if c.Guardian.GraceSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Guardian.GraceSeconds) * time.Second
}
