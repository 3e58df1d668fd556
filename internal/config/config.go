// Package config loads mirage configuration from a YAML file with
// environment-variable overrides applied on top.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all mirage configuration.
type Config struct {
	Name string `yaml:"name"`

	// Oracle configures the completion service backing the terminal.
	Oracle OracleConfig `yaml:"oracle"`

	// Session configures the transcript and credential handling.
	Session SessionConfig `yaml:"session"`

	// UI configures the terminal window.
	UI UIConfig `yaml:"ui"`

	// Logging configures the categorized debug logs.
	Logging LoggingConfig `yaml:"logging"`
}

// OracleConfig configures the oracle client.
type OracleConfig struct {
	Provider string `yaml:"provider"` // anthropic, openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// SessionConfig configures session behavior.
type SessionConfig struct {
	// TranscriptWindow caps how many past exchanges are replayed per prompt.
	TranscriptWindow int `yaml:"transcript_window"`

	// CredentialMinLength is the local format check applied before any
	// network call is made with a candidate credential.
	CredentialMinLength int `yaml:"credential_min_length"`
}

// UIConfig configures the terminal window.
type UIConfig struct {
	WindowTitle  string `yaml:"window_title"`
	PromptSymbol string `yaml:"prompt_symbol"`
	Username     string `yaml:"username"`
	Hostname     string `yaml:"hostname"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Name: "mirage",
		Oracle: OracleConfig{
			Provider: "anthropic",
			Timeout:  "120s",
		},
		Session: SessionConfig{
			TranscriptWindow:    10,
			CredentialMinLength: 16,
		},
		UI: UIConfig{
			WindowTitle:  "mirage terminal",
			PromptSymbol: "%",
			Username:     "user",
			Hostname:     "mirage",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist, then applies environment overrides. A present-but-broken
// file is an error; silent fallback there would hide typos.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// defaults
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers MIRAGE_* environment variables over the loaded
// values. The API key override exists so the secret can be kept out of the
// config file entirely.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MIRAGE_PROVIDER"); v != "" {
		c.Oracle.Provider = v
	}
	if v := os.Getenv("MIRAGE_API_KEY"); v != "" {
		c.Oracle.APIKey = v
	}
	if v := os.Getenv("MIRAGE_MODEL"); v != "" {
		c.Oracle.Model = v
	}
	if v := os.Getenv("MIRAGE_BASE_URL"); v != "" {
		c.Oracle.BaseURL = v
	}
	if v := os.Getenv("MIRAGE_DEBUG"); v == "1" || v == "true" {
		c.Logging.DebugMode = true
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Session.TranscriptWindow <= 0 {
		return fmt.Errorf("session.transcript_window must be positive, got %d", c.Session.TranscriptWindow)
	}
	if c.Session.CredentialMinLength <= 0 {
		return fmt.Errorf("session.credential_min_length must be positive, got %d", c.Session.CredentialMinLength)
	}
	if _, err := c.OracleTimeout(); err != nil {
		return err
	}
	return nil
}

// OracleTimeout parses the oracle timeout string.
func (c *Config) OracleTimeout() (time.Duration, error) {
	if c.Oracle.Timeout == "" {
		return 120 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Oracle.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid oracle.timeout %q: %w", c.Oracle.Timeout, err)
	}
	return d, nil
}
