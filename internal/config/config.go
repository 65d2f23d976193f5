// Package config loads and validates the engine's JSON configuration:
// per-role generation parameters, run thresholds, backend and storage
// addresses, and the theme presets. Invalid configuration fails here, before
// any turn executes.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/chat"
	"github.com/jwebster45206/dialogue-engine/pkg/theme"
)

// RoleParams holds the backend model and sampling options for one role.
type RoleParams struct {
	Model  string                `json:"model"`
	Params chat.GenerationParams `json:"params"`
}

// Config is the full engine configuration. Loaded once; read-only afterward.
type Config struct {
	OllamaURL string `json:"ollama_url"`
	RedisURL  string `json:"redis_url,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`

	Narrator RoleParams `json:"narrator"`
	Critic   RoleParams `json:"critic"`

	// Generator drives theme-context generation for themes that have no
	// preset entry. Lower temperature than the dialogue roles: the output
	// is structured JSON, not prose.
	Generator RoleParams `json:"generator"`

	MaxTurns           int `json:"max_turns"`
	RetryBound         int `json:"retry_bound"`
	MinResolutionTurns int `json:"min_resolution_turns"`
	MaxContradictions  int `json:"max_contradictions"`

	Themes []theme.ThemeConfig `json:"themes"`

	Environment string     `json:"environment,omitempty"`
	LogLevel    slog.Level `json:"-"`

	// RawLogLevel is the string form from the file; parsed into LogLevel.
	RawLogLevel string `json:"log_level,omitempty"`
}

// Defaults applied where the file is silent.
const (
	DefaultOllamaURL          = "http://localhost:11434"
	DefaultModel              = "gemma3:4b"
	DefaultOutputDir          = "outputs"
	DefaultMaxTurns           = 8
	DefaultRetries            = 2
	DefaultMinResolutionTurns = 2
	DefaultMaxContradictions  = 3
)

// Load reads the config file at path, applies environment overrides and
// defaults, and validates. Theme entries are each validated so a bad theme
// fails at startup, not inside the generation loop.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		c.OllamaURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.RawLogLevel = v
	}
}

func (c *Config) applyDefaults() {
	if c.OllamaURL == "" {
		c.OllamaURL = DefaultOllamaURL
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.MaxTurns == 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.RetryBound == 0 {
		c.RetryBound = DefaultRetries
	}
	if c.MinResolutionTurns == 0 {
		c.MinResolutionTurns = DefaultMinResolutionTurns
	}
	if c.MaxContradictions == 0 {
		c.MaxContradictions = DefaultMaxContradictions
	}
	if c.Narrator.Model == "" {
		c.Narrator.Model = DefaultModel
	}
	if c.Critic.Model == "" {
		c.Critic.Model = DefaultModel
	}
	if c.Generator.Model == "" {
		c.Generator.Model = DefaultModel
	}
	if c.Narrator.Params == (chat.GenerationParams{}) {
		c.Narrator.Params = chat.GenerationParams{Temperature: 0.7, MaxTokens: 100, TopP: 0.9, RepeatPenalty: 1.1}
	}
	if c.Critic.Params == (chat.GenerationParams{}) {
		c.Critic.Params = chat.GenerationParams{Temperature: 0.6, MaxTokens: 40, TopP: 0.85, RepeatPenalty: 1.2}
	}
	if c.Generator.Params == (chat.GenerationParams{}) {
		c.Generator.Params = chat.GenerationParams{Temperature: 0.3, MaxTokens: 500, TopP: 0.9, RepeatPenalty: 1.1}
	}
	c.LogLevel = parseLogLevel(c.RawLogLevel)
}

// Validate checks the loaded configuration. Errors here are configuration
// errors per the engine's taxonomy: fatal and surfaced before any run.
func (c *Config) Validate() error {
	if c.MaxTurns < 1 {
		return fmt.Errorf("max_turns must be at least 1, got %d", c.MaxTurns)
	}
	if c.RetryBound < 0 {
		return fmt.Errorf("retry_bound must not be negative, got %d", c.RetryBound)
	}
	if c.MinResolutionTurns < 1 {
		return fmt.Errorf("min_resolution_turns must be at least 1, got %d", c.MinResolutionTurns)
	}
	if c.MaxContradictions < 1 {
		return fmt.Errorf("max_contradictions must be at least 1, got %d", c.MaxContradictions)
	}
	if err := c.Narrator.Params.Validate(); err != nil {
		return fmt.Errorf("narrator params: %w", err)
	}
	if err := c.Critic.Params.Validate(); err != nil {
		return fmt.Errorf("critic params: %w", err)
	}
	if err := c.Generator.Params.Validate(); err != nil {
		return fmt.Errorf("generator params: %w", err)
	}
	for i := range c.Themes {
		if err := c.Themes[i].Validate(); err != nil {
			return fmt.Errorf("theme %d: %w", i, err)
		}
	}
	return nil
}

// Theme returns the configured theme with the given name.
func (c *Config) Theme(name string) (*theme.ThemeConfig, error) {
	for i := range c.Themes {
		if c.Themes[i].Name == name {
			return &c.Themes[i], nil
		}
	}
	return nil, fmt.Errorf("theme %q not found in config", name)
}

// ParamsFor returns the role parameters for a generation call.
func (c *Config) ParamsFor(role string) RoleParams {
	if role == "critic" {
		return c.Critic
	}
	return c.Narrator
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
