// Package config provides configuration loading for the rlm command.
//
// Values come from three layers, later ones winning: built-in defaults, an
// optional YAML file, then RLM_* environment variables. The command loads a
// .env file into the environment before calling Load.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/martinemde/rlm/llm"
	"github.com/martinemde/rlm/rlm"
)

// Config is the configuration of the rlm command.
type Config struct {
	// Model is a "provider/model" identifier, e.g. "ollama/llama3". A bare
	// model name uses the openai provider.
	Model string `yaml:"model"`

	// MaxIterations is the per-run iteration budget.
	MaxIterations int `yaml:"max_iterations"`

	// MaxDepth limits delegation nesting. 0 means unlimited.
	MaxDepth int `yaml:"max_depth"`

	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	// MaxRetries is the number of retries for retryable backend errors.
	MaxRetries int `yaml:"max_retries"`

	// MaxObservationChars truncates long observations. 0 disables it.
	MaxObservationChars int `yaml:"max_observation_chars"`

	// Instructions are appended to the system prompt.
	Instructions string `yaml:"instructions"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model:         "ollama/llama3",
		MaxIterations: 10,
		MaxDepth:      0,
		Temperature:   0,
		MaxRetries:    2,
		LogLevel:      "warn",
		LogFormat:     "text",
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Model = getEnv("RLM_MODEL", c.Model)
	c.LogLevel = getEnv("RLM_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("RLM_LOG_FORMAT", c.LogFormat)

	var err error
	if c.MaxIterations, err = getEnvInt("RLM_MAX_ITERATIONS", c.MaxIterations); err != nil {
		return err
	}
	if c.MaxDepth, err = getEnvInt("RLM_MAX_DEPTH", c.MaxDepth); err != nil {
		return err
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model cannot be empty"))
	}
	if c.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("max_iterations must be > 0, got %d", c.MaxIterations))
	}
	if c.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries))
	}
	if c.MaxObservationChars < 0 {
		errs = append(errs, fmt.Errorf("max_observation_chars must be >= 0, got %d", c.MaxObservationChars))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// AgentConfig maps the configuration onto an agent configuration.
func (c Config) AgentConfig() rlm.Config {
	provider, model := llm.ParseModel(c.Model)
	cfg := rlm.DefaultConfig()
	cfg.Model = model
	cfg.Provider = provider
	cfg.MaxIterations = c.MaxIterations
	cfg.MaxDepth = c.MaxDepth
	cfg.Temperature = c.Temperature
	cfg.MaxTokens = c.MaxTokens
	cfg.MaxObservationChars = c.MaxObservationChars
	cfg.Instructions = c.Instructions
	return cfg
}

// RetryPolicy returns the backend retry policy.
func (c Config) RetryPolicy() llm.RetryPolicy {
	policy := llm.DefaultRetryPolicy()
	policy.MaxRetries = c.MaxRetries
	return policy
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
