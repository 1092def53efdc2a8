package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rlm.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxIterations != 10 {
		t.Errorf("expected 10 iterations, got %d", cfg.MaxIterations)
	}
	if cfg.MaxDepth != 0 {
		t.Errorf("expected unlimited depth, got %d", cfg.MaxDepth)
	}
	if cfg.Model != "ollama/llama3" {
		t.Errorf("expected default model, got %q", cfg.Model)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
model: anthropic/claude-sonnet-4-5
max_iterations: 4
max_depth: 2
max_observation_chars: 2000
instructions: Be brief.
log_level: debug
log_format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "anthropic/claude-sonnet-4-5" || cfg.MaxIterations != 4 || cfg.MaxDepth != 2 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("expected unset fields to keep defaults, got max_retries=%d", cfg.MaxRetries)
	}
	if cfg.LogFormat != "json" || cfg.Instructions != "Be brief." {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "model: openai/gpt-4o\nmax_iterations: 4\n")
	t.Setenv("RLM_MODEL", "ollama/mistral")
	t.Setenv("RLM_MAX_ITERATIONS", "7")
	t.Setenv("RLM_MAX_DEPTH", "3")
	t.Setenv("RLM_LOG_LEVEL", "info")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "ollama/mistral" {
		t.Errorf("expected env model, got %q", cfg.Model)
	}
	if cfg.MaxIterations != 7 || cfg.MaxDepth != 3 {
		t.Errorf("expected env limits, got %d/%d", cfg.MaxIterations, cfg.MaxDepth)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected env log level, got %q", cfg.LogLevel)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
	if _, err := Load(writeConfig(t, "max_iterations: [nope")); err == nil {
		t.Error("expected error for malformed YAML")
	}

	t.Setenv("RLM_MAX_DEPTH", "deep")
	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "RLM_MAX_DEPTH") {
		t.Errorf("expected an error naming RLM_MAX_DEPTH, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.MaxIterations = 0
	cfg.MaxDepth = -1
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"max_iterations", "max_depth", "log_format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %v", want, err)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("expected defaults to be valid, got %v", err)
	}
}

func TestAgentConfig(t *testing.T) {
	cfg := Default()
	cfg.Model = "anthropic/claude-sonnet-4-5"
	cfg.MaxIterations = 5
	cfg.MaxDepth = 2
	cfg.MaxObservationChars = 100

	agentCfg := cfg.AgentConfig()
	if agentCfg.Provider != "anthropic" || agentCfg.Model != "claude-sonnet-4-5" {
		t.Errorf("expected split model id, got %q/%q", agentCfg.Provider, agentCfg.Model)
	}
	if agentCfg.MaxIterations != 5 || agentCfg.MaxDepth != 2 || agentCfg.MaxObservationChars != 100 {
		t.Errorf("unexpected agent config %+v", agentCfg)
	}
	if len(agentCfg.FenceTags) == 0 {
		t.Error("expected default fence tags")
	}
	if cfg.RetryPolicy().MaxRetries != 2 {
		t.Errorf("expected retry policy from config, got %d", cfg.RetryPolicy().MaxRetries)
	}
}
