package llm

import (
	"errors"
	"testing"
)

func TestGollmAdapterTranslateError(t *testing.T) {
	adapter := &GollmAdapter{provider: "openai"}

	tests := []struct {
		msg   string
		check func(error) bool
	}{
		{"401 Unauthorized", func(err error) bool { var e *AuthenticationError; return errors.As(err, &e) }},
		{"invalid api key", func(err error) bool { var e *AuthenticationError; return errors.As(err, &e) }},
		{"403 Forbidden", func(err error) bool { var e *AccessDeniedError; return errors.As(err, &e) }},
		{"404 not found", func(err error) bool { var e *NotFoundError; return errors.As(err, &e) }},
		{"429 rate limit exceeded", func(err error) bool { var e *RateLimitError; return errors.As(err, &e) }},
		{"context length exceeded", func(err error) bool { var e *ContextLengthError; return errors.As(err, &e) }},
		{"500 internal server error", func(err error) bool { var e *ServerError; return errors.As(err, &e) }},
		{"dial tcp 127.0.0.1:11434: connection refused", func(err error) bool { var e *NetworkError; return errors.As(err, &e) }},
		{"timeout waiting for response", func(err error) bool { var e *RequestTimeoutError; return errors.As(err, &e) }},
		{"content filter triggered", func(err error) bool { var e *ContentFilterError; return errors.As(err, &e) }},
		{"something unknown", func(err error) bool { var e *ProviderError; return errors.As(err, &e) && e.Retryable }},
	}

	for _, tt := range tests {
		err := adapter.translateError(errors.New(tt.msg))
		if err == nil {
			t.Errorf("expected non-nil error for %q", tt.msg)
			continue
		}
		if !tt.check(err) {
			t.Errorf("for %q: unexpected classification %T", tt.msg, err)
		}
	}

	if adapter.translateError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestGollmAdapterBuildResponse(t *testing.T) {
	adapter := &GollmAdapter{provider: "ollama", model: "llama3"}
	resp := adapter.buildResponse(Request{Messages: []Message{UserMessage("What is 2+2?")}}, "Final Answer: 4")

	if resp.Text() != "Final Answer: 4" {
		t.Errorf("unexpected text %q", resp.Text())
	}
	if resp.Message.Role != RoleAssistant {
		t.Errorf("expected assistant role, got %q", resp.Message.Role)
	}
	if resp.Model != "llama3" {
		t.Errorf("expected adapter model fallback, got %q", resp.Model)
	}
	if resp.Provider != "ollama" {
		t.Errorf("expected provider ollama, got %q", resp.Provider)
	}
	if resp.Usage.TotalTokens != resp.Usage.InputTokens+resp.Usage.OutputTokens {
		t.Errorf("inconsistent usage %+v", resp.Usage)
	}
}

func TestRenderTranscript(t *testing.T) {
	system, transcript := renderTranscript([]Message{
		SystemMessage("You are an RLM."),
		UserMessage("What is 2+2?"),
		AssistantMessage("```js\nprint(2+2)\n```"),
		UserMessage("Observation:\n4\n"),
	})
	if system != "You are an RLM." {
		t.Errorf("unexpected system prompt %q", system)
	}
	want := "What is 2+2?\n\n[Assistant]: ```js\nprint(2+2)\n```\n\nObservation:\n4\n"
	if transcript != want {
		t.Errorf("expected transcript %q, got %q", want, transcript)
	}

	if _, transcript := renderTranscript(nil); transcript != "Hello" {
		t.Errorf("expected placeholder prompt, got %q", transcript)
	}
}

func TestEstimateTokens(t *testing.T) {
	req := Request{Messages: []Message{UserMessage("Hello world, this is a test message.")}}
	if tokens := estimateTokens(req); tokens <= 0 {
		t.Errorf("expected positive token estimate, got %d", tokens)
	}
	if tokens := estimateTokens(Request{}); tokens != 10 {
		t.Errorf("expected default token estimate of 10, got %d", tokens)
	}
}

func TestParseModel(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		model    string
	}{
		{"ollama/llama3", "ollama", "llama3"},
		{"Anthropic/claude-sonnet-4-5", "anthropic", "claude-sonnet-4-5"},
		{"gpt-4o", DefaultProvider, "gpt-4o"},
		{"openrouter/meta/llama", "openrouter", "meta/llama"},
		{" /gpt-4o ", DefaultProvider, "gpt-4o"},
	}
	for _, tt := range tests {
		provider, model := ParseModel(tt.in)
		if provider != tt.provider || model != tt.model {
			t.Errorf("ParseModel(%q) = (%q, %q), want (%q, %q)", tt.in, provider, model, tt.provider, tt.model)
		}
	}
}

func TestDefaultModelFor(t *testing.T) {
	if got := defaultModelFor("ollama"); got != "llama3" {
		t.Errorf("expected llama3, got %q", got)
	}
	if got := defaultModelFor("unknown"); got == "" {
		t.Error("expected a fallback model")
	}
}
