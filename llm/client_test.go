package llm

import (
	"context"
	"errors"
	"testing"
)

// mockAdapter records requests and replies with a fixed response or error.
type mockAdapter struct {
	name     string
	reply    string
	err      error
	requests []Request
	closed   bool
}

func newMockAdapter(name, reply string) *mockAdapter {
	return &mockAdapter{name: name, reply: reply}
}

func (m *mockAdapter) Name() string { return m.name }

func (m *mockAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &Response{
		Provider: m.name,
		Model:    req.Model,
		Message:  AssistantMessage(m.reply),
		Usage:    Usage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
	}, nil
}

func (m *mockAdapter) Close() error {
	m.closed = true
	return nil
}

func TestClientRouting(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		wantReply string
		wantModel string
	}{
		{"default provider", Request{Model: "gpt-4o-mini"}, "from openai", "gpt-4o-mini"},
		{"explicit provider", Request{Provider: "ollama", Model: "llama3"}, "from ollama", "llama3"},
		{"provider prefix", Request{Model: "Ollama/llama3"}, "from ollama", "llama3"},
		{"unregistered prefix is part of the model", Request{Model: "meta/llama"}, "from openai", "meta/llama"},
		{"explicit provider keeps slashes", Request{Provider: "ollama", Model: "library/llama3"}, "from ollama", "library/llama3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			openai := newMockAdapter("openai", "from openai")
			ollama := newMockAdapter("ollama", "from ollama")
			client := NewClient(
				WithProvider("openai", openai),
				WithProvider("ollama", ollama),
				WithDefaultProvider("openai"),
			)

			resp, err := client.Complete(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Text() != tt.wantReply {
				t.Errorf("expected %q, got %q", tt.wantReply, resp.Text())
			}
			if resp.Model != tt.wantModel {
				t.Errorf("expected model %q, got %q", tt.wantModel, resp.Model)
			}
		})
	}
}

func TestClientFillsProvider(t *testing.T) {
	mock := newMockAdapter("ollama", "hi")
	client := NewClient(WithProvider("ollama", mock))

	if _, err := client.Complete(context.Background(), Request{Messages: []Message{UserMessage("Hi")}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mock.requests[0].Provider; got != "ollama" {
		t.Errorf("expected the sole adapter to become the default, got provider %q", got)
	}
}

func TestClientConfigurationErrors(t *testing.T) {
	tests := map[string]*Client{
		"no providers":     NewClient(),
		"unknown provider": NewClient(WithProvider("openai", newMockAdapter("openai", "x")), WithDefaultProvider("nope")),
	}
	for name, client := range tests {
		_, err := client.Complete(context.Background(), Request{})
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s: expected ConfigurationError, got %v", name, err)
		}
	}
}

func TestClientMiddlewareOrder(t *testing.T) {
	var order []int
	trace := func(id int) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, req Request) (*Response, error) {
				order = append(order, id)
				resp, err := next(ctx, req)
				order = append(order, -id)
				return resp, err
			}
		}
	}

	client := NewClient(
		WithProvider("test", newMockAdapter("test", "ok")),
		WithMiddleware(trace(1), trace(2)),
	)
	if _, err := client.Complete(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{1, 2, -2, -1}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("expected %v, got %v", want, order)
			break
		}
	}
}

func TestClientRegisterProvider(t *testing.T) {
	client := NewClient()
	client.RegisterProvider("late", newMockAdapter("late", "registered late"))

	resp, err := client.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "registered late" {
		t.Errorf("unexpected reply %q", resp.Text())
	}
}

func TestClientClose(t *testing.T) {
	mock := newMockAdapter("test", "x")
	client := NewClient(WithProvider("test", mock), WithProvider("plain", &flakyAdapter{onCall: func() {}}))
	if err := client.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mock.closed {
		t.Error("expected adapter to be closed")
	}
}

func TestUsageAdd(t *testing.T) {
	got := Usage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}.Add(Usage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30})
	if got != (Usage{InputTokens: 11, OutputTokens: 22, TotalTokens: 33}) {
		t.Errorf("unexpected sum: %+v", got)
	}
}
