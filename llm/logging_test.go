package llm

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mock := newMockAdapter("ollama", "hi")
	client := NewClient(WithProvider("ollama", mock), WithMiddleware(LoggingMiddleware(logger)))
	if _, err := client.Complete(context.Background(), Request{Model: "llama3", Messages: []Message{UserMessage("Hi")}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"msg=completion", "provider=ollama", "model=llama3", "messages=1", "output_tokens=20"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in %q", want, buf.String())
		}
	}

	buf.Reset()
	mock.err = errors.New("boom")
	if _, err := client.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("expected a warning with the error, got %q", buf.String())
	}
}
