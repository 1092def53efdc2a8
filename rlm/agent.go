package rlm

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/martinemde/rlm/llm"
	"github.com/martinemde/rlm/sandbox"
)

// CapabilityName is the global under which an agent's delegation capability is
// bound in its sandbox.
const CapabilityName = "rlm"

// Backend produces the next assistant reply for a conversation.
type Backend interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// BackendFunc adapts a plain function to Backend.
type BackendFunc func(ctx context.Context, req llm.Request) (*llm.Response, error)

// Complete calls f.
func (f BackendFunc) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return f(ctx, req)
}

// Config holds configuration for an agent and every child it spawns.
type Config struct {
	Model               string   `json:"model"`
	Provider            string   `json:"provider,omitempty"`
	MaxIterations       int      `json:"max_iterations"`
	Temperature         float64  `json:"temperature"`
	MaxTokens           int      `json:"max_tokens,omitempty"` // 0 = backend default
	MaxDepth            int      `json:"max_depth"`            // 0 = unlimited
	FenceTags           []string `json:"fence_tags,omitempty"`
	MaxObservationChars int      `json:"max_observation_chars,omitempty"` // 0 = no truncation
	MaxObservationLines int      `json:"max_observation_lines,omitempty"` // 0 = no truncation
	Instructions        string   `json:"instructions,omitempty"`          // appended last to system prompt
	EventBuffer         int      `json:"event_buffer,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 10,
		Temperature:   0,
		MaxDepth:      0,
		FenceTags:     DefaultFenceTags,
		EventBuffer:   256,
	}
}

// Agent runs the iterate-until-answer loop against a backend.
type Agent struct {
	id      string
	depth   int
	backend Backend
	config  Config
	prompt  string
	fence   *regexp.Regexp
	sandbox *sandbox.Sandbox
	history []Turn
	emitter *EventEmitter
	isRoot  bool
	logger  *slog.Logger
	mu      sync.Mutex
	runMu   sync.Mutex
}

// New creates a root agent. A nil config means DefaultConfig; zero
// MaxIterations and empty FenceTags fall back to their defaults.
func New(backend Backend, config *Config) *Agent {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	if len(cfg.FenceTags) == 0 {
		cfg.FenceTags = DefaultFenceTags
	}

	a := newAgent(backend, cfg, 0, NewEventEmitter(cfg.EventBuffer), slog.Default())
	a.isRoot = true
	return a
}

func newAgent(backend Backend, cfg Config, depth int, emitter *EventEmitter, logger *slog.Logger) *Agent {
	a := &Agent{
		id:      uuid.New().String(),
		depth:   depth,
		backend: backend,
		config:  cfg,
		prompt:  BuildSystemPrompt(cfg),
		fence:   fencePattern(cfg.FenceTags),
		emitter: emitter,
		logger:  logger,
	}
	a.sandbox = sandbox.New(sandbox.Namespace{CapabilityName: a})
	return a
}

// SetLogger replaces the logger used by the agent and children spawned
// afterwards.
func (a *Agent) SetLogger(logger *slog.Logger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if logger == nil {
		logger = slog.Default()
	}
	a.logger = logger
}

// ID returns the agent identifier.
func (a *Agent) ID() string { return a.id }

// Depth returns the nesting depth; the root agent is at depth 0.
func (a *Agent) Depth() int { return a.depth }

// Config returns the agent configuration.
func (a *Agent) Config() Config { return a.config }

// History returns a copy of the most recent run's conversation history.
func (a *Agent) History() []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	h := make([]Turn, len(a.history))
	copy(h, a.history)
	return h
}

// Events returns the event channel shared with every child agent.
func (a *Agent) Events() <-chan Event {
	return a.emitter.Events()
}

// Close closes the event stream. Only the root agent owns it.
func (a *Agent) Close() {
	if a.isRoot {
		a.emitter.Close()
	}
}

// Completion runs task to a final answer or until the iteration budget is
// spent. Each call starts from a fresh history; the sandbox namespace carries
// over. Backend failures are returned wrapped and end the run.
func (a *Agent) Completion(ctx context.Context, task string) (*Result, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	logger := a.log()
	a.mu.Lock()
	a.history = []Turn{NewSystemTurn(a.prompt), NewUserTurn(task)}
	a.mu.Unlock()

	a.emit(EventTaskStart, map[string]interface{}{"task": task})
	logger.Debug("task started", "task", task, "max_iterations", a.config.MaxIterations)

	for i := 1; i <= a.config.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			a.emit(EventError, map[string]interface{}{"error": err.Error()})
			return nil, err
		}

		a.emit(EventIterationStart, map[string]interface{}{"iteration": i})
		logger.Debug("iteration started", "iteration", i)

		response, err := a.backend.Complete(ctx, a.request())
		if err != nil {
			logger.Warn("backend call failed", "iteration", i, "error", err)
			a.emit(EventError, map[string]interface{}{
				"iteration": i,
				"error":     err.Error(),
			})
			return nil, fmt.Errorf("backend error at iteration %d: %w", i, err)
		}

		content := response.Text()
		a.appendTurn(NewAssistantTurn(content))
		a.emit(EventAssistantResponse, map[string]interface{}{
			"iteration": i,
			"text":      content,
		})

		// A final answer ends the run even when the reply also carries code.
		if answer, ok := ParseFinalAnswer(content); ok {
			a.emit(EventFinalAnswer, map[string]interface{}{
				"iteration": i,
				"answer":    answer,
			})
			logger.Debug("final answer", "iteration", i)
			return &Result{Status: StatusAnswered, Answer: answer, Iterations: i}, nil
		}

		code, ok := extractWith(a.fence, content)
		if !ok {
			a.appendTurn(NewUserTurn(RepromptMessage))
			a.emit(EventReprompt, map[string]interface{}{"iteration": i})
			continue
		}

		a.emit(EventCodeExecution, map[string]interface{}{
			"iteration": i,
			"code":      code,
		})
		output, err := a.sandbox.Execute(ctx, code)
		if err != nil {
			logger.Warn("code execution aborted", "iteration", i, "error", err)
			a.emit(EventError, map[string]interface{}{
				"iteration": i,
				"error":     err.Error(),
			})
			return nil, fmt.Errorf("code execution aborted at iteration %d: %w", i, err)
		}

		// The event carries the full output; the history gets the truncated one.
		a.emit(EventObservation, map[string]interface{}{
			"iteration": i,
			"output":    output,
		})
		a.appendTurn(NewObservationTurn(TruncateObservation(output, a.config.MaxObservationChars, a.config.MaxObservationLines)))
	}

	a.emit(EventBudgetExhausted, map[string]interface{}{"iterations": a.config.MaxIterations})
	logger.Info("iteration budget exhausted", "iterations", a.config.MaxIterations)
	return &Result{Status: StatusExhausted, Iterations: a.config.MaxIterations}, nil
}

// Delegate runs task on a child agent with a fresh history and a fresh
// sandbox and returns the rendered result. It is the capability scripts reach
// as rlm.completion. A depth limit violation is returned as a *DepthError.
func (a *Agent) Delegate(ctx context.Context, task string) (string, error) {
	childDepth := a.depth + 1
	if a.config.MaxDepth > 0 && childDepth > a.config.MaxDepth {
		return "", &DepthError{Depth: childDepth, MaxDepth: a.config.MaxDepth}
	}

	a.mu.Lock()
	base := a.logger
	a.mu.Unlock()

	child := newAgent(a.backend, a.config, childDepth, a.emitter, base)
	a.emit(EventDelegation, map[string]interface{}{
		"task":     task,
		"child_id": child.id,
	})
	a.log().Debug("delegating sub-task", "child_id", child.id, "child_depth", childDepth)

	result, err := child.Completion(ctx, task)
	if err != nil {
		return "", fmt.Errorf("delegated completion failed: %w", err)
	}
	return result.String(), nil
}

func (a *Agent) request() llm.Request {
	req := llm.Request{
		Model:       a.config.Model,
		Provider:    a.config.Provider,
		Messages:    ConvertHistoryToMessages(a.History()),
		Temperature: llm.Float64(a.config.Temperature),
	}
	if a.config.MaxTokens > 0 {
		req.MaxTokens = llm.Int(a.config.MaxTokens)
	}
	return req
}

func (a *Agent) appendTurn(turn Turn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, turn)
}

func (a *Agent) emit(kind EventKind, data map[string]interface{}) {
	a.emitter.Emit(a.id, a.depth, kind, data)
}

func (a *Agent) log() *slog.Logger {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.logger.With("agent_id", a.id, "depth", a.depth)
}
