package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/teilomillet/gollm"
)

// GollmAdapter serves completions through a gollm.LLM. gollm takes a single
// prompt rather than a message list, so the conversation is rendered as a
// labelled transcript under the system prompt.
type GollmAdapter struct {
	provider string
	model    string

	// mu serializes per-request option changes on the shared gollm instance.
	mu  sync.Mutex
	llm gollm.LLM
}

// GollmAdapterOption configures a GollmAdapter.
type GollmAdapterOption func(*gollmSettings)

type gollmSettings struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	extra       []gollm.ConfigOption
}

// WithAPIKey sets the provider API key. Without it gollm reads the
// provider's usual environment variable.
func WithAPIKey(key string) GollmAdapterOption {
	return func(s *gollmSettings) { s.apiKey = key }
}

// WithModel sets the model used when a request names none.
func WithModel(model string) GollmAdapterOption {
	return func(s *gollmSettings) { s.model = model }
}

// WithMaxTokens sets the default completion length.
func WithMaxTokens(n int) GollmAdapterOption {
	return func(s *gollmSettings) { s.maxTokens = n }
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(t float64) GollmAdapterOption {
	return func(s *gollmSettings) { s.temperature = t }
}

// WithGollmOptions passes extra options straight to gollm.NewLLM.
func WithGollmOptions(opts ...gollm.ConfigOption) GollmAdapterOption {
	return func(s *gollmSettings) { s.extra = append(s.extra, opts...) }
}

// NewGollmAdapter builds a gollm client for provider.
func NewGollmAdapter(provider string, apiKey string, opts ...GollmAdapterOption) (*GollmAdapter, error) {
	settings := gollmSettings{apiKey: apiKey, maxTokens: 4096}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.model == "" {
		settings.model = defaultModelFor(provider)
	}

	config := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(settings.model),
		gollm.SetMaxTokens(settings.maxTokens),
		gollm.SetTemperature(settings.temperature),
		gollm.SetMaxRetries(0), // RetryMiddleware owns retries.
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if settings.apiKey != "" {
		config = append(config, gollm.SetAPIKey(settings.apiKey))
	}
	config = append(config, settings.extra...)

	client, err := gollm.NewLLM(config...)
	if err != nil {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: fmt.Sprintf("creating %s client", provider),
			Cause:   err,
		}}
	}
	return &GollmAdapter{provider: provider, model: settings.model, llm: client}, nil
}

// NewGollmAdapterFromLLM wraps an already configured gollm.LLM.
func NewGollmAdapterFromLLM(provider string, client gollm.LLM) *GollmAdapter {
	return &GollmAdapter{provider: provider, llm: client}
}

// Name returns the provider identifier.
func (a *GollmAdapter) Name() string {
	return a.provider
}

// Complete renders the conversation and asks the provider for the next reply.
func (a *GollmAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	system, transcript := renderTranscript(req.Messages)

	var promptOpts []gollm.PromptOption
	if system != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(system, gollm.CacheTypeEphemeral))
	}
	if req.MaxTokens != nil {
		promptOpts = append(promptOpts, gollm.WithMaxLength(*req.MaxTokens))
	}
	prompt := gollm.NewPrompt(transcript, promptOpts...)

	a.mu.Lock()
	if req.Model != "" {
		a.llm.SetOption("model", req.Model)
	}
	if req.Temperature != nil {
		a.llm.SetOption("temperature", *req.Temperature)
	}
	if req.MaxTokens != nil {
		a.llm.SetOption("max_tokens", *req.MaxTokens)
	}
	text, err := a.llm.Generate(ctx, prompt)
	a.mu.Unlock()

	if err != nil {
		return nil, a.translateError(err)
	}
	return a.buildResponse(req, text), nil
}

// renderTranscript joins system messages into one system prompt and lays out
// the remaining turns in order. Replies the model gave earlier are labelled so
// it can tell them apart from observations and re-prompts.
func renderTranscript(messages []Message) (system, transcript string) {
	var head, body []string
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			head = append(head, msg.Content)
		case RoleAssistant:
			if msg.Content != "" {
				body = append(body, "[Assistant]: "+msg.Content)
			}
		default:
			body = append(body, msg.Content)
		}
	}
	transcript = strings.Join(body, "\n\n")
	if transcript == "" {
		transcript = "Hello"
	}
	return strings.TrimSpace(strings.Join(head, "\n")), transcript
}

func (a *GollmAdapter) buildResponse(req Request, text string) *Response {
	model := req.Model
	if model == "" {
		model = a.model
	}

	// gollm does not report usage.
	in, out := estimateTokens(req), len(text)/4
	return &Response{
		ID:           "resp_" + uuid.NewString()[:8],
		Model:        model,
		Provider:     a.provider,
		Message:      AssistantMessage(text),
		FinishReason: FinishReason{Reason: "stop", Raw: "stop"},
		Usage:        Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
	}
}

// errorRule maps gollm error text onto the error hierarchy. gollm only
// reports failures as formatted strings.
type errorRule struct {
	needles []string
	status  int
	build   func(ProviderError) error
}

var errorRules = []errorRule{
	{[]string{"401", "unauthorized", "invalid api key"}, 401, func(pe ProviderError) error { return &AuthenticationError{ProviderError: pe} }},
	{[]string{"403", "forbidden"}, 403, func(pe ProviderError) error { return &AccessDeniedError{ProviderError: pe} }},
	{[]string{"404", "not found"}, 404, func(pe ProviderError) error { return &NotFoundError{ProviderError: pe} }},
	{[]string{"429", "rate limit"}, 429, func(pe ProviderError) error {
		pe.Retryable = true
		return &RateLimitError{ProviderError: pe}
	}},
	{[]string{"context length", "too many tokens"}, 413, func(pe ProviderError) error { return &ContextLengthError{ProviderError: pe} }},
	{[]string{"500", "internal server"}, 500, func(pe ProviderError) error {
		pe.Retryable = true
		return &ServerError{ProviderError: pe}
	}},
	{[]string{"connection refused", "no such host"}, 0, func(pe ProviderError) error { return &NetworkError{SDKError: pe.SDKError} }},
	{[]string{"timeout"}, 0, func(pe ProviderError) error { return &RequestTimeoutError{SDKError: pe.SDKError} }},
	{[]string{"content filter", "safety"}, 0, func(pe ProviderError) error { return &ContentFilterError{ProviderError: pe} }},
}

func (a *GollmAdapter) translateError(err error) error {
	if err == nil {
		return nil
	}
	text := strings.ToLower(err.Error())
	pe := ProviderError{SDKError: SDKError{Message: err.Error(), Cause: err}, Provider: a.provider}

	for _, rule := range errorRules {
		for _, needle := range rule.needles {
			if strings.Contains(text, needle) {
				pe.StatusCode = rule.status
				return rule.build(pe)
			}
		}
	}
	pe.Retryable = true
	return &pe
}

// estimateTokens approximates prompt size at four characters per token.
func estimateTokens(req Request) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	if total == 0 {
		return 10
	}
	return total
}
