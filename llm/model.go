package llm

import "strings"

// DefaultProvider is used when a model name carries no provider prefix.
const DefaultProvider = "openai"

// ParseModel splits a "provider/model" identifier such as "ollama/llama3"
// into its provider and model parts. A bare model name gets DefaultProvider.
// Only the first slash separates, so "openrouter/meta/llama" keeps
// "meta/llama" as the model.
func ParseModel(id string) (provider, model string) {
	id = strings.TrimSpace(id)
	provider, model, ok := strings.Cut(id, "/")
	if !ok || provider == "" {
		return DefaultProvider, strings.TrimPrefix(id, "/")
	}
	return strings.ToLower(provider), model
}

// defaultModelFor returns the fallback model for a provider when none is
// configured.
func defaultModelFor(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-sonnet-4-5-20250514"
	case "ollama":
		return "llama3"
	case "groq":
		return "llama-3.3-70b-versatile"
	case "mistral":
		return "mistral-large-latest"
	default:
		return "gpt-4o-mini"
	}
}
