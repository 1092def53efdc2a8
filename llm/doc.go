// Package llm is the completion backend used by the recursive agent loop.
//
// It wraps the gollm library (github.com/teilomillet/gollm) behind a small
// provider-agnostic client: an ordered list of role-tagged messages goes in,
// one assistant message comes out. Tool calling and streaming are not part of
// this contract; the agent loop drives code execution itself.
//
// # Architecture
//
//   - ProviderAdapter: one backend (GollmAdapter for real providers, or any
//     test double).
//   - Client: routes a Request to a registered adapter and applies middleware
//     in onion order.
//   - RetryPolicy / RetryMiddleware: exponential backoff for retryable errors.
//   - LoggingMiddleware: one slog record per backend call.
//   - SDKError hierarchy: provider failures classified for retry decisions.
//
// # Quick Start
//
//	provider, model := llm.ParseModel("ollama/llama3")
//	adapter, err := llm.NewGollmAdapter(provider, "", llm.WithModel(model))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := llm.NewClient(
//	    llm.WithProvider(provider, adapter),
//	    llm.WithMiddleware(llm.RetryMiddleware(llm.DefaultRetryPolicy())),
//	)
//
//	resp, err := client.Complete(ctx, llm.Request{
//	    Model:    model,
//	    Messages: []llm.Message{llm.UserMessage("Hello")},
//	})
//	fmt.Println(resp.Text())
package llm
