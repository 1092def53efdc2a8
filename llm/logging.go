package llm

import (
	"context"
	"log/slog"
	"time"
)

// LoggingMiddleware logs every backend call at Debug and failures at Warn.
// Retries show up as separate calls when it is registered after
// RetryMiddleware.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, req Request) (*Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			attrs := []any{
				"provider", req.Provider,
				"model", req.Model,
				"messages", len(req.Messages),
				"duration", time.Since(start),
			}
			if err != nil {
				logger.WarnContext(ctx, "completion failed", append(attrs, "error", err)...)
				return nil, err
			}
			logger.DebugContext(ctx, "completion", append(attrs, "output_tokens", resp.Usage.OutputTokens)...)
			return resp, nil
		}
	}
}
