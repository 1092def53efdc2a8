package llm

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy configures exponential backoff for retryable backend errors.
type RetryPolicy struct {
	MaxRetries        int     // retries after the first attempt
	BaseDelay         float64 // seconds
	MaxDelay          float64 // seconds
	BackoffMultiplier float64
	Jitter            bool // scale each delay by a random factor in [0.5, 1.5)
	OnRetry           func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns two retries starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         1.0,
		MaxDelay:          60.0,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// Delay returns the backoff before retry number attempt, counting from 0.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	seconds := math.Min(p.BaseDelay*math.Pow(p.BackoffMultiplier, float64(attempt)), p.MaxDelay)
	if p.Jitter {
		seconds *= 0.5 + rand.Float64()
	}
	return seconds2duration(seconds)
}

// wait returns how long to sleep before retrying err. A Retry-After hint from
// the provider replaces the computed backoff; ok is false when that hint is
// longer than MaxDelay.
func (p RetryPolicy) wait(err error, attempt int) (delay time.Duration, ok bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter != nil {
		hint := seconds2duration(*rl.RetryAfter)
		return hint, hint <= seconds2duration(p.MaxDelay)
	}
	return p.Delay(attempt), true
}

// Retry calls fn until it succeeds, returns a non-retryable error or the
// policy runs out of retries. Cancelling ctx during a backoff returns an
// *AbortError.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if attempt >= policy.MaxRetries || !IsRetryable(err) {
			return zero, err
		}

		delay, ok := policy.wait(err, attempt)
		if !ok {
			return zero, err
		}
		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt+1, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, &AbortError{SDKError: SDKError{Message: "request cancelled during retry", Cause: ctx.Err()}}
		case <-timer.C:
		}
	}
}

// RetryMiddleware retries the rest of the chain according to policy.
func RetryMiddleware(policy RetryPolicy) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req Request) (*Response, error) {
			return Retry(ctx, policy, func(ctx context.Context) (*Response, error) {
				return next(ctx, req)
			})
		}
	}
}

func seconds2duration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
