package llmadapters

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// RetryPolicy controls how transient provider failures are retried.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// AttemptTimeout caps one provider call. Every attempt gets a fresh
	// timeout, so a timed-out call is retried like any transient failure.
	// Zero disables it.
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy is used by the scheduler and judge unless overridden.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
		AttemptTimeout:  60 * time.Second,
	}
}

// BackoffDelay computes the sleep before the given retry (attempt is 1-based:
// the delay after the attempt-th failure). Exponential growth capped at
// MaxInterval, with full jitter so concurrent workers do not retry in step.
func (p RetryPolicy) BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	interval := float64(p.InitialInterval)
	for i := 1; i < attempt; i++ {
		interval *= p.Multiplier
		if interval >= float64(p.MaxInterval) {
			interval = float64(p.MaxInterval)
			break
		}
	}
	if interval <= 0 {
		return 0
	}
	return time.Duration(rand.Float64() * interval)
}

// GenerateWithRetry calls adapter.Generate, retrying transient failures per
// the policy. Permanent errors and context cancellation abort immediately;
// the last error is returned once attempts are exhausted.
func GenerateWithRetry(ctx context.Context, adapter LLMAdapter, model, prompt string, params GenerationParams, policy RetryPolicy) (*LLMResponse, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if policy.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, policy.AttemptTimeout)
		}
		resp, err := adapter.Generate(attemptCtx, model, prompt, params)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// Caller cancellation ends the whole unit; an expired attempt
		// timeout does not.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsTransient(err) {
			return nil, err
		}
		if attempt == policy.MaxAttempts {
			break
		}

		delay := policy.BackoffDelay(attempt)
		log.Printf("Transient error from %s model %s (attempt %d/%d), retrying in %v: %v",
			adapter.Provider(), model, attempt, policy.MaxAttempts, delay, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("all %d attempts failed: %w", policy.MaxAttempts, lastErr)
}
