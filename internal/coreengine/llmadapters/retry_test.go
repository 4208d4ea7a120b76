package llmadapters

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestGenerateWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	adapter := &MockLLMAdapter{
		FailuresPerModel: map[string]int{"test-model": 2},
		FixedResponse:    "recovered",
	}

	resp, err := GenerateWithRetry(context.Background(), adapter, "test-model", "hello", GenerationParams{}, fastPolicy())
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content)
	assert.Equal(t, 3, adapter.CallCount("test-model"))
}

func TestGenerateWithRetryExhaustsAttempts(t *testing.T) {
	adapter := &MockLLMAdapter{
		FailuresPerModel: map[string]int{"test-model": 10},
	}

	_, err := GenerateWithRetry(context.Background(), adapter, "test-model", "hello", GenerationParams{}, fastPolicy())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.Equal(t, 3, adapter.CallCount("test-model"))
}

type permanentFailureAdapter struct{}

func (permanentFailureAdapter) Provider() string { return "broken" }

func (permanentFailureAdapter) Generate(ctx context.Context, model, prompt string, params GenerationParams) (*LLMResponse, error) {
	return nil, &ProviderError{Provider: "broken", StatusCode: 401, Message: "invalid key"}
}

func TestGenerateWithRetryStopsOnPermanentError(t *testing.T) {
	adapter := &MockLLMAdapter{}
	_, err := GenerateWithRetry(context.Background(), permanentFailureAdapter{}, "m", "p", GenerationParams{}, fastPolicy())
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 401, pe.StatusCode)
	assert.Zero(t, adapter.CallCount("m"))
}

// slowThenFastAdapter hangs until the call context expires on the first
// call, then succeeds immediately.
type slowThenFastAdapter struct {
	mu    sync.Mutex
	calls int
}

func (a *slowThenFastAdapter) Provider() string { return "slow" }

func (a *slowThenFastAdapter) Generate(ctx context.Context, model, prompt string, params GenerationParams) (*LLMResponse, error) {
	a.mu.Lock()
	a.calls++
	first := a.calls == 1
	a.mu.Unlock()

	if first {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &LLMResponse{Content: "second attempt answer"}, nil
}

func TestGenerateWithRetryTimesOutPerAttempt(t *testing.T) {
	adapter := &slowThenFastAdapter{}
	policy := fastPolicy()
	policy.AttemptTimeout = 20 * time.Millisecond

	resp, err := GenerateWithRetry(context.Background(), adapter, "m", "p", GenerationParams{}, policy)
	require.NoError(t, err)
	assert.Equal(t, "second attempt answer", resp.Content)
	assert.Equal(t, 2, adapter.calls)
}

func TestGenerateWithRetryHonorsCancellation(t *testing.T) {
	adapter := &MockLLMAdapter{
		FailuresPerModel: map[string]int{"test-model": 10},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GenerateWithRetry(ctx, adapter, "test-model", "hello", GenerationParams{}, fastPolicy())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffDelayStaysWithinBounds(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:     5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
	}

	for attempt := 1; attempt <= 5; attempt++ {
		for i := 0; i < 50; i++ {
			delay := policy.BackoffDelay(attempt)
			assert.GreaterOrEqual(t, delay, time.Duration(0))
			assert.LessOrEqual(t, delay, policy.MaxInterval)
		}
	}

	// The pre-jitter ceiling grows with the attempt number.
	assert.LessOrEqual(t, policy.BackoffDelay(1), 100*time.Millisecond)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	mock := &MockLLMAdapter{}
	registry.Register(mock)

	got, err := registry.Get("mock")
	require.NoError(t, err)
	assert.Same(t, LLMAdapter(mock), got)

	_, err = registry.Get("openai")
	assert.Error(t, err)

	assert.Equal(t, []string{"mock"}, registry.Providers())
}
