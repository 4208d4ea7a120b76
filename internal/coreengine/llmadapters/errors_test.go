package llmadapters

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"rate limited", &ProviderError{Provider: "openai", StatusCode: 429, Message: "rate limit"}, true},
		{"request timeout", &ProviderError{Provider: "openai", StatusCode: 408, Message: "timeout"}, true},
		{"server error", &ProviderError{Provider: "anthropic", StatusCode: 500, Message: "internal"}, true},
		{"overloaded", &ProviderError{Provider: "anthropic", StatusCode: 529, Message: "overloaded"}, true},
		{"no response", &ProviderError{Provider: "ark", Message: "connection refused"}, true},
		{"bad request", &ProviderError{Provider: "openai", StatusCode: 400, Message: "bad prompt"}, false},
		{"unauthorized", &ProviderError{Provider: "openai", StatusCode: 401, Message: "bad key"}, false},
		{"not found", &ProviderError{Provider: "openai", StatusCode: 404, Message: "no such model"}, false},
		{"wrapped provider error", fmt.Errorf("unit failed: %w", &ProviderError{Provider: "openai", StatusCode: 503}), true},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"plain error", errors.New("something else"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, IsTransient(tt.err))
		})
	}
}

func TestProviderErrorMessage(t *testing.T) {
	withStatus := &ProviderError{Provider: "openai", StatusCode: 429, Message: "slow down"}
	assert.Equal(t, "openai API error (status 429): slow down", withStatus.Error())

	withoutStatus := &ProviderError{Provider: "ark", Message: "dial tcp: connection refused"}
	assert.Equal(t, "ark API error: dial tcp: connection refused", withoutStatus.Error())
}

func TestCost(t *testing.T) {
	// 1M input tokens of gpt-4o-mini cost $0.15.
	assert.InDelta(t, 0.15, Cost("openai", "gpt-4o-mini", 1_000_000, 0), 1e-9)
	assert.InDelta(t, 0.60, Cost("openai", "gpt-4o-mini", 0, 1_000_000), 1e-9)
	assert.InDelta(t, 0.0009, Cost("anthropic", "claude-3-5-sonnet-20241022", 100, 40), 1e-9)

	assert.Zero(t, Cost("openai", "unknown-model", 1000, 1000))
	assert.Zero(t, Cost("unknown-provider", "gpt-4o", 1000, 1000))
}
