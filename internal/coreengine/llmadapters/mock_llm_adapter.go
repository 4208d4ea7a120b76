package llmadapters

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MockLLMAdapter is a deterministic in-process adapter for development and
// tests. It echoes a canned answer derived from the prompt and can be
// programmed to fail a fixed number of times per model to exercise retries.
type MockLLMAdapter struct {
	mu sync.Mutex

	// Delay is added to every call to simulate provider latency.
	Delay time.Duration

	// FailuresPerModel makes the first N calls for a model return a
	// transient ProviderError before succeeding.
	FailuresPerModel map[string]int

	// FixedResponse, when set, is returned verbatim instead of the echo.
	FixedResponse string

	calls map[string]int
}

func (a *MockLLMAdapter) Provider() string {
	return "mock"
}

func (a *MockLLMAdapter) Generate(ctx context.Context, model string, prompt string, params GenerationParams) (*LLMResponse, error) {
	if a.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.Delay):
		}
	}

	a.mu.Lock()
	if a.calls == nil {
		a.calls = map[string]int{}
	}
	a.calls[model]++
	call := a.calls[model]
	remaining := a.FailuresPerModel[model]
	a.mu.Unlock()

	if call <= remaining {
		return nil, &ProviderError{Provider: a.Provider(), StatusCode: 503, Message: "mock transient failure"}
	}

	content := a.FixedResponse
	if content == "" {
		content = fmt.Sprintf("Mock answer from %s: %s", model, firstLine(prompt))
	}
	return &LLMResponse{
		Content:   content,
		TokensIn:  len(strings.Fields(prompt)),
		TokensOut: len(strings.Fields(content)),
		LatencyMs: a.Delay.Milliseconds(),
	}, nil
}

// CallCount reports how many times a model was invoked.
func (a *MockLLMAdapter) CallCount(model string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[model]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
