package llmadapters

import (
	"context"
)

// GenerationParams carries per-call tuning knobs for a completion request.
// Zero values mean "use the provider default".
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
}

// LLMResponse is the normalized outcome of a single completion call,
// regardless of which vendor produced it.
type LLMResponse struct {
	Content   string
	TokensIn  int
	TokensOut int
	LatencyMs int64
}

// LLMAdapter defines the interface for chat-completion vendor services.
// Implementations must be safe for concurrent use: the scheduler calls
// Generate from many workers at once.
type LLMAdapter interface {
	// Provider returns the canonical provider name ("openai", "anthropic", ...).
	Provider() string

	// Generate sends a single-turn prompt to the given model and returns the
	// normalized response. Vendor failures are returned as *ProviderError so
	// callers can distinguish transient from permanent errors.
	Generate(ctx context.Context, model string, prompt string, params GenerationParams) (*LLMResponse, error)
}
