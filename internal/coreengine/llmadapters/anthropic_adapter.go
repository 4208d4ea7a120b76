package llmadapters

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicDefaultMaxTokens = 1024

// AnthropicAdapter drives Anthropic Claude models via the Messages API.
type AnthropicAdapter struct {
	client anthropic.Client
}

// NewAnthropicAdapter builds an adapter authenticated with the given API key.
func NewAnthropicAdapter(apiKey string) *AnthropicAdapter {
	return &AnthropicAdapter{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (a *AnthropicAdapter) Provider() string {
	return "anthropic"
}

func (a *AnthropicAdapter) Generate(ctx context.Context, model string, prompt string, params GenerationParams) (*LLMResponse, error) {
	maxTokens := int64(params.MaxTokens)
	if maxTokens <= 0 {
		// The Messages API requires an explicit token ceiling.
		maxTokens = anthropicDefaultMaxTokens
	}
	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if params.Temperature > 0 {
		req.Temperature = anthropic.Float(params.Temperature)
	}

	start := time.Now()
	message, err := a.client.Messages.New(ctx, req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{Provider: a.Provider(), StatusCode: apiErr.StatusCode, Message: err.Error()}
		}
		return nil, &ProviderError{Provider: a.Provider(), Message: err.Error()}
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return &LLMResponse{
		Content:   sb.String(),
		TokensIn:  int(message.Usage.InputTokens),
		TokensOut: int(message.Usage.OutputTokens),
		LatencyMs: latency,
	}, nil
}
