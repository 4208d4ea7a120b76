package llmadapters

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIAdapter drives OpenAI chat-completion models.
type OpenAIAdapter struct {
	client openai.Client
}

// NewOpenAIAdapter builds an adapter authenticated with the given API key.
func NewOpenAIAdapter(apiKey string) *OpenAIAdapter {
	return &OpenAIAdapter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (a *OpenAIAdapter) Provider() string {
	return "openai"
}

func (a *OpenAIAdapter) Generate(ctx context.Context, model string, prompt string, params GenerationParams) (*LLMResponse, error) {
	req := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if params.Temperature > 0 {
		req.Temperature = openai.Float(params.Temperature)
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = openai.Int(int64(params.MaxTokens))
	}

	start := time.Now()
	completion, err := a.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{Provider: a.Provider(), StatusCode: apiErr.StatusCode, Message: apiErr.Message}
		}
		return nil, &ProviderError{Provider: a.Provider(), Message: err.Error()}
	}
	if len(completion.Choices) == 0 {
		return nil, &ProviderError{Provider: a.Provider(), Message: "empty choices in completion response"}
	}

	return &LLMResponse{
		Content:   completion.Choices[0].Message.Content,
		TokensIn:  int(completion.Usage.PromptTokens),
		TokensOut: int(completion.Usage.CompletionTokens),
		LatencyMs: latency,
	}, nil
}
