package llmadapters

import (
	"context"
	"errors"
	"time"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
)

// ArkAdapter drives Volcengine Ark chat-completion endpoints (Doubao models).
type ArkAdapter struct {
	client *arkruntime.Client
}

// NewArkAdapter builds an adapter authenticated with the given API key.
func NewArkAdapter(apiKey string) *ArkAdapter {
	return &ArkAdapter{
		client: arkruntime.NewClientWithApiKey(apiKey),
	}
}

func (a *ArkAdapter) Provider() string {
	return "ark"
}

func (a *ArkAdapter) Generate(ctx context.Context, model string, prompt string, params GenerationParams) (*LLMResponse, error) {
	req := arkmodel.CreateChatCompletionRequest{
		Model: model,
		Messages: []*arkmodel.ChatCompletionMessage{
			{
				Role: arkmodel.ChatMessageRoleUser,
				Content: &arkmodel.ChatCompletionMessageContent{
					StringValue: volcengine.String(prompt),
				},
			},
		},
	}
	if params.Temperature > 0 {
		req.Temperature = volcengine.Float32(float32(params.Temperature))
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = volcengine.Int(params.MaxTokens)
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		var apiErr *arkmodel.APIError
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{Provider: a.Provider(), StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		var reqErr *arkmodel.RequestError
		if errors.As(err, &reqErr) {
			return nil, &ProviderError{Provider: a.Provider(), StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
		}
		return nil, &ProviderError{Provider: a.Provider(), Message: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: a.Provider(), Message: "empty choices in completion response"}
	}

	content := ""
	if resp.Choices[0].Message.Content != nil && resp.Choices[0].Message.Content.StringValue != nil {
		content = *resp.Choices[0].Message.Content.StringValue
	}

	return &LLMResponse{
		Content:   content,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
		LatencyMs: latency,
	}, nil
}
