package llmadapters

// modelPricing holds USD prices per 1M tokens.
type modelPricing struct {
	Input  float64
	Output float64
}

// pricing maps provider -> model -> USD per 1M tokens. Models missing from
// the table cost zero; cost tracking is best effort, not billing.
var pricing = map[string]map[string]modelPricing{
	"openai": {
		"gpt-4o":        {Input: 2.50, Output: 10.00},
		"gpt-4o-mini":   {Input: 0.150, Output: 0.600},
		"gpt-4-turbo":   {Input: 10.00, Output: 30.00},
		"gpt-3.5-turbo": {Input: 0.50, Output: 1.50},
	},
	"anthropic": {
		"claude-3-5-sonnet-20241022": {Input: 3.00, Output: 15.00},
		"claude-3-5-haiku-20241022":  {Input: 0.80, Output: 4.00},
		"claude-3-opus-20240229":     {Input: 15.00, Output: 75.00},
		"claude-3-sonnet-20240229":   {Input: 3.00, Output: 15.00},
		"claude-3-haiku-20240307":    {Input: 0.25, Output: 1.25},
	},
	"mistral": {
		"mistral-large-latest":  {Input: 2.00, Output: 6.00},
		"mistral-medium-latest": {Input: 0.70, Output: 2.10},
		"mistral-small-latest":  {Input: 0.20, Output: 0.60},
		"open-mistral-7b":       {Input: 0.25, Output: 0.25},
		"open-mixtral-8x7b":     {Input: 0.70, Output: 0.70},
	},
	"together": {
		"meta-llama/Llama-3-70b-chat-hf":       {Input: 0.90, Output: 0.90},
		"meta-llama/Llama-3-8b-chat-hf":        {Input: 0.20, Output: 0.20},
		"mistralai/Mixtral-8x7B-Instruct-v0.1": {Input: 0.60, Output: 0.60},
		"mistralai/Mistral-7B-Instruct-v0.2":   {Input: 0.20, Output: 0.20},
	},
}

// Cost estimates the USD cost of a call from its token counts. Unknown
// provider/model combinations return 0.
func Cost(provider, model string, tokensIn, tokensOut int) float64 {
	models, ok := pricing[provider]
	if !ok {
		return 0
	}
	p, ok := models[model]
	if !ok {
		return 0
	}
	return float64(tokensIn)/1_000_000*p.Input + float64(tokensOut)/1_000_000*p.Output
}
