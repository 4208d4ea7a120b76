package judgeengine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-compare-platform/backend/internal/coreengine/llmadapters"
)

// scriptedAdapter returns canned responses in order, recording each prompt.
type scriptedAdapter struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
}

func (a *scriptedAdapter) Provider() string { return "scripted" }

func (a *scriptedAdapter) Generate(ctx context.Context, model, prompt string, params llmadapters.GenerationParams) (*llmadapters.LLMResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := len(a.prompts)
	a.prompts = append(a.prompts, prompt)
	if idx < len(a.errs) && a.errs[idx] != nil {
		return nil, a.errs[idx]
	}
	content := ""
	if idx < len(a.responses) {
		content = a.responses[idx]
	}
	return &llmadapters.LLMResponse{Content: content}, nil
}

func fastJudge(adapter llmadapters.LLMAdapter) *Judge {
	j := NewJudge(adapter, "judge-model")
	j.Policy = llmadapters.RetryPolicy{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1}
	return j
}

const validRubricJSON = `{
	"accuracy": {"score": 0.9, "explanation": "matches the expected answer"},
	"faithfulness": {"score": 0.8, "explanation": "grounded in context"},
	"reasoning": {"score": 0.7, "explanation": "coherent"},
	"context_utilization": {"score": 0.6, "explanation": "uses the passage"}
}`

func TestScoreAnswerParsesVerdict(t *testing.T) {
	adapter := &scriptedAdapter{responses: []string{validRubricJSON}}
	judge := fastJudge(adapter)

	result, err := judge.ScoreAnswer(context.Background(), "What is Go?", "Go is a language.", "A language.", "Go is a programming language.")
	require.NoError(t, err)
	require.True(t, result.Parsed)
	assert.InDelta(t, 0.9, result.Accuracy.Score, 1e-9)
	assert.InDelta(t, 0.8, result.Faithfulness.Score, 1e-9)
	assert.InDelta(t, 0.7, result.Reasoning.Score, 1e-9)
	assert.InDelta(t, 0.6, result.ContextUtilization.Score, 1e-9)
	assert.Equal(t, "matches the expected answer", result.Accuracy.Explanation)

	require.Len(t, adapter.prompts, 1)
	assert.Contains(t, adapter.prompts[0], "What is Go?")
	assert.Contains(t, adapter.prompts[0], "Context/Retrieved Information:")
	assert.Contains(t, adapter.prompts[0], "Expected Answer (for reference):")
}

func TestScoreAnswerClampsOutOfRangeScores(t *testing.T) {
	adapter := &scriptedAdapter{responses: []string{`{
		"accuracy": {"score": 1.7, "explanation": "too high"},
		"faithfulness": {"score": -0.2, "explanation": "too low"},
		"reasoning": {"score": 0.5, "explanation": "fine"},
		"context_utilization": {"score": 0.5, "explanation": "fine"}
	}`}}
	judge := fastJudge(adapter)

	result, err := judge.ScoreAnswer(context.Background(), "q", "", "", "a")
	require.NoError(t, err)
	require.True(t, result.Parsed)
	assert.Equal(t, 1.0, result.Accuracy.Score)
	assert.Equal(t, 0.0, result.Faithfulness.Score)
}

func TestScoreAnswerReformatsOnce(t *testing.T) {
	adapter := &scriptedAdapter{responses: []string{
		"Sure! Here is my evaluation in plain words, no JSON.",
		"```json\n" + validRubricJSON + "\n```",
	}}
	judge := fastJudge(adapter)

	result, err := judge.ScoreAnswer(context.Background(), "q", "", "", "a")
	require.NoError(t, err)
	require.True(t, result.Parsed)
	assert.InDelta(t, 0.9, result.Accuracy.Score, 1e-9)

	require.Len(t, adapter.prompts, 2)
	assert.Contains(t, adapter.prompts[1], "could not be parsed as JSON")
}

func TestScoreAnswerNullScoresWhenUnparseable(t *testing.T) {
	adapter := &scriptedAdapter{responses: []string{
		"not json at all",
		"still not json",
	}}
	judge := fastJudge(adapter)

	result, err := judge.ScoreAnswer(context.Background(), "q", "", "", "a")
	require.NoError(t, err)
	assert.False(t, result.Parsed)
	assert.Nil(t, result.Accuracy)
	assert.Nil(t, result.Faithfulness)
	assert.Nil(t, result.Reasoning)
	assert.Nil(t, result.ContextUtilization)
	assert.Equal(t, "still not json", result.RawResponse)
}

func TestScoreAnswerPropagatesProviderError(t *testing.T) {
	adapter := &scriptedAdapter{errs: []error{
		&llmadapters.ProviderError{Provider: "scripted", StatusCode: 401, Message: "bad key"},
	}}
	judge := fastJudge(adapter)

	_, err := judge.ScoreAnswer(context.Background(), "q", "", "", "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rubric judging failed")
}

const validPairwiseJSON = `{
	"winner": "model_b",
	"score_a": 6.5,
	"score_b": 8.0,
	"reasoning": "B is more complete.",
	"confidence": 0.85,
	"criteria_scores": {"correctness": {"model_a": 7, "model_b": 8}}
}`

func TestComparePairParsesVerdict(t *testing.T) {
	adapter := &scriptedAdapter{responses: []string{validPairwiseJSON}}
	judge := fastJudge(adapter)

	result, err := judge.ComparePair(context.Background(), "q", "ctx", "expected", "answer a", "answer b")
	require.NoError(t, err)
	require.True(t, result.Parsed)
	assert.Equal(t, "model_b", result.Winner)
	assert.InDelta(t, 6.5, result.ScoreA, 1e-9)
	assert.InDelta(t, 8.0, result.ScoreB, 1e-9)
	assert.InDelta(t, 0.85, result.Confidence, 1e-9)
	assert.Equal(t, "B is more complete.", result.Reasoning)
	assert.NotEmpty(t, result.CriteriaScores)

	require.Len(t, adapter.prompts, 1)
	assert.Contains(t, adapter.prompts[0], "Model A Response:\nanswer a")
	assert.Contains(t, adapter.prompts[0], "Model B Response:\nanswer b")
}

func TestComparePairDefaultsUnknownWinnerToTie(t *testing.T) {
	adapter := &scriptedAdapter{responses: []string{`{
		"winner": "model_c",
		"score_a": 5, "score_b": 5,
		"reasoning": "confused", "confidence": 0.2
	}`}}
	judge := fastJudge(adapter)

	result, err := judge.ComparePair(context.Background(), "q", "", "", "a", "b")
	require.NoError(t, err)
	require.True(t, result.Parsed)
	assert.Equal(t, "tie", result.Winner)
}

func TestComparePairUnparseableAfterRetry(t *testing.T) {
	adapter := &scriptedAdapter{responses: []string{"nope", "nope again"}}
	judge := fastJudge(adapter)

	result, err := judge.ComparePair(context.Background(), "q", "", "", "a", "b")
	require.NoError(t, err)
	assert.False(t, result.Parsed)
	assert.Empty(t, result.Winner)
	assert.Equal(t, "nope again", result.RawResponse)
}

func TestExtractJSON(t *testing.T) {
	var v map[string]interface{}

	require.NoError(t, ExtractJSON(`{"a": 1}`, &v))
	assert.Equal(t, float64(1), v["a"])

	v = nil
	require.NoError(t, ExtractJSON("Here you go:\n```json\n{\"a\": 2}\n```\nDone.", &v))
	assert.Equal(t, float64(2), v["a"])

	assert.Error(t, ExtractJSON("no braces here", &v))
	assert.Error(t, ExtractJSON("{broken", &v))
}
