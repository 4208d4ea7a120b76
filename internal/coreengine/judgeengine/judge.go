package judgeengine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"llm-compare-platform/backend/internal/coreengine/llmadapters"
)

// Judge temperature is kept low for consistent verdicts.
const judgeTemperature = 0.3

// CriterionScore is one rubric criterion verdict.
type CriterionScore struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// RubricResult holds the four-criteria quality verdict for a single answer.
// Parsed is false when the judge response could not be decoded even after a
// reformat retry; the criterion pointers are nil in that case and the caller
// records a null-score metric.
type RubricResult struct {
	Accuracy           *CriterionScore
	Faithfulness       *CriterionScore
	Reasoning          *CriterionScore
	ContextUtilization *CriterionScore
	Prompt             string
	RawResponse        string
	Parsed             bool
}

// PairwiseResult holds the comparison verdict for two answers to the same
// question. Parsed is false when decoding failed after the reformat retry;
// the verdict fields are zero and only the raw response survives.
type PairwiseResult struct {
	Winner         string
	ScoreA         float64
	ScoreB         float64
	Reasoning      string
	Confidence     float64
	CriteriaScores json.RawMessage
	Prompt         string
	RawResponse    string
	Parsed         bool
}

// Judge scores answers with an LLM acting as evaluator.
type Judge struct {
	Adapter llmadapters.LLMAdapter
	Model   string
	Policy  llmadapters.RetryPolicy
}

// NewJudge builds a judge on the given adapter and model with default
// retry behavior.
func NewJudge(adapter llmadapters.LLMAdapter, model string) *Judge {
	return &Judge{
		Adapter: adapter,
		Model:   model,
		Policy:  llmadapters.DefaultRetryPolicy(),
	}
}

// generate runs one judge call with retries on transient provider errors.
func (j *Judge) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := llmadapters.GenerateWithRetry(ctx, j.Adapter, j.Model, prompt,
		llmadapters.GenerationParams{Temperature: judgeTemperature}, j.Policy)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// generateParsed runs a judge call and decodes its JSON verdict, asking the
// model to reformat once if the first response does not parse. Returns the
// last raw response alongside the decode outcome.
func (j *Judge) generateParsed(ctx context.Context, prompt string, v interface{}) (raw string, parsed bool, err error) {
	raw, err = j.generate(ctx, prompt)
	if err != nil {
		return "", false, err
	}
	if parseErr := ExtractJSON(raw, v); parseErr == nil {
		return raw, true, nil
	}

	log.Printf("Judge response from %s/%s did not parse, requesting reformat.", j.Adapter.Provider(), j.Model)
	retryPrompt := fmt.Sprintf(reformatPromptTemplate, prompt)
	raw, err = j.generate(ctx, retryPrompt)
	if err != nil {
		return "", false, err
	}
	if parseErr := ExtractJSON(raw, v); parseErr != nil {
		return raw, false, nil
	}
	return raw, true, nil
}

type rubricPayload struct {
	Accuracy           *CriterionScore `json:"accuracy"`
	Faithfulness       *CriterionScore `json:"faithfulness"`
	Reasoning          *CriterionScore `json:"reasoning"`
	ContextUtilization *CriterionScore `json:"context_utilization"`
}

// ScoreAnswer evaluates one generated answer against the rubric. A provider
// failure is returned as an error; an unparseable verdict is not an error
// and yields a RubricResult with Parsed false.
func (j *Judge) ScoreAnswer(ctx context.Context, question, retrievedContext, expectedAnswer, answer string) (*RubricResult, error) {
	prompt := BuildRubricPrompt(question, retrievedContext, expectedAnswer, answer)

	var payload rubricPayload
	raw, parsed, err := j.generateParsed(ctx, prompt, &payload)
	if err != nil {
		return nil, fmt.Errorf("rubric judging failed: %w", err)
	}

	result := &RubricResult{Prompt: prompt, RawResponse: raw, Parsed: parsed}
	if !parsed {
		return result, nil
	}

	result.Accuracy = clampCriterion(payload.Accuracy)
	result.Faithfulness = clampCriterion(payload.Faithfulness)
	result.Reasoning = clampCriterion(payload.Reasoning)
	result.ContextUtilization = clampCriterion(payload.ContextUtilization)
	return result, nil
}

func clampCriterion(c *CriterionScore) *CriterionScore {
	if c == nil {
		return nil
	}
	return &CriterionScore{Score: clamp01(c.Score), Explanation: c.Explanation}
}

type pairwisePayload struct {
	Winner         string          `json:"winner"`
	ScoreA         float64         `json:"score_a"`
	ScoreB         float64         `json:"score_b"`
	Reasoning      string          `json:"reasoning"`
	Confidence     float64         `json:"confidence"`
	CriteriaScores json.RawMessage `json:"criteria_scores"`
}

// ComparePair asks the judge which of two answers is better. Answer A and B
// orientation is the caller's responsibility and must stay deterministic
// across resumes. An unparseable verdict yields Parsed false, not an error.
func (j *Judge) ComparePair(ctx context.Context, question, retrievedContext, expectedAnswer, answerA, answerB string) (*PairwiseResult, error) {
	prompt := BuildPairwisePrompt(question, retrievedContext, expectedAnswer, answerA, answerB)

	var payload pairwisePayload
	raw, parsed, err := j.generateParsed(ctx, prompt, &payload)
	if err != nil {
		return nil, fmt.Errorf("pairwise judging failed: %w", err)
	}

	result := &PairwiseResult{Prompt: prompt, RawResponse: raw, Parsed: parsed}
	if !parsed {
		return result, nil
	}

	switch payload.Winner {
	case "model_a", "model_b", "tie":
		result.Winner = payload.Winner
	default:
		result.Winner = "tie"
	}
	result.ScoreA = clampRange(payload.ScoreA, 0, 10)
	result.ScoreB = clampRange(payload.ScoreB, 0, 10)
	result.Reasoning = payload.Reasoning
	result.Confidence = clamp01(payload.Confidence)
	result.CriteriaScores = payload.CriteriaScores
	return result, nil
}
