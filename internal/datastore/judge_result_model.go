package datastore

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Winner values recorded on a pairwise judge result.
const (
	JudgeWinnerModelA = "model_a"
	JudgeWinnerModelB = "model_b"
	JudgeWinnerTie    = "tie"
)

// JudgeResult maps to the judge_results table: one pairwise comparison of two
// model results for the same question. Winner, scores and confidence are NULL
// when the judge response could not be parsed; the raw prompt and response are
// kept for auditing either way.
type JudgeResult struct {
	ID             string          `json:"id"`
	EvaluationID   string          `json:"evaluation_id"`
	QuestionID     string          `json:"question_id"`
	ModelAResultID string          `json:"model_a_result_id"`
	ModelBResultID string          `json:"model_b_result_id"`
	JudgeProvider  string          `json:"judge_provider"`
	JudgeModel     string          `json:"judge_model"`
	Winner         sql.NullString  `json:"winner,omitempty"`
	ScoreA         sql.NullFloat64 `json:"score_a,omitempty"`
	ScoreB         sql.NullFloat64 `json:"score_b,omitempty"`
	Reasoning      sql.NullString  `json:"reasoning,omitempty"`
	Confidence     sql.NullFloat64 `json:"confidence,omitempty"`
	CriteriaScores json.RawMessage `json:"criteria_scores,omitempty"`
	JudgePrompt    sql.NullString  `json:"judge_prompt,omitempty"`
	JudgeResponse  sql.NullString  `json:"judge_response,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
