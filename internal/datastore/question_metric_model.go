package datastore

import (
	"database/sql"
	"time"
)

// QuestionMetric maps to the question_metrics table: rubric scores for one
// error-free ModelResult, produced by the judge model. Scores are in [0,1];
// all four are NULL when the judge response could not be parsed. Latency and
// cost are duplicated from the model result for query convenience.
type QuestionMetric struct {
	ID                             string          `json:"id"`
	ModelResultID                  string          `json:"model_result_id"`
	EvaluationID                   string          `json:"evaluation_id"`
	QuestionID                     string          `json:"question_id"`
	AccuracyScore                  sql.NullFloat64 `json:"accuracy_score,omitempty"`
	FaithfulnessScore              sql.NullFloat64 `json:"faithfulness_score,omitempty"`
	ReasoningScore                 sql.NullFloat64 `json:"reasoning_score,omitempty"`
	ContextUtilizationScore        sql.NullFloat64 `json:"context_utilization_score,omitempty"`
	AccuracyExplanation            sql.NullString  `json:"accuracy_explanation,omitempty"`
	FaithfulnessExplanation        sql.NullString  `json:"faithfulness_explanation,omitempty"`
	ReasoningExplanation           sql.NullString  `json:"reasoning_explanation,omitempty"`
	ContextUtilizationExplanation  sql.NullString  `json:"context_utilization_explanation,omitempty"`
	LatencyMs                      sql.NullInt64   `json:"latency_ms,omitempty"`
	CostUSD                        sql.NullFloat64 `json:"cost_usd,omitempty"`
	CreatedAt                      time.Time       `json:"created_at"`
}
