package datastore

import (
	"database/sql"
	"encoding/json"
	"time"
)

// EvaluationSummary maps to the evaluation_summaries table: the aggregate
// scorecard computed once an evaluation finishes. One row per evaluation;
// models_summary holds the per-model breakdown as JSON.
type EvaluationSummary struct {
	ID                    string          `json:"id"`
	EvaluationID          string          `json:"evaluation_id"`
	AvgAccuracy           sql.NullFloat64 `json:"avg_accuracy,omitempty"`
	AvgFaithfulness       sql.NullFloat64 `json:"avg_faithfulness,omitempty"`
	AvgReasoning          sql.NullFloat64 `json:"avg_reasoning,omitempty"`
	AvgContextUtilization sql.NullFloat64 `json:"avg_context_utilization,omitempty"`
	AvgLatencyMs          sql.NullInt64   `json:"avg_latency_ms,omitempty"`
	AvgCostUSD            sql.NullFloat64 `json:"avg_cost_usd,omitempty"`
	TotalCostUSD          sql.NullFloat64 `json:"total_cost_usd,omitempty"`
	OverallScore          sql.NullFloat64 `json:"overall_score,omitempty"`
	TotalQuestions        int             `json:"total_questions"`
	TotalModelTests       int             `json:"total_model_tests"`
	SuccessfulEvaluations int             `json:"successful_evaluations"`
	FailedEvaluations     int             `json:"failed_evaluations"`
	ModelsSummary         json.RawMessage `json:"models_summary,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}
