package datastore

import (
	"database/sql"
	"encoding/json"
	"time"
)

// ModelResult maps to the model_results table: the outcome of one work unit,
// i.e. one (evaluation, question, provider, model) generation call. At most
// one row exists per key; re-running an evaluation never duplicates rows.
type ModelResult struct {
	ID              string          `json:"id"`
	EvaluationID    string          `json:"evaluation_id"`
	QuestionID      string          `json:"question_id"`
	Provider        string          `json:"provider"`
	ModelName       string          `json:"model_name"`
	Answer          string          `json:"answer"`
	RetrievedChunks json.RawMessage `json:"retrieved_chunks,omitempty"`
	PromptUsed      sql.NullString  `json:"prompt_used,omitempty"`
	TokensIn        sql.NullInt64   `json:"tokens_in,omitempty"`
	TokensOut       sql.NullInt64   `json:"tokens_out,omitempty"`
	LatencyMs       sql.NullInt64   `json:"latency_ms,omitempty"`
	CostUSD         sql.NullFloat64 `json:"cost_usd,omitempty"`
	ErrorMessage    sql.NullString  `json:"error_message,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ModelKey returns the "provider:model" identity of the result.
func (r *ModelResult) ModelKey() string {
	return r.Provider + ":" + r.ModelName
}

// Failed reports whether the work unit ended with a recorded error.
func (r *ModelResult) Failed() bool {
	return r.ErrorMessage.Valid && r.ErrorMessage.String != ""
}
