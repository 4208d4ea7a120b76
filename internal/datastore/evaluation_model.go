package datastore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Evaluation lifecycle states. Transitions are one-directional:
// pending -> running -> completed | failed.
const (
	EvaluationStatusPending   = "pending"
	EvaluationStatusRunning   = "running"
	EvaluationStatusCompleted = "completed"
	EvaluationStatusFailed    = "failed"
)

// ModelConfig identifies one candidate model: a provider plus a model name.
// The (provider, model) pair together with the question ID keys a work unit.
type ModelConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Key returns the canonical "provider:model" identity used in summaries
// and for deterministic pairwise ordering.
func (mc ModelConfig) Key() string {
	return mc.Provider + ":" + mc.Model
}

// Evaluation maps to the evaluations table. Once running, the row is owned
// by the evaluation engine; progress counters are only mutated through the
// atomic store functions below.
type Evaluation struct {
	ID                 string          `json:"id"`
	WorkspaceID        string          `json:"workspace_id"`
	DatasetID          string          `json:"dataset_id"`
	Name               string          `json:"name"`
	Description        sql.NullString  `json:"description,omitempty"`
	ModelConfigs       json.RawMessage `json:"model_configs"`
	JudgeProvider      sql.NullString  `json:"judge_provider,omitempty"`
	JudgeModel         sql.NullString  `json:"judge_model,omitempty"`
	Status             string          `json:"status"`
	Progress           int             `json:"progress"`
	TotalQuestions     int             `json:"total_questions"`
	TotalModelTests    int             `json:"total_model_tests"`
	CompletedQuestions int             `json:"completed_questions"`
	ErrorMessage       sql.NullString  `json:"error_message,omitempty"`
	StartedAt          sql.NullTime    `json:"started_at,omitempty"`
	CompletedAt        sql.NullTime    `json:"completed_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ParseModelConfigs decodes the model_configs JSONB column.
func (e *Evaluation) ParseModelConfigs() ([]ModelConfig, error) {
	var configs []ModelConfig
	if err := json.Unmarshal(e.ModelConfigs, &configs); err != nil {
		return nil, fmt.Errorf("failed to decode model_configs for evaluation %s: %w", e.ID, err)
	}
	return configs, nil
}

// MarshalModelConfigs encodes model configs for the JSONB column.
func MarshalModelConfigs(configs []ModelConfig) (json.RawMessage, error) {
	if configs == nil {
		return json.RawMessage("[]"), nil
	}
	data, err := json.Marshal(configs)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
