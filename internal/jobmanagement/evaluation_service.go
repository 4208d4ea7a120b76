package jobmanagement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"llm-compare-platform/backend/internal/coreengine/evaluationengine"
	"llm-compare-platform/backend/internal/datastore"
)

// EvaluationService creates evaluations and dispatches them on the engine.
type EvaluationService struct {
	engine *evaluationengine.Engine
}

// NewEvaluationService wraps an engine.
func NewEvaluationService(engine *evaluationengine.Engine) *EvaluationService {
	return &EvaluationService{engine: engine}
}

// CreateEvaluationParams is the validated input for a new evaluation.
type CreateEvaluationParams struct {
	WorkspaceID   string
	DatasetID     string
	Name          string
	Description   string
	ModelConfigs  []datastore.ModelConfig
	JudgeProvider string
	JudgeModel    string
}

// CreateAndStartEvaluation validates the request, stores the evaluation in
// pending state, and starts the run in the background. The returned
// evaluation reflects the pending state; clients poll for progress.
func (s *EvaluationService) CreateAndStartEvaluation(p CreateEvaluationParams) (*datastore.Evaluation, error) {
	if _, err := datastore.GetWorkspace(p.WorkspaceID); err != nil {
		return nil, fmt.Errorf("workspace lookup failed: %w", err)
	}
	dataset, err := datastore.GetTestDataset(p.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("dataset lookup failed: %w", err)
	}
	if dataset.WorkspaceID != p.WorkspaceID {
		return nil, errors.New("dataset does not belong to the given workspace")
	}
	questionCount, err := datastore.CountDatasetQuestions(p.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to count dataset questions: %w", err)
	}
	if questionCount == 0 {
		return nil, errors.New("dataset has no questions")
	}
	if len(p.ModelConfigs) == 0 {
		return nil, errors.New("at least one model is required")
	}
	seen := map[string]bool{}
	for _, cfg := range p.ModelConfigs {
		if cfg.Provider == "" || cfg.Model == "" {
			return nil, errors.New("each model config needs a provider and a model")
		}
		if seen[cfg.Key()] {
			return nil, fmt.Errorf("duplicate model config %s", cfg.Key())
		}
		seen[cfg.Key()] = true
	}

	configsJSON, err := datastore.MarshalModelConfigs(p.ModelConfigs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model configs: %w", err)
	}

	eval := &datastore.Evaluation{
		WorkspaceID:     p.WorkspaceID,
		DatasetID:       p.DatasetID,
		Name:            p.Name,
		Description:     sql.NullString{String: p.Description, Valid: p.Description != ""},
		ModelConfigs:    configsJSON,
		JudgeProvider:   sql.NullString{String: p.JudgeProvider, Valid: p.JudgeProvider != ""},
		JudgeModel:      sql.NullString{String: p.JudgeModel, Valid: p.JudgeModel != ""},
		Status:          datastore.EvaluationStatusPending,
		TotalQuestions:  questionCount,
		TotalModelTests: questionCount * len(p.ModelConfigs),
	}
	id, err := datastore.CreateEvaluation(eval)
	if err != nil {
		return nil, err
	}
	log.Printf("Evaluation %s created: %d questions x %d models.", id, questionCount, len(p.ModelConfigs))

	go func() {
		if err := s.engine.RunEvaluation(context.Background(), id); err != nil {
			log.Printf("Evaluation %s run ended with error: %v", id, err)
		}
	}()

	return eval, nil
}

// ResumeEvaluation re-dispatches a pending or running evaluation, used at
// startup to pick up runs interrupted by a crash.
func (s *EvaluationService) ResumeEvaluation(evaluationID string) {
	go func() {
		if err := s.engine.RunEvaluation(context.Background(), evaluationID); err != nil {
			log.Printf("Resumed evaluation %s ended with error: %v", evaluationID, err)
		}
	}()
}

// CancelEvaluation aborts a pending or running evaluation. A run executing
// in this process is interrupted; a pending one is failed directly.
func (s *EvaluationService) CancelEvaluation(evaluationID string) error {
	eval, err := datastore.GetEvaluation(evaluationID)
	if err != nil {
		return err
	}
	switch eval.Status {
	case datastore.EvaluationStatusCompleted, datastore.EvaluationStatusFailed:
		return fmt.Errorf("evaluation %s already %s", evaluationID, eval.Status)
	}

	if s.engine.CancelEvaluation(evaluationID) {
		log.Printf("Evaluation %s cancellation requested.", evaluationID)
		return nil
	}
	// Not running here (pending, or orphaned by a crash): fail it directly.
	return datastore.MarkEvaluationFailed(evaluationID, "evaluation cancelled")
}
