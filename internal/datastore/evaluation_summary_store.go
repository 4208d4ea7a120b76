package datastore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UpsertEvaluationSummary writes the aggregate scorecard for an evaluation,
// replacing any previous row so a resumed run ends with exactly one summary.
func UpsertEvaluationSummary(s *EvaluationSummary) error {
	if DB == nil {
		return errors.New("database connection not initialized")
	}

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.CreatedAt = time.Now()

	var models []byte
	if len(s.ModelsSummary) > 0 {
		models = s.ModelsSummary
	} else {
		models = json.RawMessage("null")
	}

	query := `
		INSERT INTO evaluation_summaries (id, evaluation_id,
			avg_accuracy, avg_faithfulness, avg_reasoning, avg_context_utilization,
			avg_latency_ms, avg_cost_usd, total_cost_usd, overall_score,
			total_questions, total_model_tests, successful_evaluations, failed_evaluations,
			models_summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (evaluation_id) DO UPDATE SET
			avg_accuracy = EXCLUDED.avg_accuracy,
			avg_faithfulness = EXCLUDED.avg_faithfulness,
			avg_reasoning = EXCLUDED.avg_reasoning,
			avg_context_utilization = EXCLUDED.avg_context_utilization,
			avg_latency_ms = EXCLUDED.avg_latency_ms,
			avg_cost_usd = EXCLUDED.avg_cost_usd,
			total_cost_usd = EXCLUDED.total_cost_usd,
			overall_score = EXCLUDED.overall_score,
			total_questions = EXCLUDED.total_questions,
			total_model_tests = EXCLUDED.total_model_tests,
			successful_evaluations = EXCLUDED.successful_evaluations,
			failed_evaluations = EXCLUDED.failed_evaluations,
			models_summary = EXCLUDED.models_summary,
			created_at = EXCLUDED.created_at
	`
	_, err := DB.Exec(query,
		s.ID, s.EvaluationID,
		s.AvgAccuracy, s.AvgFaithfulness, s.AvgReasoning, s.AvgContextUtilization,
		s.AvgLatencyMs, s.AvgCostUSD, s.TotalCostUSD, s.OverallScore,
		s.TotalQuestions, s.TotalModelTests, s.SuccessfulEvaluations, s.FailedEvaluations,
		models, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert evaluation summary: %w", err)
	}
	return nil
}

// GetEvaluationSummary retrieves the scorecard of an evaluation.
func GetEvaluationSummary(evaluationID string) (*EvaluationSummary, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	query := `
		SELECT id, evaluation_id,
			avg_accuracy, avg_faithfulness, avg_reasoning, avg_context_utilization,
			avg_latency_ms, avg_cost_usd, total_cost_usd, overall_score,
			total_questions, total_model_tests, successful_evaluations, failed_evaluations,
			models_summary, created_at
		FROM evaluation_summaries
		WHERE evaluation_id = $1
	`
	s := &EvaluationSummary{}
	var models []byte
	err := DB.QueryRow(query, evaluationID).Scan(
		&s.ID, &s.EvaluationID,
		&s.AvgAccuracy, &s.AvgFaithfulness, &s.AvgReasoning, &s.AvgContextUtilization,
		&s.AvgLatencyMs, &s.AvgCostUSD, &s.TotalCostUSD, &s.OverallScore,
		&s.TotalQuestions, &s.TotalModelTests, &s.SuccessfulEvaluations, &s.FailedEvaluations,
		&models, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("summary for evaluation %s: %w", evaluationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get evaluation summary: %w", err)
	}
	if models != nil && string(models) != "null" {
		s.ModelsSummary = json.RawMessage(models)
	}
	return s, nil
}
