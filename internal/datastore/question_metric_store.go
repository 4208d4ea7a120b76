package datastore

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateQuestionMetric inserts the rubric scores for one model result.
// A re-run replaces the previous row for the same model result so that
// resumed judging never leaves duplicates.
func CreateQuestionMetric(m *QuestionMetric) error {
	if DB == nil {
		return errors.New("database connection not initialized")
	}

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.CreatedAt = time.Now()

	query := `
		INSERT INTO question_metrics (id, model_result_id, evaluation_id, question_id,
			accuracy_score, faithfulness_score, reasoning_score, context_utilization_score,
			accuracy_explanation, faithfulness_explanation, reasoning_explanation, context_utilization_explanation,
			latency_ms, cost_usd, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (model_result_id) DO UPDATE SET
			accuracy_score = EXCLUDED.accuracy_score,
			faithfulness_score = EXCLUDED.faithfulness_score,
			reasoning_score = EXCLUDED.reasoning_score,
			context_utilization_score = EXCLUDED.context_utilization_score,
			accuracy_explanation = EXCLUDED.accuracy_explanation,
			faithfulness_explanation = EXCLUDED.faithfulness_explanation,
			reasoning_explanation = EXCLUDED.reasoning_explanation,
			context_utilization_explanation = EXCLUDED.context_utilization_explanation,
			latency_ms = EXCLUDED.latency_ms,
			cost_usd = EXCLUDED.cost_usd
	`
	_, err := DB.Exec(query,
		m.ID, m.ModelResultID, m.EvaluationID, m.QuestionID,
		m.AccuracyScore, m.FaithfulnessScore, m.ReasoningScore, m.ContextUtilizationScore,
		m.AccuracyExplanation, m.FaithfulnessExplanation, m.ReasoningExplanation, m.ContextUtilizationExplanation,
		m.LatencyMs, m.CostUSD, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create question metric: %w", err)
	}
	return nil
}

// GetMetricsForEvaluation returns all question metrics of an evaluation.
func GetMetricsForEvaluation(evaluationID string) ([]*QuestionMetric, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	query := `
		SELECT id, model_result_id, evaluation_id, question_id,
			accuracy_score, faithfulness_score, reasoning_score, context_utilization_score,
			accuracy_explanation, faithfulness_explanation, reasoning_explanation, context_utilization_explanation,
			latency_ms, cost_usd, created_at
		FROM question_metrics
		WHERE evaluation_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := DB.Query(query, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list question metrics: %w", err)
	}
	defer rows.Close()

	metrics := []*QuestionMetric{}
	for rows.Next() {
		m := &QuestionMetric{}
		if err := rows.Scan(
			&m.ID, &m.ModelResultID, &m.EvaluationID, &m.QuestionID,
			&m.AccuracyScore, &m.FaithfulnessScore, &m.ReasoningScore, &m.ContextUtilizationScore,
			&m.AccuracyExplanation, &m.FaithfulnessExplanation, &m.ReasoningExplanation, &m.ContextUtilizationExplanation,
			&m.LatencyMs, &m.CostUSD, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan question metric row: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during question metric rows iteration: %w", err)
	}
	return metrics, nil
}
