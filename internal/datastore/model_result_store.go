package datastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateModelResult inserts a model result, skipping silently when a row for
// the same (evaluation, question, provider, model) key already exists. The
// returned bool reports whether a new row was written.
func CreateModelResult(r *ModelResult) (bool, error) {
	if DB == nil {
		return false, errors.New("database connection not initialized")
	}

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.CreatedAt = time.Now()

	var chunks []byte
	if len(r.RetrievedChunks) > 0 {
		chunks = r.RetrievedChunks
	} else {
		chunks = json.RawMessage("null")
	}

	query := `
		INSERT INTO model_results (id, evaluation_id, question_id, provider, model_name, answer, retrieved_chunks,
			prompt_used, tokens_in, tokens_out, latency_ms, cost_usd, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (evaluation_id, question_id, provider, model_name) DO NOTHING
	`
	result, err := DB.Exec(query,
		r.ID, r.EvaluationID, r.QuestionID, r.Provider, r.ModelName, r.Answer, chunks,
		r.PromptUsed, r.TokensIn, r.TokensOut, r.LatencyMs, r.CostUSD, r.ErrorMessage, r.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create model result: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected for model result: %w", err)
	}
	return affected > 0, nil
}

// GetModelResultsForEvaluation returns all result rows of an evaluation.
func GetModelResultsForEvaluation(evaluationID string) ([]*ModelResult, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	query := `
		SELECT id, evaluation_id, question_id, provider, model_name, answer, retrieved_chunks,
			prompt_used, tokens_in, tokens_out, latency_ms, cost_usd, error_message, created_at
		FROM model_results
		WHERE evaluation_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := DB.Query(query, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list model results: %w", err)
	}
	defer rows.Close()

	results := []*ModelResult{}
	for rows.Next() {
		r := &ModelResult{}
		var chunks []byte
		if err := rows.Scan(
			&r.ID, &r.EvaluationID, &r.QuestionID, &r.Provider, &r.ModelName, &r.Answer, &chunks,
			&r.PromptUsed, &r.TokensIn, &r.TokensOut, &r.LatencyMs, &r.CostUSD, &r.ErrorMessage, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan model result row: %w", err)
		}
		if chunks != nil && string(chunks) != "null" {
			r.RetrievedChunks = json.RawMessage(chunks)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during model result rows iteration: %w", err)
	}
	return results, nil
}

// GetExistingResultKeys returns the set of "questionID|provider:model" keys
// that already have an error-free result for the evaluation. The scheduler
// uses this to skip finished work units when resuming a crashed run.
func GetExistingResultKeys(evaluationID string) (map[string]bool, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	query := `
		SELECT question_id, provider, model_name
		FROM model_results
		WHERE evaluation_id = $1 AND (error_message IS NULL OR error_message = '')
	`
	rows, err := DB.Query(query, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing result keys: %w", err)
	}
	defer rows.Close()

	keys := map[string]bool{}
	for rows.Next() {
		var questionID, provider, model string
		if err := rows.Scan(&questionID, &provider, &model); err != nil {
			return nil, fmt.Errorf("failed to scan result key row: %w", err)
		}
		keys[WorkUnitKey(questionID, provider, model)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during result key rows iteration: %w", err)
	}
	return keys, nil
}

// DeleteErroredResults removes result rows that ended in an error so a
// resumed run can retry those work units. Metrics cascade with the rows.
// The evaluation's completed_questions counter is decremented by the purged
// row count in the same statement, keeping it equal to the number of
// persisted result rows; within a run the counter only moves forward.
func DeleteErroredResults(evaluationID string) (int64, error) {
	if DB == nil {
		return 0, errors.New("database connection not initialized")
	}

	var purged int64
	err := DB.QueryRow(`
		WITH purged AS (
			DELETE FROM model_results
			WHERE evaluation_id = $1 AND error_message IS NOT NULL AND error_message <> ''
			RETURNING 1
		)
		UPDATE evaluations
		SET completed_questions = GREATEST(completed_questions - (SELECT COUNT(*) FROM purged), 0),
		    progress = LEAST(100, FLOOR(GREATEST(completed_questions - (SELECT COUNT(*) FROM purged), 0) * 100.0 / GREATEST(total_model_tests, 1))),
		    updated_at = $2
		WHERE id = $1
		RETURNING (SELECT COUNT(*) FROM purged)`,
		evaluationID, time.Now(),
	).Scan(&purged)
	if err != nil {
		return 0, fmt.Errorf("failed to delete errored results: %w", err)
	}
	return purged, nil
}

// WorkUnitKey builds the canonical work-unit identity string.
func WorkUnitKey(questionID, provider, model string) string {
	return questionID + "|" + provider + ":" + model
}
