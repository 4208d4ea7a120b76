package datastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateJudgeResult inserts a pairwise judge verdict.
func CreateJudgeResult(j *JudgeResult) error {
	if DB == nil {
		return errors.New("database connection not initialized")
	}

	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	j.CreatedAt = time.Now()

	var criteria []byte
	if len(j.CriteriaScores) > 0 {
		criteria = j.CriteriaScores
	} else {
		criteria = json.RawMessage("null")
	}

	query := `
		INSERT INTO judge_results (id, evaluation_id, question_id, model_a_result_id, model_b_result_id,
			judge_provider, judge_model, winner, score_a, score_b, reasoning, confidence,
			criteria_scores, judge_prompt, judge_response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := DB.Exec(query,
		j.ID, j.EvaluationID, j.QuestionID, j.ModelAResultID, j.ModelBResultID,
		j.JudgeProvider, j.JudgeModel, j.Winner, j.ScoreA, j.ScoreB, j.Reasoning, j.Confidence,
		criteria, j.JudgePrompt, j.JudgeResponse, j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create judge result: %w", err)
	}
	return nil
}

// GetJudgeResultsForEvaluation returns all pairwise verdicts of an evaluation.
func GetJudgeResultsForEvaluation(evaluationID string) ([]*JudgeResult, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	query := `
		SELECT id, evaluation_id, question_id, model_a_result_id, model_b_result_id,
			judge_provider, judge_model, winner, score_a, score_b, reasoning, confidence,
			criteria_scores, judge_prompt, judge_response, created_at
		FROM judge_results
		WHERE evaluation_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := DB.Query(query, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list judge results: %w", err)
	}
	defer rows.Close()

	results := []*JudgeResult{}
	for rows.Next() {
		j := &JudgeResult{}
		var criteria []byte
		if err := rows.Scan(
			&j.ID, &j.EvaluationID, &j.QuestionID, &j.ModelAResultID, &j.ModelBResultID,
			&j.JudgeProvider, &j.JudgeModel, &j.Winner, &j.ScoreA, &j.ScoreB, &j.Reasoning, &j.Confidence,
			&criteria, &j.JudgePrompt, &j.JudgeResponse, &j.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan judge result row: %w", err)
		}
		if criteria != nil && string(criteria) != "null" {
			j.CriteriaScores = json.RawMessage(criteria)
		}
		results = append(results, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during judge result rows iteration: %w", err)
	}
	return results, nil
}
