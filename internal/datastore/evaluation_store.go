package datastore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const evaluationColumns = `id, workspace_id, dataset_id, name, description, model_configs, judge_provider, judge_model,
		status, progress, total_questions, total_model_tests, completed_questions, error_message,
		started_at, completed_at, created_at, updated_at`

func scanEvaluation(row interface{ Scan(...interface{}) error }) (*Evaluation, error) {
	e := &Evaluation{}
	var modelConfigs []byte
	err := row.Scan(
		&e.ID, &e.WorkspaceID, &e.DatasetID, &e.Name, &e.Description, &modelConfigs, &e.JudgeProvider, &e.JudgeModel,
		&e.Status, &e.Progress, &e.TotalQuestions, &e.TotalModelTests, &e.CompletedQuestions, &e.ErrorMessage,
		&e.StartedAt, &e.CompletedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.ModelConfigs = modelConfigs
	return e, nil
}

// CreateEvaluation inserts a new evaluation in pending state.
func CreateEvaluation(e *Evaluation) (string, error) {
	if DB == nil {
		return "", errors.New("database connection not initialized")
	}

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = EvaluationStatusPending
	}
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt

	query := `
		INSERT INTO evaluations (id, workspace_id, dataset_id, name, description, model_configs, judge_provider, judge_model,
			status, progress, total_questions, total_model_tests, completed_questions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := DB.Exec(query,
		e.ID, e.WorkspaceID, e.DatasetID, e.Name, e.Description, []byte(e.ModelConfigs), e.JudgeProvider, e.JudgeModel,
		e.Status, e.Progress, e.TotalQuestions, e.TotalModelTests, e.CompletedQuestions, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create evaluation: %w", err)
	}
	return e.ID, nil
}

// GetEvaluation retrieves an evaluation by ID.
func GetEvaluation(id string) (*Evaluation, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	e, err := scanEvaluation(DB.QueryRow(`SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	return e, nil
}

// ListWorkspaceEvaluations lists evaluations of a workspace, newest first.
func ListWorkspaceEvaluations(workspaceID string) ([]*Evaluation, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	rows, err := DB.Query(
		`SELECT `+evaluationColumns+` FROM evaluations WHERE workspace_id = $1 ORDER BY created_at DESC`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	evaluations := []*Evaluation{}
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation row: %w", err)
		}
		evaluations = append(evaluations, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during evaluation rows iteration: %w", err)
	}
	return evaluations, nil
}

// MarkEvaluationRunning transitions pending -> running and stamps started_at.
// Re-invoking on an already-running evaluation is a no-op so that a crashed
// run can be resumed without a state violation.
func MarkEvaluationRunning(id string) error {
	if DB == nil {
		return errors.New("database connection not initialized")
	}

	result, err := DB.Exec(`
		UPDATE evaluations
		SET status = $1, started_at = COALESCE(started_at, $2), updated_at = $2
		WHERE id = $3 AND status IN ($4, $1)`,
		EvaluationStatusRunning, time.Now(), id, EvaluationStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark evaluation %s running: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for evaluation %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("evaluation %s is not in a startable state", id)
	}
	return nil
}

// MarkEvaluationCompleted transitions running -> completed, pinning progress
// to 100 and stamping completed_at. Terminal states are never overwritten.
func MarkEvaluationCompleted(id string) error {
	if DB == nil {
		return errors.New("database connection not initialized")
	}

	result, err := DB.Exec(`
		UPDATE evaluations
		SET status = $1, progress = 100, completed_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4`,
		EvaluationStatusCompleted, time.Now(), id, EvaluationStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to mark evaluation %s completed: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for evaluation %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("evaluation %s is not running, refusing completion", id)
	}
	return nil
}

// MarkEvaluationFailed transitions a non-terminal evaluation to failed with
// an error message surfaced to callers.
func MarkEvaluationFailed(id, errorMessage string) error {
	if DB == nil {
		return errors.New("database connection not initialized")
	}

	result, err := DB.Exec(`
		UPDATE evaluations
		SET status = $1, error_message = $2, completed_at = $3, updated_at = $3
		WHERE id = $4 AND status IN ($5, $6)`,
		EvaluationStatusFailed, errorMessage, time.Now(), id,
		EvaluationStatusPending, EvaluationStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to mark evaluation %s failed: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for evaluation %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("evaluation %s already terminal, refusing failure transition", id)
	}
	return nil
}

// IncrementCompletedUnits atomically bumps completed_questions by one and
// recomputes progress in the same statement, so concurrent workers never
// lose updates. Returns the new counter and progress values.
func IncrementCompletedUnits(id string) (completed int, progress int, err error) {
	if DB == nil {
		return 0, 0, errors.New("database connection not initialized")
	}

	err = DB.QueryRow(`
		UPDATE evaluations
		SET completed_questions = completed_questions + 1,
		    progress = LEAST(100, FLOOR((completed_questions + 1) * 100.0 / GREATEST(total_model_tests, 1))),
		    updated_at = $1
		WHERE id = $2
		RETURNING completed_questions, progress`,
		time.Now(), id,
	).Scan(&completed, &progress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
		}
		return 0, 0, fmt.Errorf("failed to increment completed units for evaluation %s: %w", id, err)
	}
	return completed, progress, nil
}
