package datastore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateTestDataset inserts a new test dataset.
func CreateTestDataset(ds *TestDataset) (string, error) {
	if DB == nil {
		return "", errors.New("database connection not initialized")
	}

	if ds.ID == "" {
		ds.ID = uuid.New().String()
	}
	ds.CreatedAt = time.Now()
	ds.UpdatedAt = ds.CreatedAt

	query := `
		INSERT INTO test_datasets (id, workspace_id, name, description, source, generation_model, total_questions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := DB.Exec(query,
		ds.ID, ds.WorkspaceID, ds.Name, ds.Description, ds.Source, ds.GenerationModel, ds.TotalQuestions,
		ds.CreatedAt, ds.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create test dataset: %w", err)
	}
	return ds.ID, nil
}

// GetTestDataset retrieves a dataset by ID.
func GetTestDataset(id string) (*TestDataset, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	query := `
		SELECT id, workspace_id, name, description, source, generation_model, total_questions, created_at, updated_at
		FROM test_datasets
		WHERE id = $1
	`
	ds := &TestDataset{}
	err := DB.QueryRow(query, id).Scan(
		&ds.ID, &ds.WorkspaceID, &ds.Name, &ds.Description, &ds.Source, &ds.GenerationModel, &ds.TotalQuestions,
		&ds.CreatedAt, &ds.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("test dataset %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get test dataset: %w", err)
	}
	return ds, nil
}

// ListWorkspaceDatasets lists all datasets belonging to a workspace, newest first.
func ListWorkspaceDatasets(workspaceID string) ([]*TestDataset, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	query := `
		SELECT id, workspace_id, name, description, source, generation_model, total_questions, created_at, updated_at
		FROM test_datasets
		WHERE workspace_id = $1
		ORDER BY created_at DESC
	`
	rows, err := DB.Query(query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	datasets := []*TestDataset{}
	for rows.Next() {
		ds := &TestDataset{}
		if err := rows.Scan(
			&ds.ID, &ds.WorkspaceID, &ds.Name, &ds.Description, &ds.Source, &ds.GenerationModel, &ds.TotalQuestions,
			&ds.CreatedAt, &ds.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dataset row: %w", err)
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during dataset rows iteration: %w", err)
	}
	return datasets, nil
}

// UpdateDatasetQuestionCount sets the cached total_questions on a dataset.
func UpdateDatasetQuestionCount(id string, total int) error {
	if DB == nil {
		return errors.New("database connection not initialized")
	}

	result, err := DB.Exec(
		`UPDATE test_datasets SET total_questions = $1, updated_at = $2 WHERE id = $3`,
		total, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update dataset question count: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for dataset %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("test dataset %s: %w", id, ErrNotFound)
	}
	return nil
}
