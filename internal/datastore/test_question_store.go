package datastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateTestQuestion inserts one test question into a dataset.
func CreateTestQuestion(q *TestQuestion) (string, error) {
	if DB == nil {
		return "", errors.New("database connection not initialized")
	}

	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	q.CreatedAt = time.Now()

	var metadata []byte
	if len(q.Metadata) > 0 {
		metadata = q.Metadata
	} else {
		metadata = json.RawMessage("null")
	}

	query := `
		INSERT INTO test_questions (id, dataset_id, question, expected_answer, context, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := DB.Exec(query, q.ID, q.DatasetID, q.Question, q.ExpectedAnswer, q.Context, metadata, q.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to create test question: %w", err)
	}
	return q.ID, nil
}

// GetDatasetQuestions returns all questions of a dataset in insertion order.
func GetDatasetQuestions(datasetID string) ([]*TestQuestion, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	query := `
		SELECT id, dataset_id, question, expected_answer, context, metadata, created_at
		FROM test_questions
		WHERE dataset_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := DB.Query(query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset questions: %w", err)
	}
	defer rows.Close()

	questions := []*TestQuestion{}
	for rows.Next() {
		q := &TestQuestion{}
		var metadata []byte
		if err := rows.Scan(&q.ID, &q.DatasetID, &q.Question, &q.ExpectedAnswer, &q.Context, &metadata, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan test question row: %w", err)
		}
		if metadata != nil && string(metadata) != "null" {
			q.Metadata = json.RawMessage(metadata)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during question rows iteration: %w", err)
	}
	return questions, nil
}

// CountDatasetQuestions returns the number of questions in a dataset.
func CountDatasetQuestions(datasetID string) (int, error) {
	if DB == nil {
		return 0, errors.New("database connection not initialized")
	}

	var count int
	err := DB.QueryRow(`SELECT COUNT(*) FROM test_questions WHERE dataset_id = $1`, datasetID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count dataset questions: %w", err)
	}
	return count, nil
}
