package datastore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateWorkspace inserts a new workspace row.
func CreateWorkspace(ws *Workspace) (string, error) {
	if DB == nil {
		return "", errors.New("database connection not initialized")
	}

	if ws.ID == "" {
		ws.ID = uuid.New().String()
	}
	ws.CreatedAt = time.Now()
	ws.UpdatedAt = ws.CreatedAt

	query := `
		INSERT INTO workspaces (id, name, description, embedding_provider, embedding_model, vector_collection_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := DB.Exec(query,
		ws.ID, ws.Name, ws.Description, ws.EmbeddingProvider, ws.EmbeddingModel, ws.VectorCollectionID,
		ws.CreatedAt, ws.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create workspace: %w", err)
	}
	return ws.ID, nil
}

// GetWorkspace retrieves a workspace by ID.
func GetWorkspace(id string) (*Workspace, error) {
	if DB == nil {
		return nil, errors.New("database connection not initialized")
	}

	query := `
		SELECT id, name, description, embedding_provider, embedding_model, vector_collection_id, created_at, updated_at
		FROM workspaces
		WHERE id = $1
	`
	ws := &Workspace{}
	err := DB.QueryRow(query, id).Scan(
		&ws.ID, &ws.Name, &ws.Description, &ws.EmbeddingProvider, &ws.EmbeddingModel, &ws.VectorCollectionID,
		&ws.CreatedAt, &ws.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("workspace %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	return ws, nil
}
