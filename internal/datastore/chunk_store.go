package datastore

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateChunk inserts an indexed passage for a workspace.
func CreateChunk(c *Chunk) error {
	if DB == nil {
		return errors.New("database connection not initialized")
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()

	query := `
		INSERT INTO chunks (id, document_id, workspace_id, chunk_index, content, token_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := DB.Exec(query, c.ID, c.DocumentID, c.WorkspaceID, c.ChunkIndex, c.Content, c.TokenCount, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chunk: %w", err)
	}
	return nil
}

// SearchChunksByText runs a full-text search over a workspace's chunks and
// returns the top matches with their relevance rank. Falls back to a plain
// websearch query so free-form questions work without query syntax.
func SearchChunksByText(workspaceID, queryText string, limit int) ([]*Chunk, []float64, error) {
	if DB == nil {
		return nil, nil, errors.New("database connection not initialized")
	}
	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT id, document_id, workspace_id, chunk_index, content, token_count, created_at,
			ts_rank(to_tsvector('english', content), websearch_to_tsquery('english', $2)) AS rank
		FROM chunks
		WHERE workspace_id = $1
			AND to_tsvector('english', content) @@ websearch_to_tsquery('english', $2)
		ORDER BY rank DESC, chunk_index ASC
		LIMIT $3
	`
	rows, err := DB.Query(query, workspaceID, queryText, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	chunks := []*Chunk{}
	scores := []float64{}
	for rows.Next() {
		c := &Chunk{}
		var rank float64
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.WorkspaceID, &c.ChunkIndex, &c.Content, &c.TokenCount, &c.CreatedAt, &rank); err != nil {
			return nil, nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		chunks = append(chunks, c)
		scores = append(scores, rank)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error during chunk rows iteration: %w", err)
	}
	return chunks, scores, nil
}

// CountWorkspaceChunks returns the number of indexed chunks in a workspace.
func CountWorkspaceChunks(workspaceID string) (int, error) {
	if DB == nil {
		return 0, errors.New("database connection not initialized")
	}

	var count int
	err := DB.QueryRow(`SELECT COUNT(*) FROM chunks WHERE workspace_id = $1`, workspaceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}
