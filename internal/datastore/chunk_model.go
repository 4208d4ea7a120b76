package datastore

import (
	"database/sql"
	"time"
)

// Chunk maps to the chunks table: one indexed passage of a workspace document,
// searchable as retrieval context for RAG-mode evaluations.
type Chunk struct {
	ID         string         `json:"id"`
	DocumentID sql.NullString `json:"document_id,omitempty"`
	WorkspaceID string        `json:"workspace_id"`
	ChunkIndex int            `json:"chunk_index"`
	Content    string         `json:"content"`
	TokenCount sql.NullInt64  `json:"token_count,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
