package datastore

import (
	"database/sql"
	"time"
)

// Workspace maps to the workspaces table. Document ingestion and embedding
// management happen outside this service; the evaluation engine only reads
// the retrieval configuration from here.
type Workspace struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Description        sql.NullString `json:"description,omitempty"`
	EmbeddingProvider  sql.NullString `json:"embedding_provider,omitempty"`
	EmbeddingModel     sql.NullString `json:"embedding_model,omitempty"`
	VectorCollectionID sql.NullString `json:"vector_collection_id,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// UsesRetrieval reports whether evaluations in this workspace should query
// the retrieval index before prompting candidate models.
func (w *Workspace) UsesRetrieval() bool {
	return w.VectorCollectionID.Valid && w.VectorCollectionID.String != ""
}
