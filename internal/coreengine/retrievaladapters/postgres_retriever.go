package retrievaladapters

import (
	"context"
	"fmt"

	"llm-compare-platform/backend/internal/datastore"
)

const defaultTopK = 5

// PostgresRetriever ranks workspace chunks with Postgres full-text search.
// It works on the same database the rest of the platform uses, so RAG
// evaluations need no separate vector store deployment.
type PostgresRetriever struct{}

// NewPostgresRetriever returns a retriever backed by the chunks table.
func NewPostgresRetriever() *PostgresRetriever {
	return &PostgresRetriever{}
}

func (r *PostgresRetriever) Retrieve(ctx context.Context, workspaceID, query string, topK int, minScore float64) ([]RetrievedChunk, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	chunks, scores, err := datastore.SearchChunksByText(workspaceID, query, topK)
	if err != nil {
		return nil, fmt.Errorf("full-text retrieval failed: %w", err)
	}

	retrieved := make([]RetrievedChunk, 0, len(chunks))
	for i, c := range chunks {
		if scores[i] < minScore {
			continue
		}
		retrieved = append(retrieved, RetrievedChunk{
			ChunkID: c.ID,
			Content: c.Content,
			Score:   scores[i],
		})
	}
	return retrieved, nil
}
