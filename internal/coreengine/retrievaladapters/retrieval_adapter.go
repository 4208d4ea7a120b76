package retrievaladapters

import (
	"context"
)

// RetrievedChunk is one passage of context returned for a question, with the
// retriever's relevance score.
type RetrievedChunk struct {
	ChunkID string  `json:"chunk_id,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// RetrievalAdapter fetches the top-k most relevant passages of a workspace
// for a question. RAG-mode evaluations call this once per question.
type RetrievalAdapter interface {
	// Retrieve returns up to topK chunks ranked by relevance, best first,
	// dropping chunks scoring below minScore. An empty result is not an
	// error; the prompt is built without context.
	Retrieve(ctx context.Context, workspaceID, query string, topK int, minScore float64) ([]RetrievedChunk, error)
}
