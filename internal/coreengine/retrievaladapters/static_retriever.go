package retrievaladapters

import (
	"context"
)

// StaticRetriever returns a fixed set of chunks regardless of the query.
// Used in tests and for workspaces whose questions carry their own context.
type StaticRetriever struct {
	Chunks []RetrievedChunk
	Err    error
}

func (r *StaticRetriever) Retrieve(ctx context.Context, workspaceID, query string, topK int, minScore float64) ([]RetrievedChunk, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	kept := make([]RetrievedChunk, 0, len(r.Chunks))
	for _, c := range r.Chunks {
		if c.Score >= minScore {
			kept = append(kept, c)
		}
	}
	if topK > 0 && len(kept) > topK {
		kept = kept[:topK]
	}
	return kept, nil
}
