package configmanagement

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"llm-compare-platform/backend/internal/datastore"
)

// CreateWorkspaceRequest defines the payload for creating a workspace.
type CreateWorkspaceRequest struct {
	Name               string `json:"name" binding:"required"`
	Description        string `json:"description"`
	EmbeddingProvider  string `json:"embedding_provider"`
	EmbeddingModel     string `json:"embedding_model"`
	VectorCollectionID string `json:"vector_collection_id"`
}

// CreateWorkspaceHandler creates a workspace. A workspace with a vector
// collection configured runs its evaluations in RAG mode.
func CreateWorkspaceHandler(c *gin.Context) {
	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	ws := &datastore.Workspace{
		Name:               req.Name,
		Description:        sql.NullString{String: req.Description, Valid: req.Description != ""},
		EmbeddingProvider:  sql.NullString{String: req.EmbeddingProvider, Valid: req.EmbeddingProvider != ""},
		EmbeddingModel:     sql.NullString{String: req.EmbeddingModel, Valid: req.EmbeddingModel != ""},
		VectorCollectionID: sql.NullString{String: req.VectorCollectionID, Valid: req.VectorCollectionID != ""},
	}
	if _, err := datastore.CreateWorkspace(ws); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create workspace: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ws)
}

// GetWorkspaceHandler returns one workspace by ID.
func GetWorkspaceHandler(c *gin.Context) {
	ws, err := datastore.GetWorkspace(c.Param("id"))
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workspace: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, ws)
}

// IndexChunksRequest defines the payload for indexing retrieval passages
// into a workspace.
type IndexChunksRequest struct {
	DocumentID string   `json:"document_id"`
	Chunks     []string `json:"chunks" binding:"required,min=1"`
}

// IndexChunksHandler stores passages for full-text retrieval.
func IndexChunksHandler(c *gin.Context) {
	workspaceID := c.Param("id")
	if _, err := datastore.GetWorkspace(workspaceID); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify workspace: " + err.Error()})
		}
		return
	}

	var req IndexChunksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	for i, content := range req.Chunks {
		chunk := &datastore.Chunk{
			WorkspaceID: workspaceID,
			DocumentID:  sql.NullString{String: req.DocumentID, Valid: req.DocumentID != ""},
			ChunkIndex:  i,
			Content:     content,
		}
		if err := datastore.CreateChunk(chunk); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to index chunk: " + err.Error()})
			return
		}
	}

	total, err := datastore.CountWorkspaceChunks(workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count chunks: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"indexed": len(req.Chunks), "total_chunks": total})
}
