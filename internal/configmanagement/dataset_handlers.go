package configmanagement

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"llm-compare-platform/backend/internal/datastore"
	"llm-compare-platform/backend/internal/objectstore"
)

// CreateDatasetRequest defines the payload for creating an empty dataset.
type CreateDatasetRequest struct {
	WorkspaceID string `json:"workspace_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// CreateDatasetHandler creates a dataset; questions are added afterwards,
// individually or via file upload.
func CreateDatasetHandler(c *gin.Context) {
	var req CreateDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if _, err := datastore.GetWorkspace(req.WorkspaceID); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify workspace: " + err.Error()})
		}
		return
	}

	source := req.Source
	if source == "" {
		source = datastore.DatasetSourceManual
	}
	ds := &datastore.TestDataset{
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		Description: sql.NullString{String: req.Description, Valid: req.Description != ""},
		Source:      source,
	}
	if _, err := datastore.CreateTestDataset(ds); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create dataset: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ds)
}

// GetDatasetHandler returns one dataset by ID.
func GetDatasetHandler(c *gin.Context) {
	ds, err := datastore.GetTestDataset(c.Param("id"))
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dataset: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, ds)
}

// ListDatasetsHandler lists a workspace's datasets.
func ListDatasetsHandler(c *gin.Context) {
	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workspace_id query parameter is required"})
		return
	}
	datasets, err := datastore.ListWorkspaceDatasets(workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list datasets: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, datasets)
}

// AddQuestionRequest defines the payload for adding a single question.
type AddQuestionRequest struct {
	Question       string          `json:"question" binding:"required"`
	ExpectedAnswer string          `json:"expected_answer"`
	Context        string          `json:"context"`
	Metadata       json.RawMessage `json:"metadata"`
}

// AddQuestionHandler appends one question to a dataset.
func AddQuestionHandler(c *gin.Context) {
	datasetID := c.Param("id")
	ds, err := datastore.GetTestDataset(datasetID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify dataset: " + err.Error()})
		}
		return
	}

	var req AddQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if req.Metadata != nil && !json.Valid(req.Metadata) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "metadata field contains invalid JSON"})
		return
	}

	q := &datastore.TestQuestion{
		DatasetID:      datasetID,
		Question:       req.Question,
		ExpectedAnswer: sql.NullString{String: req.ExpectedAnswer, Valid: req.ExpectedAnswer != ""},
		Context:        sql.NullString{String: req.Context, Valid: req.Context != ""},
		Metadata:       req.Metadata,
	}
	if _, err := datastore.CreateTestQuestion(q); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question: " + err.Error()})
		return
	}

	if err := datastore.UpdateDatasetQuestionCount(ds.ID, ds.TotalQuestions+1); err != nil {
		log.Printf("Failed to update question count for dataset %s: %v", ds.ID, err)
	}
	c.JSON(http.StatusCreated, q)
}

// ListQuestionsHandler returns a dataset's questions in insertion order.
func ListQuestionsHandler(c *gin.Context) {
	datasetID := c.Param("id")
	if _, err := datastore.GetTestDataset(datasetID); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify dataset: " + err.Error()})
		}
		return
	}

	questions, err := datastore.GetDatasetQuestions(datasetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list questions: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, questions)
}

// UploadQuestionsHandler imports questions from a JSONL or CSV file. The raw
// upload is archived in object storage before parsing so imports can be
// audited and replayed.
func UploadQuestionsHandler(c *gin.Context) {
	datasetID := c.Param("id")
	ds, err := datastore.GetTestDataset(datasetID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify dataset: " + err.Error()})
		}
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file form field is required: " + err.Error()})
		return
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".jsonl" && ext != ".csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .jsonl and .csv uploads are supported"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open upload: " + err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload: " + err.Error()})
		return
	}

	var archiveObject string
	if minioClient, mcErr := objectstore.GetGlobalMinioClient(); mcErr == nil {
		archiveObject, err = minioClient.UploadFile(c.Request.Context(), fileHeader.Filename,
			strings.NewReader(string(data)), int64(len(data)), "application/octet-stream")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive upload: " + err.Error()})
			return
		}
	} else {
		log.Printf("Object store unavailable, skipping upload archive: %v", mcErr)
	}

	var imported []ImportedQuestion
	if ext == ".jsonl" {
		imported, err = ParseQuestionsJSONL(data)
	} else {
		imported, err = ParseQuestionsCSV(data)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse upload: " + err.Error()})
		return
	}

	for _, iq := range imported {
		q := &datastore.TestQuestion{
			DatasetID:      datasetID,
			Question:       iq.Question,
			ExpectedAnswer: sql.NullString{String: iq.ExpectedAnswer, Valid: iq.ExpectedAnswer != ""},
			Context:        sql.NullString{String: iq.Context, Valid: iq.Context != ""},
		}
		if _, err := datastore.CreateTestQuestion(q); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store imported question: " + err.Error()})
			return
		}
	}

	total, err := datastore.CountDatasetQuestions(datasetID)
	if err != nil {
		log.Printf("Failed to recount questions for dataset %s: %v", datasetID, err)
		total = ds.TotalQuestions + len(imported)
	}
	if err := datastore.UpdateDatasetQuestionCount(datasetID, total); err != nil {
		log.Printf("Failed to update question count for dataset %s: %v", datasetID, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"imported":        len(imported),
		"total_questions": total,
		"archive_object":  archiveObject,
	})
}
