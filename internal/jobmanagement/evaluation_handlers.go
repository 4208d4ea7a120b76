package jobmanagement

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"llm-compare-platform/backend/internal/datastore"
)

var evaluationService *EvaluationService

// InitHandlers wires the handler layer to the evaluation service.
func InitHandlers(service *EvaluationService) {
	evaluationService = service
}

// CreateEvaluationRequest defines the payload for starting an evaluation.
type CreateEvaluationRequest struct {
	WorkspaceID   string                  `json:"workspace_id" binding:"required"`
	DatasetID     string                  `json:"dataset_id" binding:"required"`
	Name          string                  `json:"name" binding:"required"`
	Description   string                  `json:"description"`
	ModelConfigs  []datastore.ModelConfig `json:"model_configs" binding:"required,min=1"`
	JudgeProvider string                  `json:"judge_provider"`
	JudgeModel    string                  `json:"judge_model"`
}

// CreateEvaluationHandler starts a new evaluation run in the background and
// returns the pending evaluation.
func CreateEvaluationHandler(c *gin.Context) {
	var req CreateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	eval, err := evaluationService.CreateAndStartEvaluation(CreateEvaluationParams{
		WorkspaceID:   req.WorkspaceID,
		DatasetID:     req.DatasetID,
		Name:          req.Name,
		Description:   req.Description,
		ModelConfigs:  req.ModelConfigs,
		JudgeProvider: req.JudgeProvider,
		JudgeModel:    req.JudgeModel,
	})
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, eval)
}

// GetEvaluationHandler returns an evaluation with its live status and
// progress counters.
func GetEvaluationHandler(c *gin.Context) {
	eval, err := datastore.GetEvaluation(c.Param("id"))
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve evaluation: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, eval)
}

// ListEvaluationsHandler lists a workspace's evaluations, newest first.
func ListEvaluationsHandler(c *gin.Context) {
	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workspace_id query parameter is required"})
		return
	}

	evaluations, err := datastore.ListWorkspaceEvaluations(workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list evaluations: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, evaluations)
}

// GetEvaluationResultsHandler returns all per-unit model results of an
// evaluation.
func GetEvaluationResultsHandler(c *gin.Context) {
	id := c.Param("id")
	if _, err := datastore.GetEvaluation(id); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify evaluation: " + err.Error()})
		}
		return
	}

	results, err := datastore.GetModelResultsForEvaluation(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve results: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

// GetEvaluationMetricsHandler returns the per-question rubric metrics of an
// evaluation, both flat and grouped by "provider:model".
func GetEvaluationMetricsHandler(c *gin.Context) {
	id := c.Param("id")
	if _, err := datastore.GetEvaluation(id); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify evaluation: " + err.Error()})
		}
		return
	}

	metrics, err := datastore.GetMetricsForEvaluation(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve metrics: " + err.Error()})
		return
	}
	results, err := datastore.GetModelResultsForEvaluation(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve results: " + err.Error()})
		return
	}

	modelKeyByResult := make(map[string]string, len(results))
	for _, r := range results {
		modelKeyByResult[r.ID] = r.ModelKey()
	}
	byModel := map[string][]*datastore.QuestionMetric{}
	for _, m := range metrics {
		key, ok := modelKeyByResult[m.ModelResultID]
		if !ok {
			continue
		}
		byModel[key] = append(byModel[key], m)
	}

	c.JSON(http.StatusOK, gin.H{
		"metrics":          metrics,
		"metrics_by_model": byModel,
	})
}

// GetEvaluationJudgeResultsHandler returns the pairwise verdicts of an
// evaluation.
func GetEvaluationJudgeResultsHandler(c *gin.Context) {
	id := c.Param("id")
	if _, err := datastore.GetEvaluation(id); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify evaluation: " + err.Error()})
		}
		return
	}

	verdicts, err := datastore.GetJudgeResultsForEvaluation(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve judge results: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, verdicts)
}

// GetEvaluationSummaryHandler returns the final scorecard. 404 until the
// evaluation has completed and the summary is written.
func GetEvaluationSummaryHandler(c *gin.Context) {
	summary, err := datastore.GetEvaluationSummary(c.Param("id"))
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve summary: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CancelEvaluationHandler aborts a pending or running evaluation.
func CancelEvaluationHandler(c *gin.Context) {
	if err := evaluationService.CancelEvaluation(c.Param("id")); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Evaluation cancellation requested."})
}
