package apigateway

import (
	"github.com/gin-gonic/gin"

	"llm-compare-platform/backend/internal/auth"
	"llm-compare-platform/backend/internal/configmanagement"
	"llm-compare-platform/backend/internal/jobmanagement"
)

// SetupRouter initializes the main Gin router for the API gateway.
// It includes public routes and authenticated routes.
func SetupRouter() *gin.Engine {
	router := gin.Default()

	// Public routes (login/logout).
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/login", auth.LoginHandler)
		authRoutes.POST("/logout", auth.LogoutHandler)
	}

	// Authenticated routes. All routes in this group use the AuthMiddleware.
	adminRoutes := router.Group("/admin")
	adminRoutes.Use(auth.AuthMiddleware())
	{
		workspaceRoutes := adminRoutes.Group("/workspaces")
		{
			workspaceRoutes.POST("", configmanagement.CreateWorkspaceHandler)
			workspaceRoutes.GET("/:id", configmanagement.GetWorkspaceHandler)
			workspaceRoutes.POST("/:id/chunks", configmanagement.IndexChunksHandler)
		}

		datasetRoutes := adminRoutes.Group("/datasets")
		{
			datasetRoutes.POST("", configmanagement.CreateDatasetHandler)
			datasetRoutes.GET("", configmanagement.ListDatasetsHandler)
			datasetRoutes.GET("/:id", configmanagement.GetDatasetHandler)
			datasetRoutes.POST("/:id/questions", configmanagement.AddQuestionHandler)
			datasetRoutes.GET("/:id/questions", configmanagement.ListQuestionsHandler)
			datasetRoutes.POST("/:id/questions/upload", configmanagement.UploadQuestionsHandler)
		}

		evaluationRoutes := adminRoutes.Group("/evaluations")
		{
			evaluationRoutes.POST("", jobmanagement.CreateEvaluationHandler)
			evaluationRoutes.GET("", jobmanagement.ListEvaluationsHandler)
			evaluationRoutes.GET("/:id", jobmanagement.GetEvaluationHandler)
			evaluationRoutes.GET("/:id/results", jobmanagement.GetEvaluationResultsHandler)
			evaluationRoutes.GET("/:id/metrics", jobmanagement.GetEvaluationMetricsHandler)
			evaluationRoutes.GET("/:id/judge-results", jobmanagement.GetEvaluationJudgeResultsHandler)
			evaluationRoutes.GET("/:id/summary", jobmanagement.GetEvaluationSummaryHandler)
			evaluationRoutes.POST("/:id/cancel", jobmanagement.CancelEvaluationHandler)
		}
	}

	return router
}
