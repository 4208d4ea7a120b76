package main

import (
	"fmt"
	"log"
	"os"

	"llm-compare-platform/backend/internal/apigateway"
	"llm-compare-platform/backend/internal/auth"
	"llm-compare-platform/backend/internal/coreengine/evaluationengine"
	"llm-compare-platform/backend/internal/coreengine/llmadapters"
	"llm-compare-platform/backend/internal/coreengine/retrievaladapters"
	"llm-compare-platform/backend/internal/datastore"
	"llm-compare-platform/backend/internal/jobmanagement"
	"llm-compare-platform/backend/internal/objectstore"
)

func main() {
	auth.LoadAdminCredentials()

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := envOr("DB_NAME", "llm_compare_platform")
	dbSSLMode := envOr("DB_SSLMODE", "disable")
	if dbPassword == "" {
		log.Println("WARNING: DB_PASSWORD environment variable not set.")
	}

	dataSourceName := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)

	if err := datastore.InitDB(dataSourceName); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer datastore.DB.Close()

	if err := datastore.EnsureSchema(); err != nil {
		log.Fatalf("Failed to verify database schema: %v", err)
	}

	// Object storage is optional: without it, dataset uploads are parsed but
	// not archived.
	if err := objectstore.InitMinioClient(); err != nil {
		log.Printf("WARNING: object store unavailable, dataset uploads will not be archived: %v", err)
	}

	llmadapters.InitDefaultRegistry()

	engine := evaluationengine.NewEngine(
		evaluationengine.DBStore{},
		llmadapters.DefaultRegistry(),
		retrievaladapters.NewPostgresRetriever(),
		evaluationengine.ConfigFromEnv(),
	)
	jobmanagement.InitHandlers(jobmanagement.NewEvaluationService(engine))

	router := apigateway.SetupRouter()

	serverPort := envOr("SERVER_PORT", "8080")
	log.Printf("Starting server on :%s", serverPort)
	if err := router.Run(":" + serverPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
