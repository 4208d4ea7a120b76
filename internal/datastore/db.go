package datastore

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	_ "github.com/lib/pq" // Postgres driver
)

// DB is the shared database handle for all stores.
// It is initialized once at application startup via InitDB.
var DB *sql.DB

// ErrNotFound is returned by Get* functions when no row matches.
var ErrNotFound = errors.New("not found")

// InitDB opens the Postgres connection pool and verifies connectivity.
func InitDB(dataSourceName string) error {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	DB = db
	log.Println("Database connection initialized.")
	return nil
}

// EnsureSchema creates the tables used by the platform if they do not exist.
// Column layout follows the platform schema; UUIDs are stored as text keys.
func EnsureSchema() error {
	if DB == nil {
		return errors.New("database connection not initialized")
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS workspaces (
			id TEXT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			embedding_provider VARCHAR(50),
			embedding_model VARCHAR(100),
			vector_collection_id VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT,
			workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			token_count INTEGER,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_workspace ON chunks(workspace_id)`,
		`CREATE TABLE IF NOT EXISTS test_datasets (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			source VARCHAR(50) NOT NULL,
			generation_model VARCHAR(100),
			total_questions INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS test_questions (
			id TEXT PRIMARY KEY,
			dataset_id TEXT NOT NULL REFERENCES test_datasets(id) ON DELETE CASCADE,
			question TEXT NOT NULL,
			expected_answer TEXT,
			context TEXT,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_test_questions_dataset ON test_questions(dataset_id)`,
		`CREATE TABLE IF NOT EXISTS evaluations (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
			dataset_id TEXT NOT NULL REFERENCES test_datasets(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			model_configs JSONB NOT NULL,
			judge_provider VARCHAR(50),
			judge_model VARCHAR(100),
			status VARCHAR(50) NOT NULL DEFAULT 'pending',
			progress INTEGER NOT NULL DEFAULT 0,
			total_questions INTEGER NOT NULL DEFAULT 0,
			total_model_tests INTEGER NOT NULL DEFAULT 0,
			completed_questions INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_workspace ON evaluations(workspace_id)`,
		`CREATE TABLE IF NOT EXISTS model_results (
			id TEXT PRIMARY KEY,
			evaluation_id TEXT NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
			question_id TEXT NOT NULL REFERENCES test_questions(id) ON DELETE CASCADE,
			provider VARCHAR(50) NOT NULL,
			model_name VARCHAR(100) NOT NULL,
			answer TEXT NOT NULL DEFAULT '',
			retrieved_chunks JSONB,
			prompt_used TEXT,
			tokens_in INTEGER,
			tokens_out INTEGER,
			latency_ms BIGINT,
			cost_usd NUMERIC(10,6),
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (evaluation_id, question_id, provider, model_name)
		)`,
		`CREATE TABLE IF NOT EXISTS question_metrics (
			id TEXT PRIMARY KEY,
			model_result_id TEXT NOT NULL UNIQUE REFERENCES model_results(id) ON DELETE CASCADE,
			evaluation_id TEXT NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
			question_id TEXT NOT NULL REFERENCES test_questions(id) ON DELETE CASCADE,
			accuracy_score NUMERIC(4,3),
			faithfulness_score NUMERIC(4,3),
			reasoning_score NUMERIC(4,3),
			context_utilization_score NUMERIC(4,3),
			accuracy_explanation TEXT,
			faithfulness_explanation TEXT,
			reasoning_explanation TEXT,
			context_utilization_explanation TEXT,
			latency_ms BIGINT,
			cost_usd NUMERIC(10,6),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_question_metrics_evaluation ON question_metrics(evaluation_id)`,
		`CREATE TABLE IF NOT EXISTS judge_results (
			id TEXT PRIMARY KEY,
			evaluation_id TEXT NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
			question_id TEXT NOT NULL REFERENCES test_questions(id) ON DELETE CASCADE,
			model_a_result_id TEXT NOT NULL REFERENCES model_results(id) ON DELETE CASCADE,
			model_b_result_id TEXT NOT NULL REFERENCES model_results(id) ON DELETE CASCADE,
			judge_provider VARCHAR(50) NOT NULL,
			judge_model VARCHAR(100) NOT NULL,
			winner VARCHAR(50),
			score_a NUMERIC(4,2),
			score_b NUMERIC(4,2),
			reasoning TEXT,
			confidence NUMERIC(4,2),
			criteria_scores JSONB,
			judge_prompt TEXT,
			judge_response TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_judge_results_evaluation ON judge_results(evaluation_id)`,
		`CREATE TABLE IF NOT EXISTS evaluation_summaries (
			id TEXT PRIMARY KEY,
			evaluation_id TEXT NOT NULL UNIQUE REFERENCES evaluations(id) ON DELETE CASCADE,
			avg_accuracy NUMERIC(4,3),
			avg_faithfulness NUMERIC(4,3),
			avg_reasoning NUMERIC(4,3),
			avg_context_utilization NUMERIC(4,3),
			avg_latency_ms BIGINT,
			avg_cost_usd NUMERIC(10,6),
			total_cost_usd NUMERIC(10,6),
			overall_score NUMERIC(4,3),
			total_questions INTEGER NOT NULL,
			total_model_tests INTEGER NOT NULL,
			successful_evaluations INTEGER NOT NULL,
			failed_evaluations INTEGER NOT NULL,
			models_summary JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	log.Println("Database schema verified.")
	return nil
}
