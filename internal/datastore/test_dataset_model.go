package datastore

import (
	"database/sql"
	"time"
)

// Dataset sources.
const (
	DatasetSourceUploaded  = "uploaded"
	DatasetSourceManual    = "manual"
	DatasetSourceSynthetic = "synthetic"
)

// TestDataset maps to the test_datasets table: an ordered collection of
// test questions inside a workspace.
type TestDataset struct {
	ID              string         `json:"id"`
	WorkspaceID     string         `json:"workspace_id"`
	Name            string         `json:"name"`
	Description     sql.NullString `json:"description,omitempty"`
	Source          string         `json:"source"`
	GenerationModel sql.NullString `json:"generation_model,omitempty"`
	TotalQuestions  int            `json:"total_questions"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
