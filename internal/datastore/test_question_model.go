package datastore

import (
	"database/sql"
	"encoding/json"
	"time"
)

// TestQuestion maps to the test_questions table.
type TestQuestion struct {
	ID             string          `json:"id"`
	DatasetID      string          `json:"dataset_id"`
	Question       string          `json:"question"`
	ExpectedAnswer sql.NullString  `json:"expected_answer,omitempty"`
	Context        sql.NullString  `json:"context,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
