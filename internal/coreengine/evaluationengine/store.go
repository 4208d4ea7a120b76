package evaluationengine

import (
	"llm-compare-platform/backend/internal/datastore"
)

// Store is the persistence surface the engine needs. The production
// implementation delegates to the datastore package; tests substitute an
// in-memory fake.
type Store interface {
	GetEvaluation(id string) (*datastore.Evaluation, error)
	GetWorkspace(id string) (*datastore.Workspace, error)
	GetDatasetQuestions(datasetID string) ([]*datastore.TestQuestion, error)

	MarkEvaluationRunning(id string) error
	MarkEvaluationCompleted(id string) error
	MarkEvaluationFailed(id, errorMessage string) error
	IncrementCompletedUnits(id string) (completed int, progress int, err error)

	GetExistingResultKeys(evaluationID string) (map[string]bool, error)
	DeleteErroredResults(evaluationID string) (int64, error)
	CreateModelResult(r *datastore.ModelResult) (bool, error)
	GetModelResultsForEvaluation(evaluationID string) ([]*datastore.ModelResult, error)

	CreateQuestionMetric(m *datastore.QuestionMetric) error
	GetMetricsForEvaluation(evaluationID string) ([]*datastore.QuestionMetric, error)
	CreateJudgeResult(j *datastore.JudgeResult) error
	GetJudgeResultsForEvaluation(evaluationID string) ([]*datastore.JudgeResult, error)
	UpsertEvaluationSummary(s *datastore.EvaluationSummary) error
}

// DBStore is the database-backed Store.
type DBStore struct{}

func (DBStore) GetEvaluation(id string) (*datastore.Evaluation, error) {
	return datastore.GetEvaluation(id)
}

func (DBStore) GetWorkspace(id string) (*datastore.Workspace, error) {
	return datastore.GetWorkspace(id)
}

func (DBStore) GetDatasetQuestions(datasetID string) ([]*datastore.TestQuestion, error) {
	return datastore.GetDatasetQuestions(datasetID)
}

func (DBStore) MarkEvaluationRunning(id string) error {
	return datastore.MarkEvaluationRunning(id)
}

func (DBStore) MarkEvaluationCompleted(id string) error {
	return datastore.MarkEvaluationCompleted(id)
}

func (DBStore) MarkEvaluationFailed(id, errorMessage string) error {
	return datastore.MarkEvaluationFailed(id, errorMessage)
}

func (DBStore) IncrementCompletedUnits(id string) (int, int, error) {
	return datastore.IncrementCompletedUnits(id)
}

func (DBStore) GetExistingResultKeys(evaluationID string) (map[string]bool, error) {
	return datastore.GetExistingResultKeys(evaluationID)
}

func (DBStore) DeleteErroredResults(evaluationID string) (int64, error) {
	return datastore.DeleteErroredResults(evaluationID)
}

func (DBStore) CreateModelResult(r *datastore.ModelResult) (bool, error) {
	return datastore.CreateModelResult(r)
}

func (DBStore) GetModelResultsForEvaluation(evaluationID string) ([]*datastore.ModelResult, error) {
	return datastore.GetModelResultsForEvaluation(evaluationID)
}

func (DBStore) CreateQuestionMetric(m *datastore.QuestionMetric) error {
	return datastore.CreateQuestionMetric(m)
}

func (DBStore) GetMetricsForEvaluation(evaluationID string) ([]*datastore.QuestionMetric, error) {
	return datastore.GetMetricsForEvaluation(evaluationID)
}

func (DBStore) CreateJudgeResult(j *datastore.JudgeResult) error {
	return datastore.CreateJudgeResult(j)
}

func (DBStore) GetJudgeResultsForEvaluation(evaluationID string) ([]*datastore.JudgeResult, error) {
	return datastore.GetJudgeResultsForEvaluation(evaluationID)
}

func (DBStore) UpsertEvaluationSummary(s *datastore.EvaluationSummary) error {
	return datastore.UpsertEvaluationSummary(s)
}
