package evaluationengine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-compare-platform/backend/internal/coreengine/llmadapters"
	"llm-compare-platform/backend/internal/datastore"
)

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
	mu           sync.Mutex
	evaluation   *datastore.Evaluation
	workspace    *datastore.Workspace
	questions    []*datastore.TestQuestion
	results      map[string]*datastore.ModelResult
	resultByKey  map[string]string
	metrics      map[string]*datastore.QuestionMetric
	judgeResults []*datastore.JudgeResult
	summary      *datastore.EvaluationSummary
	progressSeq  []int
	nextID       int
}

func newFakeStore(eval *datastore.Evaluation, ws *datastore.Workspace, questions []*datastore.TestQuestion) *fakeStore {
	return &fakeStore{
		evaluation:  eval,
		workspace:   ws,
		questions:   questions,
		results:     map[string]*datastore.ModelResult{},
		resultByKey: map[string]string{},
		metrics:     map[string]*datastore.QuestionMetric{},
	}
}

func (s *fakeStore) GetEvaluation(id string) (*datastore.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evaluation == nil || s.evaluation.ID != id {
		return nil, datastore.ErrNotFound
	}
	copied := *s.evaluation
	return &copied, nil
}

func (s *fakeStore) GetWorkspace(id string) (*datastore.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workspace == nil || s.workspace.ID != id {
		return nil, datastore.ErrNotFound
	}
	return s.workspace, nil
}

func (s *fakeStore) GetDatasetQuestions(datasetID string) ([]*datastore.TestQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions, nil
}

func (s *fakeStore) MarkEvaluationRunning(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.evaluation.Status {
	case datastore.EvaluationStatusPending, datastore.EvaluationStatusRunning:
		s.evaluation.Status = datastore.EvaluationStatusRunning
		return nil
	}
	return fmt.Errorf("evaluation %s is not in a startable state", id)
}

func (s *fakeStore) MarkEvaluationCompleted(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evaluation.Status != datastore.EvaluationStatusRunning {
		return fmt.Errorf("evaluation %s is not running, refusing completion", id)
	}
	s.evaluation.Status = datastore.EvaluationStatusCompleted
	s.evaluation.Progress = 100
	return nil
}

func (s *fakeStore) MarkEvaluationFailed(id, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.evaluation.Status {
	case datastore.EvaluationStatusCompleted, datastore.EvaluationStatusFailed:
		return fmt.Errorf("evaluation %s already terminal", id)
	}
	s.evaluation.Status = datastore.EvaluationStatusFailed
	s.evaluation.ErrorMessage = sql.NullString{String: errorMessage, Valid: true}
	return nil
}

func (s *fakeStore) IncrementCompletedUnits(id string) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluation.CompletedQuestions++
	total := s.evaluation.TotalModelTests
	if total < 1 {
		total = 1
	}
	progress := s.evaluation.CompletedQuestions * 100 / total
	if progress > 100 {
		progress = 100
	}
	s.evaluation.Progress = progress
	s.progressSeq = append(s.progressSeq, progress)
	return s.evaluation.CompletedQuestions, progress, nil
}

func (s *fakeStore) GetExistingResultKeys(evaluationID string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := map[string]bool{}
	for key, id := range s.resultByKey {
		if !s.results[id].Failed() {
			keys[key] = true
		}
	}
	return keys, nil
}

func (s *fakeStore) DeleteErroredResults(evaluationID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for key, id := range s.resultByKey {
		if s.results[id].Failed() {
			delete(s.results, id)
			delete(s.resultByKey, key)
			removed++
		}
	}
	// Counter tracks persisted rows, so purged rows are subtracted.
	s.evaluation.CompletedQuestions -= int(removed)
	if s.evaluation.CompletedQuestions < 0 {
		s.evaluation.CompletedQuestions = 0
	}
	return removed, nil
}

func (s *fakeStore) CreateModelResult(r *datastore.ModelResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := datastore.WorkUnitKey(r.QuestionID, r.Provider, r.ModelName)
	if _, exists := s.resultByKey[key]; exists {
		return false, nil
	}
	s.nextID++
	r.ID = fmt.Sprintf("result-%d", s.nextID)
	s.results[r.ID] = r
	s.resultByKey[key] = r.ID
	return true, nil
}

func (s *fakeStore) GetModelResultsForEvaluation(evaluationID string) ([]*datastore.ModelResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*datastore.ModelResult{}
	for _, r := range s.results {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeStore) CreateQuestionMetric(m *datastore.QuestionMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[m.ModelResultID] = m
	return nil
}

func (s *fakeStore) GetMetricsForEvaluation(evaluationID string) ([]*datastore.QuestionMetric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*datastore.QuestionMetric{}
	for _, m := range s.metrics {
		out = append(out, m)
	}
	return out, nil
}

func (s *fakeStore) CreateJudgeResult(j *datastore.JudgeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.judgeResults = append(s.judgeResults, j)
	return nil
}

func (s *fakeStore) GetJudgeResultsForEvaluation(evaluationID string) ([]*datastore.JudgeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*datastore.JudgeResult{}, s.judgeResults...), nil
}

func (s *fakeStore) UpsertEvaluationSummary(summary *datastore.EvaluationSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
	return nil
}

func (s *fakeStore) status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evaluation.Status
}

// judgeStub answers rubric and pairwise prompts with canned valid JSON.
type judgeStub struct{}

func (judgeStub) Provider() string { return "judge" }

func (judgeStub) Generate(ctx context.Context, model, prompt string, params llmadapters.GenerationParams) (*llmadapters.LLMResponse, error) {
	if strings.Contains(prompt, "Model A Response:") {
		return &llmadapters.LLMResponse{Content: `{
			"winner": "model_a", "score_a": 8, "score_b": 6,
			"reasoning": "A is better.", "confidence": 0.9,
			"criteria_scores": {"correctness": {"model_a": 8, "model_b": 6}}
		}`}, nil
	}
	return &llmadapters.LLMResponse{Content: `{
		"accuracy": {"score": 0.9, "explanation": "good"},
		"faithfulness": {"score": 0.8, "explanation": "good"},
		"reasoning": {"score": 0.7, "explanation": "good"},
		"context_utilization": {"score": 0.6, "explanation": "good"}
	}`}, nil
}

// brokenJudgeStub never produces parseable JSON.
type brokenJudgeStub struct{}

func (brokenJudgeStub) Provider() string { return "judge" }

func (brokenJudgeStub) Generate(ctx context.Context, model, prompt string, params llmadapters.GenerationParams) (*llmadapters.LLMResponse, error) {
	return &llmadapters.LLMResponse{Content: "I cannot output JSON today."}, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ProviderRPS = 0
	cfg.CallTimeout = 5 * time.Second
	cfg.RetryPolicy = llmadapters.RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
	return cfg
}

func twoModelEvaluation(t *testing.T, questionCount int) (*datastore.Evaluation, *datastore.Workspace, []*datastore.TestQuestion) {
	t.Helper()
	configs, err := datastore.MarshalModelConfigs([]datastore.ModelConfig{
		{Provider: "mock", Model: "model-a"},
		{Provider: "mock", Model: "model-b"},
	})
	require.NoError(t, err)

	eval := &datastore.Evaluation{
		ID:              "eval-1",
		WorkspaceID:     "ws-1",
		DatasetID:       "ds-1",
		Name:            "comparison run",
		ModelConfigs:    configs,
		JudgeProvider:   sql.NullString{String: "judge", Valid: true},
		JudgeModel:      sql.NullString{String: "judge-model", Valid: true},
		Status:          datastore.EvaluationStatusPending,
		TotalQuestions:  questionCount,
		TotalModelTests: questionCount * 2,
	}
	ws := &datastore.Workspace{ID: "ws-1", Name: "workspace"}

	questions := make([]*datastore.TestQuestion, 0, questionCount)
	for i := 1; i <= questionCount; i++ {
		questions = append(questions, &datastore.TestQuestion{
			ID:             fmt.Sprintf("q%d", i),
			DatasetID:      "ds-1",
			Question:       fmt.Sprintf("Question number %d?", i),
			ExpectedAnswer: sql.NullString{String: "the expected answer", Valid: true},
			Context:        sql.NullString{String: "some background context", Valid: true},
		})
	}
	return eval, ws, questions
}

func newTestRegistry(candidate llmadapters.LLMAdapter, judge llmadapters.LLMAdapter) *llmadapters.Registry {
	registry := llmadapters.NewRegistry()
	registry.Register(candidate)
	registry.Register(judge)
	return registry
}

func TestRunEvaluationHappyPath(t *testing.T) {
	eval, ws, questions := twoModelEvaluation(t, 2)
	store := newFakeStore(eval, ws, questions)
	adapter := &llmadapters.MockLLMAdapter{}
	engine := NewEngine(store, newTestRegistry(adapter, judgeStub{}), nil, testConfig())

	require.NoError(t, engine.RunEvaluation(context.Background(), "eval-1"))
	assert.Equal(t, datastore.EvaluationStatusCompleted, store.status())

	results, _ := store.GetModelResultsForEvaluation("eval-1")
	require.Len(t, results, 4)
	for _, r := range results {
		assert.False(t, r.Failed())
		assert.NotEmpty(t, r.Answer)
		assert.True(t, r.PromptUsed.Valid)
		assert.Contains(t, r.PromptUsed.String, "some background context")
	}

	metrics, _ := store.GetMetricsForEvaluation("eval-1")
	require.Len(t, metrics, 4)
	for _, m := range metrics {
		require.True(t, m.AccuracyScore.Valid)
		assert.InDelta(t, 0.9, m.AccuracyScore.Float64, 1e-9)
	}

	verdicts, _ := store.GetJudgeResultsForEvaluation("eval-1")
	require.Len(t, verdicts, 2)
	for _, v := range verdicts {
		require.True(t, v.Winner.Valid)
		assert.Equal(t, datastore.JudgeWinnerModelA, v.Winner.String)
	}

	require.NotNil(t, store.summary)
	assert.Equal(t, 4, store.summary.SuccessfulEvaluations)
	assert.Zero(t, store.summary.FailedEvaluations)

	// Progress only moves forward and ends complete.
	require.Len(t, store.progressSeq, 4)
	for i := 1; i < len(store.progressSeq); i++ {
		assert.GreaterOrEqual(t, store.progressSeq[i], store.progressSeq[i-1])
	}
	assert.Equal(t, 100, store.progressSeq[len(store.progressSeq)-1])
}

func TestRunEvaluationPairwiseOrientationIsDeterministic(t *testing.T) {
	eval, ws, questions := twoModelEvaluation(t, 1)
	store := newFakeStore(eval, ws, questions)
	engine := NewEngine(store, newTestRegistry(&llmadapters.MockLLMAdapter{}, judgeStub{}), nil, testConfig())

	require.NoError(t, engine.RunEvaluation(context.Background(), "eval-1"))

	verdicts, _ := store.GetJudgeResultsForEvaluation("eval-1")
	require.Len(t, verdicts, 1)

	store.mu.Lock()
	a := store.results[verdicts[0].ModelAResultID]
	b := store.results[verdicts[0].ModelBResultID]
	store.mu.Unlock()
	assert.Equal(t, "mock:model-a", a.ModelKey())
	assert.Equal(t, "mock:model-b", b.ModelKey())
}

func TestRunEvaluationRetriesTransientFailures(t *testing.T) {
	eval, ws, questions := twoModelEvaluation(t, 1)
	store := newFakeStore(eval, ws, questions)
	adapter := &llmadapters.MockLLMAdapter{
		FailuresPerModel: map[string]int{"model-a": 2},
	}
	engine := NewEngine(store, newTestRegistry(adapter, judgeStub{}), nil, testConfig())

	require.NoError(t, engine.RunEvaluation(context.Background(), "eval-1"))
	assert.Equal(t, datastore.EvaluationStatusCompleted, store.status())

	results, _ := store.GetModelResultsForEvaluation("eval-1")
	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Failed())
	}
	assert.Equal(t, 3, adapter.CallCount("model-a"))
	assert.Equal(t, 1, adapter.CallCount("model-b"))
}

func TestRunEvaluationRecordsExhaustedUnitsAsErrors(t *testing.T) {
	eval, ws, questions := twoModelEvaluation(t, 1)
	store := newFakeStore(eval, ws, questions)
	adapter := &llmadapters.MockLLMAdapter{
		FailuresPerModel: map[string]int{"model-a": 100},
	}
	engine := NewEngine(store, newTestRegistry(adapter, judgeStub{}), nil, testConfig())

	require.NoError(t, engine.RunEvaluation(context.Background(), "eval-1"))
	// A failed unit is data, not an infrastructure failure.
	assert.Equal(t, datastore.EvaluationStatusCompleted, store.status())

	results, _ := store.GetModelResultsForEvaluation("eval-1")
	require.Len(t, results, 2)
	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
			assert.Contains(t, r.ErrorMessage.String, "all 3 attempts failed")
		}
	}
	assert.Equal(t, 1, failed)

	// Errored answers are never judged, and no pairwise verdict exists for
	// a question missing one side.
	metrics, _ := store.GetMetricsForEvaluation("eval-1")
	assert.Len(t, metrics, 1)
	verdicts, _ := store.GetJudgeResultsForEvaluation("eval-1")
	assert.Empty(t, verdicts)

	require.NotNil(t, store.summary)
	assert.Equal(t, 1, store.summary.SuccessfulEvaluations)
	assert.Equal(t, 1, store.summary.FailedEvaluations)
}

func TestRunEvaluationResumeSkipsFinishedUnits(t *testing.T) {
	eval, ws, questions := twoModelEvaluation(t, 2)
	eval.Status = datastore.EvaluationStatusRunning
	store := newFakeStore(eval, ws, questions)

	// Question 1 finished before the crash; one errored unit must be retried.
	_, err := store.CreateModelResult(&datastore.ModelResult{
		EvaluationID: "eval-1", QuestionID: "q1", Provider: "mock", ModelName: "model-a", Answer: "done earlier",
	})
	require.NoError(t, err)
	_, err = store.CreateModelResult(&datastore.ModelResult{
		EvaluationID: "eval-1", QuestionID: "q1", Provider: "mock", ModelName: "model-b", Answer: "done earlier",
	})
	require.NoError(t, err)
	_, err = store.CreateModelResult(&datastore.ModelResult{
		EvaluationID: "eval-1", QuestionID: "q2", Provider: "mock", ModelName: "model-a",
		ErrorMessage: sql.NullString{String: "crashed mid-call", Valid: true},
	})
	require.NoError(t, err)
	eval.CompletedQuestions = 3

	adapter := &llmadapters.MockLLMAdapter{}
	engine := NewEngine(store, newTestRegistry(adapter, judgeStub{}), nil, testConfig())
	require.NoError(t, engine.RunEvaluation(context.Background(), "eval-1"))
	assert.Equal(t, datastore.EvaluationStatusCompleted, store.status())

	// Only the errored unit and the never-run unit were generated.
	assert.Equal(t, 1, adapter.CallCount("model-a"))
	assert.Equal(t, 1, adapter.CallCount("model-b"))

	results, _ := store.GetModelResultsForEvaluation("eval-1")
	require.Len(t, results, 4)
	for _, r := range results {
		assert.False(t, r.Failed())
	}

	// Retried units must not double-count: at completion the counter equals
	// the number of work units.
	store.mu.Lock()
	completed := store.evaluation.CompletedQuestions
	store.mu.Unlock()
	assert.Equal(t, eval.TotalModelTests, completed)
}

// stallFirstCallAdapter blocks until the call context expires on the first
// call per model, then answers instantly.
type stallFirstCallAdapter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (a *stallFirstCallAdapter) Provider() string { return "mock" }

func (a *stallFirstCallAdapter) Generate(ctx context.Context, model, prompt string, params llmadapters.GenerationParams) (*llmadapters.LLMResponse, error) {
	a.mu.Lock()
	if a.calls == nil {
		a.calls = map[string]int{}
	}
	a.calls[model]++
	first := a.calls[model] == 1
	a.mu.Unlock()

	if first {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &llmadapters.LLMResponse{Content: "recovered answer"}, nil
}

func (a *stallFirstCallAdapter) callCount(model string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[model]
}

func TestRunEvaluationRetriesTimedOutCalls(t *testing.T) {
	eval, ws, questions := twoModelEvaluation(t, 1)
	store := newFakeStore(eval, ws, questions)
	adapter := &stallFirstCallAdapter{}
	cfg := testConfig()
	cfg.CallTimeout = 20 * time.Millisecond
	engine := NewEngine(store, newTestRegistry(adapter, judgeStub{}), nil, cfg)

	require.NoError(t, engine.RunEvaluation(context.Background(), "eval-1"))
	assert.Equal(t, datastore.EvaluationStatusCompleted, store.status())

	// The timed-out first call is a transient failure, not the unit's death.
	results, _ := store.GetModelResultsForEvaluation("eval-1")
	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Failed())
		assert.Equal(t, "recovered answer", r.Answer)
	}
	assert.Equal(t, 2, adapter.callCount("model-a"))
	assert.Equal(t, 2, adapter.callCount("model-b"))
}

func TestRunEvaluationTerminalStateIsNoOp(t *testing.T) {
	eval, ws, questions := twoModelEvaluation(t, 1)
	eval.Status = datastore.EvaluationStatusCompleted
	store := newFakeStore(eval, ws, questions)
	adapter := &llmadapters.MockLLMAdapter{}
	engine := NewEngine(store, newTestRegistry(adapter, judgeStub{}), nil, testConfig())

	require.NoError(t, engine.RunEvaluation(context.Background(), "eval-1"))
	assert.Zero(t, adapter.CallCount("model-a"))
	assert.Equal(t, datastore.EvaluationStatusCompleted, store.status())
}

func TestRunEvaluationCancellation(t *testing.T) {
	eval, ws, questions := twoModelEvaluation(t, 3)
	store := newFakeStore(eval, ws, questions)
	adapter := &llmadapters.MockLLMAdapter{Delay: 50 * time.Millisecond}
	engine := NewEngine(store, newTestRegistry(adapter, judgeStub{}), nil, testConfig())

	done := make(chan error, 1)
	go func() {
		done <- engine.RunEvaluation(context.Background(), "eval-1")
	}()

	require.Eventually(t, func() bool {
		return engine.CancelEvaluation("eval-1")
	}, time.Second, 5*time.Millisecond)

	err := <-done
	require.Error(t, err)
	assert.Equal(t, datastore.EvaluationStatusFailed, store.status())

	store.mu.Lock()
	message := store.evaluation.ErrorMessage.String
	store.mu.Unlock()
	assert.Equal(t, "evaluation cancelled", message)
}

func TestRunEvaluationUnparseableJudgeStoresNullScores(t *testing.T) {
	eval, ws, questions := twoModelEvaluation(t, 1)
	store := newFakeStore(eval, ws, questions)
	engine := NewEngine(store, newTestRegistry(&llmadapters.MockLLMAdapter{}, brokenJudgeStub{}), nil, testConfig())

	require.NoError(t, engine.RunEvaluation(context.Background(), "eval-1"))
	assert.Equal(t, datastore.EvaluationStatusCompleted, store.status())

	metrics, _ := store.GetMetricsForEvaluation("eval-1")
	require.Len(t, metrics, 2)
	for _, m := range metrics {
		assert.False(t, m.AccuracyScore.Valid)
		assert.False(t, m.FaithfulnessScore.Valid)
		assert.False(t, m.ReasoningScore.Valid)
		assert.False(t, m.ContextUtilizationScore.Valid)
	}

	verdicts, _ := store.GetJudgeResultsForEvaluation("eval-1")
	require.Len(t, verdicts, 1)
	assert.False(t, verdicts[0].Winner.Valid)
}

func TestRunEvaluationWithoutJudgeSkipsScoring(t *testing.T) {
	eval, ws, questions := twoModelEvaluation(t, 1)
	eval.JudgeProvider = sql.NullString{}
	eval.JudgeModel = sql.NullString{}
	store := newFakeStore(eval, ws, questions)
	engine := NewEngine(store, newTestRegistry(&llmadapters.MockLLMAdapter{}, judgeStub{}), nil, testConfig())

	require.NoError(t, engine.RunEvaluation(context.Background(), "eval-1"))
	assert.Equal(t, datastore.EvaluationStatusCompleted, store.status())

	metrics, _ := store.GetMetricsForEvaluation("eval-1")
	assert.Empty(t, metrics)
	require.NotNil(t, store.summary)
	assert.False(t, store.summary.OverallScore.Valid)
}

func TestRunEvaluationMissingJudgeAdapterFails(t *testing.T) {
	eval, ws, questions := twoModelEvaluation(t, 1)
	eval.JudgeProvider = sql.NullString{String: "nonexistent", Valid: true}
	store := newFakeStore(eval, ws, questions)
	engine := NewEngine(store, newTestRegistry(&llmadapters.MockLLMAdapter{}, judgeStub{}), nil, testConfig())

	err := engine.RunEvaluation(context.Background(), "eval-1")
	require.Error(t, err)
	assert.Equal(t, datastore.EvaluationStatusFailed, store.status())
}

func TestRunEvaluationEmptyDatasetFails(t *testing.T) {
	eval, ws, _ := twoModelEvaluation(t, 0)
	store := newFakeStore(eval, ws, nil)
	engine := NewEngine(store, newTestRegistry(&llmadapters.MockLLMAdapter{}, judgeStub{}), nil, testConfig())

	err := engine.RunEvaluation(context.Background(), "eval-1")
	require.Error(t, err)
	assert.Equal(t, datastore.EvaluationStatusFailed, store.status())
}
