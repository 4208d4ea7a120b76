package evaluationengine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/semaphore"

	"llm-compare-platform/backend/internal/coreengine/judgeengine"
	"llm-compare-platform/backend/internal/coreengine/llmadapters"
	"llm-compare-platform/backend/internal/coreengine/metricscalculator"
	"llm-compare-platform/backend/internal/coreengine/retrievaladapters"
	"llm-compare-platform/backend/internal/datastore"
)

const cancelledMessage = "evaluation cancelled"

// RunEvaluation executes one evaluation end to end: generation across all
// question x model work units, judging, and the final summary. It blocks
// until the run reaches a terminal state; callers dispatch it on a goroutine.
// Re-invoking on an evaluation that already finished is a no-op, and
// re-invoking after a crash resumes where the previous run stopped.
func (e *Engine) RunEvaluation(ctx context.Context, evaluationID string) error {
	runCtx, done := e.registerRun(ctx, evaluationID)
	defer done()

	eval, err := e.store.GetEvaluation(evaluationID)
	if err != nil {
		return fmt.Errorf("failed to load evaluation %s: %w", evaluationID, err)
	}
	if eval.Status == datastore.EvaluationStatusCompleted || eval.Status == datastore.EvaluationStatusFailed {
		log.Printf("Evaluation %s already %s, nothing to do.", evaluationID, eval.Status)
		return nil
	}

	configs, err := eval.ParseModelConfigs()
	if err != nil {
		return e.failRun(evaluationID, err)
	}
	if len(configs) == 0 {
		return e.failRun(evaluationID, errors.New("evaluation has no models to test"))
	}

	workspace, err := e.store.GetWorkspace(eval.WorkspaceID)
	if err != nil {
		return e.failRun(evaluationID, fmt.Errorf("failed to load workspace: %w", err))
	}
	questions, err := e.store.GetDatasetQuestions(eval.DatasetID)
	if err != nil {
		return e.failRun(evaluationID, fmt.Errorf("failed to load questions: %w", err))
	}
	if len(questions) == 0 {
		return e.failRun(evaluationID, errors.New("dataset has no questions"))
	}

	if err := e.store.MarkEvaluationRunning(evaluationID); err != nil {
		return fmt.Errorf("evaluation %s could not start: %w", evaluationID, err)
	}

	// Resume preparation: errored units are retried from scratch, finished
	// ones are skipped.
	removed, err := e.store.DeleteErroredResults(evaluationID)
	if err != nil {
		return e.failRun(evaluationID, err)
	}
	if removed > 0 {
		log.Printf("Evaluation %s: cleared %d errored results for retry.", evaluationID, removed)
	}
	existing, err := e.store.GetExistingResultKeys(evaluationID)
	if err != nil {
		return e.failRun(evaluationID, err)
	}
	if len(existing) > 0 {
		log.Printf("Evaluation %s: resuming, %d of %d work units already done.",
			evaluationID, len(existing), len(questions)*len(configs))
	}

	if err := e.runGenerationPhase(runCtx, eval, workspace, questions, configs, existing); err != nil {
		return e.finishWithError(runCtx, evaluationID, err)
	}
	if err := runCtx.Err(); err != nil {
		return e.finishWithError(runCtx, evaluationID, err)
	}

	if err := e.runJudgePhase(runCtx, eval, questions, configs); err != nil {
		return e.finishWithError(runCtx, evaluationID, err)
	}
	if err := runCtx.Err(); err != nil {
		return e.finishWithError(runCtx, evaluationID, err)
	}

	if err := e.writeSummary(eval, questions); err != nil {
		return e.failRun(evaluationID, err)
	}

	if err := e.store.MarkEvaluationCompleted(evaluationID); err != nil {
		return fmt.Errorf("evaluation %s finished but could not be marked completed: %w", evaluationID, err)
	}
	log.Printf("Evaluation %s completed.", evaluationID)
	return nil
}

// finishWithError maps a phase error to the failed terminal state, reporting
// cancellation distinctly from infrastructure failures.
func (e *Engine) finishWithError(ctx context.Context, evaluationID string, cause error) error {
	if errors.Is(cause, context.Canceled) || ctx.Err() != nil {
		return e.failRunWithMessage(evaluationID, cancelledMessage, cause)
	}
	return e.failRun(evaluationID, cause)
}

func (e *Engine) failRun(evaluationID string, cause error) error {
	return e.failRunWithMessage(evaluationID, cause.Error(), cause)
}

func (e *Engine) failRunWithMessage(evaluationID, message string, cause error) error {
	log.Printf("Evaluation %s failed: %v", evaluationID, cause)
	if err := e.store.MarkEvaluationFailed(evaluationID, message); err != nil {
		log.Printf("Evaluation %s: could not record failure: %v", evaluationID, err)
	}
	return cause
}

type workUnit struct {
	question *datastore.TestQuestion
	config   datastore.ModelConfig
}

// runGenerationPhase fans the pending work units across the bounded pool.
// Work-unit level provider errors are recorded on the result row and do not
// abort the run; store failures do.
func (e *Engine) runGenerationPhase(
	ctx context.Context,
	eval *datastore.Evaluation,
	workspace *datastore.Workspace,
	questions []*datastore.TestQuestion,
	configs []datastore.ModelConfig,
	existing map[string]bool,
) error {
	units := make([]workUnit, 0, len(questions)*len(configs))
	for _, q := range questions {
		for _, cfg := range configs {
			if existing[datastore.WorkUnitKey(q.ID, cfg.Provider, cfg.Model)] {
				continue
			}
			units = append(units, workUnit{question: q, config: cfg})
		}
	}
	if len(units) == 0 {
		return nil
	}

	globalSem := semaphore.NewWeighted(int64(e.config.GlobalConcurrency))
	providerSems := map[string]*semaphore.Weighted{}
	for _, cfg := range configs {
		if _, ok := providerSems[cfg.Provider]; !ok {
			providerSems[cfg.Provider] = semaphore.NewWeighted(int64(e.config.ProviderConcurrency))
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for _, unit := range units {
		if err := globalSem.Acquire(ctx, 1); err != nil {
			record(err)
			break
		}
		wg.Add(1)
		go func(unit workUnit) {
			defer wg.Done()
			defer globalSem.Release(1)

			providerSem := providerSems[unit.config.Provider]
			if err := providerSem.Acquire(ctx, 1); err != nil {
				record(err)
				return
			}
			defer providerSem.Release(1)

			if err := e.runWorkUnit(ctx, eval, workspace, unit); err != nil {
				record(err)
			}
		}(unit)
	}

	wg.Wait()
	return firstErr
}

// runWorkUnit executes one generation call and persists its outcome, success
// or failure, then advances the progress counter.
func (e *Engine) runWorkUnit(ctx context.Context, eval *datastore.Evaluation, workspace *datastore.Workspace, unit workUnit) error {
	if limiter := e.providerLimiter(unit.config.Provider); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}

	result := &datastore.ModelResult{
		EvaluationID: eval.ID,
		QuestionID:   unit.question.ID,
		Provider:     unit.config.Provider,
		ModelName:    unit.config.Model,
	}

	retrieveCtx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
	contextText, chunksJSON, retrieveErr := e.resolveContext(retrieveCtx, workspace, unit.question)
	cancel()
	if retrieveErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result.ErrorMessage = sql.NullString{String: retrieveErr.Error(), Valid: true}
		return e.persistUnit(eval.ID, result)
	}
	result.RetrievedChunks = chunksJSON

	prompt := BuildAnswerPrompt(unit.question.Question, contextText)
	result.PromptUsed = sql.NullString{String: prompt, Valid: true}

	adapter, err := e.registry.Get(unit.config.Provider)
	if err != nil {
		// Misconfigured provider: permanent, recorded on the unit.
		result.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		return e.persistUnit(eval.ID, result)
	}

	resp, err := llmadapters.GenerateWithRetry(ctx, adapter, unit.config.Model, prompt,
		llmadapters.GenerationParams{Temperature: e.config.Temperature}, e.config.RetryPolicy)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		return e.persistUnit(eval.ID, result)
	}

	result.Answer = resp.Content
	result.TokensIn = sql.NullInt64{Int64: int64(resp.TokensIn), Valid: true}
	result.TokensOut = sql.NullInt64{Int64: int64(resp.TokensOut), Valid: true}
	result.LatencyMs = sql.NullInt64{Int64: resp.LatencyMs, Valid: true}
	result.CostUSD = sql.NullFloat64{
		Float64: llmadapters.Cost(unit.config.Provider, unit.config.Model, resp.TokensIn, resp.TokensOut),
		Valid:   true,
	}
	return e.persistUnit(eval.ID, result)
}

// persistUnit writes the result row and bumps the shared progress counter.
// A conflicting row means another worker already finished this unit; the
// counter is not advanced twice.
func (e *Engine) persistUnit(evaluationID string, result *datastore.ModelResult) error {
	inserted, err := e.store.CreateModelResult(result)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}
	completed, progress, err := e.store.IncrementCompletedUnits(evaluationID)
	if err != nil {
		return err
	}
	log.Printf("Evaluation %s: %d units done (%d%%).", evaluationID, completed, progress)
	return nil
}

// resolveContext produces the context block for a question: retrieval when
// the workspace has an index, otherwise the question's own context column.
func (e *Engine) resolveContext(ctx context.Context, workspace *datastore.Workspace, q *datastore.TestQuestion) (string, json.RawMessage, error) {
	if workspace.UsesRetrieval() && e.retriever != nil {
		chunks, err := e.retriever.Retrieve(ctx, workspace.ID, q.Question, e.config.TopK, e.config.MinRetrievalScore)
		if err != nil {
			return "", nil, fmt.Errorf("retrieval failed: %w", err)
		}
		if len(chunks) == 0 {
			return "", nil, nil
		}
		encoded, err := json.Marshal(chunks)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode retrieved chunks: %w", err)
		}
		return JoinChunks(chunks), encoded, nil
	}
	if q.Context.Valid {
		return q.Context.String, nil, nil
	}
	return "", nil, nil
}

// runJudgePhase scores every error-free answer against the rubric and, for
// two-model evaluations, runs the pairwise comparison per question. Units
// already judged in a previous run are skipped.
func (e *Engine) runJudgePhase(ctx context.Context, eval *datastore.Evaluation, questions []*datastore.TestQuestion, configs []datastore.ModelConfig) error {
	if !eval.JudgeProvider.Valid || eval.JudgeProvider.String == "" ||
		!eval.JudgeModel.Valid || eval.JudgeModel.String == "" {
		log.Printf("Evaluation %s: no judge configured, skipping scoring.", eval.ID)
		return nil
	}

	adapter, err := e.registry.Get(eval.JudgeProvider.String)
	if err != nil {
		return fmt.Errorf("judge provider unavailable: %w", err)
	}
	judge := judgeengine.NewJudge(adapter, eval.JudgeModel.String)
	judge.Policy = e.config.RetryPolicy

	results, err := e.store.GetModelResultsForEvaluation(eval.ID)
	if err != nil {
		return err
	}
	questionsByID := map[string]*datastore.TestQuestion{}
	for _, q := range questions {
		questionsByID[q.ID] = q
	}

	if err := e.scoreRubric(ctx, eval, judge, results, questionsByID); err != nil {
		return err
	}
	if len(configs) == 2 {
		if err := e.scorePairs(ctx, eval, judge, results, questionsByID); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) scoreRubric(ctx context.Context, eval *datastore.Evaluation, judge *judgeengine.Judge, results []*datastore.ModelResult, questionsByID map[string]*datastore.TestQuestion) error {
	metrics, err := e.store.GetMetricsForEvaluation(eval.ID)
	if err != nil {
		return err
	}
	scored := map[string]bool{}
	for _, m := range metrics {
		scored[m.ModelResultID] = true
	}

	sem := semaphore.NewWeighted(int64(e.config.GlobalConcurrency))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for _, r := range results {
		if r.Failed() || scored[r.ID] {
			continue
		}
		q, ok := questionsByID[r.QuestionID]
		if !ok {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			record(err)
			break
		}
		wg.Add(1)
		go func(r *datastore.ModelResult, q *datastore.TestQuestion) {
			defer wg.Done()
			defer sem.Release(1)
			if err := e.scoreOneResult(ctx, eval, judge, r, q); err != nil {
				record(err)
			}
		}(r, q)
	}
	wg.Wait()
	return firstErr
}

func (e *Engine) scoreOneResult(ctx context.Context, eval *datastore.Evaluation, judge *judgeengine.Judge, r *datastore.ModelResult, q *datastore.TestQuestion) error {
	metric := &datastore.QuestionMetric{
		ModelResultID: r.ID,
		EvaluationID:  eval.ID,
		QuestionID:    q.ID,
		LatencyMs:     r.LatencyMs,
		CostUSD:       r.CostUSD,
	}

	rubric, err := judge.ScoreAnswer(ctx, q.Question, contextForJudging(r, q), nullableString(q.ExpectedAnswer), r.Answer)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The answer itself is fine; record a null-score metric rather than
		// failing the whole run on a judge outage.
		log.Printf("Evaluation %s: judging result %s failed: %v", eval.ID, r.ID, err)
		return e.store.CreateQuestionMetric(metric)
	}

	if rubric.Parsed {
		applyCriterion(rubric.Accuracy, &metric.AccuracyScore, &metric.AccuracyExplanation)
		applyCriterion(rubric.Faithfulness, &metric.FaithfulnessScore, &metric.FaithfulnessExplanation)
		applyCriterion(rubric.Reasoning, &metric.ReasoningScore, &metric.ReasoningExplanation)
		applyCriterion(rubric.ContextUtilization, &metric.ContextUtilizationScore, &metric.ContextUtilizationExplanation)
	} else {
		log.Printf("Evaluation %s: judge verdict for result %s unparseable, storing null scores.", eval.ID, r.ID)
	}
	return e.store.CreateQuestionMetric(metric)
}

func (e *Engine) scorePairs(ctx context.Context, eval *datastore.Evaluation, judge *judgeengine.Judge, results []*datastore.ModelResult, questionsByID map[string]*datastore.TestQuestion) error {
	judged, err := e.store.GetJudgeResultsForEvaluation(eval.ID)
	if err != nil {
		return err
	}
	judgedQuestions := map[string]bool{}
	for _, j := range judged {
		judgedQuestions[j.QuestionID] = true
	}

	byQuestion := map[string][]*datastore.ModelResult{}
	for _, r := range results {
		if !r.Failed() {
			byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], r)
		}
	}

	for questionID, pair := range byQuestion {
		if judgedQuestions[questionID] || len(pair) != 2 {
			continue
		}
		q, ok := questionsByID[questionID]
		if !ok {
			continue
		}

		// Deterministic A/B orientation: the lexicographically smaller
		// provider:model key is always model A, so resumes and re-runs
		// present the pair identically.
		a, b := pair[0], pair[1]
		if a.ModelKey() > b.ModelKey() {
			a, b = b, a
		}

		verdict := &datastore.JudgeResult{
			EvaluationID:   eval.ID,
			QuestionID:     questionID,
			ModelAResultID: a.ID,
			ModelBResultID: b.ID,
			JudgeProvider:  eval.JudgeProvider.String,
			JudgeModel:     eval.JudgeModel.String,
		}

		pw, err := judge.ComparePair(ctx, q.Question, contextForJudging(a, q), nullableString(q.ExpectedAnswer), a.Answer, b.Answer)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Evaluation %s: pairwise judging for question %s failed: %v", eval.ID, questionID, err)
			if err := e.store.CreateJudgeResult(verdict); err != nil {
				return err
			}
			continue
		}

		verdict.JudgePrompt = sql.NullString{String: pw.Prompt, Valid: true}
		verdict.JudgeResponse = sql.NullString{String: pw.RawResponse, Valid: true}
		if pw.Parsed {
			verdict.Winner = sql.NullString{String: pw.Winner, Valid: true}
			verdict.ScoreA = sql.NullFloat64{Float64: pw.ScoreA, Valid: true}
			verdict.ScoreB = sql.NullFloat64{Float64: pw.ScoreB, Valid: true}
			verdict.Reasoning = sql.NullString{String: pw.Reasoning, Valid: true}
			verdict.Confidence = sql.NullFloat64{Float64: pw.Confidence, Valid: true}
			verdict.CriteriaScores = pw.CriteriaScores
		} else {
			log.Printf("Evaluation %s: pairwise verdict for question %s unparseable, storing null verdict.", eval.ID, questionID)
		}
		if err := e.store.CreateJudgeResult(verdict); err != nil {
			return err
		}
	}
	return nil
}

// writeSummary aggregates everything into the final scorecard.
func (e *Engine) writeSummary(eval *datastore.Evaluation, questions []*datastore.TestQuestion) error {
	results, err := e.store.GetModelResultsForEvaluation(eval.ID)
	if err != nil {
		return err
	}
	metrics, err := e.store.GetMetricsForEvaluation(eval.ID)
	if err != nil {
		return err
	}
	judgeResults, err := e.store.GetJudgeResultsForEvaluation(eval.ID)
	if err != nil {
		return err
	}

	summary, err := metricscalculator.ComputeSummary(metricscalculator.SummaryInput{
		Evaluation:   eval,
		Questions:    questions,
		Results:      results,
		Metrics:      metrics,
		JudgeResults: judgeResults,
	})
	if err != nil {
		return fmt.Errorf("failed to compute summary: %w", err)
	}
	return e.store.UpsertEvaluationSummary(summary)
}

// contextForJudging reconstructs the context the candidate saw: stored
// retrieval chunks when present, the question's own context otherwise.
func contextForJudging(r *datastore.ModelResult, q *datastore.TestQuestion) string {
	if len(r.RetrievedChunks) > 0 {
		var chunks []retrievaladapters.RetrievedChunk
		if err := json.Unmarshal(r.RetrievedChunks, &chunks); err == nil {
			return JoinChunks(chunks)
		}
	}
	return nullableString(q.Context)
}

func applyCriterion(c *judgeengine.CriterionScore, score *sql.NullFloat64, explanation *sql.NullString) {
	if c == nil {
		return
	}
	*score = sql.NullFloat64{Float64: c.Score, Valid: true}
	*explanation = sql.NullString{String: c.Explanation, Valid: true}
}

func nullableString(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}
