package metricscalculator

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"llm-compare-platform/backend/internal/datastore"
)

// SummaryInput bundles everything ComputeSummary needs. The function never
// touches the database itself, so it can be tested with literal fixtures.
type SummaryInput struct {
	Evaluation   *datastore.Evaluation
	Questions    []*datastore.TestQuestion
	Results      []*datastore.ModelResult
	Metrics      []*datastore.QuestionMetric
	JudgeResults []*datastore.JudgeResult
}

// ModelSummary is the per-model slice of the evaluation scorecard, stored as
// JSON inside evaluation_summaries.models_summary.
type ModelSummary struct {
	Provider              string   `json:"provider"`
	Model                 string   `json:"model"`
	TotalQuestions        int      `json:"total_questions"`
	ErrorCount            int      `json:"error_count"`
	ErrorRate             float64  `json:"error_rate"`
	AvgAccuracy           *float64 `json:"avg_accuracy"`
	AvgFaithfulness       *float64 `json:"avg_faithfulness"`
	AvgReasoning          *float64 `json:"avg_reasoning"`
	AvgContextUtilization *float64 `json:"avg_context_utilization"`
	AvgLexicalSimilarity  *float64 `json:"avg_lexical_similarity"`
	OverallScore          *float64 `json:"overall_score"`
	AvgLatencyMs          int64    `json:"avg_latency_ms"`
	AvgCostUSD            float64  `json:"avg_cost_usd"`
	TotalCostUSD          float64  `json:"total_cost_usd"`
	TotalTokensIn         int64    `json:"total_tokens_in"`
	TotalTokensOut        int64    `json:"total_tokens_out"`
	WinRate               float64  `json:"win_rate"`
	TieRate               float64  `json:"tie_rate"`
	LossRate              float64  `json:"loss_rate"`
	Comparisons           int      `json:"comparisons"`
}

// scoreAccumulator averages nullable scores, skipping NULLs.
type scoreAccumulator struct {
	sum   float64
	count int
}

func (a *scoreAccumulator) add(v sql.NullFloat64) {
	if v.Valid {
		a.sum += v.Float64
		a.count++
	}
}

func (a *scoreAccumulator) average() *float64 {
	if a.count == 0 {
		return nil
	}
	avg := a.sum / float64(a.count)
	return &avg
}

// overallFromAverages combines rubric criterion averages into one score: the
// unweighted mean of whichever criteria have data. Nil when none do.
func overallFromAverages(averages ...*float64) *float64 {
	sum := 0.0
	count := 0
	for _, a := range averages {
		if a != nil {
			sum += *a
			count++
		}
	}
	if count == 0 {
		return nil
	}
	overall := sum / float64(count)
	return &overall
}

// ComputeSummary aggregates an evaluation's results, rubric metrics and
// pairwise verdicts into the final scorecard. It is a pure function of its
// input; callers persist the returned summary separately.
func ComputeSummary(in SummaryInput) (*datastore.EvaluationSummary, error) {
	if in.Evaluation == nil {
		return nil, fmt.Errorf("evaluation is required to compute a summary")
	}

	summary := &datastore.EvaluationSummary{
		EvaluationID:    in.Evaluation.ID,
		TotalQuestions:  in.Evaluation.TotalQuestions,
		TotalModelTests: in.Evaluation.TotalModelTests,
	}

	resultsByID := map[string]*datastore.ModelResult{}
	for _, r := range in.Results {
		resultsByID[r.ID] = r
		if r.Failed() {
			summary.FailedEvaluations++
		} else {
			summary.SuccessfulEvaluations++
		}
	}

	// Evaluation-wide rubric averages.
	var accAll, faithAll, reasonAll, ctxAll scoreAccumulator
	var latencySum, latencyCount int64
	var costSum float64
	var costCount int
	for _, m := range in.Metrics {
		accAll.add(m.AccuracyScore)
		faithAll.add(m.FaithfulnessScore)
		reasonAll.add(m.ReasoningScore)
		ctxAll.add(m.ContextUtilizationScore)
		if m.LatencyMs.Valid {
			latencySum += m.LatencyMs.Int64
			latencyCount++
		}
		if m.CostUSD.Valid {
			costSum += m.CostUSD.Float64
			costCount++
		}
	}

	summary.AvgAccuracy = toNullFloat(accAll.average())
	summary.AvgFaithfulness = toNullFloat(faithAll.average())
	summary.AvgReasoning = toNullFloat(reasonAll.average())
	summary.AvgContextUtilization = toNullFloat(ctxAll.average())
	summary.OverallScore = toNullFloat(overallFromAverages(
		accAll.average(), faithAll.average(), reasonAll.average(), ctxAll.average()))
	if latencyCount > 0 {
		summary.AvgLatencyMs = sql.NullInt64{Int64: latencySum / latencyCount, Valid: true}
	}
	if costCount > 0 {
		summary.AvgCostUSD = sql.NullFloat64{Float64: costSum / float64(costCount), Valid: true}
		summary.TotalCostUSD = sql.NullFloat64{Float64: costSum, Valid: true}
	}

	models, err := computeModelBreakdown(in, resultsByID)
	if err != nil {
		return nil, err
	}
	if len(models) > 0 {
		encoded, err := json.Marshal(models)
		if err != nil {
			return nil, fmt.Errorf("failed to encode models summary: %w", err)
		}
		summary.ModelsSummary = encoded
	}

	return summary, nil
}

func computeModelBreakdown(in SummaryInput, resultsByID map[string]*datastore.ModelResult) (map[string]*ModelSummary, error) {
	configs, err := in.Evaluation.ParseModelConfigs()
	if err != nil {
		return nil, fmt.Errorf("failed to parse model configs: %w", err)
	}

	models := map[string]*ModelSummary{}
	for _, cfg := range configs {
		models[cfg.Key()] = &ModelSummary{Provider: cfg.Provider, Model: cfg.Model}
	}

	expectedByQuestion := map[string]string{}
	for _, q := range in.Questions {
		if q.ExpectedAnswer.Valid && q.ExpectedAnswer.String != "" {
			expectedByQuestion[q.ID] = q.ExpectedAnswer.String
		}
	}

	type modelAccumulator struct {
		acc, faith, reason, ctx scoreAccumulator
		lexical                 scoreAccumulator
		latencySum              int64
		latencyCount            int64
		costCount               int
		wins, ties, losses      int
	}
	accumulators := map[string]*modelAccumulator{}
	accumulatorFor := func(key string) *modelAccumulator {
		a, ok := accumulators[key]
		if !ok {
			a = &modelAccumulator{}
			accumulators[key] = a
		}
		return a
	}

	for _, r := range in.Results {
		ms, ok := models[r.ModelKey()]
		if !ok {
			// Result for a model no longer in the config; still count it.
			ms = &ModelSummary{Provider: r.Provider, Model: r.ModelName}
			models[r.ModelKey()] = ms
		}
		ms.TotalQuestions++
		if r.Failed() {
			ms.ErrorCount++
		}
		if r.CostUSD.Valid {
			ms.TotalCostUSD += r.CostUSD.Float64
			accumulatorFor(r.ModelKey()).costCount++
		}
		if r.TokensIn.Valid {
			ms.TotalTokensIn += r.TokensIn.Int64
		}
		if r.TokensOut.Valid {
			ms.TotalTokensOut += r.TokensOut.Int64
		}
		if r.LatencyMs.Valid {
			a := accumulatorFor(r.ModelKey())
			a.latencySum += r.LatencyMs.Int64
			a.latencyCount++
		}
		if expected, ok := expectedByQuestion[r.QuestionID]; ok && !r.Failed() {
			a := accumulatorFor(r.ModelKey())
			a.lexical.add(sql.NullFloat64{Float64: LexicalSimilarity(expected, r.Answer), Valid: true})
		}
	}

	for _, m := range in.Metrics {
		r, ok := resultsByID[m.ModelResultID]
		if !ok {
			continue
		}
		a := accumulatorFor(r.ModelKey())
		a.acc.add(m.AccuracyScore)
		a.faith.add(m.FaithfulnessScore)
		a.reason.add(m.ReasoningScore)
		a.ctx.add(m.ContextUtilizationScore)
	}

	for _, j := range in.JudgeResults {
		if !j.Winner.Valid {
			continue
		}
		resultA, okA := resultsByID[j.ModelAResultID]
		resultB, okB := resultsByID[j.ModelBResultID]
		if !okA || !okB {
			continue
		}
		accA := accumulatorFor(resultA.ModelKey())
		accB := accumulatorFor(resultB.ModelKey())
		switch j.Winner.String {
		case datastore.JudgeWinnerModelA:
			accA.wins++
			accB.losses++
		case datastore.JudgeWinnerModelB:
			accB.wins++
			accA.losses++
		case datastore.JudgeWinnerTie:
			accA.ties++
			accB.ties++
		}
	}

	for key, ms := range models {
		if ms.TotalQuestions > 0 {
			ms.ErrorRate = float64(ms.ErrorCount) / float64(ms.TotalQuestions)
		}
		a, ok := accumulators[key]
		if !ok {
			continue
		}
		// Latency and cost average over the rows that have them; errored
		// units contribute neither.
		if a.latencyCount > 0 {
			ms.AvgLatencyMs = a.latencySum / a.latencyCount
		}
		if a.costCount > 0 {
			ms.AvgCostUSD = ms.TotalCostUSD / float64(a.costCount)
		}
		ms.AvgAccuracy = a.acc.average()
		ms.AvgFaithfulness = a.faith.average()
		ms.AvgReasoning = a.reason.average()
		ms.AvgContextUtilization = a.ctx.average()
		ms.AvgLexicalSimilarity = a.lexical.average()
		ms.OverallScore = overallFromAverages(ms.AvgAccuracy, ms.AvgFaithfulness, ms.AvgReasoning, ms.AvgContextUtilization)

		comparisons := a.wins + a.ties + a.losses
		ms.Comparisons = comparisons
		// Rates are fractions in [0,1], not percentages.
		if comparisons > 0 {
			ms.WinRate = float64(a.wins) / float64(comparisons)
			ms.TieRate = float64(a.ties) / float64(comparisons)
			ms.LossRate = float64(a.losses) / float64(comparisons)
		}
	}

	return models, nil
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
