package evaluationengine

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"llm-compare-platform/backend/internal/coreengine/llmadapters"
	"llm-compare-platform/backend/internal/coreengine/retrievaladapters"
)

// Config tunes the execution of an evaluation run.
type Config struct {
	// GlobalConcurrency bounds in-flight work units across all providers.
	GlobalConcurrency int
	// ProviderConcurrency bounds in-flight work units per provider.
	ProviderConcurrency int
	// ProviderRPS smooths request bursts per provider. Zero disables it.
	ProviderRPS float64
	// CallTimeout caps one provider or retrieval call. Each retry attempt
	// gets a fresh timeout, so a timed-out call counts as one transient
	// failure rather than consuming the whole unit.
	CallTimeout time.Duration
	// TopK is the number of chunks retrieved per question in RAG mode.
	TopK int
	// MinRetrievalScore drops retrieved chunks scoring below it.
	MinRetrievalScore float64
	// Temperature used for candidate model generation.
	Temperature float64
	// RetryPolicy for transient provider failures.
	RetryPolicy llmadapters.RetryPolicy
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		GlobalConcurrency:   8,
		ProviderConcurrency: 4,
		ProviderRPS:         10,
		CallTimeout:         60 * time.Second,
		TopK:                5,
		Temperature:         0.7,
		RetryPolicy:         llmadapters.DefaultRetryPolicy(),
	}
}

// ConfigFromEnv returns the defaults overridden by EVAL_* environment
// variables where set.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v, err := strconv.Atoi(os.Getenv("EVAL_GLOBAL_CONCURRENCY")); err == nil && v > 0 {
		cfg.GlobalConcurrency = v
	}
	if v, err := strconv.Atoi(os.Getenv("EVAL_PROVIDER_CONCURRENCY")); err == nil && v > 0 {
		cfg.ProviderConcurrency = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("EVAL_PROVIDER_RPS"), 64); err == nil && v >= 0 {
		cfg.ProviderRPS = v
	}
	if v, err := strconv.Atoi(os.Getenv("EVAL_CALL_TIMEOUT_SECONDS")); err == nil && v > 0 {
		cfg.CallTimeout = time.Duration(v) * time.Second
	}
	if v, err := strconv.ParseFloat(os.Getenv("EVAL_MIN_RETRIEVAL_SCORE"), 64); err == nil && v >= 0 {
		cfg.MinRetrievalScore = v
	}
	if v, err := strconv.Atoi(os.Getenv("EVAL_RETRY_MAX_ATTEMPTS")); err == nil && v > 0 {
		cfg.RetryPolicy.MaxAttempts = v
	}
	return cfg
}

// Engine runs evaluations: it fans question x model work units across a
// bounded worker pool, judges the answers, and writes the final scorecard.
// One Engine serves the whole process; runs are independent.
type Engine struct {
	store     Store
	registry  *llmadapters.Registry
	retriever retrievaladapters.RetrievalAdapter
	config    Config

	mu       sync.Mutex
	cancels  map[string]context.CancelFunc
	limiters map[string]*rate.Limiter
}

// NewEngine builds an engine. retriever may be nil when no workspace uses
// retrieval; RAG-mode evaluations then run without context.
func NewEngine(store Store, registry *llmadapters.Registry, retriever retrievaladapters.RetrievalAdapter, config Config) *Engine {
	if config.GlobalConcurrency <= 0 {
		config.GlobalConcurrency = 1
	}
	if config.ProviderConcurrency <= 0 {
		config.ProviderConcurrency = 1
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 60 * time.Second
	}
	config.RetryPolicy.AttemptTimeout = config.CallTimeout
	return &Engine{
		store:     store,
		registry:  registry,
		retriever: retriever,
		config:    config,
		cancels:   map[string]context.CancelFunc{},
		limiters:  map[string]*rate.Limiter{},
	}
}

// CancelEvaluation aborts a running evaluation. Returns false when the
// evaluation is not currently running in this process.
func (e *Engine) CancelEvaluation(evaluationID string) bool {
	e.mu.Lock()
	cancel, ok := e.cancels[evaluationID]
	e.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// registerRun installs a cancel handle for the run and returns the derived
// context plus a cleanup to call when the run ends.
func (e *Engine) registerRun(ctx context.Context, evaluationID string) (context.Context, func()) {
	runCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancels[evaluationID] = cancel
	e.mu.Unlock()
	return runCtx, func() {
		cancel()
		e.mu.Lock()
		delete(e.cancels, evaluationID)
		e.mu.Unlock()
	}
}

// providerLimiter returns the shared rate limiter for a provider.
func (e *Engine) providerLimiter(provider string) *rate.Limiter {
	if e.config.ProviderRPS <= 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	limiter, ok := e.limiters[provider]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(e.config.ProviderRPS), 1)
		e.limiters[provider] = limiter
	}
	return limiter
}
