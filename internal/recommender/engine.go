package recommender

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AbaeNeupane/Placement-Assistance/internal/corpus"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/resilience"
)

// ErrNotReady is returned when no model has been built yet.
var ErrNotReady = errors.New("recommender model not loaded")

// Source supplies the job corpus.
type Source interface {
	LoadJobs(ctx context.Context) ([]corpus.JobRecord, error)
	Name() string
}

// ReloadHook observes every reload attempt. model is nil when err is set.
type ReloadHook func(model *Model, err error, took time.Duration)

// Engine serves recommendations from the current Model and rebuilds it from
// its Source on demand. A failed rebuild leaves the previous model in place.
type Engine struct {
	source  Source
	current atomic.Pointer[Model]
	reload  sync.Mutex
	timeout time.Duration
	retry   resilience.RetryConfig
	hooks   []ReloadHook
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithReloadTimeout bounds each reload, including retries.
func WithReloadTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.timeout = d }
}

// WithRetry sets the retry policy used when loading from the source.
func WithRetry(cfg resilience.RetryConfig) EngineOption {
	return func(e *Engine) { e.retry = cfg }
}

// WithReloadHook registers a callback run after every reload attempt.
func WithReloadHook(hook ReloadHook) EngineOption {
	return func(e *Engine) { e.hooks = append(e.hooks, hook) }
}

// NewEngine creates an Engine with no model loaded.
func NewEngine(source Source, opts ...EngineOption) *Engine {
	e := &Engine{
		source: source,
		logger: slog.Default().With("component", "recommender-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reload loads the corpus and swaps in a new model. Concurrent calls are
// serialised.
func (e *Engine) Reload(ctx context.Context) (*Model, error) {
	e.reload.Lock()
	defer e.reload.Unlock()

	start := time.Now()
	var model *Model
	err := resilience.WithTimeout(ctx, e.timeout, "corpus-reload", func(ctx context.Context) error {
		var jobs []corpus.JobRecord
		if err := resilience.Retry(ctx, "load-corpus", e.retry, func() error {
			var loadErr error
			jobs, loadErr = e.source.LoadJobs(ctx)
			if errors.Is(loadErr, corpus.ErrMissingColumns) || errors.Is(loadErr, fs.ErrNotExist) {
				return resilience.Permanent(loadErr)
			}
			return loadErr
		}); err != nil {
			return fmt.Errorf("loading corpus from %s: %w", e.source.Name(), err)
		}
		built, err := Build(jobs)
		if err != nil {
			return fmt.Errorf("building model: %w", err)
		}
		model = built
		return nil
	})
	took := time.Since(start)
	if err != nil {
		// On timeout the loader goroutine may still be running; model must
		// not be read.
		for _, hook := range e.hooks {
			hook(nil, err, took)
		}
		e.logger.Error("corpus reload failed",
			"source", e.source.Name(),
			"error", err,
			"keeping_version", e.version(),
		)
		return nil, err
	}

	previous := e.current.Swap(model)
	for _, hook := range e.hooks {
		hook(model, nil, took)
	}
	skills, titles := model.VocabularySizes()
	attrs := []any{
		"source", e.source.Name(),
		"jobs", model.Len(),
		"version", model.Version(),
		"skill_features", skills,
		"title_features", titles,
		"took_ms", took.Milliseconds(),
	}
	if previous != nil {
		attrs = append(attrs, "previous_version", previous.Version())
	}
	e.logger.Info("corpus model loaded", attrs...)
	return model, nil
}

// Model returns the current model, or nil before the first successful
// reload.
func (e *Engine) Model() *Model {
	return e.current.Load()
}

// SourceName names the corpus source.
func (e *Engine) SourceName() string {
	return e.source.Name()
}

// Recommend runs q against the current model. The returned model is the
// snapshot that produced the result.
func (e *Engine) Recommend(q Query) ([]Recommendation, *Model, error) {
	m := e.current.Load()
	if m == nil {
		return nil, nil, ErrNotReady
	}
	return m.Recommend(q), m, nil
}

func (e *Engine) version() string {
	if m := e.current.Load(); m != nil {
		return m.Version()
	}
	return ""
}
