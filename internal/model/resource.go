package model

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/record"
)

// LoadFunc builds a pipeline from the artifact at path.
type LoadFunc func(path string) (*Pipeline, error)

// Resource is the process-wide handle of the fitted pipeline.
// The artifact is read on first use, at most once, and the outcome
// (pipeline or error) is kept for the rest of the process lifetime.
type Resource struct {
	path   string
	load   LoadFunc
	logger *zap.Logger

	mu       sync.Mutex
	done     atomic.Bool
	pipeline *Pipeline
	err      error
}

type Option func(*Resource)

// WithLoader replaces the artifact loader. Used by tests.
func WithLoader(fn LoadFunc) Option {
	return func(r *Resource) {
		if fn != nil {
			r.load = fn
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Resource) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewResource(path string, opts ...Option) *Resource {
	r := &Resource{
		path:   path,
		load:   Load,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the loaded pipeline, loading it on the first call.
// Concurrent first callers wait for the in-flight load and observe its result.
// A cancelled ctx is reported without consuming the single load attempt.
func (r *Resource) Get(ctx context.Context) (*Pipeline, error) {
	if r.done.Load() {
		return r.pipeline, r.err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done.Load() {
		return r.pipeline, r.err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	r.pipeline, r.err = r.load(r.path)
	r.done.Store(true)

	if r.err != nil {
		r.logger.Error("loading model artifact",
			zap.String("path", r.path),
			zap.Error(r.err),
		)
		return nil, r.err
	}

	desc := r.pipeline.Describe()
	r.logger.Info("model artifact loaded",
		zap.String("path", r.path),
		zap.String("regressor", desc.Regressor),
		zap.Int("features", desc.Features),
		zap.Int("columns", desc.Columns),
		zap.Duration("took", time.Since(start)),
	)

	return r.pipeline, nil
}

// Predict loads the pipeline if needed and predicts for rec.
func (r *Resource) Predict(ctx context.Context, rec record.Attributes) (float64, error) {
	p, err := r.Get(ctx)
	if err != nil {
		return 0, err
	}
	return p.Predict(rec)
}

// Loaded reports whether a pipeline is available without triggering a load.
func (r *Resource) Loaded() bool {
	return r.done.Load() && r.err == nil
}

func (r *Resource) Path() string {
	return r.path
}
