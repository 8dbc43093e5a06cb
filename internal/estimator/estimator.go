// Package estimator ties the option catalog, the model resource and the
// optional insight generator into the estimateSalary operation.
package estimator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/catalog"
	"github.com/spigell/salary-predictor/internal/insight"
	"github.com/spigell/salary-predictor/internal/model"
	"github.com/spigell/salary-predictor/internal/record"
)

// Insighter produces advisory text for an estimate.
type Insighter interface {
	Generate(ctx context.Context, rec record.Attributes, salary float64) (string, error)
}

// Estimate is the outcome of one successful prediction.
type Estimate struct {
	Salary     float64
	Normalized record.Attributes
	// Insight is empty unless requested. On failure it holds the fallback text.
	Insight    string
	InsightErr error
}

type Estimator struct {
	resource *model.Resource
	catalog  *catalog.Catalog
	insight  Insighter
	logger   *zap.Logger
}

type Option func(*Estimator)

func WithInsight(insight Insighter) Option {
	return func(e *Estimator) {
		e.insight = insight
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New builds an Estimator. A nil catalog behaves like an unavailable one.
func New(resource *model.Resource, cat *catalog.Catalog, opts ...Option) *Estimator {
	if cat == nil {
		cat = catalog.Empty(catalog.DefaultRules())
	}

	e := &Estimator{
		resource: resource,
		catalog:  cat,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Warmup loads the model so artifact problems surface before any request is served.
func (e *Estimator) Warmup(ctx context.Context) error {
	_, err := e.resource.Get(ctx)
	return err
}

// Estimate validates and normalizes raw, predicts a salary and, when asked and
// configured, attaches an insight. An insight failure never fails the call.
func (e *Estimator) Estimate(ctx context.Context, raw record.Attributes, withInsight bool) (*Estimate, error) {
	raw = raw.Trimmed()
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	normalized := e.catalog.NormalizeRecord(raw)

	start := time.Now()
	salary, err := e.resource.Predict(ctx, normalized)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("salary estimated",
		zap.Float64("salary", salary),
		zap.String("job_title", normalized.JobTitle),
		zap.Bool("job_title_collapsed", normalized.JobTitle != raw.JobTitle),
		zap.Duration("took", time.Since(start)),
	)

	result := &Estimate{Salary: salary, Normalized: normalized}

	if withInsight && e.insight != nil {
		text, err := e.insight.Generate(ctx, raw, salary)
		if err != nil {
			if !errors.Is(err, insight.ErrInsightGenerationFailed) {
				err = fmt.Errorf("%w: %w", insight.ErrInsightGenerationFailed, err)
			}
			e.logger.Warn("generating insight", zap.Error(err))
			result.InsightErr = err
			text = insight.Fallback(err)
		}
		result.Insight = text
	}

	return result, nil
}

func (e *Estimator) Catalog() *catalog.Catalog {
	return e.catalog
}

func (e *Estimator) Resource() *model.Resource {
	return e.resource
}
