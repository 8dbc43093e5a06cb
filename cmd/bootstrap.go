package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/salary-predictor/internal/catalog"
	"github.com/spigell/salary-predictor/internal/estimator"
	"github.com/spigell/salary-predictor/internal/insight"
	"github.com/spigell/salary-predictor/internal/insight/gemini"
	"github.com/spigell/salary-predictor/internal/logger"
	"github.com/spigell/salary-predictor/internal/model"
	"github.com/spigell/salary-predictor/internal/secrets"
)

// services is what every command needs once configuration is resolved.
type services struct {
	config    *Config
	logger    *zap.Logger
	estimator *estimator.Estimator
}

func newLogger(config *Config) *zap.Logger {
	opts := logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug")}
	if config != nil {
		opts = config.Log
	}

	l, err := logger.New(opts)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// bootstrap loads the model and the catalog concurrently. Only model
// failures are returned; an unavailable catalog degrades to pass-through.
func bootstrap(ctx context.Context, withInsight bool) (*services, error) {
	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	l := newLogger(config)
	l.Info("starting the salary-predictor", zap.String("version", version))

	resource := model.NewResource(config.Model.Path, model.WithLogger(l))
	cat := catalog.Empty(config.Catalog.Rarity)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := resource.Get(gctx)
		return err
	})
	g.Go(func() error {
		loaded, err := catalog.Load(config.Catalog.Path, config.Catalog.Rarity, l)
		if err != nil {
			l.Warn("option catalog unavailable, categorical values pass through unnormalized",
				zap.String("path", config.Catalog.Path),
				zap.Error(err),
			)
		}
		cat = loaded
		return nil
	})

	if err := g.Wait(); err != nil {
		return &services{config: config, logger: l}, err
	}

	opts := []estimator.Option{estimator.WithLogger(l)}
	if withInsight {
		svc, err := prepareInsight(ctx, config.Insight, l)
		if err != nil {
			l.Warn("skipping insight generation", zap.Error(err))
		} else {
			opts = append(opts, estimator.WithInsight(svc))
		}
	}

	return &services{
		config:    config,
		logger:    l,
		estimator: estimator.New(resource, cat, opts...),
	}, nil
}

func prepareInsight(ctx context.Context, cfg InsightConfig, l *zap.Logger) (*insight.Service, error) {
	if !cfg.Enabled {
		return nil, errors.New("insight generation is disabled (set insight.enabled)")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set insight.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	insightLogger := logger.WithInsightFields(l, gemini.Provider, cfg.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini, insightLogger.With(
		zap.Int("insight_retry_attempts", cfg.Gemini.MaxRetries),
	))
	if err != nil {
		return nil, err
	}

	return insight.New(generator, cfg.Options, insightLogger)
}
