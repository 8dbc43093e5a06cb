// Package insight produces advisory text about a salary estimate using an
// external text-generation backend. It never changes the estimate itself.
package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/salary-predictor/internal/record"
	"github.com/spigell/salary-predictor/internal/utils"
)

// ErrInsightGenerationFailed wraps every failure of the text-generation backend.
var ErrInsightGenerationFailed = errors.New("insight generation failed")

const (
	DefaultTimeout      = 20 * time.Second
	DefaultCacheSize    = 128
	defaultMaxLogLength = 200
)

// Generator is a text-generation backend.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

type Options struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	RateLimitRPS float64       `mapstructure:"rate-limit-rps"`
	CacheSize    int           `mapstructure:"cache-size"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

// Service bounds, rate limits and caches calls to a Generator.
type Service struct {
	generator Generator
	timeout   time.Duration
	limiter   *rate.Limiter
	cache     *lru.Cache[string, string]
	logger    *zap.Logger
	maxLogLen int
}

func New(generator Generator, opts Options, logger *zap.Logger) (*Service, error) {
	if generator == nil {
		return nil, errors.New("insight generator is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	limit := rate.Inf
	if opts.RateLimitRPS > 0 {
		limit = rate.Limit(opts.RateLimitRPS)
	}

	cache, err := lru.New[string, string](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating insight cache: %w", err)
	}

	return &Service{
		generator: generator,
		timeout:   opts.Timeout,
		limiter:   rate.NewLimiter(limit, 1),
		cache:     cache,
		logger:    logger,
		maxLogLen: opts.MaxLogLength,
	}, nil
}

// Generate returns advisory text for rec and its predicted salary.
// Every error it returns wraps ErrInsightGenerationFailed.
func (s *Service) Generate(ctx context.Context, rec record.Attributes, salary float64) (string, error) {
	prompt := BuildPrompt(rec, salary)
	key := promptKey(prompt)

	if text, ok := s.cache.Get(key); ok {
		s.logger.Debug("insight served from cache", zap.String("prompt_hash", key[:12]))
		return text, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: waiting for rate limiter: %w", ErrInsightGenerationFailed, err)
	}

	s.logger.Debug("insight generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	start := time.Now()
	text, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInsightGenerationFailed, err)
	}

	s.logger.Debug("insight generate content response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, s.maxLogLen)),
		zap.Duration("took", time.Since(start)),
	)

	s.cache.Add(key, text)
	return text, nil
}

func (s *Service) Model() string {
	return s.generator.Model()
}

// Fallback is the advisory text shown in place of an insight that could not be generated.
func Fallback(err error) string {
	return fmt.Sprintf("Could not generate insights: %v", err)
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
