package generator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/meiziya0402-source/PPT/internal/deck"
	"github.com/meiziya0402-source/PPT/internal/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ServiceConfig - параметры повторов и троттлинга.
type ServiceConfig struct {
	MaxAttempts    int
	BaseRetryDelay time.Duration
	RateInterval   time.Duration // минимальный интервал между обращениями к API, 0 - без ограничения
}

// Service генерирует колоду через AIClient: кеш, троттлинг, повторы, разбор ответа.
type Service struct {
	client  AIClient
	cache   Cache
	limiter *rate.Limiter
	prompt  *PromptTemplate
	schema  []byte
	cfg     ServiceConfig
	logger  *zap.Logger
}

// NewService создает сервис генерации. cache может быть nil.
func NewService(client AIClient, cache Cache, prompt *PromptTemplate, cfg ServiceConfig, logger *zap.Logger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateInterval), 1)
	}
	return &Service{
		client:  client,
		cache:   cache,
		limiter: limiter,
		prompt:  prompt,
		schema:  DeckSchema(),
		cfg:     cfg,
		logger:  logger.Named("GeneratorService"),
	}
}

// Generate реализует deck.ContentGenerator.
func (s *Service) Generate(ctx context.Context, image []byte, mimeType, userPrompt string) (*models.GeneratedDeck, error) {
	if s.client == nil {
		return nil, ErrGenerationDisabled
	}
	model := s.client.Model()
	key := CacheKey(model, image, userPrompt)

	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		generationCacheTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Generation cache lookup failed", zap.Error(err))
	} else if ok {
		generationCacheTotal.WithLabelValues("hit").Inc()
		s.logger.Info("Generation served from cache", zap.String("key", key))
		return cached, nil
	} else {
		generationCacheTotal.WithLabelValues("miss").Inc()
	}

	req := Request{
		Prompt:   s.prompt.Render(userPrompt),
		Image:    image,
		MimeType: mimeType,
		Schema:   s.schema,
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, s.contextErr(ctx, err)
		}

		s.logger.Info("Calling AI API", zap.Int("attempt", attempt), zap.Int("maxAttempts", s.cfg.MaxAttempts))
		raw, _, err := s.client.Generate(ctx, req)
		if err == nil {
			var result *models.GeneratedDeck
			result, err = ParseDeck(raw)
			if err == nil {
				generationAttempts.Observe(float64(attempt))
				if err := s.cache.Set(ctx, key, result); err != nil {
					s.logger.Warn("Failed to store generation in cache", zap.Error(err))
				}
				return result, nil
			}
		}
		if ctx.Err() != nil {
			return nil, s.contextErr(ctx, err)
		}

		lastErr = err
		s.logger.Warn("AI attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == s.cfg.MaxAttempts {
			break
		}

		wait := backoff(s.cfg.BaseRetryDelay, attempt)
		s.logger.Info("Waiting before next attempt", zap.Duration("wait", wait))
		select {
		case <-ctx.Done():
			return nil, s.contextErr(ctx, ctx.Err())
		case <-time.After(wait):
		}
	}

	generationAttempts.Observe(float64(s.cfg.MaxAttempts))
	return nil, fmt.Errorf("generation failed after %d attempts: %w", s.cfg.MaxAttempts, lastErr)
}

func (s *Service) contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}

// backoff - экспоненциальная задержка с джиттером +-10%, не меньше base.
func backoff(base time.Duration, attempt int) time.Duration {
	delay := float64(base) * math.Pow(2, float64(attempt-1))
	jitter := delay * 0.1
	delay += jitter * (rand.Float64()*2 - 1)
	wait := time.Duration(delay)
	if wait < base {
		wait = base
	}
	return wait
}

var _ deck.ContentGenerator = (*Service)(nil)
