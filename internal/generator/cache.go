package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/meiziya0402-source/PPT/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "deckgen:"

// Cache хранит результаты генерации по ключу изображения и подсказки.
type Cache interface {
	Get(ctx context.Context, key string) (*models.GeneratedDeck, bool, error)
	Set(ctx context.Context, key string, deck *models.GeneratedDeck) error
}

// CacheKey - sha256 от модели, изображения и подсказки.
func CacheKey(model string, image []byte, prompt string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write(image)
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// RedisCache хранит колоды в Redis как JSON с TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache создает кеш поверх готового клиента.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger.Named("GenerationCache")}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.GeneratedDeck, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var deck models.GeneratedDeck
	if err := json.Unmarshal(data, &deck); err != nil {
		c.logger.Warn("Corrupted cache entry, ignoring", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	return &deck, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, deck *models.GeneratedDeck) error {
	data, err := json.Marshal(deck)
	if err != nil {
		return fmt.Errorf("marshal deck: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// NoopCache ничего не хранит. Используется без REDIS_ADDR.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*models.GeneratedDeck, bool, error) {
	return nil, false, nil
}

func (NoopCache) Set(context.Context, string, *models.GeneratedDeck) error { return nil }

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = NoopCache{}
)
