package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnTengye/clausewise/backend/config"
	"github.com/AnTengye/clausewise/backend/model"
)

// ResultCache stores finished analyses in Redis keyed by normalized text and tier
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewResultCache connects to Redis. It returns ErrNotConfigured when no address is set.
func NewResultCache(ctx context.Context, cfg *config.RedisConfig) (*ResultCache, error) {
	if cfg.Addr == "" {
		return nil, ErrNotConfigured
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return newResultCache(client, cfg.TTL, cfg.Prefix), nil
}

func newResultCache(client *redis.Client, ttl time.Duration, prefix string) *ResultCache {
	return &ResultCache{client: client, ttl: ttl, prefix: prefix}
}

// CacheKey hashes the normalized text together with the tier, since the same
// text analyzed with different backends yields different results.
func CacheKey(text string, tier model.Tier) string {
	sum := sha256.Sum256([]byte(string(tier) + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Get returns ErrCacheMiss when key is absent
func (c *ResultCache) Get(ctx context.Context, key string) (*model.Analysis, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var analysis model.Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode cached analysis: %w", err)
	}
	return &analysis, nil
}

func (c *ResultCache) Set(ctx context.Context, key string, analysis *model.Analysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

func (c *ResultCache) Close() error {
	return c.client.Close()
}
