// Package cache keeps index mappings close to the façade so that partial-update validation
// does not cost an engine round trip per request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
)

// MappingCache stores index mappings by index name. Failures are never fatal to callers:
// Get reports a miss and Set/Invalidate return the error for logging.
type MappingCache interface {
	Get(ctx context.Context, index string) (es.Mapping, bool)
	Set(ctx context.Context, index string, m es.Mapping) error
	Invalidate(ctx context.Context, index string) error
}

const keyPrefix = "search-facade:mapping:"

// Key returns the redis key holding the mapping of index.
func Key(index string) string {
	return keyPrefix + index
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Dial connects to addr and pings it once.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, index string) (es.Mapping, bool) {
	raw, err := c.client.Get(ctx, Key(index)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("mapping cache get", zap.String("index", index), zap.Error(err))
		}
		return es.Mapping{}, false
	}
	var m es.Mapping
	if err := json.Unmarshal(raw, &m); err != nil {
		c.logger.Warn("mapping cache decode", zap.String("index", index), zap.Error(err))
		return es.Mapping{}, false
	}
	c.logger.Debug("mapping cache hit", zap.String("index", index))
	return m, true
}

func (c *RedisCache) Set(ctx context.Context, index string, m es.Mapping) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	if err := c.client.Set(ctx, Key(index), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache mapping %s: %w", index, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, index string) error {
	if err := c.client.Del(ctx, Key(index)).Err(); err != nil {
		return fmt.Errorf("invalidate mapping %s: %w", index, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop never caches.
type Nop struct{}

func (Nop) Get(context.Context, string) (es.Mapping, bool) { return es.Mapping{}, false }

func (Nop) Set(context.Context, string, es.Mapping) error { return nil }

func (Nop) Invalidate(context.Context, string) error { return nil }
