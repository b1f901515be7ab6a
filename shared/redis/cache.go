package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/outofforest/logger"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ViewCache is a generic JSON-backed Redis cache for read projections.
// A zero TTL stores keys without expiry.
type ViewCache[T any] struct {
	client goredis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewViewCache creates a ViewCache whose keys are prefix+key.
func NewViewCache[T any](client goredis.Cmdable, prefix string, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl}
}

// Get returns (nil, false) on any miss or decode error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			logger.Get(ctx).Warn("View cache read failed", zap.String("key", c.prefix+key), zap.Error(err))
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// Set stores value under key. Write failures are logged, a cold cache is not fatal.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Get(ctx).Warn("View cache marshal failed", zap.String("key", c.prefix+key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		logger.Get(ctx).Warn("View cache write failed", zap.String("key", c.prefix+key), zap.Error(err))
	}
}

// Delete removes key.
func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		logger.Get(ctx).Warn("View cache delete failed", zap.String("key", c.prefix+key), zap.Error(err))
	}
}
