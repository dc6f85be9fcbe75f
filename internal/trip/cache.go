package trip

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	DelPattern(ctx context.Context, pattern string)
}

// RedisCache stores JSON-encoded values in Redis. Errors are logged and
// treated as cache misses.
type RedisCache struct {
	client *goredis.Client
	logger *zap.Logger
}

func NewRedisCache(client *goredis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) bool {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			r.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal(val, dest) == nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		r.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// DelPattern deletes matching keys in batches.
func (r *RedisCache) DelPattern(ctx context.Context, pattern string) {
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	const batchSize = 100

	pipe := r.client.Pipeline()
	count := 0
	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		count++
		if count >= batchSize {
			if _, err := pipe.Exec(ctx); err != nil {
				r.logger.Warn("cache delete failed", zap.String("pattern", pattern), zap.Error(err))
			}
			count = 0
		}
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("cache scan failed", zap.String("pattern", pattern), zap.Error(err))
	}
	if count > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			r.logger.Warn("cache delete failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

// NopCache never stores anything; used when Redis is disabled.
type NopCache struct{}

func (NopCache) Get(context.Context, string, interface{}) bool           { return false }
func (NopCache) Set(context.Context, string, interface{}, time.Duration) {}
func (NopCache) DelPattern(context.Context, string)                      {}
