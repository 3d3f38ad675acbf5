package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"bookforge-ai-api/pkg/logger"
	"bookforge-ai-api/pkg/metrics"
)

var cacheTracer = otel.Tracer("redis.cache")

// Cache 读穿缓存，值以 JSON 编码存放
type Cache struct {
	client *Client
	group  singleflight.Group
}

// NewCache 创建缓存服务
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// GetOrLoad 未命中时加载并写回，并发的同键请求只加载一次
// Redis 读失败时直接走 loader，缓存故障不影响分享页可用性
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues("redis", "hit").Inc()
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return val, nil
	case IsNil(err):
		metrics.CacheLookups.WithLabelValues("redis", "miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("redis", "error").Inc()
		span.RecordError(err)
		logger.Warn(ctx, "cache read failed, loading from source", "key", key, "error", err.Error())
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	result, err, shared := c.group.Do(key, func() (interface{}, error) {
		data, err := loader()
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}
		if err := c.client.rdb.Set(ctx, key, encoded, ttl).Err(); err != nil {
			span.RecordError(err)
		}
		return encoded, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Delete 删除缓存
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, span := cacheTracer.Start(ctx, "cache.Delete",
		trace.WithAttributes(attribute.Int("cache.key_count", len(keys))))
	defer span.End()

	if err := c.client.rdb.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}
