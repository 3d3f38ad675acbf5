// Package redis 提供 Redis 缓存、限流与会话快照实现
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookforge-ai-api/internal/config"
)

const (
	clientName      = "bookforge-ai-api"
	pingTimeout     = 5 * time.Second
	defaultPoolSize = 10
)

var tracer = otel.Tracer("redis")

// Client Redis 客户端
type Client struct {
	rdb *redis.Client
}

// NewClient 创建 Redis 客户端并确认可连通
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(options(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", rdb.Options().Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

func options(cfg *config.RedisConfig) *redis.Options {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		ClientName:   clientName,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// Redis 获取底层 Redis 客户端
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck 就绪检查，附带连接池状态
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "redis.HealthCheck")
	defer span.End()

	stats := c.rdb.PoolStats()
	span.SetAttributes(
		attribute.Int64("redis.pool.total", int64(stats.TotalConns)),
		attribute.Int64("redis.pool.idle", int64(stats.IdleConns)),
		attribute.Int64("redis.pool.timeouts", int64(stats.Timeouts)),
	)
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// Get 读取键；键不存在时 found 为 false 且 err 为 nil
func (c *Client) Get(ctx context.Context, key string) (data []byte, found bool, err error) {
	ctx, span := tracer.Start(ctx, "redis.Get",
		trace.WithAttributes(attribute.String("redis.key", key)))
	defer span.End()

	data, err = c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return data, true, nil
	case IsNil(err):
		return nil, false, nil
	default:
		span.RecordError(err)
		return nil, false, err
	}
}

// Set 写入键并设置过期时间
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	ctx, span := tracer.Start(ctx, "redis.Set",
		trace.WithAttributes(
			attribute.String("redis.key", key),
			attribute.Int64("redis.ttl_ms", expiration.Milliseconds()),
		))
	defer span.End()

	if err := c.rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Del 删除键
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "redis.Del",
		trace.WithAttributes(attribute.Int("redis.key_count", len(keys))))
	defer span.End()

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// IsNil 检查是否为 redis.Nil 错误
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
