package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// slidingWindowScript 清理窗口外记录、计数并在未超限时写入本次请求，整体原子执行
// KEYS[1] 限流键；ARGV: 当前毫秒、窗口毫秒、上限、成员
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  return {0, count}
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window * 2)
return {1, count + 1}
`)

// RateLimiter 基于有序集合的滑动窗口限流器
type RateLimiter struct {
	client *Client
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow 判断本次请求是否在窗口配额内，允许时计入窗口
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Allow")
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
		attribute.Int64("ratelimit.window_ms", window.Milliseconds()),
	)
	defer span.End()

	if limit <= 0 {
		return false, nil
	}

	now := time.Now().UnixMilli()
	member := fmt.Sprintf("%d-%s", now, uuid.NewString()[:8])
	res, err := slidingWindowScript.Run(ctx, l.client.rdb, []string{key},
		now, window.Milliseconds(), limit, member).Int64Slice()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 2 {
		return false, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	allowed := res[0] == 1
	span.SetAttributes(
		attribute.Int64("ratelimit.current_count", res[1]),
		attribute.Bool("ratelimit.allowed", allowed),
	)
	return allowed, nil
}

// BuildRateLimitKey 构建限流键，subject 为用户 ID 或客户端 IP
func BuildRateLimitKey(subject, endpoint string) string {
	return fmt.Sprintf("ratelimit:%s:%s", subject, endpoint)
}
