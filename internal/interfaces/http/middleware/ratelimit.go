// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bookforge-ai-api/internal/infrastructure/persistence/redis"
	apperrors "bookforge-ai-api/pkg/errors"
	"bookforge-ai-api/pkg/logger"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// Enabled 是否启用限流
	Enabled bool
	// Limit 窗口内允许的请求数
	Limit int
	// Window 滑动窗口长度
	Window time.Duration
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 限流中间件，按用户（未认证时按客户端 IP）和路由计数
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	limitHeader := strconv.Itoa(cfg.Limit)

	return func(c *gin.Context) {
		subject := c.GetString("user_id")
		if subject == "" {
			subject = c.ClientIP()
		}
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		allowed, err := limiter.Allow(c.Request.Context(), redis.BuildRateLimitKey(subject, endpoint), cfg.Limit, cfg.Window)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", limitHeader)
		if !allowed {
			abortWithError(c, apperrors.ErrTooManyRequests.WithDetail("rate limit exceeded"))
			return
		}

		c.Next()
	}
}
