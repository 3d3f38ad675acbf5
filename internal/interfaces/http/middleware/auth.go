// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"bookforge-ai-api/internal/interfaces/http/dto"
	apperrors "bookforge-ai-api/pkg/errors"
	"bookforge-ai-api/pkg/logger"
	"bookforge-ai-api/pkg/utils"
)

// AuthConfig 认证配置
// 令牌由外部身份服务签发，这里只校验签名与签发者
type AuthConfig struct {
	// Secret JWT 密钥
	Secret string
	// Issuer JWT 签发者
	Issuer string
	// SkipPaths 跳过认证的路径前缀
	SkipPaths []string
	// Enabled 是否启用认证
	Enabled bool
}

// DefaultSkipPaths 默认跳过认证的路径
var DefaultSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
	"/share/",
	"/profiles",
}

// Auth 认证中间件，通过后把用户 ID 写入 user_id
func Auth(cfg AuthConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		for _, path := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.ErrTokenMissing.WithDetail("missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, apperrors.ErrUnauthorized.WithDetail("invalid authorization format"))
			return
		}

		claims, err := jwtManager.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			appErr := apperrors.ErrTokenInvalid
			if errors.Is(err, utils.ErrExpiredToken) {
				appErr = apperrors.ErrTokenExpired
			}
			abortWithError(c, appErr)
			return
		}

		userID := claims.Principal()
		c.Set("user_id", userID)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), logger.UserIDKey, userID))

		c.Next()
	}
}

// abortWithError 以统一错误结构终止请求
func abortWithError(c *gin.Context, appErr *apperrors.AppError) {
	msg := appErr.Message
	if appErr.Detail != "" {
		msg = appErr.Detail
	}
	dto.ErrorWithCode(c, appErr.HTTPStatus, string(appErr.Code), msg)
}
