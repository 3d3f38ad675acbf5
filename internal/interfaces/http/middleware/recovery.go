package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "bookforge-ai-api/pkg/errors"
	"bookforge-ai-api/pkg/logger"
)

// Recovery Panic 恢复中间件
// 响应已开始写出（例如文件流到一半）时只记录日志，不再追加 JSON
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				fmt.Errorf("%v", rec),
				"stack", string(debug.Stack()),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			abortWithError(c, apperrors.ErrInternalError)
		}()

		c.Next()
	}
}
