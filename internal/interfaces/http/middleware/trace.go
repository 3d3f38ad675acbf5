package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"bookforge-ai-api/pkg/logger"
	"bookforge-ai-api/pkg/tracer"
)

// untracedPaths 探针与指标抓取不产生 span
var untracedPaths = []string{"/health", "/ready", "/live", "/metrics"}

// Trace OpenTelemetry 追踪中间件
func Trace(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		for _, p := range untracedPaths {
			if strings.HasPrefix(r.URL.Path, p) {
				return false
			}
		}
		return true
	}))
}

// TraceContext 把 trace_id/span_id 写入 gin、日志上下文和响应头
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if traceID := tracer.TraceID(ctx); traceID != "" {
			spanID := tracer.SpanID(ctx)
			c.Set("trace_id", traceID)
			c.Set("span_id", spanID)

			ctx = logger.WithContext(ctx, logger.TraceIDKey, traceID)
			ctx = logger.WithContext(ctx, logger.SpanIDKey, spanID)
			c.Request = c.Request.WithContext(ctx)
			c.Header("X-Trace-ID", traceID)
		}
		c.Next()
	}
}
