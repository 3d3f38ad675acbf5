package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bookforge-ai-api/pkg/metrics"
)

// Metrics Prometheus 指标采集中间件
// skipPaths 中的路由（通常是指标端点本身）不计数
func Metrics(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.FullPath()
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		// 生成请求会持续数分钟，在途数比 QPS 更能反映负载
		metrics.HTTPRequestsInFlight.Inc()
		start := time.Now()
		defer func() {
			metrics.HTTPRequestsInFlight.Dec()
			status := strconv.Itoa(c.Writer.Status())
			metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			if size := c.Writer.Size(); size > 0 {
				metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(size))
			}
		}()

		c.Next()
	}
}
