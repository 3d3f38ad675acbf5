package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"bookforge-ai-api/internal/infrastructure/persistence/postgres"
	"bookforge-ai-api/internal/infrastructure/persistence/redis"
)

// HealthChecker 依赖的健康检查
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// QueueStats 队列状态
type QueueStats interface {
	Len() int
}

// HealthHandler 健康检查处理器
// Postgres 与 Redis 都是可选依赖，未配置时显示 disabled，不影响就绪态
type HealthHandler struct {
	version  string
	checkers map[string]HealthChecker
	queue    QueueStats
}

// NewHealthHandler 创建健康检查处理器；pg、redisClient 可为空
func NewHealthHandler(version string, pg *postgres.Client, redisClient *redis.Client, q QueueStats) *HealthHandler {
	h := &HealthHandler{
		version:  version,
		checkers: make(map[string]HealthChecker),
		queue:    q,
	}
	if pg != nil {
		h.checkers["postgres"] = pg
	}
	if redisClient != nil {
		h.checkers["redis"] = redisClient
	}
	return h
}

// WithChecker 追加一项就绪检查
func (h *HealthHandler) WithChecker(name string, checker HealthChecker) *HealthHandler {
	h.checkers[name] = checker
	return h
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status     string                     `json:"status"`
	QueueDepth int                        `json:"queue_depth"`
	Checks     map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{
		"postgres": {Status: "disabled"},
		"redis":    {Status: "disabled"},
	}

	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	ready := true
	for _, name := range names {
		check := &readinessCheck{}
		start := time.Now()
		err := h.checkers[name].HealthCheck(ctx)
		check.LatencyMs = time.Since(start).Milliseconds()
		if err != nil {
			check.Status = "error"
			check.Error = err.Error()
			ready = false
		} else {
			check.Status = "ok"
		}
		checks[name] = check
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if h.queue != nil {
		resp.QueueDepth = h.queue.Len()
	}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
