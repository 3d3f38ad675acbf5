package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookforge-ai-api/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func echoUser(c *gin.Context) {
	c.String(http.StatusOK, c.GetString("user_id"))
}

func TestAuth(t *testing.T) {
	engine := gin.New()
	engine.Use(Auth(AuthConfig{Enabled: true, Secret: "s3cret", Issuer: "bookforge", SkipPaths: DefaultSkipPaths}))
	engine.GET("/documents/:userId", echoUser)
	engine.GET("/share/:token", echoUser)

	token, err := utils.NewJWTManager("s3cret", "bookforge").GenerateToken("u-42", time.Minute)
	require.NoError(t, err)

	w := serve(engine, http.MethodGet, "/documents/u-42", http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-42", w.Body.String())

	w = serve(engine, http.MethodGet, "/documents/u-42", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing authorization header")

	w = serve(engine, http.MethodGet, "/documents/u-42", http.Header{"Authorization": {"Basic abc"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := utils.NewJWTManager("s3cret", "bookforge").GenerateToken("u-42", -time.Minute)
	require.NoError(t, err)
	w = serve(engine, http.MethodGet, "/documents/u-42", http.Header{"Authorization": {"Bearer " + expired}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")

	w = serve(engine, http.MethodGet, "/share/abc", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_Disabled(t *testing.T) {
	engine := gin.New()
	engine.Use(Auth(AuthConfig{}))
	engine.GET("/x", echoUser)

	w := serve(engine, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

type countingLimiter struct {
	mu   sync.Mutex
	keys map[string]int
	err  error
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys[key]++
	return l.keys[key] <= limit, nil
}

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{keys: make(map[string]int)}
	engine := gin.New()
	engine.POST("/generateBookSmall", RateLimit(RateLimitConfig{Enabled: true, Limit: 2, Window: time.Minute}, limiter), echoUser)

	for i := 0; i < 2; i++ {
		w := serve(engine, http.MethodPost, "/generateBookSmall", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}
	w := serve(engine, http.MethodPost, "/generateBookSmall", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"rate limit exceeded"`)

	assert.Equal(t, 3, limiter.keys["ratelimit:192.0.2.1:/generateBookSmall"])
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("redis down")}
	engine := gin.New()
	engine.POST("/x", RateLimit(RateLimitConfig{Enabled: true, Limit: 1}, limiter), echoUser)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/x", nil).Code)
	}
}

func TestRecovery(t *testing.T) {
	engine := gin.New()
	engine.Use(Recovery())
	engine.GET("/boom", func(*gin.Context) { panic("boom") })

	w := serve(engine, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"internal server error"`)
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := serve(engine, http.MethodGet, "/x", http.Header{RequestIDHeader: {"req-1"}})
	assert.Equal(t, "req-1", w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))

	w = serve(engine, http.MethodGet, "/x", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = serve(engine, http.MethodGet, "/x", http.Header{RequestIDHeader: {"bad id\n<script>"}})
	assert.NotEqual(t, "bad id\n<script>", w.Body.String())
	assert.Len(t, w.Body.String(), 36)
}
