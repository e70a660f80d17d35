package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"accesscore/internal/config"
	"accesscore/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(requests int) (*RateLimiter, *time.Time) {
	l := NewRateLimiter(config.RateLimitConfig{Enabled: true, Requests: requests, Window: time.Minute, MaxClients: 4})
	now := time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestRateLimiterWindow(t *testing.T) {
	l, now := newTestLimiter(2)

	ok, _ := l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)

	*now = now.Add(20 * time.Second)
	ok, retry := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retry)

	// 其他客户端不受影响
	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok)

	// 新窗口重新计数
	*now = now.Add(40 * time.Second)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)
}

func TestRateLimiterReset(t *testing.T) {
	l, _ := newTestLimiter(1)
	ok, _ := l.Allow("k")
	require.True(t, ok)
	ok, _ = l.Allow("k")
	require.False(t, ok)

	l.Reset("k")
	ok, _ = l.Allow("k")
	assert.True(t, ok)
}

func TestGinRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	nl, _ := test.NewNullLogger()
	logger.Use(nl)
	t.Cleanup(func() { logger.LoggerInstance = nil })

	m := NewMiddlewareManager(nil, nil, nil, &config.SecurityConfig{
		RateLimit: config.RateLimitConfig{Enabled: true, Requests: 1, Window: time.Minute, MaxClients: 4},
	})
	engine := gin.New()
	engine.Use(m.GinLoggingMiddleware(), m.GinRateLimitMiddleware())
	engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRateLimitDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMiddlewareManager(nil, nil, nil, &config.SecurityConfig{})
	engine := gin.New()
	engine.Use(m.GinRateLimitMiddleware())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestPermissionMiddlewareRequiresAuthenticatedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMiddlewareManager(nil, nil, nil, &config.SecurityConfig{})
	engine := gin.New()
	engine.GET("/x", m.GinPermissionMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
