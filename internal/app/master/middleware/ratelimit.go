/**
 * 中间件:限流器中间件
 * @author: sun977
 * @date: 2025.10.10
 * @description: 按客户端IP的固定窗口限流，窗口状态放在带过期的LRU中，客户端数量有上限
 * @func:
 *   - RateLimiter.Allow 计数并判断是否放行
 *   - GinRateLimitMiddleware 默认限流器中间件[根据客户端IP进行限流]
 */
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"accesscore/internal/config"
	"accesscore/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type rateWindow struct {
	start time.Time
	count int
}

// RateLimiter 固定窗口限流器
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows *expirable.LRU[string, *rateWindow]
	now     func() time.Time
}

// NewRateLimiter 创建限流器；窗口条目随窗口一起过期
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limit:   cfg.Requests,
		window:  cfg.Window,
		windows: expirable.NewLRU[string, *rateWindow](cfg.MaxClients, nil, cfg.Window),
		now:     time.Now,
	}
}

// Allow 检查是否允许请求，拒绝时返回距窗口结束的时长
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows.Get(key)
	if !ok || now.Sub(w.start) >= l.window {
		w = &rateWindow{start: now}
		l.windows.Add(key, w)
	}
	if w.count >= l.limit {
		return false, w.start.Add(l.window).Sub(now)
	}
	w.count++
	return true, 0
}

// Reset 重置指定key的限流状态
func (l *RateLimiter) Reset(key string) {
	l.windows.Remove(key)
}

// GinRateLimitMiddleware 默认限流器中间件，未启用时直接放行
func (m *MiddlewareManager) GinRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.rateLimiter == nil {
			c.Next()
			return
		}
		clientIP := c.ClientIP()
		allowed, retry := m.rateLimiter.Allow(clientIP)
		if !allowed {
			logger.LogBusinessOperation("rate_limit", 0, logger.CorrelationID(c.Request.Context()), "denied", "请求过于频繁", map[string]interface{}{
				"client_ip": clientIP,
				"path":      c.Request.URL.Path,
			})
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			abortWith(c, http.StatusTooManyRequests, "too many requests", nil)
			return
		}
		c.Next()
	}
}
