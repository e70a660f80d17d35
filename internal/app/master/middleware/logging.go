/**
 * 中间件:日志相关中间件
 * @author: sun977
 * @date: 2025.10.10
 * @description: 定义日志中间件
 * @func:
 *   - GinLoggingMiddleware Gin日志中间件[同时把请求关联id写入标准上下文,供命令管道使用]
 */
package middleware

import (
	"fmt"
	"net/http"
	"time"

	"accesscore/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID 请求关联 id 头
const HeaderRequestID = "X-Request-ID"

// GinLoggingMiddleware Gin日志中间件
// 记录所有HTTP请求的访问日志，5xx 额外记错误日志
// 使用方式: router.Use(middlewareManager.GinLoggingMiddleware())
func (m *MiddlewareManager) GinLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// 上游没有给出时生成新的关联 id
		cid := c.GetHeader(HeaderRequestID)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Set("request_id", cid)
		c.Header(HeaderRequestID, cid)
		c.Request = c.Request.WithContext(logger.WithCorrelationID(c.Request.Context(), cid))

		c.Next()

		userID, _ := CurrentUserID(c)
		logger.LogAccessRequest(c, start, userID)

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			msg := c.Errors.String()
			if msg == "" {
				msg = http.StatusText(status)
			}
			logger.LogError(fmt.Errorf("HTTP %d: %s", status, msg), cid, userID, "http_request", map[string]interface{}{
				"method":     c.Request.Method,
				"url":        c.Request.URL.String(),
				"client_ip":  c.ClientIP(),
				"user_agent": c.Request.UserAgent(),
			})
		}
	}
}
