/**
 * 路由:健康检查与指标路由
 * @author: sun977
 * @date: 2025.10.10
 * @description: 健康、就绪、存活检查，Prometheus 指标接口
 * @func:
 */

package router

import (
	"context"
	"net/http"
	"time"

	"accesscore/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupHealthRoutes 设置健康检查路由
func (r *Router) setupHealthRoutes(api *gin.RouterGroup) {
	if !r.config.Monitor.Health.Enabled {
		return
	}
	api.GET(r.config.Monitor.Health.Path, r.healthCheck)
	api.GET("/ready", r.readinessCheck)
	api.GET("/live", r.livenessCheck)
}

// setupMetricsRoutes 指标接口挂在根路径下
func (r *Router) setupMetricsRoutes() {
	if !r.config.Monitor.Metrics.Enabled || r.gatherer == nil {
		return
	}
	r.engine.GET(r.config.Monitor.Metrics.Path, gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
}

// 健康检查处理器
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   r.config.App.Version,
		"timestamp": logger.NowFormatted(),
	})
}

// readinessCheck 就绪检查处理器，数据库不可用时返回 503
func (r *Router) readinessCheck(c *gin.Context) {
	if r.db != nil {
		sqlDB, err := r.db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not_ready",
				"error":     "database unavailable",
				"timestamp": logger.NowFormatted(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": logger.NowFormatted(),
	})
}

// livenessCheck 存活检查处理器
func (r *Router) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": logger.NowFormatted(),
	})
}
