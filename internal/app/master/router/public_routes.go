/**
 * 路由:公共路由
 * @author: sun977
 * @date: 2025.10.10
 * @description: 公共路由，包含登录等不需要认证的路由
 * @func:
 */
package router

import (
	"github.com/gin-gonic/gin"
)

// setupPublicRoutes 设置公共路由
func (r *Router) setupPublicRoutes(v1 *gin.RouterGroup) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", r.loginHandler.Login) // handler\auth\login.go
	}
}
