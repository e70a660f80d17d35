/**
 * 路由:用户路由
 * @author: sun977
 * @date: 2025.10.10
 * @description: 包含需要JWT认证的当前用户路由，只作用于令牌中的用户，不做接口权限校验
 * @func:
 */
package router

import (
	"github.com/gin-gonic/gin"
)

// setupUserRoutes 设置用户认证路由
func (r *Router) setupUserRoutes(v1 *gin.RouterGroup) {
	auth := v1.Group("/auth")
	auth.Use(r.middlewareManager.GinJWTAuthMiddleware())
	{
		// 用最新密码版本重新签发令牌
		auth.POST("/refresh", r.refreshHandler.RefreshToken)
	}

	user := v1.Group("/user")
	user.Use(r.middlewareManager.GinJWTAuthMiddleware())
	{
		user.GET("/profile", r.userHandler.GetProfile)
		user.GET("/permissions", r.userHandler.GetPermissions) // 有效权限(含继承)
		user.GET("/menus", r.userHandler.GetMenus)             // 可见菜单树
		user.POST("/change-password", r.userHandler.ChangePassword)
	}

	authz := v1.Group("/authz")
	authz.Use(r.middlewareManager.GinJWTAuthMiddleware())
	{
		authz.POST("/check", r.authzHandler.CheckSelf)
	}
}
