/**
 * 中间件:认证与授权中间件
 * @author: sun977
 * @date: 2025.10.10
 * @description: 令牌认证、用户状态、接口权限校验
 * @func:
 *   - GinJWTAuthMiddleware: 校验访问令牌、用户状态和密码版本
 *   - GinPermissionMiddleware: 按 (path, method) 校验接口权限
 *   - GinRequirePermission: 按权限编码校验
 *   - CurrentUserID: 从Gin上下文读取当前用户
 */
package middleware

import (
	"net/http"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/pkg/auth"
	"accesscore/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Gin 上下文键
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextClaims   = "claims"
)

// CurrentUserID 当前认证用户 id
func CurrentUserID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok && id != 0
}

func abortWith(c *gin.Context, status int, message string, err error) {
	resp := model.APIResponse{Code: status, Status: "failed", Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}

// GinJWTAuthMiddleware Gin JWT认证中间件
// 验证请求头中的访问令牌，令牌中的密码版本必须与用户当前版本一致
// 使用方式: router.Use(middlewareManager.GinJWTAuthMiddleware())
func (m *MiddlewareManager) GinJWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cid := logger.CorrelationID(ctx)

		token := auth.ExtractBearer(c.GetHeader("Authorization"))
		if token == "" {
			abortWith(c, http.StatusUnauthorized, "missing or invalid authorization header", system.ErrUnauthorized)
			return
		}

		claims, err := m.tokens.Parse(token)
		if err != nil {
			logger.LogError(err, cid, 0, "token_validation", map[string]interface{}{
				"client_ip":  c.ClientIP(),
				"user_agent": c.Request.UserAgent(),
			})
			abortWith(c, http.StatusUnauthorized, "invalid or expired token", system.ErrTokenInvalid)
			return
		}

		user, err := m.users.Get(ctx, claims.UserID)
		if err != nil {
			if system.IsNotFound(err) {
				abortWith(c, http.StatusUnauthorized, "invalid or expired token", system.ErrTokenInvalid)
				return
			}
			logger.LogError(err, cid, claims.UserID, "token_user_lookup", nil)
			abortWith(c, http.StatusInternalServerError, system.PublicMessage(err), nil)
			return
		}
		if !user.IsActive() {
			abortWith(c, http.StatusForbidden, "user is disabled", system.ErrUserDisabled)
			return
		}
		// 改密后旧令牌失效
		if user.PasswordV != claims.PasswordV {
			logger.LogBusinessOperation("password_version_mismatch", user.ID, cid, "denied", "令牌因密码版本不匹配被拒绝", map[string]interface{}{
				"client_ip":     c.ClientIP(),
				"token_version": claims.PasswordV,
			})
			abortWith(c, http.StatusUnauthorized, "token version mismatch, please login again", system.ErrTokenInvalid)
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// GinPermissionMiddleware 接口权限中间件
// 以请求路径和方法调用 AuthorizeResource，必须挂在 GinJWTAuthMiddleware 之后
func (m *MiddlewareManager) GinPermissionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			abortWith(c, http.StatusUnauthorized, "user not authenticated", system.ErrUnauthorized)
			return
		}
		path, method := c.Request.URL.Path, c.Request.Method
		allowed, err := m.rbacService.AuthorizeResource(c.Request.Context(), userID, path, method)
		m.finishAuthorization(c, userID, allowed, err, map[string]interface{}{"resource": path, "method": method})
	}
}

// GinRequirePermission 按权限编码校验
func (m *MiddlewareManager) GinRequirePermission(code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			abortWith(c, http.StatusUnauthorized, "user not authenticated", system.ErrUnauthorized)
			return
		}
		allowed, err := m.rbacService.AuthorizeCode(c.Request.Context(), userID, code)
		m.finishAuthorization(c, userID, allowed, err, map[string]interface{}{"permission_code": code})
	}
}

func (m *MiddlewareManager) finishAuthorization(c *gin.Context, userID uint64, allowed bool, err error, extra map[string]interface{}) {
	cid := logger.CorrelationID(c.Request.Context())
	if err != nil {
		logger.LogError(err, cid, userID, "authorize", extra)
		abortWith(c, http.StatusInternalServerError, system.PublicMessage(err), nil)
		return
	}
	if !allowed {
		logger.LogBusinessOperation("authorize", userID, cid, "denied", "权限不足", extra)
		abortWith(c, http.StatusForbidden, "permission denied", system.ErrPermissionDenied)
		return
	}
	c.Next()
}
