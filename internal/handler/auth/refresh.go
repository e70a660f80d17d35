/**
 * @author: sun977
 * @date: 2025.08.29
 * @description: 令牌续期，挂在认证中间件之后，用当前用户的最新密码版本重新签发
 * @func: RefreshToken
 */
package auth

import (
	"net/http"

	"accesscore/internal/app/master/middleware"
	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/pkg/auth"
	"accesscore/internal/pkg/logger"
	"accesscore/internal/repo/mysql/rbac"

	"github.com/gin-gonic/gin"
)

// RefreshHandler 令牌续期处理器
type RefreshHandler struct {
	users  *rbac.UserRepository
	tokens *auth.TokenManager
}

// NewRefreshHandler 创建令牌续期处理器
func NewRefreshHandler(users *rbac.UserRepository, tokens *auth.TokenManager) *RefreshHandler {
	return &RefreshHandler{users: users, tokens: tokens}
}

// RefreshToken 签发新的访问令牌
// @Router /api/v1/auth/refresh [post]
func (h *RefreshHandler) RefreshToken(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "user not authenticated", system.ErrUnauthorized)
		return
	}
	ctx := c.Request.Context()
	user, err := h.users.Get(ctx, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if system.IsNotFound(err) {
			status = http.StatusUnauthorized
		}
		writeError(c, status, system.PublicMessage(err), nil)
		return
	}

	token, expires, err := h.tokens.Issue(user.ID, user.Username, user.PasswordV)
	if err != nil {
		logger.LogError(err, logger.CorrelationID(ctx), user.ID, "refresh_token", nil)
		writeError(c, http.StatusInternalServerError, system.PublicMessage(err), nil)
		return
	}
	c.JSON(http.StatusOK, model.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "token refreshed",
		Data:    TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expires},
	})
}
