/**
 * @author: sun977
 * @date: 2025.08.29
 * @description: 登录接口，校验用户名密码后签发访问令牌
 * @func: Login
 */
package auth

import (
	"net/http"
	"time"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/pkg/auth"
	"accesscore/internal/pkg/logger"
	"accesscore/internal/repo/mysql/rbac"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse 令牌响应
type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        *model.User `json:"user,omitempty"`
}

// LoginHandler 登录接口处理器
type LoginHandler struct {
	users  *rbac.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
}

// NewLoginHandler 创建登录处理器实例
func NewLoginHandler(users *rbac.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenManager) *LoginHandler {
	return &LoginHandler{users: users, hasher: hasher, tokens: tokens}
}

// Login 用户登录接口
// @Summary 用户登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录请求"
// @Success 200 {object} model.APIResponse{data=TokenResponse} "登录成功"
// @Failure 400 {object} model.APIResponse "请求参数错误"
// @Failure 401 {object} model.APIResponse "认证失败"
// @Router /api/v1/auth/login [post]
func (h *LoginHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	cid := logger.CorrelationID(ctx)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	user, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if system.IsNotFound(err) {
			h.rejected(c, 0, req.Username, "unknown_user")
			return
		}
		logger.LogError(err, cid, 0, "login", map[string]interface{}{"username": req.Username})
		writeError(c, http.StatusInternalServerError, system.PublicMessage(err), nil)
		return
	}

	ok, err := h.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		logger.LogError(err, cid, user.ID, "login", map[string]interface{}{"username": req.Username})
		writeError(c, http.StatusInternalServerError, system.PublicMessage(err), nil)
		return
	}
	if !ok {
		h.rejected(c, user.ID, req.Username, "bad_password")
		return
	}
	if !user.IsActive() {
		writeError(c, http.StatusForbidden, "user is disabled", system.ErrUserDisabled)
		return
	}

	token, expires, err := h.tokens.Issue(user.ID, user.Username, user.PasswordV)
	if err != nil {
		logger.LogError(err, cid, user.ID, "login", nil)
		writeError(c, http.StatusInternalServerError, system.PublicMessage(err), nil)
		return
	}

	logger.LogBusinessOperation("login", user.ID, cid, "success", "用户登录成功", map[string]interface{}{
		"username":  user.Username,
		"client_ip": c.ClientIP(),
	})
	c.JSON(http.StatusOK, model.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "login successful",
		Data:    TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expires, User: user},
	})
}

// rejected 用户不存在与密码错误返回相同响应
func (h *LoginHandler) rejected(c *gin.Context, userID uint64, username, reason string) {
	logger.LogBusinessOperation("login", userID, logger.CorrelationID(c.Request.Context()), "failed", "用户登录失败", map[string]interface{}{
		"username":  username,
		"reason":    reason,
		"client_ip": c.ClientIP(),
	})
	writeError(c, http.StatusUnauthorized, "invalid username or password", nil)
}

func writeError(c *gin.Context, status int, message string, err error) {
	resp := model.APIResponse{Code: status, Status: "failed", Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(status, resp)
}
