package system

import (
	"net/http"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	authsvc "accesscore/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// AuthorizeRequest 授权检查请求，code 与 path 二选一
type AuthorizeRequest struct {
	UserID uint64 `json:"user_id"` // 仅管理员接口使用
	Code   string `json:"code"`
	Path   string `json:"path"`
	Method string `json:"method"`
}

// AuthzHandler 授权检查接口，供网关或前端预判按钮可见性
type AuthzHandler struct {
	rbac *authsvc.RBACService
}

// NewAuthzHandler 创建授权检查处理器
func NewAuthzHandler(rbac *authsvc.RBACService) *AuthzHandler {
	return &AuthzHandler{rbac: rbac}
}

// CheckSelf 检查当前用户
func (h *AuthzHandler) CheckSelf(c *gin.Context) {
	var req AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, system.NewValidationError(system.FieldFailure{Field: "body", Message: err.Error()}))
		return
	}
	id, err := self(c)
	if err != nil {
		WriteError(c, err)
		return
	}
	req.UserID = id
	h.check(c, req)
}

// CheckUser 检查指定用户
func (h *AuthzHandler) CheckUser(c *gin.Context) {
	var req AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, system.NewValidationError(system.FieldFailure{Field: "body", Message: err.Error()}))
		return
	}
	if req.UserID == 0 {
		WriteError(c, system.NewValidationError(system.FieldFailure{Field: "user_id", Message: "is required"}))
		return
	}
	h.check(c, req)
}

func (h *AuthzHandler) check(c *gin.Context, req AuthorizeRequest) {
	if (req.Code == "") == (req.Path == "") {
		WriteError(c, system.NewValidationError(system.FieldFailure{Field: "code", Message: "exactly one of code or path is required"}))
		return
	}
	ctx := c.Request.Context()

	var allowed bool
	var err error
	if req.Code != "" {
		allowed, err = h.rbac.AuthorizeCode(ctx, req.UserID, req.Code)
	} else {
		allowed, err = h.rbac.AuthorizeResource(ctx, req.UserID, req.Path, req.Method)
	}
	if err != nil {
		WriteError(c, err)
		return
	}

	resp := model.AuthorizeResponse{UserID: req.UserID, Allowed: allowed, Reason: "denied"}
	if allowed {
		resp.Reason = "granted"
		// 放行时快照已在缓存中
		if snap, err := h.rbac.EffectivePermissions(ctx, req.UserID); err == nil && snap.Admin {
			resp.Reason = "admin_bypass"
		}
	}
	c.JSON(http.StatusOK, model.APIResponse{Code: http.StatusOK, Status: "success", Message: "authorize", Data: resp})
}
