/**
 * @author: sun977
 * @date: 2025.08.29
 * @description: 用户管理接口(管理员)与当前用户自助接口
 * @func:
 * 	1.用户增删改查、启用禁用、改密
 * 	2.用户角色分配
 * 	3.用户部门成员关系
 * 	4.当前用户的资料、有效权限、菜单树、改密
 */
package system

import (
	"net/http"

	"accesscore/internal/app/master/setup"
	"accesscore/internal/model/system"
	systemService "accesscore/internal/service/system"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户管理处理器
type UserHandler struct {
	ep *setup.SystemEndpoints
}

// NewUserHandler 创建用户管理处理器
func NewUserHandler(ep *setup.SystemEndpoints) *UserHandler {
	return &UserHandler{ep: ep}
}

// CreateUser 创建用户(可同时分配角色和部门)
func (h *UserHandler) CreateUser(c *gin.Context) {
	serve(c, h.ep.CreateUser, http.StatusCreated)
}

// ListUsers 用户分页列表 ?page=&page_size=&search=
func (h *UserHandler) ListUsers(c *gin.Context) {
	serve(c, h.ep.ListUsers, http.StatusOK)
}

// GetUser 用户详情(含角色与部门关联)
func (h *UserHandler) GetUser(c *gin.Context) {
	serve(c, h.ep.GetUser, http.StatusOK)
}

// UpdateUserProfile 更新用户资料
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	serve(c, h.ep.UpdateUserProfile, http.StatusOK)
}

// ResetUserPassword 管理员重置密码，不校验旧密码
func (h *UserHandler) ResetUserPassword(c *gin.Context) {
	serve(c, h.ep.ChangeUserPassword, http.StatusOK, func(_ *gin.Context, req *systemService.ChangeUserPasswordRequest) error {
		req.OldPassword = ""
		return nil
	})
}

// SetUserActive 启用/禁用用户
func (h *UserHandler) SetUserActive(c *gin.Context) {
	serve(c, h.ep.SetUserActive, http.StatusOK)
}

// DeleteUser 删除用户(同时删除角色、部门关联)
func (h *UserHandler) DeleteUser(c *gin.Context) {
	serve(c, h.ep.DeleteUser, http.StatusOK)
}

// AssignRole 分配角色
func (h *UserHandler) AssignRole(c *gin.Context) {
	serve(c, h.ep.AssignRoleToUser, http.StatusOK)
}

// RemoveRole 移除角色
func (h *UserHandler) RemoveRole(c *gin.Context) {
	serve(c, h.ep.RemoveRoleFromUser, http.StatusOK)
}

// GetUserPermissions 用户有效权限
func (h *UserHandler) GetUserPermissions(c *gin.Context) {
	serve(c, h.ep.GetUserPermissions, http.StatusOK)
}

// GetUserMenuTree 用户可见菜单树
func (h *UserHandler) GetUserMenuTree(c *gin.Context) {
	serve(c, h.ep.GetUserMenuTree, http.StatusOK)
}

// GetUserDepartments 用户所属部门，主部门在前
func (h *UserHandler) GetUserDepartments(c *gin.Context) {
	serve(c, h.ep.GetUserDepartments, http.StatusOK)
}

// AddDepartment 加入部门
func (h *UserHandler) AddDepartment(c *gin.Context) {
	serve(c, h.ep.AddUserToDepartment, http.StatusOK)
}

// RemoveDepartment 移出部门
func (h *UserHandler) RemoveDepartment(c *gin.Context) {
	serve(c, h.ep.RemoveUserFromDepartment, http.StatusOK)
}

// SetPrimaryDepartment 设置主部门
func (h *UserHandler) SetPrimaryDepartment(c *gin.Context) {
	serve(c, h.ep.SetUserPrimaryDepartment, http.StatusOK)
}

// =============================================================================
// 当前用户
// =============================================================================

// GetProfile 当前用户资料
func (h *UserHandler) GetProfile(c *gin.Context) {
	serve(c, h.ep.GetUser, http.StatusOK, func(c *gin.Context, req *systemService.GetUserRequest) (err error) {
		req.UserID, err = self(c)
		return err
	})
}

// GetPermissions 当前用户有效权限
func (h *UserHandler) GetPermissions(c *gin.Context) {
	serve(c, h.ep.GetUserPermissions, http.StatusOK, func(c *gin.Context, req *systemService.GetUserRequest) (err error) {
		req.UserID, err = self(c)
		return err
	})
}

// GetMenus 当前用户菜单树
func (h *UserHandler) GetMenus(c *gin.Context) {
	serve(c, h.ep.GetUserMenuTree, http.StatusOK, func(c *gin.Context, req *systemService.GetUserMenuTreeRequest) (err error) {
		req.UserID, err = self(c)
		return err
	})
}

// ChangePassword 当前用户改密，必须提供旧密码
func (h *UserHandler) ChangePassword(c *gin.Context) {
	serve(c, h.ep.ChangeUserPassword, http.StatusOK, func(c *gin.Context, req *systemService.ChangeUserPasswordRequest) (err error) {
		if req.OldPassword == "" {
			return system.NewValidationError(system.FieldFailure{Field: "old_password", Message: "is required"})
		}
		req.UserID, err = self(c)
		return err
	})
}
