/**
 * @author: sun977
 * @date: 2025.08.29
 * @description: 角色管理接口
 * @func:
 * 	1.角色增删改查与父角色设置
 * 	2.角色权限、角色菜单(单个与批量)
 */
package system

import (
	"net/http"

	"accesscore/internal/app/master/setup"

	"github.com/gin-gonic/gin"
)

// RoleHandler 角色管理处理器
type RoleHandler struct {
	ep *setup.SystemEndpoints
}

// NewRoleHandler 创建角色管理处理器
func NewRoleHandler(ep *setup.SystemEndpoints) *RoleHandler {
	return &RoleHandler{ep: ep}
}

// ListRoles 角色列表
func (h *RoleHandler) ListRoles(c *gin.Context) { serve(c, h.ep.ListRoles, http.StatusOK) }

// CreateRole 创建角色(可同时指定父角色、权限、菜单)
func (h *RoleHandler) CreateRole(c *gin.Context) { serve(c, h.ep.CreateRole, http.StatusCreated) }

// GetRole 角色详情
func (h *RoleHandler) GetRole(c *gin.Context) { serve(c, h.ep.GetRole, http.StatusOK) }

// UpdateRole 更新角色
func (h *RoleHandler) UpdateRole(c *gin.Context) { serve(c, h.ep.UpdateRole, http.StatusOK) }

// DeleteRole 删除角色
func (h *RoleHandler) DeleteRole(c *gin.Context) { serve(c, h.ep.DeleteRole, http.StatusOK) }

// SetParent 设置或清除父角色
func (h *RoleHandler) SetParent(c *gin.Context) { serve(c, h.ep.SetRoleParent, http.StatusOK) }

// GetPermissions 角色直接持有的权限
func (h *RoleHandler) GetPermissions(c *gin.Context) {
	serve(c, h.ep.GetRolePermissions, http.StatusOK)
}

// SetPermissions 批量替换角色权限
func (h *RoleHandler) SetPermissions(c *gin.Context) {
	serve(c, h.ep.SetRolePermissions, http.StatusOK)
}

// AssignPermission 添加单个权限
func (h *RoleHandler) AssignPermission(c *gin.Context) {
	serve(c, h.ep.AssignPermissionToRole, http.StatusOK)
}

// RemovePermission 移除单个权限
func (h *RoleHandler) RemovePermission(c *gin.Context) {
	serve(c, h.ep.RemovePermissionFromRole, http.StatusOK)
}

// GetMenus 角色直接关联的菜单
func (h *RoleHandler) GetMenus(c *gin.Context) { serve(c, h.ep.GetRoleMenus, http.StatusOK) }

// SetMenus 批量替换角色菜单
func (h *RoleHandler) SetMenus(c *gin.Context) { serve(c, h.ep.SetRoleMenus, http.StatusOK) }

// AssignMenu 添加单个菜单
func (h *RoleHandler) AssignMenu(c *gin.Context) { serve(c, h.ep.AssignMenuToRole, http.StatusOK) }

// RemoveMenu 移除单个菜单
func (h *RoleHandler) RemoveMenu(c *gin.Context) { serve(c, h.ep.RemoveMenuFromRole, http.StatusOK) }
