/**
 * @author: sun977
 * @date: 2025.08.29
 * @description: 权限、菜单、部门管理接口
 */
package system

import (
	"net/http"

	"accesscore/internal/app/master/setup"

	"github.com/gin-gonic/gin"
)

// PermissionHandler 权限管理处理器
type PermissionHandler struct {
	ep *setup.SystemEndpoints
}

// NewPermissionHandler 创建权限管理处理器
func NewPermissionHandler(ep *setup.SystemEndpoints) *PermissionHandler {
	return &PermissionHandler{ep: ep}
}

// ListPermissions 权限列表，可按 group_name 过滤
func (h *PermissionHandler) ListPermissions(c *gin.Context) {
	serve(c, h.ep.ListPermissions, http.StatusOK)
}

// CreatePermission 创建权限
func (h *PermissionHandler) CreatePermission(c *gin.Context) {
	serve(c, h.ep.CreatePermission, http.StatusCreated)
}

// UpdatePermission 更新权限
func (h *PermissionHandler) UpdatePermission(c *gin.Context) {
	serve(c, h.ep.UpdatePermission, http.StatusOK)
}

// DeletePermission 删除权限
func (h *PermissionHandler) DeletePermission(c *gin.Context) {
	serve(c, h.ep.DeletePermission, http.StatusOK)
}

// MenuHandler 菜单管理处理器
type MenuHandler struct {
	ep *setup.SystemEndpoints
}

// NewMenuHandler 创建菜单管理处理器
func NewMenuHandler(ep *setup.SystemEndpoints) *MenuHandler {
	return &MenuHandler{ep: ep}
}

// GetMenuTree 完整菜单树
func (h *MenuHandler) GetMenuTree(c *gin.Context) { serve(c, h.ep.GetMenuTree, http.StatusOK) }

// GetMenu 菜单详情
func (h *MenuHandler) GetMenu(c *gin.Context) { serve(c, h.ep.GetMenu, http.StatusOK) }

// CreateMenu 创建菜单
func (h *MenuHandler) CreateMenu(c *gin.Context) { serve(c, h.ep.CreateMenu, http.StatusCreated) }

// UpdateMenu 更新菜单
func (h *MenuHandler) UpdateMenu(c *gin.Context) { serve(c, h.ep.UpdateMenu, http.StatusOK) }

// SetParent 移动菜单
func (h *MenuHandler) SetParent(c *gin.Context) { serve(c, h.ep.SetMenuParent, http.StatusOK) }

// DeleteMenu 删除菜单
func (h *MenuHandler) DeleteMenu(c *gin.Context) { serve(c, h.ep.DeleteMenu, http.StatusOK) }

// DepartmentHandler 部门管理处理器
type DepartmentHandler struct {
	ep *setup.SystemEndpoints
}

// NewDepartmentHandler 创建部门管理处理器
func NewDepartmentHandler(ep *setup.SystemEndpoints) *DepartmentHandler {
	return &DepartmentHandler{ep: ep}
}

// GetDepartmentTree 部门树
func (h *DepartmentHandler) GetDepartmentTree(c *gin.Context) {
	serve(c, h.ep.GetDepartmentTree, http.StatusOK)
}

// GetDepartment 部门详情
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	serve(c, h.ep.GetDepartment, http.StatusOK)
}

// CreateDepartment 创建部门
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	serve(c, h.ep.CreateDepartment, http.StatusCreated)
}

// UpdateDepartment 更新部门
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	serve(c, h.ep.UpdateDepartment, http.StatusOK)
}

// SetParent 移动部门
func (h *DepartmentHandler) SetParent(c *gin.Context) {
	serve(c, h.ep.SetDepartmentParent, http.StatusOK)
}

// DeleteDepartment 删除部门
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	serve(c, h.ep.DeleteDepartment, http.StatusOK)
}

// GetDepartmentUsers 部门成员
func (h *DepartmentHandler) GetDepartmentUsers(c *gin.Context) {
	serve(c, h.ep.GetDepartmentUsers, http.StatusOK)
}
