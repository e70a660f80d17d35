/**
 * 模型:领域事件
 * @author: sun977
 * @date: 2025.10.14
 * @description: 聚合变更产生的领域事件，事务提交后才分发
 * @func: 用户/角色/权限/菜单/部门事件定义
 */
package model

import "accesscore/internal/pkg/event"

// ---- 用户事件 ----

// UserCreated 用户创建；持有聚合指针，分发时 ID 已由存储回填
type UserCreated struct {
	event.Base
	User *User `json:"-"`
}

func (UserCreated) EventName() string { return "UserCreated" }

// UserProfileUpdated 用户资料更新
type UserProfileUpdated struct {
	event.Base
	UserID uint64 `json:"user_id"`
}

func (UserProfileUpdated) EventName() string { return "UserProfileUpdated" }

// UserPasswordChanged 密码修改
type UserPasswordChanged struct {
	event.Base
	UserID          uint64 `json:"user_id"`
	PasswordVersion int64  `json:"password_version"`
}

func (UserPasswordChanged) EventName() string { return "UserPasswordChanged" }

// UserStatusChanged 启用/禁用
type UserStatusChanged struct {
	event.Base
	UserID uint64 `json:"user_id"`
	Active bool   `json:"active"`
}

func (UserStatusChanged) EventName() string { return "UserStatusChanged" }

// UserRoleAdded 用户获得角色
type UserRoleAdded struct {
	event.Base
	UserID uint64 `json:"user_id"`
	RoleID uint64 `json:"role_id"`
}

func (UserRoleAdded) EventName() string { return "UserRoleAdded" }

// UserRoleRemoved 用户失去角色
type UserRoleRemoved struct {
	event.Base
	UserID uint64 `json:"user_id"`
	RoleID uint64 `json:"role_id"`
}

func (UserRoleRemoved) EventName() string { return "UserRoleRemoved" }

// UserDepartmentAdded 用户加入部门
type UserDepartmentAdded struct {
	event.Base
	UserID       uint64 `json:"user_id"`
	DepartmentID uint64 `json:"department_id"`
	IsPrimary    bool   `json:"is_primary"`
}

func (UserDepartmentAdded) EventName() string { return "UserDepartmentAdded" }

// UserDepartmentRemoved 用户移出部门；移除主部门时 PromotedDepartmentID 为被提升的部门
type UserDepartmentRemoved struct {
	event.Base
	UserID               uint64  `json:"user_id"`
	DepartmentID         uint64  `json:"department_id"`
	PromotedDepartmentID *uint64 `json:"promoted_department_id,omitempty"`
}

func (UserDepartmentRemoved) EventName() string { return "UserDepartmentRemoved" }

// UserPrimaryDepartmentChanged 主部门变更
type UserPrimaryDepartmentChanged struct {
	event.Base
	UserID       uint64 `json:"user_id"`
	DepartmentID uint64 `json:"department_id"`
}

func (UserPrimaryDepartmentChanged) EventName() string { return "UserPrimaryDepartmentChanged" }

// UserDeleted 用户删除，RoleIDs 为删除前持有的角色
type UserDeleted struct {
	event.Base
	UserID  uint64   `json:"user_id"`
	RoleIDs []uint64 `json:"role_ids"`
}

func (UserDeleted) EventName() string { return "UserDeleted" }

// ---- 角色事件 ----

// RoleCreated 角色创建
type RoleCreated struct {
	event.Base
	Role *Role `json:"-"`
}

func (RoleCreated) EventName() string { return "RoleCreated" }

// RoleUpdated 角色名称/描述更新
type RoleUpdated struct {
	event.Base
	RoleID uint64 `json:"role_id"`
}

func (RoleUpdated) EventName() string { return "RoleUpdated" }

// RoleParentChanged 角色继承关系变更
type RoleParentChanged struct {
	event.Base
	RoleID      uint64  `json:"role_id"`
	OldParentID *uint64 `json:"old_parent_id,omitempty"`
	NewParentID *uint64 `json:"new_parent_id,omitempty"`
}

func (RoleParentChanged) EventName() string { return "RoleParentChanged" }

// RolePermissionAdded 角色新增单个权限
type RolePermissionAdded struct {
	event.Base
	RoleID       uint64 `json:"role_id"`
	PermissionID uint64 `json:"permission_id"`
}

func (RolePermissionAdded) EventName() string { return "RolePermissionAdded" }

// RolePermissionRemoved 角色移除单个权限
type RolePermissionRemoved struct {
	event.Base
	RoleID       uint64 `json:"role_id"`
	PermissionID uint64 `json:"permission_id"`
}

func (RolePermissionRemoved) EventName() string { return "RolePermissionRemoved" }

// RolePermissionsBulkChanged 批量设置权限，只列出实际增减项
type RolePermissionsBulkChanged struct {
	event.Base
	RoleID             uint64   `json:"role_id"`
	AddedPermissions   []uint64 `json:"added_permissions"`
	RemovedPermissions []uint64 `json:"removed_permissions"`
}

func (RolePermissionsBulkChanged) EventName() string { return "RolePermissionsBulkChanged" }

// RoleMenuAdded 角色新增菜单
type RoleMenuAdded struct {
	event.Base
	RoleID uint64 `json:"role_id"`
	MenuID uint64 `json:"menu_id"`
}

func (RoleMenuAdded) EventName() string { return "RoleMenuAdded" }

// RoleMenuRemoved 角色移除菜单
type RoleMenuRemoved struct {
	event.Base
	RoleID uint64 `json:"role_id"`
	MenuID uint64 `json:"menu_id"`
}

func (RoleMenuRemoved) EventName() string { return "RoleMenuRemoved" }

// RoleMenusBulkChanged 批量设置菜单
type RoleMenusBulkChanged struct {
	event.Base
	RoleID       uint64   `json:"role_id"`
	AddedMenus   []uint64 `json:"added_menus"`
	RemovedMenus []uint64 `json:"removed_menus"`
}

func (RoleMenusBulkChanged) EventName() string { return "RoleMenusBulkChanged" }

// RoleDeleted 角色删除
type RoleDeleted struct {
	event.Base
	RoleID uint64 `json:"role_id"`
	Code   string `json:"code"`
}

func (RoleDeleted) EventName() string { return "RoleDeleted" }

// ---- 权限事件 ----

// PermissionCreated 权限创建
type PermissionCreated struct {
	event.Base
	Permission *Permission `json:"-"`
}

func (PermissionCreated) EventName() string { return "PermissionCreated" }

// PermissionUpdated 权限匹配字段或展示字段更新
type PermissionUpdated struct {
	event.Base
	PermissionID uint64 `json:"permission_id"`
}

func (PermissionUpdated) EventName() string { return "PermissionUpdated" }

// PermissionDeleted 权限删除，RoleIDs 为删除前引用它的角色
type PermissionDeleted struct {
	event.Base
	PermissionID uint64   `json:"permission_id"`
	RoleIDs      []uint64 `json:"role_ids"`
}

func (PermissionDeleted) EventName() string { return "PermissionDeleted" }

// ---- 菜单事件 ----

// MenuCreated 菜单创建
type MenuCreated struct {
	event.Base
	Menu *Menu `json:"-"`
}

func (MenuCreated) EventName() string { return "MenuCreated" }

// MenuUpdated 菜单更新
type MenuUpdated struct {
	event.Base
	MenuID uint64 `json:"menu_id"`
}

func (MenuUpdated) EventName() string { return "MenuUpdated" }

// MenuParentChanged 菜单父节点变更
type MenuParentChanged struct {
	event.Base
	MenuID      uint64  `json:"menu_id"`
	OldParentID *uint64 `json:"old_parent_id,omitempty"`
	NewParentID *uint64 `json:"new_parent_id,omitempty"`
}

func (MenuParentChanged) EventName() string { return "MenuParentChanged" }

// MenuDeleted 菜单删除
type MenuDeleted struct {
	event.Base
	MenuID uint64 `json:"menu_id"`
}

func (MenuDeleted) EventName() string { return "MenuDeleted" }

// ---- 部门事件 ----

// DepartmentCreated 部门创建
type DepartmentCreated struct {
	event.Base
	Department *Department `json:"-"`
}

func (DepartmentCreated) EventName() string { return "DepartmentCreated" }

// DepartmentUpdated 部门更新
type DepartmentUpdated struct {
	event.Base
	DepartmentID uint64 `json:"department_id"`
}

func (DepartmentUpdated) EventName() string { return "DepartmentUpdated" }

// DepartmentParentChanged 部门父节点变更
type DepartmentParentChanged struct {
	event.Base
	DepartmentID uint64  `json:"department_id"`
	OldParentID  *uint64 `json:"old_parent_id,omitempty"`
	NewParentID  *uint64 `json:"new_parent_id,omitempty"`
}

func (DepartmentParentChanged) EventName() string { return "DepartmentParentChanged" }

// DepartmentDeleted 部门删除
type DepartmentDeleted struct {
	event.Base
	DepartmentID uint64 `json:"department_id"`
}

func (DepartmentDeleted) EventName() string { return "DepartmentDeleted" }
