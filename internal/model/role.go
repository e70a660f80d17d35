/**
 * 模型:角色聚合
 * @author: sun977
 * @date: 2025.08.29
 * @description: 角色基本信息、继承关系(父角色)、权限与菜单关联
 * @func: NewRole, NewSystemRole, Update, SetParentRole, AddPermission, RemovePermission,
 *        SetPermissions, AddMenu, RemoveMenu, SetMenus, MarkDeleted
 * @note: 系统角色的权限集合在创建后不可变，单个增删和批量设置一律拒绝
 */
package model

import (
	"time"

	"accesscore/internal/model/system"
	"accesscore/internal/pkg/event"
	"accesscore/internal/pkg/hierarchy"
)

// Role 角色聚合
type Role struct {
	BaseModel
	Name         string  `json:"name" gorm:"not null;size:50"`              // 角色名称
	Code         string  `json:"code" gorm:"uniqueIndex;not null;size:50"`  // 角色编码，唯一
	Description  string  `json:"description" gorm:"size:255"`               // 描述
	IsSystem     bool    `json:"is_system" gorm:"not null;comment:系统内置角色"`  // 系统角色不可删除、权限不可变
	ParentRoleID *uint64 `json:"parent_role_id,omitempty" gorm:"index"`     // 父角色，继承其全部权限
	SortOrder    int     `json:"sort_order" gorm:"not null;default:0"`      // 排序

	Permissions []RolePermission `json:"permissions,omitempty" gorm:"-"` // 权限关联
	Menus       []RoleMenu       `json:"menus,omitempty" gorm:"-"`       // 菜单关联

	events event.Recorder
}

// RolePermission 角色权限关联
type RolePermission struct {
	RoleID       uint64    `json:"role_id" gorm:"primaryKey"`
	PermissionID uint64    `json:"permission_id" gorm:"primaryKey;index"`
	CreatedAt    time.Time `json:"created_at"`
}

// RoleMenu 角色菜单关联
type RoleMenu struct {
	RoleID    uint64    `json:"role_id" gorm:"primaryKey"`
	MenuID    uint64    `json:"menu_id" gorm:"primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定角色表名
func (Role) TableName() string { return "roles" }

// TableName 指定角色权限关联表名
func (RolePermission) TableName() string { return "role_permissions" }

// TableName 指定角色菜单关联表名
func (RoleMenu) TableName() string { return "role_menus" }

// NewRole 创建普通角色
func NewRole(name, code, description string) *Role {
	r := &Role{Name: name, Code: code, Description: description}
	r.events.Record(RoleCreated{Base: event.NewBase(), Role: r})
	return r
}

// NewSystemRole 创建系统角色，权限集合只能在此处给定
func NewSystemRole(name, code, description string, permissionIDs []uint64) *Role {
	r := &Role{Name: name, Code: code, Description: description, IsSystem: true}
	now := time.Now()
	added, _ := diffIDs(nil, permissionIDs)
	for _, pid := range added {
		r.Permissions = append(r.Permissions, RolePermission{PermissionID: pid, CreatedAt: now})
	}
	r.events.Record(RoleCreated{Base: event.NewBase(), Role: r})
	return r
}

// DrainEvents 读取并清空待分发事件
func (r *Role) DrainEvents() []event.Event { return r.events.Drain() }

// PendingEvents 待分发事件副本
func (r *Role) PendingEvents() []event.Event { return r.events.Pending() }

// PermissionIDs 直接关联的权限 id
func (r *Role) PermissionIDs() []uint64 {
	ids := make([]uint64, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		ids = append(ids, p.PermissionID)
	}
	return ids
}

// MenuIDs 直接关联的菜单 id
func (r *Role) MenuIDs() []uint64 {
	ids := make([]uint64, 0, len(r.Menus))
	for _, m := range r.Menus {
		ids = append(ids, m.MenuID)
	}
	return ids
}

func (r *Role) guardSystem(action string) error {
	if r.IsSystem {
		return system.NewBusinessRuleError(system.RuleSystemRoleImmutable, "system role %s cannot %s", r.Code, action)
	}
	return nil
}

// Update 更新名称与描述
func (r *Role) Update(name, description string, sortOrder int) (event.Event, error) {
	if err := r.guardSystem("be modified"); err != nil {
		return nil, err
	}
	r.Name = name
	r.Description = description
	r.SortOrder = sortOrder
	e := RoleUpdated{Base: event.NewBase(), RoleID: r.ID}
	r.events.Record(e)
	return e, nil
}

// SetParentRole 设置父角色；forest 必须是当前事务内加载的完整角色森林，
// 父角色等于自身或位于自身子树中时拒绝
func (r *Role) SetParentRole(parentID *uint64, forest *hierarchy.Forest) (event.Event, error) {
	if err := r.guardSystem("change its parent"); err != nil {
		return nil, err
	}
	changed, err := reparent(forest, "role", r.ID, r.ParentRoleID, parentID)
	if err != nil || !changed {
		return nil, err
	}
	e := RoleParentChanged{Base: event.NewBase(), RoleID: r.ID, OldParentID: copyID(r.ParentRoleID), NewParentID: copyID(parentID)}
	r.ParentRoleID = copyID(parentID)
	r.events.Record(e)
	return e, nil
}

// AddPermission 增加单个权限
func (r *Role) AddPermission(permissionID uint64) (event.Event, error) {
	if err := r.guardSystem("change its permissions"); err != nil {
		return nil, err
	}
	for _, p := range r.Permissions {
		if p.PermissionID == permissionID {
			return nil, system.NewBusinessRuleError(system.RuleDuplicateAssignment, "role %s already has permission %d", r.Code, permissionID)
		}
	}
	r.Permissions = append(r.Permissions, RolePermission{RoleID: r.ID, PermissionID: permissionID, CreatedAt: time.Now()})
	e := RolePermissionAdded{Base: event.NewBase(), RoleID: r.ID, PermissionID: permissionID}
	r.events.Record(e)
	return e, nil
}

// RemovePermission 移除单个权限
func (r *Role) RemovePermission(permissionID uint64) (event.Event, error) {
	if err := r.guardSystem("change its permissions"); err != nil {
		return nil, err
	}
	for i, p := range r.Permissions {
		if p.PermissionID == permissionID {
			r.Permissions = append(r.Permissions[:i:i], r.Permissions[i+1:]...)
			e := RolePermissionRemoved{Base: event.NewBase(), RoleID: r.ID, PermissionID: permissionID}
			r.events.Record(e)
			return e, nil
		}
	}
	return nil, system.NewBusinessRuleError(system.RuleMissingAssignment, "role %s does not have permission %d", r.Code, permissionID)
}

// SetPermissions 批量设置权限，只产生一个列出实际增减项的事件；集合未变化时不产生事件
func (r *Role) SetPermissions(permissionIDs []uint64) (event.Event, error) {
	if err := r.guardSystem("change its permissions"); err != nil {
		return nil, err
	}
	added, removed := diffIDs(r.PermissionIDs(), permissionIDs)
	if len(added) == 0 && len(removed) == 0 {
		return nil, nil
	}

	drop := make(map[uint64]bool, len(removed))
	for _, id := range removed {
		drop[id] = true
	}
	kept := r.Permissions[:0:0]
	for _, p := range r.Permissions {
		if !drop[p.PermissionID] {
			kept = append(kept, p)
		}
	}
	now := time.Now()
	for _, id := range added {
		kept = append(kept, RolePermission{RoleID: r.ID, PermissionID: id, CreatedAt: now})
	}
	r.Permissions = kept

	e := RolePermissionsBulkChanged{Base: event.NewBase(), RoleID: r.ID, AddedPermissions: added, RemovedPermissions: removed}
	r.events.Record(e)
	return e, nil
}

// AddMenu 增加菜单
func (r *Role) AddMenu(menuID uint64) (event.Event, error) {
	for _, m := range r.Menus {
		if m.MenuID == menuID {
			return nil, system.NewBusinessRuleError(system.RuleDuplicateAssignment, "role %s already has menu %d", r.Code, menuID)
		}
	}
	r.Menus = append(r.Menus, RoleMenu{RoleID: r.ID, MenuID: menuID, CreatedAt: time.Now()})
	e := RoleMenuAdded{Base: event.NewBase(), RoleID: r.ID, MenuID: menuID}
	r.events.Record(e)
	return e, nil
}

// RemoveMenu 移除菜单
func (r *Role) RemoveMenu(menuID uint64) (event.Event, error) {
	for i, m := range r.Menus {
		if m.MenuID == menuID {
			r.Menus = append(r.Menus[:i:i], r.Menus[i+1:]...)
			e := RoleMenuRemoved{Base: event.NewBase(), RoleID: r.ID, MenuID: menuID}
			r.events.Record(e)
			return e, nil
		}
	}
	return nil, system.NewBusinessRuleError(system.RuleMissingAssignment, "role %s does not have menu %d", r.Code, menuID)
}

// SetMenus 批量设置菜单
func (r *Role) SetMenus(menuIDs []uint64) event.Event {
	added, removed := diffIDs(r.MenuIDs(), menuIDs)
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	drop := make(map[uint64]bool, len(removed))
	for _, id := range removed {
		drop[id] = true
	}
	kept := r.Menus[:0:0]
	for _, m := range r.Menus {
		if !drop[m.MenuID] {
			kept = append(kept, m)
		}
	}
	now := time.Now()
	for _, id := range added {
		kept = append(kept, RoleMenu{RoleID: r.ID, MenuID: id, CreatedAt: now})
	}
	r.Menus = kept

	e := RoleMenusBulkChanged{Base: event.NewBase(), RoleID: r.ID, AddedMenus: added, RemovedMenus: removed}
	r.events.Record(e)
	return e
}

// MarkDeleted 删除前检查：系统角色、仍被用户持有、仍有子角色均拒绝
func (r *Role) MarkDeleted(userCount int64, childCount int) (event.Event, error) {
	if r.IsSystem {
		return nil, system.NewBusinessRuleError(system.RuleSystemRoleDeletion, "system role %s cannot be deleted", r.Code)
	}
	if userCount > 0 {
		return nil, system.NewBusinessRuleError(system.RuleRoleInUse, "cannot delete role in use by %d users", userCount)
	}
	if childCount > 0 {
		return nil, system.NewBusinessRuleError(system.RuleHasChildren, "role %s still has %d child roles", r.Code, childCount)
	}
	e := RoleDeleted{Base: event.NewBase(), RoleID: r.ID, Code: r.Code}
	r.events.Record(e)
	return e, nil
}

// AssignOwner 新建后回填关联记录的角色 id
func (r *Role) AssignOwner() {
	for i := range r.Permissions {
		r.Permissions[i].RoleID = r.ID
	}
	for i := range r.Menus {
		r.Menus[i].RoleID = r.ID
	}
}
