/**
 * 服务层:权限缓存失效订阅
 * @author: sun977
 * @date: 2025.10.15
 * @description: 角色变更影响持有该角色或其任一后代角色的全部用户，沿继承树反向扇出后逐个失效
 * @func: Register, UsersOfRoles
 */
package auth

import (
	"context"
	"errors"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/pkg/event"
	"accesscore/internal/pkg/hierarchy"
)

// RoleFanOut 失效扇出需要的角色查询
type RoleFanOut interface {
	Forest(ctx context.Context, maxDepth int) (*hierarchy.Forest, error)
	UserIDsByRoles(ctx context.Context, roleIDs []uint64) ([]uint64, error)
	RoleIDsByPermission(ctx context.Context, permissionID uint64) ([]uint64, error)
}

// Invalidator 缓存失效订阅者
type Invalidator struct {
	cache    *PermissionCache
	roles    RoleFanOut
	maxDepth int
}

// NewInvalidator 创建失效订阅者
func NewInvalidator(cache *PermissionCache, roles RoleFanOut, maxDepth int) *Invalidator {
	return &Invalidator{cache: cache, roles: roles, maxDepth: maxDepth}
}

// UsersOfRoles 持有这些角色或其任一后代角色的用户
func (i *Invalidator) UsersOfRoles(ctx context.Context, roleIDs ...uint64) ([]uint64, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	forest, err := i.roles.Forest(ctx, i.maxDepth)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint64]bool)
	var affected []uint64
	for _, id := range roleIDs {
		if !seen[id] {
			seen[id] = true
			affected = append(affected, id)
		}
		descendants, err := forest.Descendants(id)
		var unknown *hierarchy.UnknownNodeError
		if errors.As(err, &unknown) {
			continue
		}
		if err != nil {
			return nil, system.NewInternalError("fan out role descendants", err)
		}
		for _, d := range descendants {
			if !seen[d] {
				seen[d] = true
				affected = append(affected, d)
			}
		}
	}
	return i.roles.UserIDsByRoles(ctx, affected)
}

func (i *Invalidator) invalidateRoles(ctx context.Context, roleIDs ...uint64) error {
	users, err := i.UsersOfRoles(ctx, roleIDs...)
	if err != nil {
		return err
	}
	return i.cache.Invalidate(ctx, users...)
}

// Register 订阅会改变有效权限的事件
func (i *Invalidator) Register(d *event.Dispatcher) {
	const name = "permission-cache-invalidator"

	event.Subscribe[model.RolePermissionAdded](d, name, event.HandlerFunc[model.RolePermissionAdded](
		func(ctx context.Context, e model.RolePermissionAdded) error { return i.invalidateRoles(ctx, e.RoleID) }))
	event.Subscribe[model.RolePermissionRemoved](d, name, event.HandlerFunc[model.RolePermissionRemoved](
		func(ctx context.Context, e model.RolePermissionRemoved) error { return i.invalidateRoles(ctx, e.RoleID) }))
	event.Subscribe[model.RolePermissionsBulkChanged](d, name, event.HandlerFunc[model.RolePermissionsBulkChanged](
		func(ctx context.Context, e model.RolePermissionsBulkChanged) error { return i.invalidateRoles(ctx, e.RoleID) }))
	event.Subscribe[model.RoleParentChanged](d, name, event.HandlerFunc[model.RoleParentChanged](
		func(ctx context.Context, e model.RoleParentChanged) error { return i.invalidateRoles(ctx, e.RoleID) }))

	event.Subscribe[model.UserRoleAdded](d, name, event.HandlerFunc[model.UserRoleAdded](
		func(ctx context.Context, e model.UserRoleAdded) error { return i.cache.Invalidate(ctx, e.UserID) }))
	event.Subscribe[model.UserRoleRemoved](d, name, event.HandlerFunc[model.UserRoleRemoved](
		func(ctx context.Context, e model.UserRoleRemoved) error { return i.cache.Invalidate(ctx, e.UserID) }))
	event.Subscribe[model.UserStatusChanged](d, name, event.HandlerFunc[model.UserStatusChanged](
		func(ctx context.Context, e model.UserStatusChanged) error { return i.cache.Invalidate(ctx, e.UserID) }))
	event.Subscribe[model.UserDeleted](d, name, event.HandlerFunc[model.UserDeleted](
		func(ctx context.Context, e model.UserDeleted) error { return i.cache.Invalidate(ctx, e.UserID) }))

	event.Subscribe[model.PermissionUpdated](d, name, event.HandlerFunc[model.PermissionUpdated](
		func(ctx context.Context, e model.PermissionUpdated) error {
			roleIDs, err := i.roles.RoleIDsByPermission(ctx, e.PermissionID)
			if err != nil {
				return err
			}
			return i.invalidateRoles(ctx, roleIDs...)
		}))
	// 删除后关联已不存在，使用事件里携带的角色
	event.Subscribe[model.PermissionDeleted](d, name, event.HandlerFunc[model.PermissionDeleted](
		func(ctx context.Context, e model.PermissionDeleted) error { return i.invalidateRoles(ctx, e.RoleIDs...) }))
}
