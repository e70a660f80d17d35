package system

import (
	"context"

	"accesscore/internal/model"
	"accesscore/internal/service/pipeline"
)

// CreateRoleRequest 创建角色
type CreateRoleRequest struct {
	pipeline.Command
	Name          string   `json:"name" validate:"required,max=50"`
	Code          string   `json:"code" validate:"required,max=50"`
	Description   string   `json:"description" validate:"max=255"`
	ParentRoleID  *uint64  `json:"parent_role_id" validate:"omitempty,min=1"`
	PermissionIDs []uint64 `json:"permission_ids" validate:"dive,required"`
	MenuIDs       []uint64 `json:"menu_ids" validate:"dive,required"`
}

// UpdateRoleRequest 更新角色
type UpdateRoleRequest struct {
	pipeline.Command
	RoleID      uint64 `json:"role_id" uri:"id" validate:"required"`
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=255"`
	SortOrder   int    `json:"sort_order"`
}

// DeleteRoleRequest 删除角色
type DeleteRoleRequest struct {
	pipeline.Command
	RoleID uint64 `json:"role_id" uri:"id" validate:"required"`
}

// SetRoleParentRequest 设置父角色，ParentRoleID 为空表示设为根角色
type SetRoleParentRequest struct {
	pipeline.Command
	RoleID       uint64  `json:"role_id" uri:"id" validate:"required"`
	ParentRoleID *uint64 `json:"parent_role_id" validate:"omitempty,min=1"`
}

// RolePermissionRequest 角色单个权限增删
type RolePermissionRequest struct {
	pipeline.Command
	RoleID       uint64 `json:"role_id" uri:"id" validate:"required"`
	PermissionID uint64 `json:"permission_id" uri:"permission_id" validate:"required"`
}

// SetRolePermissionsRequest 批量设置角色权限
type SetRolePermissionsRequest struct {
	pipeline.Command
	RoleID        uint64   `json:"role_id" uri:"id" validate:"required"`
	PermissionIDs []uint64 `json:"permission_ids" validate:"dive,required"`
}

// RoleMenuRequest 角色单个菜单增删
type RoleMenuRequest struct {
	pipeline.Command
	RoleID uint64 `json:"role_id" uri:"id" validate:"required"`
	MenuID uint64 `json:"menu_id" uri:"menu_id" validate:"required"`
}

// SetRoleMenusRequest 批量设置角色菜单
type SetRoleMenusRequest struct {
	pipeline.Command
	RoleID  uint64   `json:"role_id" uri:"id" validate:"required"`
	MenuIDs []uint64 `json:"menu_ids" validate:"dive,required"`
}

// GetRoleRequest 查询角色
type GetRoleRequest struct {
	pipeline.Query
	RoleID uint64 `json:"role_id" uri:"id" validate:"required"`
}

// ListRolesRequest 角色列表
type ListRolesRequest struct {
	pipeline.Query
}

// CreateRole 创建角色，可同时设置父角色、权限与菜单
func (s *Service) CreateRole(ctx context.Context, req CreateRoleRequest) (*model.Role, error) {
	if err := ensureFree(ctx, s.roles.ExistsCode, "role", "code", req.Code, 0); err != nil {
		return nil, err
	}
	if err := s.requirePermissions(ctx, req.PermissionIDs); err != nil {
		return nil, err
	}
	if err := s.requireMenus(ctx, req.MenuIDs); err != nil {
		return nil, err
	}

	role := model.NewRole(req.Name, req.Code, req.Description)
	if err := s.roles.Save(ctx, role); err != nil {
		return nil, err
	}
	if req.ParentRoleID == nil && len(req.PermissionIDs) == 0 && len(req.MenuIDs) == 0 {
		return role, nil
	}

	if err := flush(ctx); err != nil {
		return nil, err
	}
	if req.ParentRoleID != nil {
		forest, err := s.roles.Forest(ctx, s.opts.MaxDepth)
		if err != nil {
			return nil, err
		}
		if _, err := role.SetParentRole(req.ParentRoleID, forest); err != nil {
			return nil, err
		}
	}
	if len(req.PermissionIDs) > 0 {
		if _, err := role.SetPermissions(req.PermissionIDs); err != nil {
			return nil, err
		}
	}
	role.SetMenus(req.MenuIDs)
	return role, s.roles.Save(ctx, role)
}

// UpdateRole 更新角色基本信息
func (s *Service) UpdateRole(ctx context.Context, req UpdateRoleRequest) (*model.Role, error) {
	role, err := s.roles.Get(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if _, err := role.Update(req.Name, req.Description, req.SortOrder); err != nil {
		return nil, err
	}
	return role, s.roles.Save(ctx, role)
}

// DeleteRole 删除角色；系统角色、仍被用户持有或仍有子角色时拒绝
func (s *Service) DeleteRole(ctx context.Context, req DeleteRoleRequest) (struct{}, error) {
	role, err := s.roles.Get(ctx, req.RoleID)
	if err != nil {
		return struct{}{}, err
	}
	users, err := s.roles.CountUsers(ctx, role.ID)
	if err != nil {
		return struct{}{}, err
	}
	forest, err := s.roles.Forest(ctx, s.opts.MaxDepth)
	if err != nil {
		return struct{}{}, err
	}
	if _, err := role.MarkDeleted(users, len(forest.Children(role.ID))); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, s.roles.Delete(ctx, role)
}

// SetRoleParent 设置父角色，拒绝形成环
func (s *Service) SetRoleParent(ctx context.Context, req SetRoleParentRequest) (*model.Role, error) {
	role, err := s.roles.Get(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	forest, err := s.roles.Forest(ctx, s.opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	e, err := role.SetParentRole(req.ParentRoleID, forest)
	if err != nil || e == nil {
		return role, err
	}
	return role, s.roles.Save(ctx, role)
}

// AssignPermissionToRole 增加单个权限
func (s *Service) AssignPermissionToRole(ctx context.Context, req RolePermissionRequest) (*model.Role, error) {
	role, err := s.roles.Get(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.permissions.Get(ctx, req.PermissionID); err != nil {
		return nil, err
	}
	if _, err := role.AddPermission(req.PermissionID); err != nil {
		return nil, err
	}
	return role, s.roles.Save(ctx, role)
}

// RemovePermissionFromRole 移除单个权限
func (s *Service) RemovePermissionFromRole(ctx context.Context, req RolePermissionRequest) (*model.Role, error) {
	role, err := s.roles.Get(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if _, err := role.RemovePermission(req.PermissionID); err != nil {
		return nil, err
	}
	return role, s.roles.Save(ctx, role)
}

// SetRolePermissions 批量设置权限，集合不变时不落库
func (s *Service) SetRolePermissions(ctx context.Context, req SetRolePermissionsRequest) (*model.Role, error) {
	role, err := s.roles.Get(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePermissions(ctx, req.PermissionIDs); err != nil {
		return nil, err
	}
	e, err := role.SetPermissions(req.PermissionIDs)
	if err != nil || e == nil {
		return role, err
	}
	return role, s.roles.Save(ctx, role)
}

// AssignMenuToRole 增加菜单
func (s *Service) AssignMenuToRole(ctx context.Context, req RoleMenuRequest) (*model.Role, error) {
	role, err := s.roles.Get(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.menus.Get(ctx, req.MenuID); err != nil {
		return nil, err
	}
	if _, err := role.AddMenu(req.MenuID); err != nil {
		return nil, err
	}
	return role, s.roles.Save(ctx, role)
}

// RemoveMenuFromRole 移除菜单
func (s *Service) RemoveMenuFromRole(ctx context.Context, req RoleMenuRequest) (*model.Role, error) {
	role, err := s.roles.Get(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if _, err := role.RemoveMenu(req.MenuID); err != nil {
		return nil, err
	}
	return role, s.roles.Save(ctx, role)
}

// SetRoleMenus 批量设置菜单
func (s *Service) SetRoleMenus(ctx context.Context, req SetRoleMenusRequest) (*model.Role, error) {
	role, err := s.roles.Get(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMenus(ctx, req.MenuIDs); err != nil {
		return nil, err
	}
	if role.SetMenus(req.MenuIDs) == nil {
		return role, nil
	}
	return role, s.roles.Save(ctx, role)
}

// GetRole 查询角色(含权限、菜单关联)
func (s *Service) GetRole(ctx context.Context, req GetRoleRequest) (*model.Role, error) {
	return s.roles.Get(ctx, req.RoleID)
}

// ListRoles 全部角色
func (s *Service) ListRoles(ctx context.Context, _ ListRolesRequest) ([]*model.Role, error) {
	return s.roles.List(ctx)
}

// GetRolePermissions 角色直接关联的权限(不含继承)
func (s *Service) GetRolePermissions(ctx context.Context, req GetRoleRequest) ([]*model.Permission, error) {
	role, err := s.roles.Get(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	return s.permissions.ListByIDs(ctx, role.PermissionIDs())
}

// GetRoleMenus 角色直接关联的菜单
func (s *Service) GetRoleMenus(ctx context.Context, req GetRoleRequest) ([]*model.Menu, error) {
	role, err := s.roles.Get(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	return s.menus.ListByIDs(ctx, role.MenuIDs())
}
