package system

import (
	"context"
	"strings"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/service/pipeline"
)

// PermissionFields 权限可变字段
type PermissionFields struct {
	Name         string `json:"name" validate:"required,max=100"`
	GroupName    string `json:"group_name" validate:"max=50"`
	ResourceType string `json:"resource_type" validate:"required,oneof=API MENU BUTTON api menu button"`
	ResourcePath string `json:"resource_path" validate:"max=255"`
	HTTPMethod   string `json:"http_method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS get post put patch delete head options"`
	SortOrder    int    `json:"sort_order"`
	Description  string `json:"description" validate:"max=255"`
}

func (f PermissionFields) spec() model.PermissionSpec {
	return model.PermissionSpec{
		Name:         f.Name,
		GroupName:    f.GroupName,
		ResourceType: f.ResourceType,
		ResourcePath: f.ResourcePath,
		HTTPMethod:   f.HTTPMethod,
		SortOrder:    f.SortOrder,
		Description:  f.Description,
	}
}

// CreatePermissionRequest 创建权限
type CreatePermissionRequest struct {
	pipeline.Command
	Code string `json:"code" validate:"required,max=100"`
	PermissionFields
}

// UpdatePermissionRequest 更新权限
type UpdatePermissionRequest struct {
	pipeline.Command
	PermissionID uint64 `json:"permission_id" uri:"id" validate:"required"`
	PermissionFields
}

// DeletePermissionRequest 删除权限
type DeletePermissionRequest struct {
	pipeline.Command
	PermissionID uint64 `json:"permission_id" uri:"id" validate:"required"`
}

// ListPermissionsRequest 权限列表，GroupName 为空时返回全部
type ListPermissionsRequest struct {
	pipeline.Query
	GroupName string `json:"group_name" form:"group_name"`
}

// ValidateCreatePermission API 类型的权限必须给出以 / 开头的资源路径
func ValidateCreatePermission(_ context.Context, req CreatePermissionRequest) []system.FieldFailure {
	return resourcePath(req.PermissionFields)
}

// ValidateUpdatePermission 同 ValidateCreatePermission
func ValidateUpdatePermission(_ context.Context, req UpdatePermissionRequest) []system.FieldFailure {
	return resourcePath(req.PermissionFields)
}

func resourcePath(f PermissionFields) []system.FieldFailure {
	if !strings.EqualFold(f.ResourceType, "API") {
		return nil
	}
	if !strings.HasPrefix(f.ResourcePath, "/") {
		return []system.FieldFailure{{Field: "resource_path", Message: "must start with / for API permissions"}}
	}
	return nil
}

// CreatePermission 创建权限
func (s *Service) CreatePermission(ctx context.Context, req CreatePermissionRequest) (*model.Permission, error) {
	if err := ensureFree(ctx, s.permissions.ExistsCode, "permission", "code", req.Code, 0); err != nil {
		return nil, err
	}
	perm := model.NewPermission(req.Code, req.spec(), false)
	return perm, s.permissions.Save(ctx, perm)
}

// UpdatePermission 更新权限；系统权限拒绝
func (s *Service) UpdatePermission(ctx context.Context, req UpdatePermissionRequest) (*model.Permission, error) {
	perm, err := s.permissions.Get(ctx, req.PermissionID)
	if err != nil {
		return nil, err
	}
	if _, err := perm.Update(req.spec()); err != nil {
		return nil, err
	}
	return perm, s.permissions.Save(ctx, perm)
}

// DeletePermission 删除权限；系统权限、被系统角色引用的权限拒绝
func (s *Service) DeletePermission(ctx context.Context, req DeletePermissionRequest) (struct{}, error) {
	perm, err := s.permissions.Get(ctx, req.PermissionID)
	if err != nil {
		return struct{}{}, err
	}
	roleIDs, err := s.roles.RoleIDsByPermission(ctx, perm.ID)
	if err != nil {
		return struct{}{}, err
	}
	holders, err := s.roles.ListByIDs(ctx, roleIDs)
	if err != nil {
		return struct{}{}, err
	}
	for _, r := range holders {
		if r.IsSystem {
			return struct{}{}, system.NewBusinessRuleError(system.RuleSystemRoleImmutable,
				"permission %s is held by system role %s", perm.Code, r.Code)
		}
	}
	if _, err := perm.MarkDeleted(roleIDs); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, s.permissions.Delete(ctx, perm)
}

// ListPermissions 权限列表
func (s *Service) ListPermissions(ctx context.Context, req ListPermissionsRequest) ([]*model.Permission, error) {
	return s.permissions.List(ctx, req.GroupName)
}
