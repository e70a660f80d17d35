package system

import (
	"context"
	"strings"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/pkg/auth"
	"accesscore/internal/repo/mysql/rbac"
	"accesscore/internal/service/pipeline"
)

// CreateUserRequest 创建用户
type CreateUserRequest struct {
	pipeline.Command
	Username      string   `json:"username" validate:"required,min=3,max=50"`
	Email         string   `json:"email" validate:"required,email,max=100"`
	Password      string   `json:"password" validate:"required" log:"-"`
	FullName      string   `json:"full_name" validate:"max=100"`
	Phone         string   `json:"phone" validate:"max=20"`
	RoleIDs       []uint64 `json:"role_ids" validate:"dive,required"`
	DepartmentIDs []uint64 `json:"department_ids" validate:"dive,required"` // 第一个为主部门
}

// UpdateUserProfileRequest 更新用户资料
type UpdateUserProfileRequest struct {
	pipeline.Command
	UserID   uint64 `json:"user_id" uri:"id" validate:"required"`
	Email    string `json:"email" validate:"required,email,max=100"`
	FullName string `json:"full_name" validate:"max=100"`
	Phone    string `json:"phone" validate:"max=20"`
}

// ChangeUserPasswordRequest 修改密码；OldPassword 非空时先校验旧密码
type ChangeUserPasswordRequest struct {
	pipeline.Command
	UserID      uint64 `json:"user_id" uri:"id" validate:"required"`
	OldPassword string `json:"old_password" log:"-"`
	NewPassword string `json:"new_password" validate:"required" log:"-"`
}

// SetUserActiveRequest 启用/禁用用户
type SetUserActiveRequest struct {
	pipeline.Command
	UserID uint64 `json:"user_id" uri:"id" validate:"required"`
	Active bool   `json:"active"`
}

// DeleteUserRequest 删除用户
type DeleteUserRequest struct {
	pipeline.Command
	UserID uint64 `json:"user_id" uri:"id" validate:"required"`
}

// UserRoleRequest 分配/移除用户角色
type UserRoleRequest struct {
	pipeline.Command
	UserID uint64 `json:"user_id" uri:"id" validate:"required"`
	RoleID uint64 `json:"role_id" uri:"role_id" validate:"required"`
}

// GetUserRequest 查询用户
type GetUserRequest struct {
	pipeline.Query
	UserID uint64 `json:"user_id" uri:"id" validate:"required"`
}

// ListUsersRequest 用户分页列表
type ListUsersRequest struct {
	pipeline.Query
	Page     int    `json:"page" form:"page" validate:"omitempty,min=1"`
	PageSize int    `json:"page_size" form:"page_size" validate:"omitempty,min=1,max=100"`
	Search   string `json:"search" form:"search" validate:"max=100"`
}

// 分页默认值
const (
	defaultPage     = 1
	defaultPageSize = 20
)

// ValidateNewUserPassword 新用户密码强度
func ValidateNewUserPassword(_ context.Context, req CreateUserRequest) []system.FieldFailure {
	return strength("password", req.Password)
}

// ValidateChangedPassword 修改后密码强度，且不能与旧密码相同
func ValidateChangedPassword(_ context.Context, req ChangeUserPasswordRequest) []system.FieldFailure {
	failures := strength("new_password", req.NewPassword)
	if req.OldPassword != "" && req.OldPassword == req.NewPassword {
		failures = append(failures, system.FieldFailure{Field: "new_password", Message: "must differ from the old password"})
	}
	return failures
}

func strength(field, password string) []system.FieldFailure {
	if password == "" {
		return nil // required 标签已报告
	}
	if err := auth.ValidateStrength(password); err != nil {
		return []system.FieldFailure{{Field: field, Message: err.Error()}}
	}
	return nil
}

// CreateUser 创建用户，可同时分配角色与部门
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	if err := ensureFree(ctx, s.users.ExistsUsername, "user", "username", req.Username, 0); err != nil {
		return nil, err
	}
	if err := ensureFree(ctx, s.users.ExistsEmail, "user", "email", req.Email, 0); err != nil {
		return nil, err
	}
	if err := s.requireRoles(ctx, req.RoleIDs); err != nil {
		return nil, err
	}
	for _, id := range req.DepartmentIDs {
		if _, err := s.departments.Get(ctx, id); err != nil {
			return nil, err
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, system.NewInternalError("hash password", err)
	}
	user := model.NewUser(req.Username, req.Email, hash, req.FullName)
	user.Phone = req.Phone
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	if len(req.RoleIDs) == 0 && len(req.DepartmentIDs) == 0 {
		return user, nil
	}

	// 关联事件需要携带用户 id，先落库取得 id
	if err := flush(ctx); err != nil {
		return nil, err
	}
	for _, roleID := range req.RoleIDs {
		if _, err := user.AddRole(roleID); err != nil {
			return nil, err
		}
	}
	for i, deptID := range req.DepartmentIDs {
		if _, err := user.AddDepartment(deptID, i == 0); err != nil {
			return nil, err
		}
	}
	return user, s.users.Save(ctx, user)
}

// UpdateUserProfile 更新用户资料
func (s *Service) UpdateUserProfile(ctx context.Context, req UpdateUserProfileRequest) (*model.User, error) {
	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := ensureFree(ctx, s.users.ExistsEmail, "user", "email", req.Email, user.ID); err != nil {
		return nil, err
	}
	user.UpdateProfile(req.Email, req.FullName, req.Phone)
	return user, s.users.Save(ctx, user)
}

// ChangeUserPassword 修改密码，密码版本递增使旧令牌失效
func (s *Service) ChangeUserPassword(ctx context.Context, req ChangeUserPasswordRequest) (*model.User, error) {
	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if req.OldPassword != "" {
		ok, err := s.hasher.Verify(req.OldPassword, user.PasswordHash)
		if err != nil {
			return nil, system.NewInternalError("verify password", err)
		}
		if !ok {
			return nil, system.NewValidationError(system.FieldFailure{Field: "old_password", Message: "does not match"})
		}
	}
	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return nil, system.NewInternalError("hash password", err)
	}
	user.ChangePassword(hash)
	return user, s.users.Save(ctx, user)
}

// SetUserActive 启用/禁用用户，状态未变化时不落库
func (s *Service) SetUserActive(ctx context.Context, req SetUserActiveRequest) (*model.User, error) {
	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user.SetActiveStatus(req.Active) == nil {
		return user, nil
	}
	return user, s.users.Save(ctx, user)
}

// DeleteUser 删除用户
func (s *Service) DeleteUser(ctx context.Context, req DeleteUserRequest) (struct{}, error) {
	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return struct{}{}, err
	}
	user.MarkDeleted()
	return struct{}{}, s.users.Delete(ctx, user)
}

// AssignRoleToUser 分配角色
func (s *Service) AssignRoleToUser(ctx context.Context, req UserRoleRequest) (*model.User, error) {
	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.roles.Get(ctx, req.RoleID); err != nil {
		return nil, err
	}
	if _, err := user.AddRole(req.RoleID); err != nil {
		return nil, err
	}
	return user, s.users.Save(ctx, user)
}

// RemoveRoleFromUser 移除角色
func (s *Service) RemoveRoleFromUser(ctx context.Context, req UserRoleRequest) (*model.User, error) {
	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := user.RemoveRole(req.RoleID); err != nil {
		return nil, err
	}
	return user, s.users.Save(ctx, user)
}

// GetUser 查询用户(含角色与部门关联)
func (s *Service) GetUser(ctx context.Context, req GetUserRequest) (*model.User, error) {
	return s.users.Get(ctx, req.UserID)
}

// ListUsers 用户分页列表，按 id 升序
func (s *Service) ListUsers(ctx context.Context, req ListUsersRequest) (*model.PaginationResponse, error) {
	page, size := req.Page, req.PageSize
	if page <= 0 {
		page = defaultPage
	}
	if size <= 0 {
		size = defaultPageSize
	}
	users, total, err := s.users.List(ctx, rbac.UserFilter{
		Search: strings.TrimSpace(req.Search),
		Offset: (page - 1) * size,
		Limit:  size,
	})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*model.User{}
	}
	return model.NewPaginationResponse(users, total, page, size), nil
}

// GetUserPermissions 用户有效权限(经缓存)
func (s *Service) GetUserPermissions(ctx context.Context, req GetUserRequest) (*model.EffectivePermissions, error) {
	return s.rbac.EffectivePermissions(ctx, req.UserID)
}
