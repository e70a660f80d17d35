package system

import (
	"context"

	"accesscore/internal/model"
	"accesscore/internal/pkg/hierarchy"
	"accesscore/internal/service/pipeline"
)

// CreateDepartmentRequest 创建部门
type CreateDepartmentRequest struct {
	pipeline.Command
	Name        string  `json:"name" validate:"required,max=50"`
	Code        string  `json:"code" validate:"required,max=50"`
	Description string  `json:"description" validate:"max=255"`
	SortOrder   int     `json:"sort_order"`
	ParentID    *uint64 `json:"parent_id" validate:"omitempty,min=1"`
}

// UpdateDepartmentRequest 更新部门
type UpdateDepartmentRequest struct {
	pipeline.Command
	DepartmentID uint64 `json:"department_id" uri:"id" validate:"required"`
	Name         string `json:"name" validate:"required,max=50"`
	Description  string `json:"description" validate:"max=255"`
	SortOrder    int    `json:"sort_order"`
}

// SetDepartmentParentRequest 设置上级部门
type SetDepartmentParentRequest struct {
	pipeline.Command
	DepartmentID uint64  `json:"department_id" uri:"id" validate:"required"`
	ParentID     *uint64 `json:"parent_id" validate:"omitempty,min=1"`
}

// DeleteDepartmentRequest 删除部门
type DeleteDepartmentRequest struct {
	pipeline.Command
	DepartmentID uint64 `json:"department_id" uri:"id" validate:"required"`
}

// UserDepartmentRequest 用户部门成员关系变更
type UserDepartmentRequest struct {
	pipeline.Command
	UserID       uint64 `json:"user_id" uri:"id" validate:"required"`
	DepartmentID uint64 `json:"department_id" uri:"department_id" validate:"required"`
	IsPrimary    bool   `json:"is_primary"` // 仅加入部门时生效
}

// GetDepartmentTreeRequest 部门树
type GetDepartmentTreeRequest struct {
	pipeline.Query
}

// GetDepartmentRequest 查询部门
type GetDepartmentRequest struct {
	pipeline.Query
	DepartmentID uint64 `json:"department_id" uri:"id" validate:"required"`
}

// GetDepartmentUsersRequest 部门成员
type GetDepartmentUsersRequest struct {
	pipeline.Query
	DepartmentID uint64 `json:"department_id" uri:"id" validate:"required"`
}

// GetUserDepartmentsRequest 用户所属部门
type GetUserDepartmentsRequest struct {
	pipeline.Query
	UserID uint64 `json:"user_id" uri:"id" validate:"required"`
}

// DepartmentTree 部门树
type DepartmentTree []*hierarchy.Node[*model.Department]

// CreateDepartment 创建部门
func (s *Service) CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*model.Department, error) {
	if err := ensureFree(ctx, s.departments.ExistsCode, "department", "code", req.Code, 0); err != nil {
		return nil, err
	}
	dept := model.NewDepartment(req.Name, req.Code, req.Description, req.SortOrder)
	if err := s.departments.Save(ctx, dept); err != nil {
		return nil, err
	}
	if req.ParentID == nil {
		return dept, nil
	}
	if err := flush(ctx); err != nil {
		return nil, err
	}
	forest, err := s.departments.Forest(ctx, s.opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	if _, err := dept.SetParent(req.ParentID, forest); err != nil {
		return nil, err
	}
	return dept, s.departments.Save(ctx, dept)
}

// UpdateDepartment 更新部门
func (s *Service) UpdateDepartment(ctx context.Context, req UpdateDepartmentRequest) (*model.Department, error) {
	dept, err := s.departments.Get(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	dept.Update(req.Name, req.Description, req.SortOrder)
	return dept, s.departments.Save(ctx, dept)
}

// SetDepartmentParent 设置上级部门，拒绝形成环
func (s *Service) SetDepartmentParent(ctx context.Context, req SetDepartmentParentRequest) (*model.Department, error) {
	dept, err := s.departments.Get(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	forest, err := s.departments.Forest(ctx, s.opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	e, err := dept.SetParent(req.ParentID, forest)
	if err != nil || e == nil {
		return dept, err
	}
	return dept, s.departments.Save(ctx, dept)
}

// DeleteDepartment 删除部门；仍有下级部门或成员时拒绝
func (s *Service) DeleteDepartment(ctx context.Context, req DeleteDepartmentRequest) (struct{}, error) {
	dept, err := s.departments.Get(ctx, req.DepartmentID)
	if err != nil {
		return struct{}{}, err
	}
	forest, err := s.departments.Forest(ctx, s.opts.MaxDepth)
	if err != nil {
		return struct{}{}, err
	}
	members, err := s.users.CountByDepartment(ctx, dept.ID)
	if err != nil {
		return struct{}{}, err
	}
	if _, err := dept.MarkDeleted(len(forest.Children(dept.ID)), members); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, s.departments.Delete(ctx, dept)
}

// AddUserToDepartment 加入部门
func (s *Service) AddUserToDepartment(ctx context.Context, req UserDepartmentRequest) (*model.User, error) {
	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.departments.Get(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	if _, err := user.AddDepartment(req.DepartmentID, req.IsPrimary); err != nil {
		return nil, err
	}
	return user, s.users.Save(ctx, user)
}

// RemoveUserFromDepartment 移出部门
func (s *Service) RemoveUserFromDepartment(ctx context.Context, req UserDepartmentRequest) (*model.User, error) {
	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := user.RemoveDepartment(req.DepartmentID); err != nil {
		return nil, err
	}
	return user, s.users.Save(ctx, user)
}

// SetUserPrimaryDepartment 设置主部门
func (s *Service) SetUserPrimaryDepartment(ctx context.Context, req UserDepartmentRequest) (*model.User, error) {
	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	e, err := user.SetPrimaryDepartment(req.DepartmentID)
	if err != nil || e == nil {
		return user, err
	}
	return user, s.users.Save(ctx, user)
}

// GetDepartment 查询单个部门
func (s *Service) GetDepartment(ctx context.Context, req GetDepartmentRequest) (*model.Department, error) {
	return s.departments.Get(ctx, req.DepartmentID)
}

// GetDepartmentTree 部门树
func (s *Service) GetDepartmentTree(ctx context.Context, _ GetDepartmentTreeRequest) (DepartmentTree, error) {
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(depts) == 0 {
		return DepartmentTree{}, nil
	}
	forest, err := s.departments.Forest(ctx, s.opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	items := make(map[uint64]*model.Department, len(depts))
	for _, d := range depts {
		items[d.ID] = d
	}
	return hierarchy.BuildTree(forest, items, departmentLess), nil
}

// GetDepartmentUsers 部门的直接成员
func (s *Service) GetDepartmentUsers(ctx context.Context, req GetDepartmentUsersRequest) ([]*model.User, error) {
	if _, err := s.departments.Get(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	return s.users.ListByDepartment(ctx, req.DepartmentID)
}

// GetUserDepartments 用户所属部门，主部门在前
func (s *Service) GetUserDepartments(ctx context.Context, req GetUserDepartmentsRequest) ([]*model.Department, error) {
	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	depts, err := s.departments.ListByIDs(ctx, user.DepartmentIDs())
	if err != nil {
		return nil, err
	}
	primary, _ := user.PrimaryDepartmentID()
	for i, d := range depts {
		if d.ID == primary && i > 0 {
			depts[0], depts[i] = depts[i], depts[0]
			break
		}
	}
	return depts, nil
}
