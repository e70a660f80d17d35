package system

import (
	"context"

	"accesscore/internal/model"
	"accesscore/internal/pkg/hierarchy"
	"accesscore/internal/service/pipeline"
)

// MenuFields 菜单可变字段
type MenuFields struct {
	Name      string `json:"name" validate:"required,max=50"`
	Path      string `json:"path" validate:"max=255"`
	Icon      string `json:"icon" validate:"max=100"`
	Component string `json:"component" validate:"max=255"`
	SortOrder int    `json:"sort_order"`
	Visible   bool   `json:"visible"`
}

func (f MenuFields) spec() model.MenuSpec {
	return model.MenuSpec{
		Name:      f.Name,
		Path:      f.Path,
		Icon:      f.Icon,
		Component: f.Component,
		SortOrder: f.SortOrder,
		Visible:   f.Visible,
	}
}

// CreateMenuRequest 创建菜单
type CreateMenuRequest struct {
	pipeline.Command
	Code     string  `json:"code" validate:"required,max=50"`
	ParentID *uint64 `json:"parent_id" validate:"omitempty,min=1"`
	MenuFields
}

// UpdateMenuRequest 更新菜单
type UpdateMenuRequest struct {
	pipeline.Command
	MenuID uint64 `json:"menu_id" uri:"id" validate:"required"`
	MenuFields
}

// SetMenuParentRequest 设置父菜单
type SetMenuParentRequest struct {
	pipeline.Command
	MenuID   uint64  `json:"menu_id" uri:"id" validate:"required"`
	ParentID *uint64 `json:"parent_id" validate:"omitempty,min=1"`
}

// DeleteMenuRequest 删除菜单
type DeleteMenuRequest struct {
	pipeline.Command
	MenuID uint64 `json:"menu_id" uri:"id" validate:"required"`
}

// GetMenuTreeRequest 完整菜单树
type GetMenuTreeRequest struct {
	pipeline.Query
}

// GetMenuRequest 查询菜单
type GetMenuRequest struct {
	pipeline.Query
	MenuID uint64 `json:"menu_id" uri:"id" validate:"required"`
}

// GetUserMenuTreeRequest 用户可见菜单树
type GetUserMenuTreeRequest struct {
	pipeline.Query
	UserID uint64 `json:"user_id" uri:"id" validate:"required"`
}

// MenuTree 菜单树
type MenuTree []*hierarchy.Node[*model.Menu]

// CreateMenu 创建菜单
func (s *Service) CreateMenu(ctx context.Context, req CreateMenuRequest) (*model.Menu, error) {
	if err := ensureFree(ctx, s.menus.ExistsCode, "menu", "code", req.Code, 0); err != nil {
		return nil, err
	}
	menu := model.NewMenu(req.Code, req.spec(), false)
	if err := s.menus.Save(ctx, menu); err != nil {
		return nil, err
	}
	if req.ParentID == nil {
		return menu, nil
	}
	if err := flush(ctx); err != nil {
		return nil, err
	}
	forest, err := s.menus.Forest(ctx, s.opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	if _, err := menu.SetParent(req.ParentID, forest); err != nil {
		return nil, err
	}
	return menu, s.menus.Save(ctx, menu)
}

// UpdateMenu 更新菜单
func (s *Service) UpdateMenu(ctx context.Context, req UpdateMenuRequest) (*model.Menu, error) {
	menu, err := s.menus.Get(ctx, req.MenuID)
	if err != nil {
		return nil, err
	}
	menu.Update(req.spec())
	return menu, s.menus.Save(ctx, menu)
}

// SetMenuParent 设置父菜单，拒绝形成环
func (s *Service) SetMenuParent(ctx context.Context, req SetMenuParentRequest) (*model.Menu, error) {
	menu, err := s.menus.Get(ctx, req.MenuID)
	if err != nil {
		return nil, err
	}
	forest, err := s.menus.Forest(ctx, s.opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	e, err := menu.SetParent(req.ParentID, forest)
	if err != nil || e == nil {
		return menu, err
	}
	return menu, s.menus.Save(ctx, menu)
}

// DeleteMenu 删除菜单；系统菜单或仍有子菜单时拒绝
func (s *Service) DeleteMenu(ctx context.Context, req DeleteMenuRequest) (struct{}, error) {
	menu, err := s.menus.Get(ctx, req.MenuID)
	if err != nil {
		return struct{}{}, err
	}
	forest, err := s.menus.Forest(ctx, s.opts.MaxDepth)
	if err != nil {
		return struct{}{}, err
	}
	if _, err := menu.MarkDeleted(len(forest.Children(menu.ID))); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, s.menus.Delete(ctx, menu)
}

// GetMenu 查询单个菜单
func (s *Service) GetMenu(ctx context.Context, req GetMenuRequest) (*model.Menu, error) {
	return s.menus.Get(ctx, req.MenuID)
}

// GetMenuTree 完整菜单树，包含隐藏菜单
func (s *Service) GetMenuTree(ctx context.Context, _ GetMenuTreeRequest) (MenuTree, error) {
	menus, err := s.menus.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.menuTree(ctx, menus)
}

// GetUserMenuTree 用户可见菜单树：直接及继承角色关联的可见菜单；管理员返回全部可见菜单
func (s *Service) GetUserMenuTree(ctx context.Context, req GetUserMenuTreeRequest) (MenuTree, error) {
	snap, err := s.rbac.EffectivePermissions(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	var menus []*model.Menu
	switch {
	case snap.Admin:
		menus, err = s.menus.List(ctx)
	case len(snap.RoleIDs) > 0:
		var ids []uint64
		ids, err = s.menus.MenuIDsByRoles(ctx, snap.RoleIDs)
		if err == nil {
			menus, err = s.menus.ListByIDs(ctx, ids)
		}
	}
	if err != nil {
		return nil, err
	}

	visible := menus[:0:0]
	for _, m := range menus {
		if m.Visible {
			visible = append(visible, m)
		}
	}
	return s.menuTree(ctx, visible)
}

func (s *Service) menuTree(ctx context.Context, menus []*model.Menu) (MenuTree, error) {
	if len(menus) == 0 {
		return MenuTree{}, nil
	}
	forest, err := s.menus.Forest(ctx, s.opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	items := make(map[uint64]*model.Menu, len(menus))
	for _, m := range menus {
		items[m.ID] = m
	}
	return hierarchy.BuildTree(forest, items, menuLess), nil
}
