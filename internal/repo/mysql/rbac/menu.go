/*
 * 菜单仓库层:菜单数据访问
 * @author: sun977
 * @date: 2025.10.15
 * @description: 单纯数据访问,不包含业务逻辑
 */
package rbac

import (
	"context"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/pkg/hierarchy"
	"accesscore/internal/repo/mysql"

	"gorm.io/gorm"
)

// MenuRepository 菜单仓库
type MenuRepository struct {
	db *gorm.DB
}

// NewMenuRepository 创建菜单仓库实例
func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

// Get 根据ID获取菜单
func (r *MenuRepository) Get(ctx context.Context, id uint64) (*model.Menu, error) {
	var menu model.Menu
	if err := first(ctx, r.db, &menu, "menu", id); err != nil {
		return nil, err
	}
	return &menu, nil
}

// ExistsCode 编码是否已被其他菜单占用
func (r *MenuRepository) ExistsCode(ctx context.Context, code string, excludeID uint64) (bool, error) {
	return exists(ctx, r.db, "menus", "code", code, excludeID)
}

// List 全部菜单
func (r *MenuRepository) List(ctx context.Context) ([]*model.Menu, error) {
	var menus []*model.Menu
	if err := mysql.Use(ctx, r.db).Order("sort_order, id").Find(&menus).Error; err != nil {
		return nil, system.NewInternalError("list menus", err)
	}
	return menus, nil
}

// ListByIDs 批量获取菜单
func (r *MenuRepository) ListByIDs(ctx context.Context, ids []uint64) ([]*model.Menu, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var menus []*model.Menu
	if err := mysql.Use(ctx, r.db).Where("id IN ?", ids).Order("sort_order, id").Find(&menus).Error; err != nil {
		return nil, system.NewInternalError("list menus by ids", err)
	}
	return menus, nil
}

// MenuIDsByRoles 任一角色直接授予的菜单 id
func (r *MenuRepository) MenuIDsByRoles(ctx context.Context, roleIDs []uint64) ([]uint64, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	return pluck(ctx, r.db, "role_menus", "menu_id", "role_id IN ?", roleIDs)
}

// Forest 菜单森林
func (r *MenuRepository) Forest(ctx context.Context, maxDepth int) (*hierarchy.Forest, error) {
	return loadForest(ctx, r.db, "menus", "parent_id", maxDepth)
}

// Save 登记保存
func (r *MenuRepository) Save(ctx context.Context, menu *model.Menu) error {
	return mysql.Track(ctx, menu, func(tx *gorm.DB) error {
		if menu.ID == 0 {
			return tx.Create(menu).Error
		}
		return tx.Save(menu).Error
	})
}

// Delete 登记删除菜单及其角色关联
func (r *MenuRepository) Delete(ctx context.Context, menu *model.Menu) error {
	return mysql.Track(ctx, menu, func(tx *gorm.DB) error {
		if err := tx.Where("menu_id = ?", menu.ID).Delete(&model.RoleMenu{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Menu{}, menu.ID).Error
	})
}
