/*
 * 角色仓库层:角色数据访问
 * @author: sun977
 * @date: 2025.10.15
 * @description: 单纯数据访问,不包含业务逻辑；权限/菜单关联随聚合整体落库
 * @func:
 * 1.查询角色(含权限、菜单关联)
 * 2.角色编码唯一性检查
 * 3.登记保存/删除
 * 4.角色继承森林与反向查询(角色 -> 用户)
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

// RoleRepository 角色仓库
type RoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository 创建角色仓库实例
func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Get 根据ID获取角色及其权限、菜单关联
func (r *RoleRepository) Get(ctx context.Context, id uint64) (*model.Role, error) {
	var role model.Role
	if err := first(ctx, r.db, &role, "role", id); err != nil {
		return nil, err
	}
	roles := []*model.Role{&role}
	if err := r.loadJoins(ctx, roles); err != nil {
		return nil, err
	}
	return &role, nil
}

// GetByCode 根据编码获取角色
func (r *RoleRepository) GetByCode(ctx context.Context, code string) (*model.Role, error) {
	var role model.Role
	err := mysql.Use(ctx, r.db).Where("code = ?", code).Limit(1).Find(&role).Error
	if err != nil {
		return nil, system.NewInternalError("get role by code", err)
	}
	if role.ID == 0 {
		return nil, system.NewNotFoundError("role", code)
	}
	if err := r.loadJoins(ctx, []*model.Role{&role}); err != nil {
		return nil, err
	}
	return &role, nil
}

// ExistsCode 编码是否已被其他角色占用
func (r *RoleRepository) ExistsCode(ctx context.Context, code string, excludeID uint64) (bool, error) {
	return exists(ctx, r.db, "roles", "code", code, excludeID)
}

// List 获取全部角色，按排序号、id 排序，不加载关联
func (r *RoleRepository) List(ctx context.Context) ([]*model.Role, error) {
	var roles []*model.Role
	if err := mysql.Use(ctx, r.db).Order("sort_order, id").Find(&roles).Error; err != nil {
		return nil, system.NewInternalError("list roles", err)
	}
	return roles, nil
}

// ListByIDs 批量获取角色，不存在的 id 被忽略
func (r *RoleRepository) ListByIDs(ctx context.Context, ids []uint64) ([]*model.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var roles []*model.Role
	if err := mysql.Use(ctx, r.db).Where("id IN ?", ids).Order("id").Find(&roles).Error; err != nil {
		return nil, system.NewInternalError("list roles by ids", err)
	}
	return roles, nil
}

func (r *RoleRepository) loadJoins(ctx context.Context, roles []*model.Role) error {
	if len(roles) == 0 {
		return nil
	}
	byID := make(map[uint64]*model.Role, len(roles))
	ids := make([]uint64, 0, len(roles))
	for _, role := range roles {
		byID[role.ID] = role
		ids = append(ids, role.ID)
		role.Permissions = nil
		role.Menus = nil
	}

	db := mysql.Use(ctx, r.db)
	var perms []model.RolePermission
	if err := db.Where("role_id IN ?", ids).Order("role_id, permission_id").Find(&perms).Error; err != nil {
		return system.NewInternalError("load role permissions", err)
	}
	for _, p := range perms {
		byID[p.RoleID].Permissions = append(byID[p.RoleID].Permissions, p)
	}

	var menus []model.RoleMenu
	if err := db.Where("role_id IN ?", ids).Order("role_id, menu_id").Find(&menus).Error; err != nil {
		return system.NewInternalError("load role menus", err)
	}
	for _, m := range menus {
		byID[m.RoleID].Menus = append(byID[m.RoleID].Menus, m)
	}
	return nil
}

// Save 登记保存；新角色插入后回填关联记录的角色 id，关联表整体替换
func (r *RoleRepository) Save(ctx context.Context, role *model.Role) error {
	return mysql.Track(ctx, role, func(tx *gorm.DB) error {
		if role.ID == 0 {
			if err := tx.Create(role).Error; err != nil {
				return err
			}
			role.AssignOwner()
		} else if err := tx.Save(role).Error; err != nil {
			return err
		}

		if err := tx.Where("role_id = ?", role.ID).Delete(&model.RolePermission{}).Error; err != nil {
			return err
		}
		if len(role.Permissions) > 0 {
			if err := tx.Create(&role.Permissions).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&model.RoleMenu{}).Error; err != nil {
			return err
		}
		if len(role.Menus) > 0 {
			return tx.Create(&role.Menus).Error
		}
		return nil
	})
}

// Delete 登记删除角色及其权限、菜单关联
func (r *RoleRepository) Delete(ctx context.Context, role *model.Role) error {
	return mysql.Track(ctx, role, func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", role.ID).Delete(&model.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&model.RoleMenu{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Role{}, role.ID).Error
	})
}

// Forest 角色继承森林
func (r *RoleRepository) Forest(ctx context.Context, maxDepth int) (*hierarchy.Forest, error) {
	return loadForest(ctx, r.db, "roles", "parent_role_id", maxDepth)
}

// CountUsers 直接持有该角色的用户数
func (r *RoleRepository) CountUsers(ctx context.Context, roleID uint64) (int64, error) {
	var count int64
	if err := mysql.Use(ctx, r.db).Model(&model.UserRole{}).Where("role_id = ?", roleID).Count(&count).Error; err != nil {
		return 0, system.NewInternalError("count role users", err)
	}
	return count, nil
}

// UserIDsByRoles 直接持有任一角色的用户 id
func (r *RoleRepository) UserIDsByRoles(ctx context.Context, roleIDs []uint64) ([]uint64, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	return pluck(ctx, r.db, "user_roles", "user_id", "role_id IN ?", roleIDs)
}

// RoleIDsByPermission 引用该权限的角色 id
func (r *RoleRepository) RoleIDsByPermission(ctx context.Context, permissionID uint64) ([]uint64, error) {
	return pluck(ctx, r.db, "role_permissions", "role_id", "permission_id = ?", permissionID)
}

// RoleIDsByMenu 引用该菜单的角色 id
func (r *RoleRepository) RoleIDsByMenu(ctx context.Context, menuID uint64) ([]uint64, error) {
	return pluck(ctx, r.db, "role_menus", "role_id", "menu_id = ?", menuID)
}
