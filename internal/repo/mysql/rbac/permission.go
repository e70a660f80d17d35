/*
 * 权限仓库层:权限数据访问
 * @author: sun977
 * @date: 2025.10.15
 * @description: 单纯数据访问,不包含业务逻辑
 * @func:
 * 1.查询权限/按分组列出
 * 2.按角色集合批量查询权限(解析有效权限)
 * 3.登记保存/删除
 */
package rbac

import (
	"context"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/repo/mysql"

	"gorm.io/gorm"
)

// PermissionRepository 权限仓库
type PermissionRepository struct {
	db *gorm.DB
}

// NewPermissionRepository 创建权限仓库实例
func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// Get 根据ID获取权限
func (r *PermissionRepository) Get(ctx context.Context, id uint64) (*model.Permission, error) {
	var perm model.Permission
	if err := first(ctx, r.db, &perm, "permission", id); err != nil {
		return nil, err
	}
	return &perm, nil
}

// ExistsCode 编码是否已被其他权限占用
func (r *PermissionRepository) ExistsCode(ctx context.Context, code string, excludeID uint64) (bool, error) {
	return exists(ctx, r.db, "permissions", "code", code, excludeID)
}

// List 列出权限，groupName 为空时返回全部
func (r *PermissionRepository) List(ctx context.Context, groupName string) ([]*model.Permission, error) {
	var perms []*model.Permission
	q := mysql.Use(ctx, r.db).Order("group_name, sort_order, id")
	if groupName != "" {
		q = q.Where("group_name = ?", groupName)
	}
	if err := q.Find(&perms).Error; err != nil {
		return nil, system.NewInternalError("list permissions", err)
	}
	return perms, nil
}

// ListByIDs 批量获取权限，不存在的 id 被忽略
func (r *PermissionRepository) ListByIDs(ctx context.Context, ids []uint64) ([]*model.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var perms []*model.Permission
	if err := mysql.Use(ctx, r.db).Where("id IN ?", ids).Order("sort_order, id").Find(&perms).Error; err != nil {
		return nil, system.NewInternalError("list permissions by ids", err)
	}
	return perms, nil
}

// ListByRoleIDs 任一角色直接持有的权限，已去重
func (r *PermissionRepository) ListByRoleIDs(ctx context.Context, roleIDs []uint64) ([]*model.Permission, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var perms []*model.Permission
	err := mysql.Use(ctx, r.db).
		Where("id IN (?)", mysql.Use(ctx, r.db).Model(&model.RolePermission{}).Select("permission_id").Where("role_id IN ?", roleIDs)).
		Order("sort_order, id").
		Find(&perms).Error
	if err != nil {
		return nil, system.NewInternalError("list role permissions", err)
	}
	return perms, nil
}

// Save 登记保存
func (r *PermissionRepository) Save(ctx context.Context, perm *model.Permission) error {
	return mysql.Track(ctx, perm, func(tx *gorm.DB) error {
		if perm.ID == 0 {
			return tx.Create(perm).Error
		}
		return tx.Save(perm).Error
	})
}

// Delete 登记删除权限及其角色关联
func (r *PermissionRepository) Delete(ctx context.Context, perm *model.Permission) error {
	return mysql.Track(ctx, perm, func(tx *gorm.DB) error {
		if err := tx.Where("permission_id = ?", perm.ID).Delete(&model.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Permission{}, perm.ID).Error
	})
}
