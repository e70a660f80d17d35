/*
 * 部门仓库层:部门数据访问
 * @author: sun977
 * @date: 2025.10.15
 * @description: 单纯数据访问,不包含业务逻辑；成员关系由用户仓库维护
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

// DepartmentRepository 部门仓库
type DepartmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository 创建部门仓库实例
func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// Get 根据ID获取部门
func (r *DepartmentRepository) Get(ctx context.Context, id uint64) (*model.Department, error) {
	var dept model.Department
	if err := first(ctx, r.db, &dept, "department", id); err != nil {
		return nil, err
	}
	return &dept, nil
}

// ExistsCode 编码是否已被其他部门占用
func (r *DepartmentRepository) ExistsCode(ctx context.Context, code string, excludeID uint64) (bool, error) {
	return exists(ctx, r.db, "departments", "code", code, excludeID)
}

// List 全部部门
func (r *DepartmentRepository) List(ctx context.Context) ([]*model.Department, error) {
	var depts []*model.Department
	if err := mysql.Use(ctx, r.db).Order("sort_order, id").Find(&depts).Error; err != nil {
		return nil, system.NewInternalError("list departments", err)
	}
	return depts, nil
}

// ListByIDs 批量获取部门
func (r *DepartmentRepository) ListByIDs(ctx context.Context, ids []uint64) ([]*model.Department, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var depts []*model.Department
	if err := mysql.Use(ctx, r.db).Where("id IN ?", ids).Order("sort_order, id").Find(&depts).Error; err != nil {
		return nil, system.NewInternalError("list departments by ids", err)
	}
	return depts, nil
}

// Forest 部门森林
func (r *DepartmentRepository) Forest(ctx context.Context, maxDepth int) (*hierarchy.Forest, error) {
	return loadForest(ctx, r.db, "departments", "parent_id", maxDepth)
}

// Save 登记保存
func (r *DepartmentRepository) Save(ctx context.Context, dept *model.Department) error {
	return mysql.Track(ctx, dept, func(tx *gorm.DB) error {
		if dept.ID == 0 {
			return tx.Create(dept).Error
		}
		return tx.Save(dept).Error
	})
}

// Delete 登记删除部门
func (r *DepartmentRepository) Delete(ctx context.Context, dept *model.Department) error {
	return mysql.Track(ctx, dept, func(tx *gorm.DB) error {
		return tx.Delete(&model.Department{}, dept.ID).Error
	})
}
