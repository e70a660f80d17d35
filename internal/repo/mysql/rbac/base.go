/**
 * 仓库层:RBAC 数据访问公共部分
 * @author: sun977
 * @date: 2025.10.15
 * @description: 读操作经 mysql.Use 走当前事务；写操作登记到工作单元，由 SaveChanges 统一落库
 */
package rbac

import (
	"context"
	"errors"

	"accesscore/internal/model/system"
	"accesscore/internal/pkg/hierarchy"
	"accesscore/internal/repo/mysql"

	"gorm.io/gorm"
)

// first 按主键查询单条记录，不存在时返回 NotFoundError
func first(ctx context.Context, db *gorm.DB, dest interface{}, entity string, id uint64) error {
	err := mysql.Use(ctx, db).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return system.NewNotFoundError(entity, id)
	}
	if err != nil {
		return system.NewInternalError("get "+entity, err)
	}
	return nil
}

// exists 检查某列取值是否已被其他记录占用，excludeID 为 0 时不排除
func exists(ctx context.Context, db *gorm.DB, table, column string, value interface{}, excludeID uint64) (bool, error) {
	var count int64
	q := mysql.Use(ctx, db).Table(table).Where(column+" = ?", value)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, system.NewInternalError("check "+table+"."+column, err)
	}
	return count > 0, nil
}

// loadForest 在当前事务内一次性加载整张表的 (id, parent) 关系
// 事务内加载时锁住整张表的行，两个命令互相挂接父节点时后者读到前者的边
func loadForest(ctx context.Context, db *gorm.DB, table, parentColumn string, maxDepth int) (*hierarchy.Forest, error) {
	var links []hierarchy.Link
	err := mysql.UseForUpdate(ctx, db).Table(table).
		Select("id, " + parentColumn + " AS parent_id").
		Scan(&links).Error
	if err != nil {
		return nil, system.NewInternalError("load "+table+" hierarchy", err)
	}
	return hierarchy.NewForest(links, maxDepth), nil
}

// pluck 查询单列 id
func pluck(ctx context.Context, db *gorm.DB, table, column, where string, args ...interface{}) ([]uint64, error) {
	var ids []uint64
	err := mysql.Use(ctx, db).Table(table).Distinct(column).Where(where, args...).Order(column).Pluck(column, &ids).Error
	if err != nil {
		return nil, system.NewInternalError("query "+table, err)
	}
	return ids, nil
}
