package database

import (
	"fmt"

	"accesscore/internal/model"

	"gorm.io/gorm"
)

// Models 需要迁移的全部表
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.Menu{},
		&model.Department{},
		&model.UserRole{},
		&model.UserDepartment{},
		&model.RolePermission{},
		&model.RoleMenu{},
	}
}

// AutoMigrate 创建或更新表结构
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}
