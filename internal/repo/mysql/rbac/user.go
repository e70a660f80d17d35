/*
 * 用户仓库层:用户数据访问
 * @author: sun977
 * @date: 2025.10.15
 * @description: 单纯数据访问,不包含业务逻辑；角色、部门关联随聚合整体落库
 * @func:
 * 1.查询用户(含角色、部门关联)
 * 2.用户名/邮箱唯一性检查
 * 3.登记保存/删除
 * 4.部门成员查询
 * 5.分页查询
 */
package rbac

import (
	"context"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/repo/mysql"

	"gorm.io/gorm"
)

// UserRepository 用户仓库
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库实例
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Get 根据ID获取用户及其角色、部门关联
func (r *UserRepository) Get(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	if err := first(ctx, r.db, &user, "user", id); err != nil {
		return nil, err
	}
	if err := r.loadJoins(ctx, []*model.User{&user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername 根据用户名获取用户
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := mysql.Use(ctx, r.db).Where("username = ?", username).Limit(1).Find(&user).Error; err != nil {
		return nil, system.NewInternalError("get user by username", err)
	}
	if user.ID == 0 {
		return nil, system.NewNotFoundError("user", username)
	}
	if err := r.loadJoins(ctx, []*model.User{&user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsUsername 用户名是否已被占用
func (r *UserRepository) ExistsUsername(ctx context.Context, username string, excludeID uint64) (bool, error) {
	return exists(ctx, r.db, "users", "username", username, excludeID)
}

// ExistsEmail 邮箱是否已被占用
func (r *UserRepository) ExistsEmail(ctx context.Context, email string, excludeID uint64) (bool, error) {
	return exists(ctx, r.db, "users", "email", email, excludeID)
}

// ListByDepartment 部门的直接成员
func (r *UserRepository) ListByDepartment(ctx context.Context, departmentID uint64) ([]*model.User, error) {
	var users []*model.User
	err := mysql.Use(ctx, r.db).
		Joins("JOIN user_departments ON user_departments.user_id = users.id").
		Where("user_departments.department_id = ?", departmentID).
		Order("users.id").
		Find(&users).Error
	if err != nil {
		return nil, system.NewInternalError("list department users", err)
	}
	if err := r.loadJoins(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// UserFilter 用户分页条件
type UserFilter struct {
	Search string // 匹配用户名、邮箱、姓名
	Offset int
	Limit  int
}

// List 分页查询用户，返回当前页和总数
func (r *UserRepository) List(ctx context.Context, filter UserFilter) ([]*model.User, int64, error) {
	query := mysql.Use(ctx, r.db).Model(&model.User{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("username LIKE ? OR email LIKE ? OR full_name LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, system.NewInternalError("count users", err)
	}
	var users []*model.User
	if total > 0 {
		if err := query.Order("id").Offset(filter.Offset).Limit(filter.Limit).Find(&users).Error; err != nil {
			return nil, 0, system.NewInternalError("list users", err)
		}
	}
	if err := r.loadJoins(ctx, users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// CountByDepartment 部门的直接成员数
func (r *UserRepository) CountByDepartment(ctx context.Context, departmentID uint64) (int64, error) {
	var count int64
	if err := mysql.Use(ctx, r.db).Model(&model.UserDepartment{}).Where("department_id = ?", departmentID).Count(&count).Error; err != nil {
		return 0, system.NewInternalError("count department users", err)
	}
	return count, nil
}

func (r *UserRepository) loadJoins(ctx context.Context, users []*model.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[uint64]*model.User, len(users))
	ids := make([]uint64, 0, len(users))
	for _, u := range users {
		byID[u.ID] = u
		ids = append(ids, u.ID)
		u.Roles = nil
		u.Departments = nil
	}

	db := mysql.Use(ctx, r.db)
	var roles []model.UserRole
	if err := db.Where("user_id IN ?", ids).Order("user_id, created_at, role_id").Find(&roles).Error; err != nil {
		return system.NewInternalError("load user roles", err)
	}
	for _, ur := range roles {
		byID[ur.UserID].Roles = append(byID[ur.UserID].Roles, ur)
	}

	var depts []model.UserDepartment
	if err := db.Where("user_id IN ?", ids).Order("user_id, created_at, department_id").Find(&depts).Error; err != nil {
		return system.NewInternalError("load user departments", err)
	}
	for _, ud := range depts {
		byID[ud.UserID].Departments = append(byID[ud.UserID].Departments, ud)
	}
	return nil
}

// Save 登记保存；关联表整体替换
func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	return mysql.Track(ctx, user, func(tx *gorm.DB) error {
		if user.ID == 0 {
			if err := tx.Create(user).Error; err != nil {
				return err
			}
			user.AssignOwner()
		} else if err := tx.Save(user).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		if len(user.Roles) > 0 {
			if err := tx.Create(&user.Roles).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.UserDepartment{}).Error; err != nil {
			return err
		}
		if len(user.Departments) > 0 {
			return tx.Create(&user.Departments).Error
		}
		return nil
	})
}

// Delete 登记删除用户及其角色、部门关联
func (r *UserRepository) Delete(ctx context.Context, user *model.User) error {
	return mysql.Track(ctx, user, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.UserDepartment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, user.ID).Error
	})
}
