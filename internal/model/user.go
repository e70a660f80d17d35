/**
 * 模型:用户聚合
 * @author: sun977
 * @date: 2025.08.29
 * @description: 用户基本信息、启用状态、角色与部门归属；所有变更通过领域方法进行并记录领域事件
 * @func: NewUser, AddRole, RemoveRole, SetActiveStatus, UpdateProfile, ChangePassword,
 *        AddDepartment, RemoveDepartment, SetPrimaryDepartment, MarkDeleted
 */
package model

import (
	"time"

	"accesscore/internal/model/system"
	"accesscore/internal/pkg/event"
)

// User 用户聚合
type User struct {
	BaseModel
	Username     string `json:"username" gorm:"uniqueIndex;not null;size:50"` // 用户名，唯一
	Email        string `json:"email" gorm:"uniqueIndex;not null;size:100"`   // 邮箱，唯一
	PasswordHash string `json:"-" gorm:"not null;size:255"`                   // argon2id 哈希
	PasswordV    int64  `json:"-" gorm:"not null;comment:密码版本号,用于使旧token失效"`  // 每次改密递增
	FullName     string `json:"full_name" gorm:"size:100"`                    // 姓名
	Phone        string `json:"phone" gorm:"size:20"`                         // 手机号
	Active       bool   `json:"active" gorm:"not null;comment:是否启用"`          // 启用状态

	Roles       []UserRole       `json:"roles,omitempty" gorm:"-"`       // 角色关联，由仓库加载
	Departments []UserDepartment `json:"departments,omitempty" gorm:"-"` // 部门关联，由仓库加载

	events event.Recorder
}

// UserRole 用户角色关联
type UserRole struct {
	UserID    uint64    `json:"user_id" gorm:"primaryKey"`
	RoleID    uint64    `json:"role_id" gorm:"primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`
}

// UserDepartment 用户部门关联，同一用户至多一条 IsPrimary
type UserDepartment struct {
	UserID       uint64    `json:"user_id" gorm:"primaryKey"`
	DepartmentID uint64    `json:"department_id" gorm:"primaryKey;index"`
	IsPrimary    bool      `json:"is_primary" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName 指定用户表名
func (User) TableName() string { return "users" }

// TableName 指定用户角色关联表名
func (UserRole) TableName() string { return "user_roles" }

// TableName 指定用户部门关联表名
func (UserDepartment) TableName() string { return "user_departments" }

// NewUser 创建启用状态的用户
func NewUser(username, email, passwordHash, fullName string) *User {
	u := &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		PasswordV:    1,
		FullName:     fullName,
		Active:       true,
	}
	u.events.Record(UserCreated{Base: event.NewBase(), User: u})
	return u
}

// DrainEvents 读取并清空待分发事件
func (u *User) DrainEvents() []event.Event { return u.events.Drain() }

// PendingEvents 待分发事件副本
func (u *User) PendingEvents() []event.Event { return u.events.Pending() }

// IsActive 检查用户是否处于活跃状态
func (u *User) IsActive() bool { return u.Active }

// HasRole 是否直接持有角色
func (u *User) HasRole(roleID uint64) bool {
	for _, r := range u.Roles {
		if r.RoleID == roleID {
			return true
		}
	}
	return false
}

// RoleIDs 直接持有的角色 id
func (u *User) RoleIDs() []uint64 {
	ids := make([]uint64, 0, len(u.Roles))
	for _, r := range u.Roles {
		ids = append(ids, r.RoleID)
	}
	return ids
}

// AddRole 分配角色
func (u *User) AddRole(roleID uint64) (event.Event, error) {
	if u.HasRole(roleID) {
		return nil, system.NewBusinessRuleError(system.RuleDuplicateAssignment, "user %d already holds role %d", u.ID, roleID)
	}
	u.Roles = append(u.Roles, UserRole{UserID: u.ID, RoleID: roleID, CreatedAt: time.Now()})
	e := UserRoleAdded{Base: event.NewBase(), UserID: u.ID, RoleID: roleID}
	u.events.Record(e)
	return e, nil
}

// RemoveRole 移除角色
func (u *User) RemoveRole(roleID uint64) (event.Event, error) {
	for i, r := range u.Roles {
		if r.RoleID == roleID {
			u.Roles = append(u.Roles[:i:i], u.Roles[i+1:]...)
			e := UserRoleRemoved{Base: event.NewBase(), UserID: u.ID, RoleID: roleID}
			u.events.Record(e)
			return e, nil
		}
	}
	return nil, system.NewBusinessRuleError(system.RuleMissingAssignment, "user %d does not hold role %d", u.ID, roleID)
}

// SetActiveStatus 启用/禁用，状态未变化时不产生事件
func (u *User) SetActiveStatus(active bool) event.Event {
	if u.Active == active {
		return nil
	}
	u.Active = active
	e := UserStatusChanged{Base: event.NewBase(), UserID: u.ID, Active: active}
	u.events.Record(e)
	return e
}

// UpdateProfile 更新资料
func (u *User) UpdateProfile(email, fullName, phone string) event.Event {
	u.Email = email
	u.FullName = fullName
	u.Phone = phone
	e := UserProfileUpdated{Base: event.NewBase(), UserID: u.ID}
	u.events.Record(e)
	return e
}

// ChangePassword 更新密码哈希并递增密码版本
func (u *User) ChangePassword(passwordHash string) event.Event {
	u.PasswordHash = passwordHash
	u.PasswordV++
	e := UserPasswordChanged{Base: event.NewBase(), UserID: u.ID, PasswordVersion: u.PasswordV}
	u.events.Record(e)
	return e
}

// PrimaryDepartmentID 主部门，无部门时返回 (0, false)
func (u *User) PrimaryDepartmentID() (uint64, bool) {
	for _, d := range u.Departments {
		if d.IsPrimary {
			return d.DepartmentID, true
		}
	}
	return 0, false
}

// DepartmentIDs 所属部门 id
func (u *User) DepartmentIDs() []uint64 {
	ids := make([]uint64, 0, len(u.Departments))
	for _, d := range u.Departments {
		ids = append(ids, d.DepartmentID)
	}
	return ids
}

func (u *User) departmentIndex(departmentID uint64) int {
	for i, d := range u.Departments {
		if d.DepartmentID == departmentID {
			return i
		}
	}
	return -1
}

// AddDepartment 加入部门；isPrimary 时降级原主部门，首个部门自动成为主部门
func (u *User) AddDepartment(departmentID uint64, isPrimary bool) (event.Event, error) {
	if u.departmentIndex(departmentID) >= 0 {
		return nil, system.NewBusinessRuleError(system.RuleDuplicateAssignment, "user %d already belongs to department %d", u.ID, departmentID)
	}
	if _, has := u.PrimaryDepartmentID(); !has {
		isPrimary = true
	}
	if isPrimary {
		for i := range u.Departments {
			u.Departments[i].IsPrimary = false
		}
	}
	u.Departments = append(u.Departments, UserDepartment{
		UserID:       u.ID,
		DepartmentID: departmentID,
		IsPrimary:    isPrimary,
		CreatedAt:    time.Now(),
	})
	e := UserDepartmentAdded{Base: event.NewBase(), UserID: u.ID, DepartmentID: departmentID, IsPrimary: isPrimary}
	u.events.Record(e)
	return e, nil
}

// RemoveDepartment 移出部门；移除的是主部门且还有其他部门时，提升剩余的第一个部门
func (u *User) RemoveDepartment(departmentID uint64) (event.Event, error) {
	idx := u.departmentIndex(departmentID)
	if idx < 0 {
		return nil, system.NewBusinessRuleError(system.RuleMembershipRequired, "user %d does not belong to department %d", u.ID, departmentID)
	}
	wasPrimary := u.Departments[idx].IsPrimary
	u.Departments = append(u.Departments[:idx:idx], u.Departments[idx+1:]...)

	e := UserDepartmentRemoved{Base: event.NewBase(), UserID: u.ID, DepartmentID: departmentID}
	if wasPrimary && len(u.Departments) > 0 {
		u.Departments[0].IsPrimary = true
		promoted := u.Departments[0].DepartmentID
		e.PromotedDepartmentID = &promoted
	}
	u.events.Record(e)
	return e, nil
}

// SetPrimaryDepartment 设置主部门，必须已是该部门成员
func (u *User) SetPrimaryDepartment(departmentID uint64) (event.Event, error) {
	idx := u.departmentIndex(departmentID)
	if idx < 0 {
		return nil, system.NewBusinessRuleError(system.RuleMembershipRequired, "user %d does not belong to department %d", u.ID, departmentID)
	}
	if u.Departments[idx].IsPrimary {
		return nil, nil
	}
	for i := range u.Departments {
		u.Departments[i].IsPrimary = i == idx
	}
	e := UserPrimaryDepartmentChanged{Base: event.NewBase(), UserID: u.ID, DepartmentID: departmentID}
	u.events.Record(e)
	return e, nil
}

// MarkDeleted 记录删除事件，携带删除前的角色以便失效缓存
func (u *User) MarkDeleted() event.Event {
	e := UserDeleted{Base: event.NewBase(), UserID: u.ID, RoleIDs: u.RoleIDs()}
	u.events.Record(e)
	return e
}

// AssignOwner 新建后回填关联记录的用户 id
func (u *User) AssignOwner() {
	for i := range u.Roles {
		u.Roles[i].UserID = u.ID
	}
	for i := range u.Departments {
		u.Departments[i].UserID = u.ID
	}
}
