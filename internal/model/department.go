/**
 * 模型:部门聚合
 * @author: sun977
 * @date: 2025.10.14
 * @description: 组织架构树节点，成员关系由用户聚合维护
 * @func: NewDepartment, Update, SetParent, MarkDeleted
 */
package model

import (
	"accesscore/internal/model/system"
	"accesscore/internal/pkg/event"
	"accesscore/internal/pkg/hierarchy"
)

// Department 部门聚合
type Department struct {
	BaseModel
	Name        string  `json:"name" gorm:"not null;size:50"`             // 部门名称
	Code        string  `json:"code" gorm:"uniqueIndex;not null;size:50"` // 部门编码，唯一
	ParentID    *uint64 `json:"parent_id,omitempty" gorm:"index"`         // 上级部门
	Description string  `json:"description" gorm:"size:255"`              // 描述
	SortOrder   int     `json:"sort_order" gorm:"not null;default:0"`     // 同级排序

	events event.Recorder
}

// TableName 指定部门表名
func (Department) TableName() string { return "departments" }

// NewDepartment 创建根部门
func NewDepartment(name, code, description string, sortOrder int) *Department {
	d := &Department{Name: name, Code: code, Description: description, SortOrder: sortOrder}
	d.events.Record(DepartmentCreated{Base: event.NewBase(), Department: d})
	return d
}

// DrainEvents 读取并清空待分发事件
func (d *Department) DrainEvents() []event.Event { return d.events.Drain() }

// Update 更新部门
func (d *Department) Update(name, description string, sortOrder int) event.Event {
	d.Name = name
	d.Description = description
	d.SortOrder = sortOrder
	e := DepartmentUpdated{Base: event.NewBase(), DepartmentID: d.ID}
	d.events.Record(e)
	return e
}

// SetParent 设置上级部门，forest 为当前事务内加载的完整部门森林
func (d *Department) SetParent(parentID *uint64, forest *hierarchy.Forest) (event.Event, error) {
	changed, err := reparent(forest, "department", d.ID, d.ParentID, parentID)
	if err != nil || !changed {
		return nil, err
	}
	e := DepartmentParentChanged{Base: event.NewBase(), DepartmentID: d.ID, OldParentID: copyID(d.ParentID), NewParentID: copyID(parentID)}
	d.ParentID = copyID(parentID)
	d.events.Record(e)
	return e, nil
}

// MarkDeleted 仍有下级部门或成员时拒绝
func (d *Department) MarkDeleted(childCount int, memberCount int64) (event.Event, error) {
	if childCount > 0 {
		return nil, system.NewBusinessRuleError(system.RuleHasChildren, "department %s still has %d sub-departments", d.Code, childCount)
	}
	if memberCount > 0 {
		return nil, system.NewBusinessRuleError(system.RuleDepartmentInUse, "department %s still has %d members", d.Code, memberCount)
	}
	e := DepartmentDeleted{Base: event.NewBase(), DepartmentID: d.ID}
	d.events.Record(e)
	return e, nil
}
