/**
 * 模型:菜单聚合
 * @author: sun977
 * @date: 2025.10.14
 * @description: 前端菜单树节点，通过角色授予用户
 * @func: NewMenu, Update, SetParent, MarkDeleted
 */
package model

import (
	"accesscore/internal/model/system"
	"accesscore/internal/pkg/event"
	"accesscore/internal/pkg/hierarchy"
)

// Menu 菜单聚合
type Menu struct {
	BaseModel
	Name      string  `json:"name" gorm:"not null;size:50"`             // 菜单名称
	Code      string  `json:"code" gorm:"uniqueIndex;not null;size:50"` // 菜单编码，唯一
	ParentID  *uint64 `json:"parent_id,omitempty" gorm:"index"`         // 父菜单
	Path      string  `json:"path" gorm:"size:255"`                     // 前端路由
	Icon      string  `json:"icon" gorm:"size:100"`                     // 图标
	Component string  `json:"component" gorm:"size:255"`                // 前端组件
	SortOrder int     `json:"sort_order" gorm:"not null;default:0"`     // 同级排序
	Visible   bool    `json:"visible" gorm:"not null"`                  // 是否在菜单树中显示
	IsSystem  bool    `json:"is_system" gorm:"not null"`                // 系统菜单不可删除

	events event.Recorder
}

// MenuSpec 菜单可变字段
type MenuSpec struct {
	Name      string
	Path      string
	Icon      string
	Component string
	SortOrder int
	Visible   bool
}

// TableName 指定菜单表名
func (Menu) TableName() string { return "menus" }

// NewMenu 创建根菜单，父节点通过 SetParent 设置
func NewMenu(code string, spec MenuSpec, isSystem bool) *Menu {
	m := &Menu{Code: code, IsSystem: isSystem}
	m.apply(spec)
	m.events.Record(MenuCreated{Base: event.NewBase(), Menu: m})
	return m
}

func (m *Menu) apply(spec MenuSpec) {
	m.Name = spec.Name
	m.Path = spec.Path
	m.Icon = spec.Icon
	m.Component = spec.Component
	m.SortOrder = spec.SortOrder
	m.Visible = spec.Visible
}

// DrainEvents 读取并清空待分发事件
func (m *Menu) DrainEvents() []event.Event { return m.events.Drain() }

// Update 更新菜单
func (m *Menu) Update(spec MenuSpec) event.Event {
	m.apply(spec)
	e := MenuUpdated{Base: event.NewBase(), MenuID: m.ID}
	m.events.Record(e)
	return e
}

// SetParent 设置父菜单，forest 为当前事务内加载的完整菜单森林
func (m *Menu) SetParent(parentID *uint64, forest *hierarchy.Forest) (event.Event, error) {
	changed, err := reparent(forest, "menu", m.ID, m.ParentID, parentID)
	if err != nil || !changed {
		return nil, err
	}
	e := MenuParentChanged{Base: event.NewBase(), MenuID: m.ID, OldParentID: copyID(m.ParentID), NewParentID: copyID(parentID)}
	m.ParentID = copyID(parentID)
	m.events.Record(e)
	return e, nil
}

// MarkDeleted 删除前检查系统菜单与子菜单
func (m *Menu) MarkDeleted(childCount int) (event.Event, error) {
	if m.IsSystem {
		return nil, system.NewBusinessRuleError(system.RuleSystemEntity, "system menu %s cannot be deleted", m.Code)
	}
	if childCount > 0 {
		return nil, system.NewBusinessRuleError(system.RuleHasChildren, "menu %s still has %d children", m.Code, childCount)
	}
	e := MenuDeleted{Base: event.NewBase(), MenuID: m.ID}
	m.events.Record(e)
	return e, nil
}
