/**
 * 模型:权限聚合
 * @author: sun977
 * @date: 2025.08.29
 * @description: 权限编码、分组、资源类型与资源路径/HTTP方法；系统权限不可修改、不可删除
 * @func: NewPermission, Update, MarkDeleted, Grant
 */
package model

import (
	"strings"

	"accesscore/internal/model/system"
	"accesscore/internal/pkg/event"
	"accesscore/internal/pkg/matcher"
)

// Permission 权限聚合
type Permission struct {
	BaseModel
	Name         string `json:"name" gorm:"not null;size:100"`                            // 权限名称
	Code         string `json:"code" gorm:"uniqueIndex;not null;size:100"`                // 权限编码，唯一
	GroupName    string `json:"group_name" gorm:"size:50;index"`                          // 分组
	ResourceType string `json:"resource_type" gorm:"not null;size:20;comment:API/MENU/BUTTON"` // 资源类型
	ResourcePath string `json:"resource_path" gorm:"size:255"`                            // 资源路径，可含 * 或以 /** 结尾
	HTTPMethod   string `json:"http_method" gorm:"size:10"`                               // HTTP 方法，空表示任意
	SortOrder    int    `json:"sort_order" gorm:"not null;default:0"`                     // 排序
	IsSystem     bool   `json:"is_system" gorm:"not null"`                                // 系统权限
	Description  string `json:"description" gorm:"size:255"`                              // 描述

	events event.Recorder
}

// PermissionSpec 权限可变字段
type PermissionSpec struct {
	Name         string
	GroupName    string
	ResourceType string
	ResourcePath string
	HTTPMethod   string
	SortOrder    int
	Description  string
}

// TableName 指定权限表名
func (Permission) TableName() string { return "permissions" }

// NewPermission 创建权限
func NewPermission(code string, spec PermissionSpec, isSystem bool) *Permission {
	p := &Permission{Code: code, IsSystem: isSystem}
	p.apply(spec)
	p.events.Record(PermissionCreated{Base: event.NewBase(), Permission: p})
	return p
}

func (p *Permission) apply(spec PermissionSpec) {
	p.Name = spec.Name
	p.GroupName = spec.GroupName
	p.ResourceType = strings.ToUpper(spec.ResourceType)
	p.ResourcePath = spec.ResourcePath
	p.HTTPMethod = strings.ToUpper(spec.HTTPMethod)
	p.SortOrder = spec.SortOrder
	p.Description = spec.Description
}

// DrainEvents 读取并清空待分发事件
func (p *Permission) DrainEvents() []event.Event { return p.events.Drain() }

// PendingEvents 待分发事件副本
func (p *Permission) PendingEvents() []event.Event { return p.events.Pending() }

// Update 更新展示与匹配字段
func (p *Permission) Update(spec PermissionSpec) (event.Event, error) {
	if p.IsSystem {
		return nil, system.NewBusinessRuleError(system.RuleSystemPermissionImmutable, "system permission %s cannot be modified", p.Code)
	}
	p.apply(spec)
	e := PermissionUpdated{Base: event.NewBase(), PermissionID: p.ID}
	p.events.Record(e)
	return e, nil
}

// MarkDeleted 删除；roleIDs 为当前引用该权限的角色
func (p *Permission) MarkDeleted(roleIDs []uint64) (event.Event, error) {
	if p.IsSystem {
		return nil, system.NewBusinessRuleError(system.RuleSystemPermissionImmutable, "system permission %s cannot be deleted", p.Code)
	}
	e := PermissionDeleted{Base: event.NewBase(), PermissionID: p.ID, RoleIDs: roleIDs}
	p.events.Record(e)
	return e, nil
}

// Grant 参与路径匹配的字段
func (p *Permission) Grant() matcher.Grant {
	return matcher.Grant{ResourceType: p.ResourceType, Path: p.ResourcePath, Verb: p.HTTPMethod}
}

// IsPattern 资源路径是否为通配模式
func (p *Permission) IsPattern() bool {
	return matcher.IsPattern(p.ResourcePath)
}
