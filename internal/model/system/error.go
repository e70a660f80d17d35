/**
 * 模型:错误定义
 * @author: sun977
 * @date: 2025.08.29
 * @description: 系统错误分类 - 校验失败/实体不存在/业务规则冲突/内部错误/提交后分发失败
 * @func: 哨兵错误、ValidationError、NotFoundError、BusinessRuleError、InternalError、DispatchError
 */
package system

import (
	"errors"
	"fmt"
	"strings"
)

// 认证与授权错误，由HTTP层基于授权查询结果返回
var (
	ErrUserDisabled     = errors.New("用户已被禁用")
	ErrTokenInvalid     = errors.New("令牌无效")
	ErrPermissionDenied = errors.New("权限不足")
	ErrUnauthorized     = errors.New("未授权访问")
)

// 业务规则编码
const (
	RuleHierarchyCycle            = "hierarchy_cycle"
	RuleSystemRoleImmutable       = "system_role_immutable"
	RuleSystemRoleDeletion        = "system_role_deletion"
	RuleSystemPermissionImmutable = "system_permission_immutable"
	RuleRoleInUse                 = "role_in_use"
	RuleHasChildren               = "has_children"
	RuleDuplicateCode             = "duplicate_code"
	RuleDuplicateAssignment       = "duplicate_assignment"
	RuleMissingAssignment         = "missing_assignment"
	RuleMembershipRequired        = "membership_required"
	RuleSystemEntity              = "system_entity_protected"
	RuleDepartmentInUse           = "department_in_use"
)

// FieldFailure 单个字段的校验失败
type FieldFailure struct {
	Field   string `json:"field"`   // 字段名
	Message string `json:"message"` // 错误消息
}

// ValidationError 校验错误，包含全部字段失败信息，原样返回调用方
type ValidationError struct {
	Failures []FieldFailure `json:"failures"`
}

// NewValidationError 创建校验错误
func NewValidationError(failures ...FieldFailure) *ValidationError {
	return &ValidationError{Failures: failures}
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError 引用的实体不存在
type NotFoundError struct {
	Entity string
	ID     interface{}
}

// NewNotFoundError 创建实体不存在错误
func NewNotFoundError(entity string, id interface{}) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// BusinessRuleError 业务规则冲突(环路、系统角色保护、编码重复等)
type BusinessRuleError struct {
	Rule    string
	Message string
}

// NewBusinessRuleError 创建业务规则错误
func NewBusinessRuleError(rule, format string, args ...interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

// InternalError 非预期错误(存储失败、继承链超限等)，对外只暴露不透明信息
type InternalError struct {
	Op  string
	Err error
}

// NewInternalError 包装内部错误
func NewInternalError(op string, err error) *InternalError {
	return &InternalError{Op: op, Err: err}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// DispatchError 事务已提交，领域事件分发失败；写入不回滚
type DispatchError struct {
	Event string
	Err   error
}

// NewDispatchError 创建提交后分发错误
func NewDispatchError(event string, err error) *DispatchError {
	return &DispatchError{Event: event, Err: err}
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("committed, but dispatching %s failed: %v", e.Event, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsValidationError 检查是否为校验错误
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound 检查是否为实体不存在错误
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsBusinessRule 检查是否为业务规则错误，rule 为空时匹配任意规则
func IsBusinessRule(err error, rule string) bool {
	var target *BusinessRuleError
	if !errors.As(err, &target) {
		return false
	}
	return rule == "" || target.Rule == rule
}

// IsInternal 检查是否为内部错误
func IsInternal(err error) bool {
	var target *InternalError
	return errors.As(err, &target)
}

// IsPostCommit 检查是否为提交后的分发错误
func IsPostCommit(err error) bool {
	var target *DispatchError
	return errors.As(err, &target)
}

// IsClientError 校验失败、实体不存在、业务规则冲突均属于调用方错误
func IsClientError(err error) bool {
	return IsValidationError(err) || IsNotFound(err) || IsBusinessRule(err, "")
}

// PublicMessage 返回可以直接展示给调用方的错误信息，内部细节不外泄
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsPostCommit(err):
		return "操作已生效，但部分通知未送达"
	case IsClientError(err):
		return err.Error()
	default:
		return "内部错误"
	}
}
