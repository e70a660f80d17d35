// Package pipeline 请求管道：每个请求依次经过 校验 -> 日志 -> 事务 三个阶段再到达处理器
package pipeline

import "context"

// Kind 请求类别
type Kind int

const (
	KindCommand Kind = iota + 1 // 写操作，在事务中执行
	KindQuery                   // 只读，不开启事务
)

// String 类别名称
func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Request 请求必须嵌入 Command 或 Query 之一
type Request interface {
	Kind() Kind
}

// Command 写请求标记
type Command struct{}

// Kind 实现 Request
func (Command) Kind() Kind { return KindCommand }

// Query 只读请求标记
type Query struct{}

// Kind 实现 Request
func (Query) Kind() Kind { return KindQuery }

// Handler 请求处理器
type Handler[R Request, T any] func(ctx context.Context, req R) (T, error)

// UnitOfWork 事务阶段需要的工作单元能力
type UnitOfWork interface {
	InTransaction() bool
	BeginTransaction(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback() error
}

// UnitOfWorkProvider 返回上下文中的工作单元，没有时创建并挂到返回的上下文
type UnitOfWorkProvider func(ctx context.Context) (context.Context, UnitOfWork)
