/**
 * 工作单元:事务边界与领域事件分发
 * @author: sun977
 * @date: 2025.10.15
 * @description: 一个请求一个工作单元。仓库的写操作只登记到工作单元，SaveChanges 时在事务内落库；
 *               Commit 成功后按登记顺序读取并清空各聚合的事件，逐个同步分发。回滚时事件全部丢弃。
 * @func: NewUnitOfWorkFactory, Provide, BeginTransaction, SaveChanges, Commit, Rollback, Use, UseForUpdate, Track
 */
package mysql

import (
	"context"
	"errors"
	"fmt"

	"accesscore/internal/model/system"
	"accesscore/internal/pkg/event"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoUnitOfWork 上下文中没有工作单元
var ErrNoUnitOfWork = errors.New("no unit of work in context")

// PersistFunc 在给定事务上落库一个聚合
type PersistFunc func(tx *gorm.DB) error

type tracked struct {
	source  event.Source
	persist PersistFunc
}

// UnitOfWork 请求级工作单元，不可跨 goroutine 共享
type UnitOfWork struct {
	db         *gorm.DB
	dispatcher *event.Dispatcher
	tx         *gorm.DB
	entries    []*tracked
	index      map[event.Source]int
}

// UnitOfWorkFactory 创建工作单元
type UnitOfWorkFactory struct {
	db         *gorm.DB
	dispatcher *event.Dispatcher
}

// NewUnitOfWorkFactory dispatcher 为 nil 时提交后不分发事件
func NewUnitOfWorkFactory(db *gorm.DB, dispatcher *event.Dispatcher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db, dispatcher: dispatcher}
}

// New 创建独立的工作单元
func (f *UnitOfWorkFactory) New() *UnitOfWork {
	return &UnitOfWork{db: f.db, dispatcher: f.dispatcher, index: make(map[event.Source]int)}
}

// Provide 返回上下文中已有的工作单元，没有则新建并挂到返回的上下文上
func (f *UnitOfWorkFactory) Provide(ctx context.Context) (context.Context, *UnitOfWork) {
	if u := FromContext(ctx); u != nil {
		return ctx, u
	}
	u := f.New()
	return WithUnitOfWork(ctx, u), u
}

type uowKey struct{}

// WithUnitOfWork 把工作单元挂到上下文
func WithUnitOfWork(ctx context.Context, u *UnitOfWork) context.Context {
	return context.WithValue(ctx, uowKey{}, u)
}

// FromContext 取上下文中的工作单元
func FromContext(ctx context.Context) *UnitOfWork {
	u, _ := ctx.Value(uowKey{}).(*UnitOfWork)
	return u
}

// Use 有活动事务时返回事务连接，否则返回 db；仓库的所有读都经过这里，保证读到本事务内的写
func Use(ctx context.Context, db *gorm.DB) *gorm.DB {
	if u := FromContext(ctx); u != nil && u.tx != nil {
		return u.tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// UseForUpdate 同 Use，有活动事务时读取附加 FOR UPDATE 行锁，并发的层级变更因此串行
// 没有事务时不加锁
func UseForUpdate(ctx context.Context, db *gorm.DB) *gorm.DB {
	if u := FromContext(ctx); u != nil && u.tx != nil {
		return u.tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db.WithContext(ctx)
}

// Track 在上下文的工作单元上登记聚合
func Track(ctx context.Context, src event.Source, persist PersistFunc) error {
	u := FromContext(ctx)
	if u == nil {
		return system.NewInternalError("track aggregate", ErrNoUnitOfWork)
	}
	u.Register(src, persist)
	return nil
}

// SaveChanges 落库上下文工作单元中登记的全部变更
func SaveChanges(ctx context.Context) (int, error) {
	u := FromContext(ctx)
	if u == nil {
		return 0, system.NewInternalError("save changes", ErrNoUnitOfWork)
	}
	return u.SaveChanges(ctx)
}

// InTransaction 是否已有活动事务
func (u *UnitOfWork) InTransaction() bool {
	return u.tx != nil
}

// BeginTransaction 开启事务；已有活动事务时为空操作
func (u *UnitOfWork) BeginTransaction(ctx context.Context) error {
	if u.tx != nil {
		return nil
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return system.NewInternalError("begin transaction", tx.Error)
	}
	u.tx = tx
	return nil
}

// Register 登记聚合；同一聚合重复登记时保留原顺序，落库函数以最后一次为准
func (u *UnitOfWork) Register(src event.Source, persist PersistFunc) {
	if i, ok := u.index[src]; ok {
		u.entries[i].persist = persist
		return
	}
	u.index[src] = len(u.entries)
	u.entries = append(u.entries, &tracked{source: src, persist: persist})
}

// SaveChanges 执行尚未落库的变更，返回落库的聚合数。
// 没有活动事务时在一个临时事务中执行。
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	run := func(tx *gorm.DB) (int, error) {
		n := 0
		for _, t := range u.entries {
			if t.persist == nil {
				continue
			}
			if err := t.persist(tx); err != nil {
				return n, err
			}
			t.persist = nil
			n++
		}
		return n, nil
	}

	if u.tx != nil {
		n, err := run(u.tx.WithContext(ctx))
		if err != nil {
			return n, wrapStorage("save changes", err)
		}
		return n, nil
	}

	var n int
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = run(tx)
		return err
	})
	if err != nil {
		return 0, wrapStorage("save changes", err)
	}
	return n, nil
}

// Commit 落库剩余变更并提交，成功后分发事件。
// 分发失败时写入已生效，返回 *system.DispatchError(可能多个，经 errors.Join 合并)。
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return system.NewInternalError("commit", errors.New("no active transaction"))
	}
	if _, err := u.SaveChanges(ctx); err != nil {
		_ = u.Rollback()
		return err
	}
	if err := u.tx.Commit().Error; err != nil {
		u.tx = nil
		u.discard()
		return system.NewInternalError("commit", err)
	}
	u.tx = nil

	var pending []event.Event
	for _, t := range u.entries {
		pending = append(pending, t.source.DrainEvents()...)
	}
	u.reset()

	if u.dispatcher == nil {
		return nil
	}
	var errs []error
	for _, e := range pending {
		if err := u.dispatcher.Dispatch(ctx, e); err != nil {
			errs = append(errs, system.NewDispatchError(e.EventName(), err))
		}
	}
	return errors.Join(errs...)
}

// Rollback 回滚事务并丢弃登记的变更和事件
func (u *UnitOfWork) Rollback() error {
	defer u.discard()
	if u.tx == nil {
		return nil
	}
	tx := u.tx
	u.tx = nil
	if err := tx.Rollback().Error; err != nil && !errors.Is(err, gorm.ErrInvalidTransaction) {
		return system.NewInternalError("rollback", err)
	}
	return nil
}

func (u *UnitOfWork) discard() {
	for _, t := range u.entries {
		t.source.DrainEvents()
	}
	u.reset()
}

func (u *UnitOfWork) reset() {
	u.entries = nil
	u.index = make(map[event.Source]int)
}

// wrapStorage 领域错误原样返回，其余视为存储错误
func wrapStorage(op string, err error) error {
	var (
		validation *system.ValidationError
		notFound   *system.NotFoundError
		rule       *system.BusinessRuleError
		internal   *system.InternalError
	)
	if errors.As(err, &validation) || errors.As(err, &notFound) || errors.As(err, &rule) || errors.As(err, &internal) {
		return err
	}
	return system.NewInternalError(op, fmt.Errorf("storage: %w", err))
}
