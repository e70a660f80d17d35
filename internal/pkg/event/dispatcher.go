package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"accesscore/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Handler 订阅者
type Handler[E Event] interface {
	Handle(ctx context.Context, e E) error
}

// HandlerFunc 函数形式的订阅者
type HandlerFunc[E Event] func(ctx context.Context, e E) error

// Handle 实现 Handler
func (f HandlerFunc[E]) Handle(ctx context.Context, e E) error {
	return f(ctx, e)
}

type subscription struct {
	name   string
	handle func(ctx context.Context, e Event) error
}

// Dispatcher 按事件名分发，同一事件的订阅者按注册顺序同步执行
type Dispatcher struct {
	mu   sync.RWMutex
	subs map[string][]subscription
}

// NewDispatcher 创建分发器
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[string][]subscription)}
}

// Subscribe 注册订阅者；name 仅用于日志
func Subscribe[E Event](d *Dispatcher, name string, h Handler[E]) {
	var zero E
	eventName := zero.EventName()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs[eventName] = append(d.subs[eventName], subscription{
		name: name,
		handle: func(ctx context.Context, e Event) error {
			typed, ok := e.(E)
			if !ok {
				return fmt.Errorf("event %s has unexpected type %T", eventName, e)
			}
			return h.Handle(ctx, typed)
		},
	})
}

// SubscriberCount 某事件的订阅者数量
func (d *Dispatcher) SubscriberCount(eventName string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs[eventName])
}

// Dispatch 把事件交给全部订阅者；某个订阅者失败不影响后续订阅者，错误合并返回
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) error {
	d.mu.RLock()
	subs := d.subs[e.EventName()]
	d.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := s.handle(ctx, e); err != nil {
			logger.WithFields(logrus.Fields{
				"type":       logger.ErrorLog,
				"event":      e.EventName(),
				"event_id":   e.EventID(),
				"subscriber": s.name,
				"error":      err.Error(),
			}).Error("event subscriber failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		logger.WithFields(logrus.Fields{
			"event":      e.EventName(),
			"event_id":   e.EventID(),
			"subscriber": s.name,
		}).Debug("event handled")
	}
	return errors.Join(errs...)
}
