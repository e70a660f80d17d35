// Package event 领域事件：事件基础字段、聚合私有事件日志与同步分发器
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event 领域事件
// EventName 必须只依赖类型本身(值接收者、不读字段)，订阅时用零值取名
type Event interface {
	EventID() string
	OccurredAt() time.Time
	EventName() string
}

// Base 事件公共字段
type Base struct {
	ID string    `json:"event_id"`
	At time.Time `json:"occurred_at"`
}

// NewBase 生成事件 id 和 UTC 发生时间
func NewBase() Base {
	return Base{ID: uuid.NewString(), At: time.Now().UTC()}
}

// EventID 事件 id
func (b Base) EventID() string { return b.ID }

// OccurredAt 发生时间(UTC)
func (b Base) OccurredAt() time.Time { return b.At }

// Source 持有待分发事件的聚合
type Source interface {
	DrainEvents() []Event
}

// Recorder 聚合内部的事件日志，提交前只在内存中累积
type Recorder struct {
	pending []Event
}

// Record 追加事件，nil 忽略
func (r *Recorder) Record(e Event) {
	if e != nil {
		r.pending = append(r.pending, e)
	}
}

// Pending 返回待分发事件副本
func (r *Recorder) Pending() []Event {
	out := make([]Event, len(r.pending))
	copy(out, r.pending)
	return out
}

// Drain 读取并清空
func (r *Recorder) Drain() []Event {
	out := r.pending
	r.pending = nil
	return out
}
