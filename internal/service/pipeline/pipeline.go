/**
 * 请求管道
 * @author: sun977
 * @date: 2025.10.15
 * @description: 固定顺序的三段包装：校验在最外层，失败时不记录开始日志、不开启事务；
 *               日志记录关联 id、耗时与结果，错误原样返回；事务在最内层，只对 Command 生效，
 *               嵌套请求复用外层事务。
 * @func: New, Register, Endpoint.Execute
 */
package pipeline

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"accesscore/internal/model/system"

	"github.com/go-playground/validator/v10"
)

// Validator 自定义校验，返回空表示通过
type Validator[R Request] func(ctx context.Context, req R) []system.FieldFailure

// Pipeline 管道共享依赖与端点登记表
type Pipeline struct {
	validate *validator.Validate
	provider UnitOfWorkProvider
	metrics  *Metrics

	mu    sync.Mutex
	names map[string]Kind
}

// New 创建管道；metrics 为 nil 时使用未注册的指标
func New(provider UnitOfWorkProvider, metrics *Metrics) *Pipeline {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Pipeline{validate: v, provider: provider, metrics: metrics, names: make(map[string]Kind)}
}

// Validate 底层 validator，用于注册自定义标签
func (p *Pipeline) Validate() *validator.Validate {
	return p.validate
}

// Names 已登记的端点名称，已排序
func (p *Pipeline) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.names))
	for n := range p.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (p *Pipeline) claim(name string, kind Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, dup := p.names[name]; dup {
		panic(fmt.Sprintf("pipeline: endpoint %q registered twice", name))
	}
	p.names[name] = kind
}

// Endpoint 一个请求类型对应的唯一处理链
type Endpoint[R Request, T any] struct {
	name       string
	pipeline   *Pipeline
	handler    Handler[R, T]
	validators []Validator[R]
	chain      Handler[R, T]
}

// Register 登记端点；同名重复登记直接 panic
func Register[R Request, T any](p *Pipeline, name string, h Handler[R, T], validators ...Validator[R]) *Endpoint[R, T] {
	var zero R
	p.claim(name, kindOf(zero))

	e := &Endpoint[R, T]{name: name, pipeline: p, handler: h, validators: validators}
	e.chain = e.validationStage(e.loggingStage(e.transactionStage(h)))
	return e
}

// Name 端点名称
func (e *Endpoint[R, T]) Name() string {
	return e.name
}

// Execute 执行请求
func (e *Endpoint[R, T]) Execute(ctx context.Context, req R) (T, error) {
	return e.chain(ctx, req)
}

// kindOf 零值为 nil 指针时按元素类型判断
func kindOf(req Request) Kind {
	v := reflect.ValueOf(req)
	if v.Kind() == reflect.Ptr && v.IsNil() {
		if r, ok := reflect.New(v.Type().Elem()).Interface().(Request); ok {
			return r.Kind()
		}
		return KindCommand
	}
	return req.Kind()
}
