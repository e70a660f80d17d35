package logger

import "context"

type correlationKey struct{}

// WithCorrelationID 把请求关联 id 放入上下文
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID 取上下文中的关联 id，没有时返回空串
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
