package logger

import (
	"context"

	"go.uber.org/zap"
)

// ContextFieldExtractor 从 context 提取日志字段
type ContextFieldExtractor func(ctx context.Context) []zap.Field

// DefaultContextExtractor 不提取任何字段
func DefaultContextExtractor(ctx context.Context) []zap.Field {
	return nil
}

type fieldsKey struct{}

// ContextWithFields 将 key-value 附加到 context，由 FieldsExtractor 取出
func ContextWithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	fields := toZapFields(keysAndValues...)
	if len(fields) == 0 {
		return ctx
	}
	if prev, ok := ctx.Value(fieldsKey{}).([]zap.Field); ok {
		merged := make([]zap.Field, 0, len(prev)+len(fields))
		merged = append(merged, prev...)
		fields = append(merged, fields...)
	}
	return context.WithValue(ctx, fieldsKey{}, fields)
}

// FieldsExtractor 提取 ContextWithFields 写入的字段
func FieldsExtractor(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).([]zap.Field)
	return fields
}
