package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Hook 日志钩子
type Hook interface {
	// OnWrite 写入前回调，返回 false 跳过该条日志
	OnWrite(entry zapcore.Entry, fields []zapcore.Field) bool
}

// HookFunc 函数式 Hook
type HookFunc func(entry zapcore.Entry, fields []zapcore.Field) bool

func (f HookFunc) OnWrite(entry zapcore.Entry, fields []zapcore.Field) bool {
	return f(entry, fields)
}

// HookedCore 带钩子的 Core
type HookedCore struct {
	zapcore.Core
	hooks []Hook
}

// NewHookedCore 创建带钩子的 Core
func NewHookedCore(core zapcore.Core, hooks ...Hook) zapcore.Core {
	return &HookedCore{
		Core:  core,
		hooks: hooks,
	}
}

func (h *HookedCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if h.Enabled(entry.Level) {
		return ce.AddCore(entry, h)
	}
	return ce
}

func (h *HookedCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	for _, hook := range h.hooks {
		if !hook.OnWrite(entry, fields) {
			return nil
		}
	}
	return h.Core.Write(entry, fields)
}

// With 通过 With 预置的字段同样经过钩子
func (h *HookedCore) With(fields []zapcore.Field) zapcore.Core {
	for _, hook := range h.hooks {
		hook.OnWrite(zapcore.Entry{}, fields)
	}
	return &HookedCore{
		Core:  h.Core.With(fields),
		hooks: h.hooks,
	}
}

// RedactedValue 脱敏后的占位值
const RedactedValue = "***REDACTED***"

// SensitiveDataHook 字段脱敏
//
// 字段名不区分大小写，命中 key 本身或以 "_"+key 结尾（dev_token、jwt_secret_key）都会替换；
// 任意字符串字段的值若是 "Bearer xxx" 形式也会替换，避免握手头被原样打印
func SensitiveDataHook(sensitiveKeys []string) Hook {
	keys := make([]string, 0, len(sensitiveKeys))
	for _, k := range sensitiveKeys {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keys = append(keys, k)
		}
	}

	sensitive := func(name string) bool {
		name = strings.ToLower(name)
		for _, k := range keys {
			if name == k || strings.HasSuffix(name, "_"+k) {
				return true
			}
		}
		return false
	}

	return HookFunc(func(_ zapcore.Entry, fields []zapcore.Field) bool {
		for i, f := range fields {
			if sensitive(f.Key) || isBearer(f) {
				fields[i] = zap.String(f.Key, RedactedValue)
			}
		}
		return true
	})
}

func isBearer(f zapcore.Field) bool {
	return f.Type == zapcore.StringType && len(f.String) > 7 && strings.EqualFold(f.String[:7], "bearer ")
}
