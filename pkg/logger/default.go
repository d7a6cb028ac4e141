package logger

import (
	"context"
	"sync"
)

var (
	defaultLogger   *BaseLogger
	defaultLoggerMu sync.RWMutex
)

// InitDefault 初始化默认 logger
func InitDefault(cfg *Config, opts ...Option) error {
	l, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	SetDefault(l)
	return nil
}

// SetDefault 设置默认 logger
func SetDefault(l *BaseLogger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = l
}

// Default 获取默认 logger，未初始化时懒加载默认配置 (仅控制台输出)
func Default() *BaseLogger {
	defaultLoggerMu.RLock()
	l := defaultLogger
	defaultLoggerMu.RUnlock()
	if l != nil {
		return l
	}

	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	if defaultLogger == nil {
		created, err := New(DefaultConfig())
		if err != nil {
			panic(err)
		}
		defaultLogger = created
	}
	return defaultLogger
}

// --- 便捷函数 (使用默认 logger) ---

func Debug(msg string, keysAndValues ...interface{}) {
	Default().Debug(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...interface{}) {
	Default().Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	Default().Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...interface{}) {
	Default().Error(msg, keysAndValues...)
}

func InfoContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	Default().InfoContext(ctx, msg, keysAndValues...)
}

func Named(name string) Logger {
	return Default().Named(name)
}

func WithFields(keysAndValues ...interface{}) Logger {
	return Default().WithFields(keysAndValues...)
}

func Sync() error {
	return Default().Sync()
}
