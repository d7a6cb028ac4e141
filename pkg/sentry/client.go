package sentry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/lk2023060901/lendhub/pkg/config"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"go.uber.org/zap/zapcore"
)

// Client Sentry 客户端，使用独立 Hub，不修改全局 Hub
type Client struct {
	hub    *sentry.Hub
	config *Config
	closed atomic.Bool

	stats struct {
		captured atomic.Uint64
		dropped  atomic.Uint64
	}
}

// Stats 上报统计
type Stats struct {
	EventsCaptured uint64
	EventsDropped  uint64
}

// Option 客户端选项
type Option func(*sentry.ClientOptions)

// WithBeforeSend 上报前回调，返回 nil 丢弃事件
func WithBeforeSend(fn func(*sentry.Event, *sentry.EventHint) *sentry.Event) Option {
	return func(o *sentry.ClientOptions) {
		o.BeforeSend = fn
	}
}

// New 创建 Sentry 客户端
func New(cfg *Config, opts ...Option) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrInvalidDSN
	}
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	clientOpts := merged.toClientOptions()
	for _, opt := range opts {
		opt(&clientOpts)
	}

	client, err := sentry.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDSN, err)
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for key, value := range merged.Tags {
			scope.SetTag(key, value)
		}
	})

	return &Client{hub: hub, config: merged}, nil
}

// CaptureException 上报错误
func (c *Client) CaptureException(err error) *sentry.EventID {
	if c.closed.Load() {
		return nil
	}
	return c.count(c.hub.CaptureException(err))
}

// CaptureMessage 上报消息
func (c *Client) CaptureMessage(message string) *sentry.EventID {
	if c.closed.Load() {
		return nil
	}
	return c.count(c.hub.CaptureMessage(message))
}

func (c *Client) count(id *sentry.EventID) *sentry.EventID {
	if id != nil && *id != "" {
		c.stats.captured.Add(1)
	} else {
		c.stats.dropped.Add(1)
	}
	return id
}

// LoggerHook 返回日志钩子，不低于 MinLevel 的日志作为事件上报
func (c *Client) LoggerHook() logger.Hook {
	threshold := c.config.minLevel()
	return logger.HookFunc(func(entry zapcore.Entry, fields []zapcore.Field) bool {
		// With 预置字段时 entry 为空
		if entry.Message == "" || entry.Level < threshold || c.closed.Load() {
			return true
		}
		c.count(c.hub.CaptureEvent(entryEvent(entry, fields)))
		return true
	})
}

func entryEvent(entry zapcore.Entry, fields []zapcore.Field) *sentry.Event {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}

	event := sentry.NewEvent()
	event.Level = toSentryLevel(entry.Level)
	event.Message = entry.Message
	event.Logger = entry.LoggerName
	event.Timestamp = entry.Time
	for k, v := range enc.Fields {
		event.Extra[k] = v
	}
	return event
}

func toSentryLevel(l zapcore.Level) sentry.Level {
	switch l {
	case zapcore.DebugLevel:
		return sentry.LevelDebug
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	default:
		return sentry.LevelFatal
	}
}

// Flush 等待已排队事件发送完成
func (c *Client) Flush(timeout time.Duration) bool {
	return c.hub.Flush(timeout)
}

// Close 发送剩余事件后关闭
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return ErrClientClosed
	}
	c.hub.Flush(c.config.ShutdownTimeout)
	return nil
}

// Stats 获取统计信息
func (c *Client) Stats() Stats {
	return Stats{
		EventsCaptured: c.stats.captured.Load(),
		EventsDropped:  c.stats.dropped.Load(),
	}
}
