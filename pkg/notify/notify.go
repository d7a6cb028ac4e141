// Package notify 把实时事件转发到外部通知渠道
package notify

import "context"

// Notifier 外部通知渠道
type Notifier interface {
	Send(ctx context.Context, msg *Message) error

	// Name 渠道名称，用于日志
	Name() string
}
