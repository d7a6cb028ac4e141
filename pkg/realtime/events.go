// pkg/realtime/events.go
package realtime

import (
	"time"

	"github.com/cockroachdb/errors"
)

// 已知领域事件
const (
	EventBadgeCountUpdated    = "badge_count_updated"
	EventBorrowRequestUpdated = "borrow_request_updated"
	EventNotificationCreated  = "notification_created"
)

// DomainEvent 已知领域事件的类型化负载
type DomainEvent interface {
	EventName() string
}

// BadgeCounts 各菜单徽标计数
type BadgeCounts struct {
	PendingRequests     int `json:"pending_requests"`
	PendingApprovals    int `json:"pending_approvals"`
	AwaitingDelivery    int `json:"awaiting_delivery"`
	AwaitingReturn      int `json:"awaiting_return"`
	Overdue             int `json:"overdue"`
	UnpaidSettlements   int `json:"unpaid_settlements"`
	UnreadNotifications int `json:"unread_notifications"`
}

func (BadgeCounts) EventName() string { return EventBadgeCountUpdated }

// Total 全部计数之和
func (c BadgeCounts) Total() int {
	return c.PendingRequests + c.PendingApprovals + c.AwaitingDelivery +
		c.AwaitingReturn + c.Overdue + c.UnpaidSettlements + c.UnreadNotifications
}

// BorrowRequestUpdate 借用申请状态变化
type BorrowRequestUpdate struct {
	RequestID string    `json:"request_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BorrowRequestUpdate) EventName() string { return EventBorrowRequestUpdated }

// Notification 站内通知
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) EventName() string { return EventNotificationCreated }

// UnknownEvent 服务端新增、尚未建模的事件
type UnknownEvent struct {
	Event
}

func (e UnknownEvent) EventName() string { return e.Name }

// ParseDomainEvent 将事件解析为类型化负载，未知事件返回 UnknownEvent
func ParseDomainEvent(ev Event) (DomainEvent, error) {
	var (
		out DomainEvent
		err error
	)
	switch ev.Name {
	case EventBadgeCountUpdated:
		var v BadgeCounts
		err = ev.Decode(&v)
		out = v
	case EventBorrowRequestUpdated:
		var v BorrowRequestUpdate
		err = ev.Decode(&v)
		out = v
	case EventNotificationCreated:
		var v Notification
		err = ev.Decode(&v)
		out = v
	default:
		return UnknownEvent{Event: ev}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", ev.Name)
	}
	return out, nil
}

// Subscribe 订阅并将数据解析为 T，解析失败的事件记录警告后跳过
func Subscribe[T any](m *Manager, event string, fn func(T, Event)) ListenerID {
	return m.On(event, func(ev Event) {
		var v T
		if err := ev.Decode(&v); err != nil {
			m.logger.Warn("realtime event decode failed", "event", event, "error", err)
			return
		}
		fn(v, ev)
	})
}

// OnBadgeCounts 订阅 badge_count_updated
func OnBadgeCounts(m *Manager, fn func(BadgeCounts)) ListenerID {
	return Subscribe(m, EventBadgeCountUpdated, func(c BadgeCounts, _ Event) { fn(c) })
}

// OnBorrowRequestUpdate 订阅 borrow_request_updated
func OnBorrowRequestUpdate(m *Manager, fn func(BorrowRequestUpdate)) ListenerID {
	return Subscribe(m, EventBorrowRequestUpdated, func(u BorrowRequestUpdate, _ Event) { fn(u) })
}

// OnNotification 订阅 notification_created
func OnNotification(m *Manager, fn func(Notification)) ListenerID {
	return Subscribe(m, EventNotificationCreated, func(n Notification, _ Event) { fn(n) })
}
