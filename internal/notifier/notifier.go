// Package notifier 连接实时通道，把徽标计数与通知写入日志和指标
package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lk2023060901/lendhub/pkg/badge"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/notify"
	"github.com/lk2023060901/lendhub/pkg/prometheus"
	"github.com/lk2023060901/lendhub/pkg/realtime"
	"github.com/lk2023060901/lendhub/pkg/util/conc"
	"github.com/panjf2000/ants/v2"
	promclient "github.com/prometheus/client_golang/prometheus"
)

var (
	ErrNoToken        = errors.New("notifier: no session token")
	ErrAlreadyStarted = errors.New("notifier: already started")
)

// Token 会话凭证
type Token string

// forwardWorkers 并发转发上限，超出时丢弃
const forwardWorkers = 4

// Notifier 将 Manager 推送的事件落到日志与 Prometheus
type Notifier struct {
	mgr       *realtime.Manager
	store     *badge.Store
	refresher *badge.Refresher
	forwarder notify.Notifier
	forwards  *conc.Pool[struct{}]
	token     Token
	logger    logger.Logger

	counts *promclient.GaugeVec
	events *promclient.CounterVec

	mu        sync.Mutex
	started   bool
	listeners map[string]realtime.ListenerID
	stopWatch func()
	watching  *conc.Future[struct{}]
}

// New 创建 Notifier
// refresher 为空时不做首次 REST 拉取，forwarder 为空时不转发通知
func New(
	mgr *realtime.Manager,
	store *badge.Store,
	refresher *badge.Refresher,
	forwarder notify.Notifier,
	prom *prometheus.Client,
	token Token,
	l logger.Logger,
) (*Notifier, error) {
	if l == nil {
		l = logger.NewNoop()
	}
	counts, err := prom.NewGauge("badge_count", "Current badge count per menu entry.", []string{"kind"})
	if err != nil {
		return nil, err
	}
	events, err := prom.NewCounter("notify_events_total", "Domain events received by the notifier.", []string{"event"})
	if err != nil {
		return nil, err
	}

	n := &Notifier{
		mgr:       mgr,
		store:     store,
		refresher: refresher,
		forwarder: forwarder,
		token:     token,
		logger:    l.Named("notifier"),
		counts:    counts,
		events:    events,
		listeners: make(map[string]realtime.ListenerID),
	}
	return n, nil
}

// Start 订阅事件、发起连接并拉取一次当前计数
// Stop 之后可以再次 Start
func (n *Notifier) Start() error {
	if n.token == "" {
		return ErrNoToken
	}

	n.mu.Lock()
	if n.started {
		n.mu.Unlock()
		return ErrAlreadyStarted
	}
	n.started = true
	if n.forwarder != nil {
		// 处理函数运行在传输层读循环上，转发不能阻塞
		n.forwards = conc.NewPool[struct{}](forwardWorkers, ants.WithNonblocking(true))
	}

	// 上一次 Stop 的 Disconnect 清掉了 Store 的订阅
	n.store.Attach()
	n.listeners[realtime.EventNotificationCreated] = realtime.OnNotification(n.mgr, func(note realtime.Notification) {
		n.events.WithLabelValues(realtime.EventNotificationCreated).Inc()
		n.logger.Info("notification received", "id", note.ID, "title", note.Title)
		n.forward(&notify.Message{
			Level:  notify.LevelInfo,
			Title:  note.Title,
			Body:   note.Body,
			Labels: map[string]string{"id": note.ID},
			At:     note.CreatedAt,
		})
	})
	n.listeners[realtime.EventBorrowRequestUpdated] = realtime.OnBorrowRequestUpdate(n.mgr, func(u realtime.BorrowRequestUpdate) {
		n.events.WithLabelValues(realtime.EventBorrowRequestUpdated).Inc()
		n.logger.Info("borrow request updated", "request_id", u.RequestID, "status", u.Status)
		n.forward(&notify.Message{
			Level:  notify.LevelInfo,
			Title:  "Borrow request " + u.Status,
			Labels: map[string]string{"request_id": u.RequestID, "status": u.Status},
			At:     u.UpdatedAt,
		})
	})

	ch, stop := n.store.Watch()
	n.stopWatch = stop
	n.watching = conc.Go(func() (struct{}, error) {
		for counts := range ch {
			n.record(counts)
		}
		return struct{}{}, nil
	})
	n.mu.Unlock()

	if _, err := n.mgr.Connect(string(n.token)); err != nil {
		return err
	}
	n.refresh()
	return nil
}

func (n *Notifier) refresh() {
	if n.refresher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := n.refresher.Refresh(ctx, string(n.token), n.store); err != nil {
		// 实时推送仍可用，REST 失败只记录
		n.logger.Warn("initial badge refresh failed", "error", err)
	}
}

func (n *Notifier) forward(msg *notify.Message) {
	n.mu.Lock()
	pool := n.forwards
	n.mu.Unlock()
	if pool == nil {
		return
	}
	f := pool.Submit(func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.forwarder.Send(ctx, msg); err != nil {
			n.logger.Warn("notification forward failed", "channel", n.forwarder.Name(), "error", err)
			return struct{}{}, err
		}
		n.events.WithLabelValues("forwarded").Inc()
		return struct{}{}, nil
	})
	if f.Done() {
		if err := f.Err(); errors.Is(err, ants.ErrPoolOverload) || errors.Is(err, conc.ErrPoolReleased) {
			n.logger.Warn("notification forward dropped", "channel", n.forwarder.Name(), "error", err)
		}
	}
}

func (n *Notifier) record(c realtime.BadgeCounts) {
	for kind, v := range byKind(c) {
		n.counts.WithLabelValues(kind).Set(float64(v))
	}
	n.events.WithLabelValues(realtime.EventBadgeCountUpdated).Inc()
	n.logger.Info("badge counts updated",
		"total", c.Total(),
		"pending_requests", c.PendingRequests,
		"pending_approvals", c.PendingApprovals,
		"overdue", c.Overdue,
		"unread_notifications", c.UnreadNotifications,
	)
}

// Stop 断开连接并退订
func (n *Notifier) Stop() error {
	n.mu.Lock()
	if !n.started {
		n.mu.Unlock()
		return nil
	}
	n.started = false
	for event, id := range n.listeners {
		n.mgr.Off(event, id)
		delete(n.listeners, event)
	}
	stop, watching, forwards := n.stopWatch, n.watching, n.forwards
	n.forwards = nil
	n.mu.Unlock()

	n.mgr.Disconnect()
	stop()
	_, err := watching.Await()
	if forwards != nil {
		forwards.Release()
	}
	return err
}

func byKind(c realtime.BadgeCounts) map[string]int {
	return map[string]int{
		"pending_requests":     c.PendingRequests,
		"pending_approvals":    c.PendingApprovals,
		"awaiting_delivery":    c.AwaitingDelivery,
		"awaiting_return":      c.AwaitingReturn,
		"overdue":              c.Overdue,
		"unpaid_settlements":   c.UnpaidSettlements,
		"unread_notifications": c.UnreadNotifications,
	}
}
