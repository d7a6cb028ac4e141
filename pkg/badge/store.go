// pkg/badge/store.go
package badge

import (
	"sync"
	"time"

	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/realtime"
)

// Subscriber 事件订阅源，*realtime.Manager 满足该接口
type Subscriber interface {
	On(event string, h realtime.Handler) realtime.ListenerID
	Off(event string, ids ...realtime.ListenerID)
}

// Store 保存最新的徽标计数
// 断线期间计数可能过期，需要时通过 Refresher 走 REST 刷新
type Store struct {
	sub    Subscriber
	logger logger.Logger

	mu        sync.RWMutex
	counts    realtime.BadgeCounts
	updatedAt time.Time
	watchers  map[uint64]chan realtime.BadgeCounts
	nextWatch uint64
	listener  realtime.ListenerID
	closed    bool

	attachMu sync.Mutex
}

// StoreOption Store 选项
type StoreOption func(*Store)

// WithStoreLogger 设置日志记录器
func WithStoreLogger(l logger.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore 创建并订阅 badge_count_updated
func NewStore(sub Subscriber, opts ...StoreOption) *Store {
	s := &Store{
		sub:      sub,
		logger:   logger.NewNoop(),
		watchers: make(map[uint64]chan realtime.BadgeCounts),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Attach()
	return s
}

// Attach 重新订阅 badge_count_updated，Manager.Disconnect 会清空全部订阅
// 已订阅时先移除旧的订阅，Close 之后不再生效
func (s *Store) Attach() {
	s.attachMu.Lock()
	defer s.attachMu.Unlock()

	s.mu.RLock()
	closed, old := s.closed, s.listener
	s.mu.RUnlock()
	if closed {
		return
	}
	if old != 0 {
		s.sub.Off(realtime.EventBadgeCountUpdated, old)
	}

	id := s.sub.On(realtime.EventBadgeCountUpdated, s.onCounts)
	s.mu.Lock()
	s.listener = id
	s.mu.Unlock()
}

func (s *Store) onCounts(ev realtime.Event) {
	var counts realtime.BadgeCounts
	if err := ev.Decode(&counts); err != nil {
		s.logger.Warn("badge counts decode failed", "error", err)
		return
	}
	s.set(counts, ev.ReceivedAt)
}

// Counts 最新计数及更新时间，从未更新时时间为零值
func (s *Store) Counts() (realtime.BadgeCounts, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts, s.updatedAt
}

// Set 写入计数（REST 刷新结果）
func (s *Store) Set(counts realtime.BadgeCounts) {
	s.set(counts, time.Now())
}

func (s *Store) set(counts realtime.BadgeCounts, at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.counts = counts
	s.updatedAt = at

	for _, ch := range s.watchers {
		// 只保留最新值
		select {
		case <-ch:
		default:
		}
		ch <- counts
	}
	s.logger.Debug("badge counts updated", "total", counts.Total())
}

// Watch 订阅计数变化，慢消费者只会看到最新值；cancel 可重复调用
func (s *Store) Watch() (<-chan realtime.BadgeCounts, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan realtime.BadgeCounts, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	s.nextWatch++
	id := s.nextWatch
	s.watchers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if w, ok := s.watchers[id]; ok {
				delete(s.watchers, id)
				close(w)
			}
		})
	}
	return ch, cancel
}

// Close 只移除自己的订阅并关闭全部 watcher
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
	s.mu.Unlock()

	s.attachMu.Lock()
	defer s.attachMu.Unlock()
	s.mu.RLock()
	listener := s.listener
	s.mu.RUnlock()
	s.sub.Off(realtime.EventBadgeCountUpdated, listener)
}
