// pkg/realtime/heartbeat.go
package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lk2023060901/lendhub/pkg/util/conc"
)

// Heartbeat 认证期间周期性发送 ping，任意时刻至多一个循环
type Heartbeat struct {
	interval time.Duration
	send     func()

	mu   sync.Mutex
	stop chan struct{}
	loop *conc.Future[struct{}]

	live     atomic.Int32
	ticks    atomic.Uint64
	lastPong atomic.Int64 // unix nano，仅用于观测
}

// NewHeartbeat 创建心跳，send 在心跳协程中调用
func NewHeartbeat(interval time.Duration, send func()) *Heartbeat {
	return &Heartbeat{
		interval: interval,
		send:     send,
	}
}

// Start 先停止已有循环再启动新循环
func (h *Heartbeat) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopLocked()

	stop := make(chan struct{})
	h.stop = stop
	h.loop = conc.Go(func() (struct{}, error) {
		h.run(stop)
		return struct{}{}, nil
	})
}

// Stop 停止并等待循环退出，可重复调用
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
}

func (h *Heartbeat) stopLocked() {
	if h.stop == nil {
		return
	}
	close(h.stop)
	_, _ = h.loop.Await()
	h.stop = nil
	h.loop = nil
}

func (h *Heartbeat) run(stop <-chan struct{}) {
	h.live.Add(1)
	defer h.live.Add(-1)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			h.ticks.Add(1)
			h.send()
		case <-stop:
			return
		}
	}
}

// Running 是否有心跳循环
func (h *Heartbeat) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stop != nil
}

// Ticks 累计发送次数
func (h *Heartbeat) Ticks() uint64 {
	return h.ticks.Load()
}

// OnPong 记录 pong 时间，ts 为 0 时使用本地时间
func (h *Heartbeat) OnPong(ts time.Time) {
	if ts.IsZero() {
		ts = time.Now()
	}
	h.lastPong.Store(ts.UnixNano())
}

// LastPong 最近一次 pong，未收到时为零值
func (h *Heartbeat) LastPong() time.Time {
	n := h.lastPong.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (h *Heartbeat) liveLoops() int {
	return int(h.live.Load())
}
