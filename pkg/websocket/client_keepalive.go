// pkg/websocket/client_keepalive.go
package websocket

import (
	"sync/atomic"
	"time"

	"github.com/lk2023060901/lendhub/pkg/logger"
)

// Keepalive 协议层 ping/pong 保活，超时后以 ping timeout 断开连接
type Keepalive struct {
	config  *KeepaliveConfig
	logger  logger.Logger
	conn    *Connection
	metrics *ClientMetrics

	lastPong atomic.Int64 // unix nano
}

// NewKeepalive 创建保活器，生命周期与 conn 一致
func NewKeepalive(cfg *KeepaliveConfig, conn *Connection, log logger.Logger, metrics *ClientMetrics) *Keepalive {
	k := &Keepalive{
		config:  cfg,
		conn:    conn,
		logger:  log,
		metrics: metrics,
	}
	k.lastPong.Store(time.Now().UnixNano())
	return k
}

// Run 阻塞直至连接关闭或超时
func (k *Keepalive) Run() {
	ticker := time.NewTicker(k.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if k.timedOut() {
				k.logger.Warn("websocket keepalive timeout",
					"last_pong", k.LastPong(),
					"conn_id", k.conn.ID(),
				)
				k.metrics.onError("ping_timeout")
				k.conn.Abort(ReasonPingTimeout)
				return
			}
			if err := k.conn.Ping(); err != nil {
				k.logger.Debug("websocket keepalive ping error",
					"error", err,
					"conn_id", k.conn.ID(),
				)
				continue
			}
			k.metrics.onPingSent()

		case <-k.conn.Done():
			return
		}
	}
}

// OnPong 收到 pong
func (k *Keepalive) OnPong() {
	k.lastPong.Store(time.Now().UnixNano())
	k.metrics.onPongReceived()
}

// LastPong 最后一次 pong 时间
func (k *Keepalive) LastPong() time.Time {
	return time.Unix(0, k.lastPong.Load())
}

func (k *Keepalive) timedOut() bool {
	if k.config.Timeout <= 0 {
		return false
	}
	return time.Since(k.LastPong()) > k.config.Timeout
}
