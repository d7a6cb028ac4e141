// pkg/websocket/client_reconnect.go
package websocket

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/lk2023060901/lendhub/pkg/logger"
)

// Reconnector 重连器：指数退避 + 随机抖动
type Reconnector struct {
	config *ReconnectConfig
	logger logger.Logger
	client *Client

	mu           sync.Mutex
	retryCount   int
	currentDelay time.Duration
}

// NewReconnector 创建重连器
func NewReconnector(cfg *ReconnectConfig, client *Client, log logger.Logger) *Reconnector {
	return &Reconnector{
		config:       cfg,
		client:       client,
		logger:       log,
		currentDelay: cfg.InitialDelay,
	}
}

// Run 阻塞重连直到成功、超过最大次数或 stop 关闭
func (r *Reconnector) Run(stop <-chan struct{}) error {
	defer r.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		r.mu.Lock()
		r.retryCount++
		attempt := r.retryCount
		delay := r.currentDelay
		r.mu.Unlock()

		if r.config.MaxRetries > 0 && attempt > r.config.MaxRetries {
			r.logger.Warn("websocket reconnect max retries exceeded",
				"max_retries", r.config.MaxRetries,
			)
			return ErrMaxRetriesExceeded
		}

		r.logger.Info("websocket reconnecting",
			"attempt", attempt,
			"delay", delay,
		)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ErrClientClosed
		}

		// 拨号前通知，便于上层刷新握手凭证
		r.client.handler.OnReconnectAttempt(attempt)
		r.client.metrics.onReconnectAttempt()

		conn, err := r.client.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ErrClientClosed
			}
			r.logger.Warn("websocket reconnect failed",
				"attempt", attempt,
				"error", err,
			)
			r.client.metrics.onError("dial")
			r.client.handler.OnConnectError(err)
			r.backoff()
			continue
		}

		r.logger.Info("websocket reconnected", "attempt", attempt)
		r.client.metrics.onReconnected()

		r.client.handler.OnReconnect(attempt)
		r.client.startReading(conn)
		return nil
	}
}

// Reset 重置重连状态
func (r *Reconnector) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.retryCount = 0
	r.currentDelay = r.config.InitialDelay
}

// backoff 计算下次重连延迟
func (r *Reconnector) backoff() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentDelay = nextDelay(r.currentDelay, r.config)
}

func nextDelay(current time.Duration, cfg *ReconnectConfig) time.Duration {
	delay := float64(current) * cfg.Multiplier

	if cfg.RandomFactor > 0 {
		jitter := delay * cfg.RandomFactor
		delay = delay - jitter + (rand.Float64() * 2 * jitter)
	}

	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if delay < float64(cfg.InitialDelay) {
		delay = float64(cfg.InitialDelay)
	}

	return time.Duration(delay)
}

// RetryCount 当前重试次数
func (r *Reconnector) RetryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryCount
}
