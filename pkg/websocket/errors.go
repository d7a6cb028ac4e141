// pkg/websocket/errors.go
package websocket

import "errors"

var (
	// 配置错误
	ErrInvalidConfig    = errors.New("websocket: invalid config")
	ErrInvalidURL       = errors.New("websocket: invalid url")
	ErrTLSConfigInvalid = errors.New("websocket: tls config invalid")

	// 连接错误
	ErrConnectionClosed = errors.New("websocket: connection closed")
	ErrClientClosed     = errors.New("websocket: client closed")
	ErrNotConnected     = errors.New("websocket: not connected")
	ErrServerClosed     = errors.New("websocket: server closed")

	// 发送错误
	ErrSendQueueFull = errors.New("websocket: send queue full")
	ErrEmptyEvent    = errors.New("websocket: empty event name")

	// 心跳错误
	ErrHeartbeatTimeout = errors.New("websocket: heartbeat timeout")

	// 重连错误
	ErrMaxRetriesExceeded = errors.New("websocket: max retries exceeded")
)
