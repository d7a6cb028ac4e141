// pkg/websocket/types.go
package websocket

import "time"

// MessageType 帧类型，与 gorilla/websocket 常量一致
type MessageType int

const (
	MessageTypeText   MessageType = 1
	MessageTypeBinary MessageType = 2
)

// ConnectionState 连接状态
type ConnectionState int

const (
	// StateDisconnected 未连接（初始或断开后等待 Open）
	StateDisconnected ConnectionState = iota
	// StateConnecting 首次拨号中
	StateConnecting
	// StateConnected 已连接
	StateConnected
	// StateReconnecting 自动重连中
	StateReconnecting
	// StateClosed 已关闭，不可再用
	StateClosed
)

// String 返回连接状态的字符串表示
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// 断开原因，沿用 socket 类协议的原因字符串
const (
	// ReasonServerDisconnect 服务端主动发送关闭帧，客户端不会自动重连
	ReasonServerDisconnect = "io server disconnect"
	// ReasonClientDisconnect 本地调用 Close
	ReasonClientDisconnect = "io client disconnect"
	// ReasonTransportClose 连接被对端直接断开
	ReasonTransportClose = "transport close"
	// ReasonTransportError 读写出错
	ReasonTransportError = "transport error"
	// ReasonPingTimeout 读超时或 keepalive 超时
	ReasonPingTimeout = "ping timeout"
)

// ShouldAutoReconnect 该原因是否由传输层自动重连
func ShouldAutoReconnect(reason string) bool {
	switch reason {
	case ReasonServerDisconnect, ReasonClientDisconnect:
		return false
	default:
		return true
	}
}

// ConnectionInfo 连接信息
type ConnectionInfo struct {
	ID          string          `json:"id"`
	RemoteAddr  string          `json:"remote_addr"`
	State       ConnectionState `json:"state"`
	ConnectedAt time.Time       `json:"connected_at"`
}
