// pkg/realtime/types.go
package realtime

import (
	"encoding/json"
	"time"
)

// State 连接管理器状态
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateAuthenticating
	StateAuthenticated
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// 协议事件
const (
	EventAuthenticate = "authenticate"
	EventAuthSuccess  = "auth_success"
	EventAuthError    = "auth_error"
	EventPing         = "ping"
	EventPong         = "pong"
)

// Event 派发给订阅者的事件
type Event struct {
	Name       string
	Data       json.RawMessage
	ReceivedAt time.Time
}

// Decode 将事件数据解析到 v
func (e Event) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// Handler 事件回调
type Handler func(Event)

// ListenerID 订阅句柄，每次 On 唯一
type ListenerID uint64

// AuthResult 认证成功时服务端返回的数据
type AuthResult struct {
	RequestID string
	Data      json.RawMessage
}

// Decode 将认证数据解析到 v
func (r *AuthResult) Decode(v interface{}) error {
	if r == nil || len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Stats 运行时快照
type Stats struct {
	State            State
	HasTransport     bool
	Listeners        int
	PendingAuth      int
	HeartbeatRunning bool
	LastPong         time.Time
}

type authRequest struct {
	Token     string `json:"token"`
	RequestID string `json:"request_id"`
}

type authResponse struct {
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

type pongPayload struct {
	Timestamp int64 `json:"timestamp"`
}
