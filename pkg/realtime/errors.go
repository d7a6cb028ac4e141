// pkg/realtime/errors.go
package realtime

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrConnectionUnavailable 尚未建立传输层连接
	ErrConnectionUnavailable = errors.New("realtime: connection unavailable")
	// ErrAuthenticationFailed 服务端拒绝凭证
	ErrAuthenticationFailed = errors.New("realtime: authentication failed")
	// ErrAuthenticationTimeout 认证响应超时
	ErrAuthenticationTimeout = errors.New("realtime: authentication timeout")
	// ErrDisconnected 认证进行中连接断开
	ErrDisconnected = errors.New("realtime: disconnected")
	// ErrInvalidConfig 配置非法
	ErrInvalidConfig = errors.New("realtime: invalid config")
)

// AuthError 服务端返回的 auth_error
type AuthError struct {
	RequestID string
	Reason    string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return ErrAuthenticationFailed.Error()
	}
	return ErrAuthenticationFailed.Error() + ": " + e.Reason
}

// Unwrap 使 errors.Is(err, ErrAuthenticationFailed) 成立
func (e *AuthError) Unwrap() error {
	return ErrAuthenticationFailed
}

// TransportError 传输层操作失败，同时匹配 ErrConnectionUnavailable 与底层错误
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "realtime: " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrConnectionUnavailable, e.Err}
}

func unavailable(err error, op string) error {
	return errors.WithStack(&TransportError{Op: op, Err: err})
}
