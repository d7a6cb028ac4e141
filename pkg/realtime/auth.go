// pkg/realtime/auth.go
package realtime

import "sync"

type authOutcome struct {
	result *AuthResult
	err    error
}

// pendingAuth 一次进行中的认证，done 只会收到一个结果
type pendingAuth struct {
	requestID string
	token     string
	transport Transport
	done      chan authOutcome
}

// authTracker 按 request_id 关联认证响应
// 不带 request_id 的响应交给最早发起的请求
type authTracker struct {
	mu      sync.Mutex
	pending []*pendingAuth
}

func newAuthTracker() *authTracker {
	return &authTracker{}
}

func (t *authTracker) add(requestID, token string, tr Transport) *pendingAuth {
	p := &pendingAuth{
		requestID: requestID,
		token:     token,
		transport: tr,
		done:      make(chan authOutcome, 1),
	}

	t.mu.Lock()
	t.pending = append(t.pending, p)
	t.mu.Unlock()
	return p
}

// take 取出响应对应的请求，未匹配时返回 nil
// 取出后调用方必须向 done 投递结果
func (t *authTracker) take(requestID string) *pendingAuth {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := -1
	if requestID == "" {
		if len(t.pending) > 0 {
			idx = 0
		}
	} else {
		for i, p := range t.pending {
			if p.requestID == requestID {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return nil
	}

	p := t.pending[idx]
	t.pending = append(t.pending[:idx], t.pending[idx+1:]...)
	return p
}

// remove 超时或取消后移除，已被 take 或 abortAll 取走时返回 false
func (t *authTracker) remove(requestID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, p := range t.pending {
		if p.requestID == requestID {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			return true
		}
	}
	return false
}

// abortAll 以 err 结束全部进行中的请求
func (t *authTracker) abortAll(err error) int {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, p := range pending {
		p.done <- authOutcome{err: err}
	}
	return len(pending)
}

func (t *authTracker) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
