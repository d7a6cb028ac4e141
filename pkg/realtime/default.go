// pkg/realtime/default.go
package realtime

import "sync"

var (
	defaultManager   *Manager
	defaultManagerMu sync.RWMutex
)

// InitDefault 创建并设置进程级管理器，已有的实例会先断开
func InitDefault(cfg *Config, opts ...Option) (*Manager, error) {
	m, err := NewManager(cfg, opts...)
	if err != nil {
		return nil, err
	}
	SetDefault(m)
	return m, nil
}

// SetDefault 替换进程级管理器，旧实例会被断开
func SetDefault(m *Manager) {
	defaultManagerMu.Lock()
	old := defaultManager
	defaultManager = m
	defaultManagerMu.Unlock()

	if old != nil && old != m {
		old.Disconnect()
	}
}

// Default 获取进程级管理器，未初始化时按默认配置懒加载
func Default() *Manager {
	defaultManagerMu.RLock()
	m := defaultManager
	defaultManagerMu.RUnlock()
	if m != nil {
		return m
	}

	defaultManagerMu.Lock()
	defer defaultManagerMu.Unlock()
	if defaultManager == nil {
		created, err := NewManager(nil)
		if err != nil {
			panic(err)
		}
		defaultManager = created
	}
	return defaultManager
}

// Shutdown 登出时调用：断开并丢弃进程级管理器，下次 Default 重新创建
func Shutdown() {
	defaultManagerMu.Lock()
	m := defaultManager
	defaultManager = nil
	defaultManagerMu.Unlock()

	if m != nil {
		m.Disconnect()
	}
}
