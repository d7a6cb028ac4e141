// pkg/util/conc/pool.go
package conc

import (
	"errors"
	"fmt"

	"github.com/panjf2000/ants/v2"
)

// ErrPoolReleased 工作池已释放
var ErrPoolReleased = errors.New("conc: pool released")

// Pool 基于 ants 的协程池，任务以 Future 形式返回
type Pool[T any] struct {
	inner *ants.Pool
}

// NewPool 创建协程池
// size <= 0 时不限制容量
func NewPool[T any](size int, opts ...ants.Option) *Pool[T] {
	if size <= 0 {
		size = -1
	}
	// 默认非阻塞提交会在池满时报错，这里保持阻塞语义
	opts = append([]ants.Option{ants.WithNonblocking(false)}, opts...)
	pool, err := ants.NewPool(size, opts...)
	if err != nil {
		// 仅在参数非法时出现
		panic(fmt.Sprintf("conc: create pool failed: %v", err))
	}
	return &Pool[T]{inner: pool}
}

// Submit 提交任务
// 池已释放时返回的 Future 立即完成并携带 ErrPoolReleased
func (p *Pool[T]) Submit(fn func() (T, error)) *Future[T] {
	future := newFuture[T]()
	err := p.inner.Submit(func() {
		defer close(future.ch)
		future.value, future.err = fn()
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolClosed) {
			future.err = ErrPoolReleased
		} else {
			future.err = err
		}
		close(future.ch)
	}
	return future
}

// Running 返回正在执行的任务数
func (p *Pool[T]) Running() int {
	return p.inner.Running()
}

// Cap 返回池容量
func (p *Pool[T]) Cap() int {
	return p.inner.Cap()
}

// Release 释放协程池
func (p *Pool[T]) Release() {
	p.inner.Release()
}

// IsReleased 检查是否已释放
func (p *Pool[T]) IsReleased() bool {
	return p.inner.IsClosed()
}
