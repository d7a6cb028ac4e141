// pkg/util/conc/future.go
package conc

// Future 异步任务结果
type Future[T any] struct {
	ch    chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		ch: make(chan struct{}),
	}
}

// Inner 返回完成信号 Channel，任务结束后关闭
func (f *Future[T]) Inner() <-chan struct{} {
	return f.ch
}

// Done 检查任务是否已完成
func (f *Future[T]) Done() bool {
	select {
	case <-f.ch:
		return true
	default:
		return false
	}
}

// Await 阻塞等待任务完成
func (f *Future[T]) Await() (T, error) {
	<-f.ch
	return f.value, f.err
}

// Value 等待并返回结果值（忽略错误）
func (f *Future[T]) Value() T {
	<-f.ch
	return f.value
}

// Err 等待并返回错误
func (f *Future[T]) Err() error {
	<-f.ch
	return f.err
}

// Go 在新 goroutine 中执行 fn
func Go[T any](fn func() (T, error)) *Future[T] {
	future := newFuture[T]()
	go func() {
		defer close(future.ch)
		future.value, future.err = fn()
	}()
	return future
}

// AwaitAll 等待所有 Future 完成，返回第一个错误
func AwaitAll[T any](futures ...*Future[T]) error {
	for _, f := range futures {
		if _, err := f.Await(); err != nil {
			return err
		}
	}
	return nil
}
