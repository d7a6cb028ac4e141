// pkg/realtime/registry.go
package realtime

import "sync"

type listener struct {
	id      ListenerID
	handler Handler
}

// registry 事件名 -> 回调列表，同一回调可重复注册，各自独立移除
type registry struct {
	mu        sync.RWMutex
	nextID    ListenerID
	listeners map[string][]listener
}

func newRegistry() *registry {
	return &registry{
		listeners: make(map[string][]listener),
	}
}

func (r *registry) add(event string, h Handler) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.listeners[event] = append(r.listeners[event], listener{id: id, handler: h})
	return id
}

// remove 移除指定回调，ids 为空时移除该事件全部回调，返回移除数量
func (r *registry) remove(event string, ids ...ListenerID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.listeners[event]
	if len(ids) == 0 {
		delete(r.listeners, event)
		return len(current)
	}

	drop := make(map[ListenerID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := make([]listener, 0, len(current))
	for _, l := range current {
		if _, ok := drop[l.id]; !ok {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		delete(r.listeners, event)
	} else {
		r.listeners[event] = kept
	}
	return len(current) - len(kept)
}

// snapshot 派发使用的副本，回调中 On/Off 不影响本轮派发
func (r *registry) snapshot(event string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	current := r.listeners[event]
	if len(current) == 0 {
		return nil
	}
	handlers := make([]Handler, len(current))
	for i, l := range current {
		handlers[i] = l.handler
	}
	return handlers
}

func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = make(map[string][]listener)
}

func (r *registry) count(event string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[event])
}

func (r *registry) total() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, ls := range r.listeners {
		n += len(ls)
	}
	return n
}
