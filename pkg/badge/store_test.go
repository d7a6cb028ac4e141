package badge

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/lk2023060901/lendhub/pkg/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	mu       sync.Mutex
	next     realtime.ListenerID
	handlers map[realtime.ListenerID]realtime.Handler
	removed  []realtime.ListenerID
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{handlers: make(map[realtime.ListenerID]realtime.Handler)}
}

func (f *fakeSubscriber) On(event string, h realtime.Handler) realtime.ListenerID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.handlers[f.next] = h
	return f.next
}

func (f *fakeSubscriber) Off(event string, ids ...realtime.ListenerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.handlers, id)
		f.removed = append(f.removed, id)
	}
}

func (f *fakeSubscriber) publish(t *testing.T, counts realtime.BadgeCounts) {
	t.Helper()
	data, err := json.Marshal(counts)
	require.NoError(t, err)

	f.mu.Lock()
	handlers := make([]realtime.Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(realtime.Event{Name: realtime.EventBadgeCountUpdated, Data: data, ReceivedAt: time.Now()})
	}
}

func TestStoreReceivesUpdates(t *testing.T) {
	sub := newFakeSubscriber()
	store := NewStore(sub)
	defer store.Close()

	_, at := store.Counts()
	assert.True(t, at.IsZero())

	sub.publish(t, realtime.BadgeCounts{PendingApprovals: 4, Overdue: 1})

	counts, at := store.Counts()
	assert.Equal(t, 4, counts.PendingApprovals)
	assert.Equal(t, 1, counts.Overdue)
	assert.False(t, at.IsZero())
}

func TestStoreWatchKeepsLatest(t *testing.T) {
	sub := newFakeSubscriber()
	store := NewStore(sub)
	defer store.Close()

	ch, cancel := store.Watch()
	defer cancel()

	sub.publish(t, realtime.BadgeCounts{Overdue: 1})
	sub.publish(t, realtime.BadgeCounts{Overdue: 2})
	store.Set(realtime.BadgeCounts{Overdue: 3})

	select {
	case c := <-ch:
		assert.Equal(t, 3, c.Overdue)
	case <-time.After(time.Second):
		t.Fatal("no update")
	}

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestStoreCloseRemovesOwnListener(t *testing.T) {
	sub := newFakeSubscriber()
	other := sub.On(realtime.EventBadgeCountUpdated, func(realtime.Event) {})

	store := NewStore(sub)
	ch, _ := store.Watch()

	store.Close()
	store.Close()

	_, ok := <-ch
	assert.False(t, ok)

	sub.mu.Lock()
	assert.Len(t, sub.removed, 1)
	assert.NotEqual(t, other, sub.removed[0])
	_, stillThere := sub.handlers[other]
	sub.mu.Unlock()
	assert.True(t, stillThere)

	store.Set(realtime.BadgeCounts{Overdue: 9})
	counts, _ := store.Counts()
	assert.Equal(t, 0, counts.Overdue)

	closedCh, _ := store.Watch()
	_, ok = <-closedCh
	assert.False(t, ok)
}

func TestStoreAttachResubscribes(t *testing.T) {
	sub := newFakeSubscriber()
	store := NewStore(sub)
	defer store.Close()

	// 模拟 Manager.Disconnect 清空订阅
	sub.mu.Lock()
	for id := range sub.handlers {
		delete(sub.handlers, id)
	}
	sub.mu.Unlock()

	sub.publish(t, realtime.BadgeCounts{Overdue: 5})
	counts, _ := store.Counts()
	assert.Equal(t, 0, counts.Overdue)

	store.Attach()
	store.Attach()
	sub.mu.Lock()
	assert.Len(t, sub.handlers, 1)
	sub.mu.Unlock()

	sub.publish(t, realtime.BadgeCounts{Overdue: 5})
	counts, _ = store.Counts()
	assert.Equal(t, 5, counts.Overdue)

	store.Close()
	store.Attach()
	sub.mu.Lock()
	assert.Empty(t, sub.handlers)
	sub.mu.Unlock()
}
