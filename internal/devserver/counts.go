package devserver

import (
	"sync"

	"github.com/lk2023060901/lendhub/pkg/realtime"
)

// countsBook 按用户保存徽标计数
type countsBook struct {
	mu       sync.RWMutex
	defaults realtime.BadgeCounts
	byUser   map[string]realtime.BadgeCounts
}

func newCountsBook(defaults realtime.BadgeCounts) *countsBook {
	return &countsBook{
		defaults: defaults,
		byUser:   make(map[string]realtime.BadgeCounts),
	}
}

func (b *countsBook) get(userID string) realtime.BadgeCounts {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if c, ok := b.byUser[userID]; ok {
		return c
	}
	return b.defaults
}

func (b *countsBook) set(userID string, counts realtime.BadgeCounts) {
	b.mu.Lock()
	b.byUser[userID] = counts
	b.mu.Unlock()
}
