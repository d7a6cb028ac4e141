package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDomainEvent(t *testing.T) {
	ev := Event{
		Name: EventBadgeCountUpdated,
		Data: json.RawMessage(`{"pending_requests":2,"overdue":1,"unread_notifications":4}`),
	}
	parsed, err := ParseDomainEvent(ev)
	require.NoError(t, err)

	counts, ok := parsed.(BadgeCounts)
	require.True(t, ok)
	assert.Equal(t, 2, counts.PendingRequests)
	assert.Equal(t, 7, counts.Total())
	assert.Equal(t, EventBadgeCountUpdated, parsed.EventName())

	parsed, err = ParseDomainEvent(Event{
		Name: EventBorrowRequestUpdated,
		Data: json.RawMessage(`{"request_id":"r-9","status":"returned","updated_at":"2026-03-01T10:00:00Z"}`),
	})
	require.NoError(t, err)
	update := parsed.(BorrowRequestUpdate)
	assert.Equal(t, "r-9", update.RequestID)
	assert.Equal(t, "returned", update.Status)
	assert.Equal(t, 2026, update.UpdatedAt.Year())

	parsed, err = ParseDomainEvent(Event{Name: "equipment_moved", Data: json.RawMessage(`{"id":1}`)})
	require.NoError(t, err)
	unknown, ok := parsed.(UnknownEvent)
	require.True(t, ok)
	assert.Equal(t, "equipment_moved", unknown.EventName())

	_, err = ParseDomainEvent(Event{Name: EventNotificationCreated, Data: json.RawMessage(`{"id":`)})
	assert.Error(t, err)
}

func TestTypedSubscriptions(t *testing.T) {
	m, ff := newTestManager(t, nil)
	ft := authenticateViaConnect(t, m, ff, "token-a")

	var (
		counts       []BadgeCounts
		notification Notification
	)
	OnBadgeCounts(m, func(c BadgeCounts) { counts = append(counts, c) })
	OnNotification(m, func(n Notification) { notification = n })

	ft.push(t, EventBadgeCountUpdated, map[string]int{"awaiting_return": 3})
	// 解析失败的事件被跳过
	ft.handler.OnEvent(EventBadgeCountUpdated, json.RawMessage(`"not an object"`))
	ft.push(t, EventNotificationCreated, Notification{ID: "n-1", Title: "Overdue", CreatedAt: time.Now()})

	require.Len(t, counts, 1)
	assert.Equal(t, 3, counts[0].AwaitingReturn)
	assert.Equal(t, "n-1", notification.ID)
}

func TestSubscribeGeneric(t *testing.T) {
	m, ff := newTestManager(t, nil)
	ft := authenticateViaConnect(t, m, ff, "token-a")

	type locationUpdate struct {
		EquipmentID string `json:"equipment_id"`
		Location    string `json:"location"`
	}
	got := make(chan locationUpdate, 1)
	id := Subscribe(m, "location_updated", func(u locationUpdate, ev Event) {
		assert.Equal(t, "location_updated", ev.Name)
		got <- u
	})

	ft.push(t, "location_updated", locationUpdate{EquipmentID: "eq-1", Location: "Lab 2"})
	u := <-got
	assert.Equal(t, "Lab 2", u.Location)

	m.Off("location_updated", id)
	assert.Equal(t, 0, m.Stats().Listeners)
}
