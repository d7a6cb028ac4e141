package badge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lk2023060901/lendhub/pkg/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBadgeServer(t *testing.T, status *atomic.Int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != BadgesPath {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if code := status.Load(); code != 0 {
			w.WriteHeader(int(code))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":    0,
			"message": "ok",
			"data":    realtime.BadgeCounts{PendingRequests: 5, AwaitingDelivery: 2},
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestRefresherFetch(t *testing.T) {
	var status atomic.Int32
	ts := newBadgeServer(t, &status)

	r, err := NewRefresher(&RefresherConfig{BaseURL: ts.URL, RetryCount: 1, RetryWaitTime: 10 * time.Millisecond}, nil)
	require.NoError(t, err)

	counts, err := r.Fetch(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, 5, counts.PendingRequests)
	assert.Equal(t, 2, counts.AwaitingDelivery)

	_, err = r.Fetch(context.Background(), "bad-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	status.Store(http.StatusBadGateway)
	_, err = r.Fetch(context.Background(), "good-token")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestRefresherRefreshUpdatesStore(t *testing.T) {
	var status atomic.Int32
	ts := newBadgeServer(t, &status)

	r, err := NewRefresher(&RefresherConfig{BaseURL: ts.URL, RetryWaitTime: 10 * time.Millisecond}, nil)
	require.NoError(t, err)

	store := NewStore(newFakeSubscriber())
	defer store.Close()

	require.NoError(t, r.Refresh(context.Background(), "good-token", store))
	counts, _ := store.Counts()
	assert.Equal(t, 5, counts.PendingRequests)
}

func TestNewRefresherValidation(t *testing.T) {
	_, err := NewRefresher(&RefresherConfig{BaseURL: "not a url"}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRefresherUserAgent(t *testing.T) {
	agents := make(chan string, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"message":"ok","data":{}}`))
	}))
	defer ts.Close()

	r, err := NewRefresher(&RefresherConfig{BaseURL: ts.URL, UserAgent: "lendhub-notify/test"}, nil)
	require.NoError(t, err)

	_, err = r.Fetch(context.Background(), "any")
	require.NoError(t, err)
	assert.Equal(t, "lendhub-notify/test", <-agents)
}
