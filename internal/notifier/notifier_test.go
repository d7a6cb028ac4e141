package notifier

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/lendhub/internal/devserver"
	"github.com/lk2023060901/lendhub/pkg/badge"
	"github.com/lk2023060901/lendhub/pkg/notify"
	"github.com/lk2023060901/lendhub/pkg/prometheus"
	"github.com/lk2023060901/lendhub/pkg/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startDevserver(t *testing.T) (*devserver.Server, string) {
	t.Helper()
	cfg := &devserver.Config{DefaultCounts: realtime.BadgeCounts{PendingRequests: 4, Overdue: 2}}
	cfg.Web.Mode = gin.TestMode

	srv, err := devserver.New(cfg)
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return srv, ln.Addr().String()
}

type fixture struct {
	srv      *devserver.Server
	notifier *Notifier
	prom     *prometheus.Client
	store    *badge.Store
}

type fakeForwarder struct {
	sent chan *notify.Message
}

func (f *fakeForwarder) Send(_ context.Context, msg *notify.Message) error {
	f.sent <- msg
	return nil
}

func (f *fakeForwarder) Name() string { return "fake" }

func newFixture(t *testing.T, token Token, fwd notify.Notifier) *fixture {
	t.Helper()
	srv, addr := startDevserver(t)
	if token == "issue" {
		raw, err := srv.JWT().Issue("u-1", "student", nil)
		require.NoError(t, err)
		token = Token(raw)
	}

	mgr, err := realtime.NewManager(&realtime.Config{
		URL:               "ws://" + addr + "/socket",
		AuthTimeout:       2 * time.Second,
		HeartbeatInterval: time.Second,
	})
	require.NoError(t, err)

	refresher, err := badge.NewRefresher(&badge.RefresherConfig{BaseURL: "http://" + addr}, nil)
	require.NoError(t, err)

	prom, err := prometheus.New(&prometheus.Config{Namespace: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = prom.Close() })

	store := badge.NewStore(mgr)
	t.Cleanup(store.Close)

	n, err := New(mgr, store, refresher, fwd, prom, token, nil)
	require.NoError(t, err)
	return &fixture{srv: srv, notifier: n, prom: prom, store: store}
}

// metricValue 读取带单个标签的 gauge 或 counter 当前值
func metricValue(t *testing.T, p *prometheus.Client, name, label string) float64 {
	t.Helper()
	families, err := p.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() != label {
					continue
				}
				if g := m.GetGauge(); g != nil {
					return g.GetValue()
				}
				return m.GetCounter().GetValue()
			}
		}
	}
	return -1
}

func TestNotifierRecordsBadgeCounts(t *testing.T) {
	f := newFixture(t, "issue", nil)
	require.NoError(t, f.notifier.Start())
	defer f.notifier.Stop()

	require.Eventually(t, func() bool {
		return metricValue(t, f.prom, "test_badge_count", "pending_requests") == 4 &&
			metricValue(t, f.prom, "test_badge_count", "overdue") == 2
	}, 3*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		return f.srv.SetCounts("u-1", realtime.BadgeCounts{PendingRequests: 9}) == 1
	}, 3*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return metricValue(t, f.prom, "test_badge_count", "pending_requests") == 9 &&
			metricValue(t, f.prom, "test_badge_count", "overdue") == 0
	}, 3*time.Second, 20*time.Millisecond)

	counts, _ := f.store.Counts()
	assert.Equal(t, 9, counts.PendingRequests)
}

func TestNotifierCountsDomainEvents(t *testing.T) {
	f := newFixture(t, "issue", nil)
	require.NoError(t, f.notifier.Start())
	defer f.notifier.Stop()

	require.Eventually(t, func() bool {
		return f.srv.EmitToUser("u-1", realtime.EventNotificationCreated, realtime.Notification{ID: "n-1", Title: "Approved"}) == 1
	}, 3*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return metricValue(t, f.prom, "test_notify_events_total", realtime.EventNotificationCreated) >= 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestNotifierStartStop(t *testing.T) {
	f := newFixture(t, "", nil)
	assert.ErrorIs(t, f.notifier.Start(), ErrNoToken)
	assert.NoError(t, f.notifier.Stop())

	g := newFixture(t, "issue", nil)
	require.NoError(t, g.notifier.Start())
	assert.ErrorIs(t, g.notifier.Start(), ErrAlreadyStarted)
	require.NoError(t, g.notifier.Stop())
	assert.False(t, g.notifier.mgr.IsConnected())
	assert.NoError(t, g.notifier.Stop())
}

func TestNotifierForwardsNotifications(t *testing.T) {
	fwd := &fakeForwarder{sent: make(chan *notify.Message, 8)}
	f := newFixture(t, "issue", fwd)
	require.NoError(t, f.notifier.Start())
	defer f.notifier.Stop()

	require.Eventually(t, func() bool {
		return f.srv.EmitToUser("u-1", realtime.EventBorrowRequestUpdated, realtime.BorrowRequestUpdate{RequestID: "r-9", Status: "approved"}) == 1
	}, 3*time.Second, 20*time.Millisecond)

	select {
	case msg := <-fwd.sent:
		assert.Equal(t, "Borrow request approved", msg.Title)
		assert.Equal(t, "r-9", msg.Labels["request_id"])
	case <-time.After(3 * time.Second):
		t.Fatal("borrow request update not forwarded")
	}

	require.Eventually(t, func() bool {
		return metricValue(t, f.prom, "test_notify_events_total", "forwarded") >= 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestNotifierRestartKeepsReceiving(t *testing.T) {
	fwd := &fakeForwarder{sent: make(chan *notify.Message, 64)}
	f := newFixture(t, "issue", fwd)
	require.NoError(t, f.notifier.Start())
	require.NoError(t, f.notifier.Stop())
	require.NoError(t, f.notifier.Start())
	defer f.notifier.Stop()

	// 重启后只做一次 REST 刷新，得到的是默认计数，42 只能来自推送
	require.Eventually(t, func() bool {
		counts, _ := f.store.Counts()
		return counts.PendingRequests == 4
	}, 3*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		f.srv.SetCounts("u-1", realtime.BadgeCounts{PendingRequests: 42})
		counts, _ := f.store.Counts()
		return counts.PendingRequests == 42
	}, 3*time.Second, 50*time.Millisecond)
	require.Eventually(t, func() bool {
		return metricValue(t, f.prom, "test_badge_count", "pending_requests") == 42
	}, 3*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		f.srv.EmitToUser("u-1", realtime.EventNotificationCreated, realtime.Notification{ID: "n-2", Title: "Returned"})
		select {
		case msg := <-fwd.sent:
			return msg.Title == "Returned"
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 50*time.Millisecond)
}
