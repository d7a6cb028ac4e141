package sentry

import (
	"errors"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDSN = "https://public@example.com/1"

type recorder struct {
	mu     sync.Mutex
	events []*sentry.Event
}

// beforeSend 记录事件后丢弃，测试不产生网络请求
func (r *recorder) beforeSend(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) all() []*sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*sentry.Event(nil), r.events...)
}

func TestNewValidation(t *testing.T) {
	_, err := New(&Config{})
	assert.ErrorIs(t, err, ErrInvalidDSN)

	_, err = New(&Config{DSN: "not-a-dsn"})
	assert.ErrorIs(t, err, ErrInvalidDSN)

	_, err = New(&Config{DSN: testDSN, SampleRate: 2})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCaptureAndClose(t *testing.T) {
	rec := &recorder{}
	c, err := New(&Config{DSN: testDSN, Tags: map[string]string{"app": "lendhub"}}, WithBeforeSend(rec.beforeSend))
	require.NoError(t, err)

	c.CaptureException(errors.New("boom"))
	c.CaptureMessage("hello")

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, "lendhub", events[0].Tags["app"])
	assert.Equal(t, "hello", events[1].Message)
	assert.Equal(t, uint64(2), c.Stats().EventsDropped)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClientClosed)
	assert.Nil(t, c.CaptureMessage("after close"))
	assert.Len(t, rec.all(), 2)
}

func TestLoggerHook(t *testing.T) {
	rec := &recorder{}
	c, err := New(&Config{DSN: testDSN}, WithBeforeSend(rec.beforeSend))
	require.NoError(t, err)
	defer c.Close()

	l, err := logger.New(&logger.Config{
		Level:         logger.DebugLevel,
		SensitiveKeys: []string{"token"},
	}, logger.WithHooks(c.LoggerHook()))
	require.NoError(t, err)

	l.Info("connected")
	l.Warn("auth slow")
	l.Named("realtime").Error("auth failed", "token", "jwt-value", "user_id", "u-1")

	events := rec.all()
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, sentry.LevelError, e.Level)
	assert.Equal(t, "auth failed", e.Message)
	assert.Equal(t, "u-1", e.Extra["user_id"])
	assert.Equal(t, logger.RedactedValue, e.Extra["token"])
}
