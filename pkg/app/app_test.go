package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.calls = append(r.calls, s)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func newTestApp() *BaseApp {
	return NewBaseApp(WithLogger(logger.NewNoop()), WithName("test"), WithStopTimeout(time.Second))
}

func TestRunAndShutdownOrder(t *testing.T) {
	rec := &recorder{}
	a := newTestApp()
	comps := Components{
		Servers: []Server{ServerFuncs{
			StartFunc: func() error { rec.add("start"); return nil },
			StopFunc:  func() error { rec.add("stop"); return nil },
		}},
		Closers: []Closer{
			CloserFunc(func() error { rec.add("close-1"); return nil }),
			CloserFunc(func() error { rec.add("close-2"); return nil }),
		},
	}
	InitApp(a, comps)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.list()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, []string{"start", "stop", "close-2", "close-1"}, rec.list())

	assert.ErrorIs(t, a.Run(context.Background()), ErrAppAlreadyRunning)
	assert.NoError(t, a.Shutdown())
}

func TestShutdownUnblocksRun(t *testing.T) {
	a := newTestApp()
	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, a.Shutdown())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}

func TestRunStartFailure(t *testing.T) {
	boom := errors.New("boom")
	closed := false
	a := newTestApp()
	a.AppendServer(ServerFuncs{StartFunc: func() error { return boom }})
	a.AppendCloser(CloserFunc(func() error { closed = true; return nil }))

	assert.ErrorIs(t, a.Run(context.Background()), boom)
	assert.True(t, closed)
}

type fileConfig struct {
	Name  string        `mapstructure:"name"`
	Delay time.Duration `mapstructure:"delay"`
	Log   logger.Config `mapstructure:"log"`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFlag(t *testing.T) {
	path := writeConfig(t, "name: notify\ndelay: 2s\nlog:\n  level: warn\n")

	var cfg fileConfig
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	mgr, err := LoadConfigFrom(fs, []string{"-c", path}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "notify", cfg.Name)
	assert.Equal(t, 2*time.Second, cfg.Delay)
	assert.Equal(t, logger.WarnLevel, cfg.Log.Level)
	assert.Equal(t, path, mgr.Path())
	assert.True(t, mgr.IsSet("log.level"))
}

func TestLoadConfigFromEnv(t *testing.T) {
	path := writeConfig(t, "name: from-file\n")
	t.Setenv(ConfigEnv, path)
	t.Setenv("LENDHUB_NAME", "from-env")

	var cfg fileConfig
	_, err := LoadConfigFrom(pflag.NewFlagSet("test", pflag.ContinueOnError), nil, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Name)
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg fileConfig
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	_, err := LoadConfigFrom(fs, []string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}, &cfg)
	assert.Error(t, err)
}

func TestNewLoggerRedactsToken(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(&logger.Config{
		Format:        logger.JSONFormat,
		SensitiveKeys: []string{"password"},
	}, logger.WithWriter(&buf))
	require.NoError(t, err)

	l.Info("login", "token", "jwt-value", "password", "hunter2", "user_id", "u-1")
	_ = l.Sync()

	out := buf.String()
	assert.NotContains(t, out, "jwt-value")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, logger.RedactedValue)
	assert.Contains(t, out, "u-1")
}

func TestInfo(t *testing.T) {
	info := GetInfo()
	assert.Contains(t, info.String(), info.Version)
	assert.Contains(t, info.UserAgent(), info.AppName+"/")
	assert.Equal(t, info.AppName+"@"+info.Version, info.Release())
	assert.NotEmpty(t, info.GitCommit)
}
