package config

import (
	"errors"
	"testing"
	"time"
)

type mergeTestConfig struct {
	URL         string
	AuthTimeout time.Duration
	Enabled     bool
	Reasons     []string
	Labels      map[string]string
	Backoff     *mergeBackoff
	Nested      mergeBackoff
}

type mergeBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

func defaultMergeTestConfig() *mergeTestConfig {
	return &mergeTestConfig{
		URL:         "ws://localhost:3000/ws",
		AuthTimeout: 10 * time.Second,
		Enabled:     true,
		Reasons:     []string{"io server disconnect"},
		Labels:      map[string]string{"app": "lendhub"},
		Nested:      mergeBackoff{Initial: time.Second, Max: 30 * time.Second},
	}
}

// TestMergeConfigOverrides 非零值覆盖默认值
func TestMergeConfigOverrides(t *testing.T) {
	merged, err := MergeConfig(defaultMergeTestConfig(), &mergeTestConfig{
		AuthTimeout: 5 * time.Second,
		Reasons:     []string{"ping timeout"},
		Labels:      map[string]string{"env": "test"},
		Backoff:     &mergeBackoff{Max: time.Minute},
		Nested:      mergeBackoff{Max: 10 * time.Second},
	})
	if err != nil {
		t.Fatalf("MergeConfig() error = %v", err)
	}

	if merged.URL != "ws://localhost:3000/ws" {
		t.Errorf("Zero src field should keep default, got %s", merged.URL)
	}
	if merged.AuthTimeout != 5*time.Second {
		t.Errorf("Expected 5s, got %v", merged.AuthTimeout)
	}
	if len(merged.Reasons) != 1 || merged.Reasons[0] != "ping timeout" {
		t.Errorf("Slice should be replaced, got %v", merged.Reasons)
	}
	if merged.Labels["app"] != "lendhub" || merged.Labels["env"] != "test" {
		t.Errorf("Maps should be merged, got %v", merged.Labels)
	}
	if merged.Backoff == nil || merged.Backoff.Max != time.Minute {
		t.Errorf("Pointer should be allocated and merged, got %v", merged.Backoff)
	}
	if merged.Nested.Initial != time.Second || merged.Nested.Max != 10*time.Second {
		t.Errorf("Nested struct merged incorrectly: %+v", merged.Nested)
	}
	if !merged.Enabled {
		t.Error("false in src must not override true default")
	}
}

// TestMergeConfigEmptySlice 非 nil 空切片清空默认列表，nil 保留默认
func TestMergeConfigEmptySlice(t *testing.T) {
	merged, err := MergeConfig(defaultMergeTestConfig(), &mergeTestConfig{Reasons: []string{}})
	if err != nil {
		t.Fatalf("MergeConfig() error = %v", err)
	}
	if merged.Reasons == nil || len(merged.Reasons) != 0 {
		t.Errorf("Expected empty reasons, got %v", merged.Reasons)
	}

	merged, err = MergeConfig(defaultMergeTestConfig(), &mergeTestConfig{})
	if err != nil {
		t.Fatalf("MergeConfig() error = %v", err)
	}
	if len(merged.Reasons) != 1 {
		t.Errorf("nil reasons should keep default, got %v", merged.Reasons)
	}
}

// TestMergeConfigNil nil 处理
func TestMergeConfigNil(t *testing.T) {
	def := defaultMergeTestConfig()

	got, err := MergeConfig(def, nil)
	if err != nil || got != def {
		t.Errorf("nil src should return dst, got %v, %v", got, err)
	}

	src := &mergeTestConfig{URL: "x"}
	got, err = MergeConfig(nil, src)
	if err != nil || got != src {
		t.Errorf("nil dst should return src, got %v, %v", got, err)
	}

	if _, err := MergeConfig[mergeTestConfig](nil, nil); !errors.Is(err, ErrBothNil) {
		t.Errorf("Expected ErrBothNil, got %v", err)
	}
}

func BenchmarkMergeConfig(b *testing.B) {
	src := &mergeTestConfig{AuthTimeout: time.Second, Labels: map[string]string{"k": "v"}}
	for i := 0; i < b.N; i++ {
		_, _ = MergeConfig(defaultMergeTestConfig(), src)
	}
}
