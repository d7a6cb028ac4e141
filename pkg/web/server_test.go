package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Mode = gin.TestMode
	s, err := NewServer(cfg, logger.NewNoop(), opts...)
	require.NoError(t, err)
	return s
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(&Config{}, logger.NewNoop())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewServer(&Config{Addr: ":0", EnableTLS: true}, logger.NewNoop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSuccessAndErrorEnvelope(t *testing.T) {
	s := newTestServer(t)
	s.Router().GET("/ok", func(c *gin.Context) {
		Success(c, gin.H{"n": 1})
	})
	s.Router().GET("/missing", func(c *gin.Context) {
		Error(c, CodeNotFound, "nothing here")
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, CodeOK, resp.Code)
	assert.Equal(t, map[string]any{"n": float64(1)}, resp.Data)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, decodeResponse(t, rec).Code)
}

func TestBindAndValidateUsesJSONNames(t *testing.T) {
	type body struct {
		UserID string `json:"user_id" binding:"required"`
	}
	s := newTestServer(t)
	s.Router().POST("/bind", func(c *gin.Context) {
		var b body
		if !BindAndValidate(c, &b) {
			return
		}
		Success(c, b.UserID)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, CodeInvalidParams, resp.Code)
	assert.Contains(t, resp.Message, "user_id")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(`{"user_id":"u1"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", decodeResponse(t, rec).Data)
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	s := newTestServer(t)
	s.Router().GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeInternalError, decodeResponse(t, rec).Code)
}

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newTestServer(t, WithMetricsRegisterer("test", reg))
	s.Router().GET("/ping", func(c *gin.Context) {
		Success(c, nil)
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != "test_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(3), total)
}

func TestServeStopsOnContextCancel(t *testing.T) {
	s := newTestServer(t)
	s.Router().GET("/health", func(c *gin.Context) {
		Success(c, "up")
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}

	ln2, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Serve(context.Background(), ln2), ErrServerAlreadyStarted)
}
