package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopServerHandler struct{}

func (nopServerHandler) OnOpen(*Connection, *http.Request) error { return nil }
func (nopServerHandler) OnEvent(*Connection, Envelope)           {}
func (nopServerHandler) OnClose(*Connection, string)             {}

func dialWithOrigin(t *testing.T, url, origin string) (*http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, resp, err := gorilla.DefaultDialer.Dial(url, header)
	if conn != nil {
		_ = conn.Close()
	}
	return resp, err
}

func TestServerAllowedOrigins(t *testing.T) {
	srv, err := NewServer(nil, nopServerHandler{},
		WithAllowedOrigins("https://lendhub.example.com/"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close(context.Background()) })

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	_, err = dialWithOrigin(t, url, "https://lendhub.example.com")
	assert.NoError(t, err)

	_, err = dialWithOrigin(t, url, "")
	assert.NoError(t, err, "non-browser clients send no Origin")

	resp, err := dialWithOrigin(t, url, "https://evil.example.com")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServerDefaultRejectsBrowserOrigin(t *testing.T) {
	srv, err := NewServer(nil, nopServerHandler{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close(context.Background()) })

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	resp, err := dialWithOrigin(t, url, "https://lendhub.example.com")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
