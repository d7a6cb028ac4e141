package main

import (
	"testing"

	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvideToken(t *testing.T) {
	l := logger.NewNoop()

	token, err := provideToken(&Config{Token: "abc"}, l)
	require.NoError(t, err)
	assert.EqualValues(t, "abc", token)

	_, err = provideToken(&Config{}, l)
	assert.ErrorIs(t, err, errNoToken)

	cfg := &Config{DevToken: DevTokenConfig{
		UserID: "u-7",
		Role:   "admin",
		JWT:    security.JWTConfig{SecretKey: "s3cret"},
	}}
	token, err = provideToken(cfg, l)
	require.NoError(t, err)

	jm, err := security.NewJWTManager(&security.JWTConfig{SecretKey: "s3cret"})
	require.NoError(t, err)
	claims, err := jm.Verify(string(token))
	require.NoError(t, err)
	assert.Equal(t, "u-7", claims.UserID())
	assert.Equal(t, "admin", claims.Role)
}

func TestInitAppRequiresToken(t *testing.T) {
	cfg := &Config{}
	cfg.Realtime.URL = "ws://127.0.0.1:1/socket"
	cfg.Badge.BaseURL = "http://127.0.0.1:1"

	_, _, err := InitApp(cfg, logger.NewNoop())
	assert.ErrorIs(t, err, errNoToken)
}

func TestInitApp(t *testing.T) {
	cfg := &Config{Token: "abc"}
	cfg.Realtime.URL = "ws://127.0.0.1:1/socket"
	cfg.Badge.BaseURL = "http://127.0.0.1:1"

	application, cleanup, err := InitApp(cfg, logger.NewNoop())
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, application.Logger())
}

func TestProvideForwarder(t *testing.T) {
	fwd, err := provideForwarder(&Config{})
	require.NoError(t, err)
	assert.Nil(t, fwd)

	cfg := &Config{}
	cfg.Forward.Feishu.WebhookURL = "https://open.feishu.cn/open-apis/bot/v2/hook/x"
	fwd, err = provideForwarder(cfg)
	require.NoError(t, err)
	assert.Equal(t, "feishu", fwd.Name())
}
