package websocket

import (
	"encoding/json"
	"testing"

	"github.com/lk2023060901/lendhub/pkg/serializer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeJSON(t *testing.T) {
	s := serializer.NewJSON()

	msg, err := EncodeEnvelope(s, "borrow_request_updated", map[string]interface{}{
		"request_id": "r-1",
		"status":     "approved",
	})
	require.NoError(t, err)
	assert.Equal(t, MessageTypeText, msg.Type)
	assert.JSONEq(t, `{"event":"borrow_request_updated","data":{"request_id":"r-1","status":"approved"}}`, string(msg.Data))

	env, err := DecodeEnvelope(s, msg.Data)
	require.NoError(t, err)
	assert.Equal(t, "borrow_request_updated", env.Event)
	assert.False(t, env.ReceivedAt.IsZero())

	var update struct {
		RequestID string `json:"request_id"`
		Status    string `json:"status"`
	}
	require.NoError(t, env.Decode(&update))
	assert.Equal(t, "r-1", update.RequestID)
	assert.Equal(t, "approved", update.Status)
}

func TestEnvelopeMsgpackRawData(t *testing.T) {
	s := serializer.NewMsgpack()

	msg, err := EncodeEnvelope(s, "badge_count_updated", json.RawMessage(`{"pending":3}`))
	require.NoError(t, err)
	assert.Equal(t, MessageTypeBinary, msg.Type)

	env, err := DecodeEnvelope(s, msg.Data)
	require.NoError(t, err)
	assert.Equal(t, "badge_count_updated", env.Event)

	var counts map[string]int
	require.NoError(t, env.Decode(&counts))
	assert.Equal(t, 3, counts["pending"])
}

func TestEnvelopeWithoutData(t *testing.T) {
	for _, s := range []serializer.Serializer{serializer.NewJSON(), serializer.NewMsgpack()} {
		msg, err := EncodeEnvelope(s, "ping", nil)
		require.NoError(t, err, s.Name())

		env, err := DecodeEnvelope(s, msg.Data)
		require.NoError(t, err, s.Name())
		assert.Equal(t, "ping", env.Event)
		assert.Empty(t, env.Data)

		var v struct{}
		assert.NoError(t, env.Decode(&v))
	}
}

func TestEncodeEnvelopeEmptyEvent(t *testing.T) {
	_, err := EncodeEnvelope(serializer.NewJSON(), "", nil)
	assert.ErrorIs(t, err, ErrEmptyEvent)
}

func TestDecodeEnvelopeInvalid(t *testing.T) {
	_, err := DecodeEnvelope(serializer.NewJSON(), []byte("not json"))
	assert.Error(t, err)
}

func TestShouldAutoReconnect(t *testing.T) {
	assert.False(t, ShouldAutoReconnect(ReasonServerDisconnect))
	assert.False(t, ShouldAutoReconnect(ReasonClientDisconnect))
	assert.True(t, ShouldAutoReconnect(ReasonTransportClose))
	assert.True(t, ShouldAutoReconnect(ReasonTransportError))
	assert.True(t, ShouldAutoReconnect(ReasonPingTimeout))
}

func TestNextDelay(t *testing.T) {
	cfg := DefaultReconnectConfig()
	cfg.RandomFactor = 0

	assert.Equal(t, 2*cfg.InitialDelay, nextDelay(cfg.InitialDelay, &cfg))
	assert.Equal(t, cfg.MaxDelay, nextDelay(cfg.MaxDelay, &cfg))

	cfg.RandomFactor = 0.5
	for i := 0; i < 50; i++ {
		d := nextDelay(cfg.InitialDelay, &cfg)
		assert.GreaterOrEqual(t, d, cfg.InitialDelay)
		assert.LessOrEqual(t, d, cfg.MaxDelay)
	}
}
