// pkg/websocket/message.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/lk2023060901/lendhub/pkg/serializer"
)

// Envelope 一帧承载一个事件：{"event": "...", "data": ...}
type Envelope struct {
	Event      string
	Data       json.RawMessage
	ReceivedAt time.Time
}

// Decode 将 data 解析到 v
func (e Envelope) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

type outboundEnvelope struct {
	Event string      `json:"event" codec:"event"`
	Data  interface{} `json:"data,omitempty" codec:"data,omitempty"`
}

type inboundJSON struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type inboundMsgpack struct {
	Event string      `codec:"event"`
	Data  interface{} `codec:"data"`
}

// Message 待发送的帧
type Message struct {
	Type MessageType
	Data []byte
}

// EncodeEnvelope 按序列化器编码事件帧
func EncodeEnvelope(s serializer.Serializer, event string, data interface{}) (*Message, error) {
	if event == "" {
		return nil, ErrEmptyEvent
	}

	// 二进制编码器无法直接写 json.RawMessage
	if raw, ok := data.(json.RawMessage); ok && s.Binary() {
		var generic interface{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &generic); err != nil {
				return nil, err
			}
		}
		data = generic
	}

	payload, err := s.Serialize(outboundEnvelope{Event: event, Data: data})
	if err != nil {
		return nil, err
	}

	msgType := MessageTypeText
	if s.Binary() {
		msgType = MessageTypeBinary
	}
	return &Message{Type: msgType, Data: payload}, nil
}

// DecodeEnvelope 解码事件帧，data 统一转为 JSON
func DecodeEnvelope(s serializer.Serializer, payload []byte) (Envelope, error) {
	env := Envelope{ReceivedAt: time.Now()}

	if !s.Binary() {
		var in inboundJSON
		if err := s.Deserialize(payload, &in); err != nil {
			return env, err
		}
		env.Event = in.Event
		if len(in.Data) > 0 && string(in.Data) != "null" {
			env.Data = in.Data
		}
		return env, nil
	}

	var in inboundMsgpack
	if err := s.Deserialize(payload, &in); err != nil {
		return env, err
	}
	env.Event = in.Event
	if in.Data != nil {
		raw, err := json.Marshal(in.Data)
		if err != nil {
			return env, err
		}
		env.Data = raw
	}
	return env, nil
}
