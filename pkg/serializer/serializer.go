package serializer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCodec = errors.New("serializer: unknown codec")

// Serializer 序列化器接口
type Serializer interface {
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte, v any) error
	// Name 配置中使用的名称：json、msgpack
	Name() string
	// Binary 为 true 时以二进制帧发送
	Binary() bool
}

// JSON JSON 序列化器
type JSON struct{}

// NewJSON 创建 JSON 序列化器
func NewJSON() *JSON {
	return &JSON{}
}

func (s *JSON) Serialize(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (s *JSON) Deserialize(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (s *JSON) Name() string { return "json" }
func (s *JSON) Binary() bool { return false }

// Msgpack msgpack 序列化器
type Msgpack struct{}

// NewMsgpack 创建 msgpack 序列化器
func NewMsgpack() *Msgpack {
	return &Msgpack{}
}

func (s *Msgpack) Serialize(v any) ([]byte, error) {
	return Encode(v)
}

func (s *Msgpack) Deserialize(data []byte, v any) error {
	return Decode(data, v)
}

func (s *Msgpack) Name() string { return "msgpack" }
func (s *Msgpack) Binary() bool { return true }

// ByName 按名称查找序列化器，空字符串返回 JSON
func ByName(name string) (Serializer, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return NewJSON(), nil
	case "msgpack":
		return NewMsgpack(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, name)
	}
}
