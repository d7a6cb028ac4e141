// pkg/serializer/msgpack.go
package serializer

import (
	"bytes"
	"reflect"

	"github.com/hashicorp/go-msgpack/v2/codec"
	"github.com/valyala/bytebufferpool"
)

// msgpackHandle: RawToString=true, MapType=map[string]interface{}
// 解出的通用值可以直接再编码为 JSON
var msgpackHandle = &codec.MsgpackHandle{}

func init() {
	msgpackHandle.MapType = reflect.TypeOf(map[string]interface{}{})
	msgpackHandle.RawToString = true
	msgpackHandle.WriteExt = true
}

var bufferPool bytebufferpool.Pool

// Encode 使用 msgpack 编码
func Encode(v interface{}) ([]byte, error) {
	buf := bufferPool.Get()
	defer bufferPool.Put(buf)

	enc := codec.NewEncoder(buf, msgpackHandle)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// buf 会被回收复用，必须复制
	result := make([]byte, buf.Len())
	copy(result, buf.B)
	return result, nil
}

// Decode 使用 msgpack 解码
func Decode(data []byte, v interface{}) error {
	dec := codec.NewDecoder(bytes.NewReader(data), msgpackHandle)
	return dec.Decode(v)
}
