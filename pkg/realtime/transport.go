// pkg/realtime/transport.go
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/lk2023060901/lendhub/pkg/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

// Transport 底层实时连接，由 Manager 独占
type Transport interface {
	// Open 发起连接，不阻塞
	Open() error
	// Close 彻底关闭，之后不可复用
	Close() error
	// Emit 发送事件
	Emit(event string, data interface{}) error
	// SetAuth 设置下次握手携带的凭证
	SetAuth(token string)
	// Connected 底层连接已打开
	Connected() bool
	// Active 正在连接、已连接或重连中
	Active() bool
}

// TransportHandler 传输层生命周期回调
type TransportHandler interface {
	OnConnect()
	OnDisconnect(reason string)
	OnConnectError(err error)
	OnReconnectAttempt(attempt int)
	OnReconnect(attempt int)
	OnEvent(event string, data json.RawMessage)
}

// TransportFactory 创建传输层，h 在构造时绑定且只绑定一次
type TransportFactory func(h TransportHandler) (Transport, error)

// NewWebsocketTransportFactory 基于 websocket.Client 的传输层
// 同一 factory 创建的客户端共享一组指标
func NewWebsocketTransportFactory(cfg *websocket.ClientConfig, registerer prometheus.Registerer, opts ...websocket.ClientOption) TransportFactory {
	var (
		once    sync.Once
		metrics *websocket.ClientMetrics
	)
	return func(h TransportHandler) (Transport, error) {
		if registerer != nil {
			once.Do(func() {
				metrics = websocket.NewClientMetrics(registerer)
			})
		}

		clientCfg := *cfg
		clientOpts := append([]websocket.ClientOption{}, opts...)
		if metrics != nil {
			clientOpts = append(clientOpts, websocket.WithClientMetrics(metrics))
		}
		client, err := websocket.NewClient(&clientCfg, h, clientOpts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
