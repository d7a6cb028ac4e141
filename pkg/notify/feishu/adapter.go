package feishu

import (
	"context"
	"fmt"
	"sort"

	"github.com/lk2023060901/lendhub/pkg/notify"
)

// Adapter 将 notify.Message 转为飞书富文本
type Adapter struct {
	client *Client
}

// NewAdapter 创建飞书适配器
func NewAdapter(cfg *Config) (*Adapter, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Adapter{client: client}, nil
}

// Send 实现 notify.Notifier
func (a *Adapter) Send(ctx context.Context, msg *notify.Message) error {
	return a.client.Send(ctx, toPost(msg))
}

// Name 实现 notify.Notifier
func (a *Adapter) Name() string {
	return "feishu"
}

func toPost(msg *notify.Message) *PostMessage {
	post := NewPostMessage(fmt.Sprintf("%s %s", levelMark(msg.Level), msg.Title))

	if msg.Body != "" {
		post.AddLine(Text(msg.Body))
	}

	keys := make([]string, 0, len(msg.Labels))
	for k := range msg.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		post.AddLine(Text(fmt.Sprintf("%s: %s", k, msg.Labels[k])))
	}

	if !msg.At.IsZero() {
		post.AddLine(Text("时间: " + msg.At.Format("2006-01-02 15:04:05")))
	}
	if msg.Link != "" {
		post.AddLine(Link("查看详情", msg.Link))
	}
	return post
}

func levelMark(l notify.Level) string {
	if l == notify.LevelWarning {
		return "[提醒]"
	}
	return "[通知]"
}
