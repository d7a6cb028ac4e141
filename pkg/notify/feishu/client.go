package feishu

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lk2023060901/lendhub/pkg/config"
	"github.com/lk2023060901/lendhub/pkg/notify"
)

// Client 飞书群机器人客户端
type Client struct {
	config *Config
	http   *resty.Client
	now    func() time.Time
}

type sendRequest struct {
	MsgType   string      `json:"msg_type"`
	Content   interface{} `json:"content"`
	Timestamp string      `json:"timestamp,omitempty"`
	Sign      string      `json:"sign,omitempty"`
}

type sendResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// NewClient 创建客户端
func NewClient(cfg *Config) (*Client, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config: merged,
		http: resty.New().
			SetTimeout(merged.Timeout).
			SetHeader("Content-Type", "application/json"),
		now: time.Now,
	}, nil
}

// Send 发送消息
func (c *Client) Send(ctx context.Context, msg Message) error {
	req := sendRequest{
		MsgType: msg.Type(),
		Content: msg.Content(),
	}
	if c.config.Secret != "" {
		ts := c.now().Unix()
		req.Timestamp = strconv.FormatInt(ts, 10)
		req.Sign = sign(ts, c.config.Secret)
	}

	var result sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post(c.config.WebhookURL)
	if err != nil {
		return fmt.Errorf("%w: %v", notify.ErrSendFailed, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: status %d", notify.ErrSendFailed, resp.StatusCode())
	}
	if result.Code != 0 {
		return fmt.Errorf("%w: %s (code=%d)", ErrAPIError, result.Msg, result.Code)
	}
	return nil
}

// sign 飞书签名：以 "timestamp\nsecret" 为 key 对空串做 HmacSHA256
func sign(timestamp int64, secret string) string {
	h := hmac.New(sha256.New, []byte(fmt.Sprintf("%d\n%s", timestamp, secret)))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
