// pkg/badge/refresher.go
package badge

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lk2023060901/lendhub/pkg/config"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/realtime"
)

// BadgesPath 计数查询接口
const BadgesPath = "/api/badges"

// RefresherConfig REST 刷新配置
type RefresherConfig struct {
	BaseURL       string        `mapstructure:"base_url" json:"base_url" yaml:"base_url" validate:"required,url"`
	Timeout       time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`
	RetryCount    int           `mapstructure:"retry_count" json:"retry_count" yaml:"retry_count" validate:"gte=0"`
	RetryWaitTime time.Duration `mapstructure:"retry_wait_time" json:"retry_wait_time" yaml:"retry_wait_time"`
	UserAgent     string        `mapstructure:"user_agent" json:"user_agent" yaml:"user_agent"`
}

// DefaultRefresherConfig 返回默认配置
func DefaultRefresherConfig() *RefresherConfig {
	return &RefresherConfig{
		BaseURL:       "http://localhost:3000",
		Timeout:       10 * time.Second,
		RetryCount:    2,
		RetryWaitTime: 500 * time.Millisecond,
	}
}

// countsResponse 后端统一响应结构
type countsResponse struct {
	Code    int                  `json:"code"`
	Message string               `json:"message"`
	Data    realtime.BadgeCounts `json:"data"`
}

// Refresher 通过 REST 拉取徽标计数
type Refresher struct {
	client *resty.Client
	logger logger.Logger
}

// NewRefresher 创建刷新器
func NewRefresher(cfg *RefresherConfig, log logger.Logger) (*Refresher, error) {
	merged, err := config.MergeConfig(DefaultRefresherConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if log == nil {
		log = logger.NewNoop()
	}

	client := resty.New().
		SetBaseURL(merged.BaseURL).
		SetTimeout(merged.Timeout).
		SetRetryCount(merged.RetryCount).
		SetRetryWaitTime(merged.RetryWaitTime).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})

	if merged.UserAgent != "" {
		client.SetHeader("User-Agent", merged.UserAgent)
	}

	return &Refresher{client: client, logger: log}, nil
}

// Fetch 拉取当前计数
func (r *Refresher) Fetch(ctx context.Context, token string) (realtime.BadgeCounts, error) {
	var body countsResponse

	resp, err := r.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&body).
		Get(BadgesPath)
	if err != nil {
		return realtime.BadgeCounts{}, fmt.Errorf("badge: fetch counts: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return realtime.BadgeCounts{}, ErrUnauthorized
	case resp.IsError():
		return realtime.BadgeCounts{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	case body.Code != 0:
		return realtime.BadgeCounts{}, fmt.Errorf("%w: code %d: %s", ErrUnexpectedStatus, body.Code, body.Message)
	}

	counts := body.Data
	r.logger.Debug("badge counts fetched", "total", counts.Total(), "duration", resp.Time())
	return counts, nil
}

// Refresh 拉取并写入 store
func (r *Refresher) Refresh(ctx context.Context, token string, store *Store) error {
	counts, err := r.Fetch(ctx, token)
	if err != nil {
		return err
	}
	store.Set(counts)
	return nil
}
