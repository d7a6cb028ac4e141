package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// registerNamed 按名称去重注册，同名指标只允许创建一次
func registerNamed[T prometheus.Collector](c *Client, store *sync.Map, name string, build func() T) (T, error) {
	var zero T
	if c.IsClosed() {
		return zero, ErrClientClosed
	}
	if _, loaded := store.LoadOrStore(name, nil); loaded {
		return zero, ErrMetricExists
	}

	collector := build()
	if err := c.registry.Register(collector); err != nil {
		store.Delete(name)
		return zero, err
	}
	store.Store(name, collector)
	return collector, nil
}

func lookup[T any](store *sync.Map, name string) (T, bool) {
	var zero T
	v, ok := store.Load(name)
	if !ok || v == nil {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// NewCounter 创建并注册 Counter
func (c *Client) NewCounter(name, help string, labels []string) (*prometheus.CounterVec, error) {
	return registerNamed(c, &c.counters, name, func() *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   c.config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: c.config.ConstLabels,
		}, labels)
	})
}

// GetCounter 获取已注册的 Counter
func (c *Client) GetCounter(name string) (*prometheus.CounterVec, bool) {
	return lookup[*prometheus.CounterVec](&c.counters, name)
}

// NewGauge 创建并注册 Gauge
func (c *Client) NewGauge(name, help string, labels []string) (*prometheus.GaugeVec, error) {
	return registerNamed(c, &c.gauges, name, func() *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   c.config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: c.config.ConstLabels,
		}, labels)
	})
}

// GetGauge 获取已注册的 Gauge
func (c *Client) GetGauge(name string) (*prometheus.GaugeVec, bool) {
	return lookup[*prometheus.GaugeVec](&c.gauges, name)
}

// NewHistogram 创建并注册 Histogram，buckets 为空时使用默认分桶
func (c *Client) NewHistogram(name, help string, labels []string, buckets []float64) (*prometheus.HistogramVec, error) {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	return registerNamed(c, &c.histograms, name, func() *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   c.config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: c.config.ConstLabels,
			Buckets:     buckets,
		}, labels)
	})
}

// GetHistogram 获取已注册的 Histogram
func (c *Client) GetHistogram(name string) (*prometheus.HistogramVec, bool) {
	return lookup[*prometheus.HistogramVec](&c.histograms, name)
}

// RegisterCollector 注册自定义采集器
func (c *Client) RegisterCollector(collector prometheus.Collector) error {
	if c.IsClosed() {
		return ErrClientClosed
	}
	return c.registry.Register(collector)
}
