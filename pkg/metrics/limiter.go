package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LimiterStats reports the state of a token-bucket limiter.
type LimiterStats interface {
	GetStats() (available, capacity int, rateDuration time.Duration)
}

// LimiterCollector exposes the node request limiter. Nothing is reported when
// limiting is disabled.
type LimiterCollector struct {
	limiter LimiterStats

	available *prometheus.Desc
	burst     *prometheus.Desc
	rate      *prometheus.Desc
}

func NewLimiterCollector(chain string, limiter LimiterStats) *LimiterCollector {
	labels := prometheus.Labels{"chain": chain}
	return &LimiterCollector{
		limiter:   limiter,
		available: prometheus.NewDesc("payment_indexer_rpc_tokens_available", "Node requests that can be sent without waiting", nil, labels),
		burst:     prometheus.NewDesc("payment_indexer_rpc_burst", "Node request burst size", nil, labels),
		rate:      prometheus.NewDesc("payment_indexer_rpc_requests_per_second", "Sustained node request rate", nil, labels),
	}
}

func (c *LimiterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.available
	ch <- c.burst
	ch <- c.rate
}

func (c *LimiterCollector) Collect(ch chan<- prometheus.Metric) {
	available, capacity, interval := c.limiter.GetStats()
	if capacity == 0 || interval <= 0 {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(available))
	ch <- prometheus.MustNewConstMetric(c.burst, prometheus.GaugeValue, float64(capacity))
	ch <- prometheus.MustNewConstMetric(c.rate, prometheus.GaugeValue, float64(time.Second)/float64(interval))
}
