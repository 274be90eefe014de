package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/o1x3/ctoken/pkg/config"
)

// TokenMetrics tracks local token counting.
//
// Metrics:
//   - ctoken_token_counts_total: count operations by kind
//   - ctoken_tokens_counted_total: tokens counted by kind and model
//   - ctoken_token_count_size: tokens per count operation (histogram)
type TokenMetrics struct {
	counts        *prometheus.CounterVec
	tokensCounted *prometheus.CounterVec
	size          *prometheus.HistogramVec
}

// NewTokenMetrics creates and registers token metrics with the provided registry.
func NewTokenMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *TokenMetrics {
	tm := &TokenMetrics{
		counts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "token_counts_total",
				Help:      "Token count operations by kind (text, message, conversation)",
			},
			[]string{"kind"},
		),

		tokensCounted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "tokens_counted_total",
				Help:      "Tokens counted locally by kind and model",
			},
			[]string{"kind", "model"},
		),

		size: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "token_count_size",
				Help:      "Tokens per count operation",
				Buckets:   cfg.TokenCountBuckets,
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(tm.counts, tm.tokensCounted, tm.size)

	return tm
}

// RecordCount records one count operation.
func (tm *TokenMetrics) RecordCount(kind, model string, n int) {
	tm.counts.WithLabelValues(kind).Inc()
	tm.tokensCounted.WithLabelValues(kind, model).Add(float64(n))
	tm.size.WithLabelValues(kind).Observe(float64(n))
}
