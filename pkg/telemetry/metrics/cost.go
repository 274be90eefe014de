package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/o1x3/ctoken/pkg/config"
	"github.com/o1x3/ctoken/pkg/processing/costs"
)

// CostMetrics tracks estimated spend.
//
// Metrics:
//   - ctoken_cost_usd_total: estimated cost in USD by model
//   - ctoken_cost_per_call_usd: cost distribution per estimate
//   - ctoken_billed_tokens_total: tokens priced by model and kind
//   - ctoken_estimate_failures_total: failed estimates by reason
type CostMetrics struct {
	costTotal    *prometheus.CounterVec
	costPerCall  *prometheus.HistogramVec
	billedTokens *prometheus.CounterVec
	failures     *prometheus.CounterVec
}

// NewCostMetrics creates and registers cost metrics with the provided registry.
func NewCostMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CostMetrics {
	cm := &CostMetrics{
		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "cost_usd_total",
				Help:      "Estimated cost in USD by model",
			},
			[]string{"model"},
		),

		costPerCall: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "cost_per_call_usd",
				Help:      "Estimated cost distribution per call in USD",
				Buckets:   cfg.CostBuckets,
			},
			[]string{"model"},
		),

		billedTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "billed_tokens_total",
				Help:      "Tokens priced by model and kind (prompt, cached, completion)",
			},
			[]string{"model", "kind"},
		),

		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "estimate_failures_total",
				Help:      "Failed cost estimates by reason",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		cm.costTotal,
		cm.costPerCall,
		cm.billedTokens,
		cm.failures,
	)

	return cm
}

// RecordCost records one successful estimate.
func (cm *CostMetrics) RecordCost(model string, usage costs.Usage, breakdown costs.Breakdown) {
	cm.costTotal.WithLabelValues(model).Add(breakdown.TotalCost)
	cm.costPerCall.WithLabelValues(model).Observe(breakdown.TotalCost)

	uncached := usage.PromptTokens - usage.CachedTokens
	if uncached < 0 {
		uncached = 0
	}
	cm.billedTokens.WithLabelValues(model, "prompt").Add(float64(uncached))
	cm.billedTokens.WithLabelValues(model, "cached").Add(float64(usage.CachedTokens))
	cm.billedTokens.WithLabelValues(model, "completion").Add(float64(usage.CompletionTokens))
}

// RecordFailure records one failed estimate.
func (cm *CostMetrics) RecordFailure(reason string) {
	cm.failures.WithLabelValues(reason).Inc()
}
