package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/o1x3/ctoken/pkg/config"
)

// PricingMetrics tracks the price table.
//
// Metrics:
//   - ctoken_price_resolutions_total: lookups by matching rule
//   - ctoken_pricing_refresh_total: refresh attempts by source and status
//   - ctoken_pricing_entries: entries in the current table
//   - ctoken_pricing_last_refresh_timestamp_seconds: last attempt by source and status
type PricingMetrics struct {
	resolutions *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	entries     prometheus.Gauge
	lastRefresh *prometheus.GaugeVec
}

// NewPricingMetrics creates and registers pricing metrics with the provided registry.
func NewPricingMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PricingMetrics {
	pm := &PricingMetrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "price_resolutions_total",
				Help:      "Price lookups by matching rule (exact-version, exact-model, prefix, miss)",
			},
			[]string{"rule"},
		),

		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "pricing_refresh_total",
				Help:      "Pricing refresh attempts by source and status",
			},
			[]string{"source", "status"},
		),

		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "pricing_entries",
				Help:      "Number of entries in the current price table",
			},
		),

		lastRefresh: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "pricing_last_refresh_timestamp_seconds",
				Help:      "Unix time of the last refresh attempt by source and status",
			},
			[]string{"source", "status"},
		),
	}

	registry.MustRegister(pm.resolutions, pm.refreshes, pm.entries, pm.lastRefresh)

	return pm
}

// RecordResolution records one price lookup.
func (pm *PricingMetrics) RecordResolution(rule string) {
	pm.resolutions.WithLabelValues(rule).Inc()
}

// RecordRefresh records one refresh attempt.
func (pm *PricingMetrics) RecordRefresh(source string, err error, entries int) {
	status := "success"
	if err != nil {
		status = "error"
	}

	pm.refreshes.WithLabelValues(source, status).Inc()
	pm.lastRefresh.WithLabelValues(source, status).Set(float64(time.Now().Unix()))
	pm.entries.Set(float64(entries))
}
