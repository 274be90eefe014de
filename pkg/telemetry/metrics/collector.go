package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/o1x3/ctoken/pkg/config"
	"github.com/o1x3/ctoken/pkg/pricing"
	"github.com/o1x3/ctoken/pkg/processing/costs"
	"github.com/o1x3/ctoken/pkg/processing/tokens"
)

// OtherModel is the label used once the model cardinality limit is reached.
const OtherModel = "other"

// DefaultMaxModels bounds the number of distinct model label values.
const DefaultMaxModels = 500

// Collector owns every ctoken Prometheus metric. It implements
// pricing.Recorder, costs.Recorder and tokens.Recorder, so one instance can
// be handed to the store, the estimator and the counter.
//
// Model names come from caller input, so they pass through a
// CardinalityLimiter before being used as label values.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	costMetrics    *CostMetrics
	tokenMetrics   *TokenMetrics
	pricingMetrics *PricingMetrics

	cardinalityLimiter *CardinalityLimiter
}

var (
	_ pricing.Recorder = (*Collector)(nil)
	_ costs.Recorder   = (*Collector)(nil)
	_ tokens.Recorder  = (*Collector)(nil)
)

// NewCollector creates a metrics collector registered on registry. If
// registry is nil a fresh one is created.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	store := pricing.NewStore(nil, pricing.WithRecorder(collector))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.TokenCountBuckets) == 0 {
		cfg.TokenCountBuckets = []float64{10, 100, 500, 1000, 5000, 10000, 50000, 100000}
	}
	if len(cfg.CostBuckets) == 0 {
		cfg.CostBuckets = []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		costMetrics:        NewCostMetrics(cfg, registry),
		tokenMetrics:       NewTokenMetrics(cfg, registry),
		pricingMetrics:     NewPricingMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(DefaultMaxModels),
	}
}

// RegisterRuntimeCollectors adds the Go runtime and process collectors.
func (c *Collector) RegisterRuntimeCollectors() {
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: c.config.Namespace}),
	)
}

// RecordCost implements costs.Recorder.
func (c *Collector) RecordCost(model string, usage costs.Usage, breakdown costs.Breakdown) {
	if !c.config.Enabled {
		return
	}

	c.costMetrics.RecordCost(c.modelLabel(model), usage, breakdown)
}

// RecordFailure implements costs.Recorder.
func (c *Collector) RecordFailure(reason string) {
	if !c.config.Enabled {
		return
	}

	c.costMetrics.RecordFailure(reason)
}

// RecordTokens implements tokens.Recorder.
func (c *Collector) RecordTokens(kind string, model string, n int) {
	if !c.config.Enabled {
		return
	}

	c.tokenMetrics.RecordCount(kind, c.modelLabel(model), n)
}

// RecordResolution implements pricing.Recorder.
func (c *Collector) RecordResolution(rule string) {
	if !c.config.Enabled {
		return
	}

	c.pricingMetrics.RecordResolution(rule)
}

// RecordRefresh implements pricing.Recorder.
func (c *Collector) RecordRefresh(source string, err error, entries int) {
	if !c.config.Enabled {
		return
	}

	c.pricingMetrics.RecordRefresh(source, err, entries)
}

// SetTableEntries sets the current table size, for use before the first
// refresh.
func (c *Collector) SetTableEntries(n int) {
	if !c.config.Enabled {
		return
	}

	c.pricingMetrics.entries.Set(float64(n))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) modelLabel(model string) string {
	if model == "" {
		return "unknown"
	}
	if !c.cardinalityLimiter.Allow(model) {
		return OtherModel
	}
	return model
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label value is allowed. Returns true if the value
// already exists or if the limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
