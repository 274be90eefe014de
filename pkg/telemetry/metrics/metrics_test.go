package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/o1x3/ctoken/pkg/config"
	"github.com/o1x3/ctoken/pkg/processing/costs"
	"github.com/o1x3/ctoken/pkg/processing/tokens"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:           true,
		Namespace:         "test",
		TokenCountBuckets: []float64{10, 100, 1000},
		CostBuckets:       []float64{0.001, 0.01, 0.1},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.config != cfg {
		t.Error("Collector config not set correctly")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_NewCollectorDefaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	collector := NewCollector(cfg, nil)

	if collector.Registry() == nil {
		t.Fatal("expected a registry to be created")
	}
	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected namespace %q, got %q", config.DefaultMetricsNamespace, cfg.Namespace)
	}
	if len(cfg.CostBuckets) == 0 || len(cfg.TokenCountBuckets) == 0 {
		t.Error("expected default buckets")
	}
}

func TestCollector_RecordCost(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	usage := costs.Usage{PromptTokens: 1000, CompletionTokens: 200, CachedTokens: 400}
	breakdown := costs.Breakdown{TotalCost: 0.05}

	collector.RecordCost("gpt-4o", usage, breakdown)
	collector.RecordCost("gpt-4o", usage, breakdown)

	if got := testutil.ToFloat64(collector.costMetrics.costTotal.WithLabelValues("gpt-4o")); got != 0.1 {
		t.Errorf("expected cost total 0.1, got %v", got)
	}
	if got := testutil.ToFloat64(collector.costMetrics.billedTokens.WithLabelValues("gpt-4o", "prompt")); got != 1200 {
		t.Errorf("expected 1200 uncached prompt tokens, got %v", got)
	}
	if got := testutil.ToFloat64(collector.costMetrics.billedTokens.WithLabelValues("gpt-4o", "cached")); got != 800 {
		t.Errorf("expected 800 cached tokens, got %v", got)
	}
	if got := testutil.ToFloat64(collector.costMetrics.billedTokens.WithLabelValues("gpt-4o", "completion")); got != 400 {
		t.Errorf("expected 400 completion tokens, got %v", got)
	}
	if n := testutil.CollectAndCount(collector.costMetrics.costPerCall); n != 1 {
		t.Errorf("expected 1 histogram series, got %d", n)
	}
}

func TestCollector_RecordFailure(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordFailure("model_not_found")
	collector.RecordFailure("model_not_found")
	collector.RecordFailure("invalid_request")

	if got := testutil.ToFloat64(collector.costMetrics.failures.WithLabelValues("model_not_found")); got != 2 {
		t.Errorf("expected 2 model_not_found failures, got %v", got)
	}
	if got := testutil.ToFloat64(collector.costMetrics.failures.WithLabelValues("invalid_request")); got != 1 {
		t.Errorf("expected 1 invalid_request failure, got %v", got)
	}
}

func TestCollector_RecordTokens(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordTokens(tokens.KindText, "gpt-4o", 12)
	collector.RecordTokens(tokens.KindConversation, "gpt-4o", 40)
	collector.RecordTokens(tokens.KindText, "", 3)

	if got := testutil.ToFloat64(collector.tokenMetrics.counts.WithLabelValues(tokens.KindText)); got != 2 {
		t.Errorf("expected 2 text counts, got %v", got)
	}
	if got := testutil.ToFloat64(collector.tokenMetrics.tokensCounted.WithLabelValues(tokens.KindConversation, "gpt-4o")); got != 40 {
		t.Errorf("expected 40 conversation tokens, got %v", got)
	}
	if got := testutil.ToFloat64(collector.tokenMetrics.tokensCounted.WithLabelValues(tokens.KindText, "unknown")); got != 3 {
		t.Errorf("expected empty model to be labelled unknown, got %v", got)
	}
}

func TestCollector_RecordPricing(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordResolution("exact-model")
	collector.RecordResolution("prefix")
	collector.RecordResolution("prefix")
	collector.RecordRefresh("remote", nil, 42)
	collector.RecordRefresh("remote", errors.New("timeout"), 42)

	if got := testutil.ToFloat64(collector.pricingMetrics.resolutions.WithLabelValues("prefix")); got != 2 {
		t.Errorf("expected 2 prefix resolutions, got %v", got)
	}
	if got := testutil.ToFloat64(collector.pricingMetrics.refreshes.WithLabelValues("remote", "success")); got != 1 {
		t.Errorf("expected 1 successful refresh, got %v", got)
	}
	if got := testutil.ToFloat64(collector.pricingMetrics.refreshes.WithLabelValues("remote", "error")); got != 1 {
		t.Errorf("expected 1 failed refresh, got %v", got)
	}
	if got := testutil.ToFloat64(collector.pricingMetrics.entries); got != 42 {
		t.Errorf("expected 42 entries, got %v", got)
	}
	if got := testutil.ToFloat64(collector.pricingMetrics.lastRefresh.WithLabelValues("remote", "success")); got <= 0 {
		t.Errorf("expected last refresh timestamp, got %v", got)
	}

	collector.SetTableEntries(7)
	if got := testutil.ToFloat64(collector.pricingMetrics.entries); got != 7 {
		t.Errorf("expected 7 entries, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordCost("gpt-4o", costs.Usage{PromptTokens: 1}, costs.Breakdown{TotalCost: 1})
	collector.RecordFailure("invalid_request")
	collector.RecordTokens(tokens.KindText, "gpt-4o", 1)
	collector.RecordResolution("prefix")
	collector.RecordRefresh("remote", nil, 1)

	if n := testutil.CollectAndCount(collector.costMetrics.costTotal); n != 0 {
		t.Errorf("expected no cost series when disabled, got %d", n)
	}
	if n := testutil.CollectAndCount(collector.tokenMetrics.counts); n != 0 {
		t.Errorf("expected no token series when disabled, got %d", n)
	}
	if n := testutil.CollectAndCount(collector.pricingMetrics.resolutions); n != 0 {
		t.Errorf("expected no resolution series when disabled, got %d", n)
	}
}

func TestCollector_ModelCardinality(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(2)

	for i := 0; i < 5; i++ {
		collector.RecordCost(fmt.Sprintf("model-%d", i), costs.Usage{}, costs.Breakdown{TotalCost: 0.01})
	}

	if n := testutil.CollectAndCount(collector.costMetrics.costTotal); n != 3 {
		t.Errorf("expected 2 models plus %q, got %d series", OtherModel, n)
	}
	if got := testutil.ToFloat64(collector.costMetrics.costTotal.WithLabelValues(OtherModel)); got < 0.029 || got > 0.031 {
		t.Errorf("expected 0.03 aggregated into %q, got %v", OtherModel, got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("a") || !cl.Allow("b") {
		t.Fatal("expected first two values to be allowed")
	}
	if cl.Allow("c") {
		t.Error("expected third value to be rejected")
	}
	if !cl.Allow("a") {
		t.Error("expected existing value to be allowed")
	}
	if cl.Count() != 2 {
		t.Errorf("expected count 2, got %d", cl.Count())
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RegisterRuntimeCollectors()
	collector.RecordResolution("exact-version")

	server := httptest.NewServer(collector.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`test_price_resolutions_total{rule="exact-version"} 1`,
		"go_goroutines",
		"test_process_",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in scrape output", want)
		}
	}
}
