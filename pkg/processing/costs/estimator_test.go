package costs

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/o1x3/ctoken/pkg/pricing"
	"github.com/o1x3/ctoken/pkg/processing/tokens"
)

const epsilon = 1e-12

type wordTokenizer struct{}

func (wordTokenizer) Count(text string, _ string) (int, error) {
	return len(strings.Fields(text)), nil
}

type recordedCost struct {
	model string
	total float64
}

type stubRecorder struct {
	costs    []recordedCost
	failures []string
}

func (r *stubRecorder) RecordCost(model string, _ Usage, b Breakdown) {
	r.costs = append(r.costs, recordedCost{model: model, total: b.TotalCost})
}

func (r *stubRecorder) RecordFailure(reason string) {
	r.failures = append(r.failures, reason)
}

func newTestEstimator(t *testing.T, opts ...Option) *Estimator {
	t.Helper()

	table, err := pricing.NewTable([]pricing.PriceEntry{
		{Model: "test-model", InputCostPer1K: 0.002, CachedInputCostPer1K: 0.001, OutputCostPer1K: 0.004},
		{Model: "gpt-4o-mini", Version: "2024-07-18", InputCostPer1K: 0.00015, CachedInputCostPer1K: 0.000075, OutputCostPer1K: 0.0006},
		{Model: "gpt-4", Version: "0613", InputCostPer1K: 0.03, OutputCostPer1K: 0.06},
	}, pricing.Metadata{Source: "test"})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	return NewEstimator(table, tokens.NewCounter(wordTokenizer{}, ""), opts...)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestEstimator_Estimate(t *testing.T) {
	e := newTestEstimator(t)

	tests := []struct {
		name       string
		model      string
		prompt     int
		completion int
		cached     int
		want       Breakdown
	}{
		{
			name:       "prompt and completion",
			model:      "test-model",
			prompt:     1000,
			completion: 500,
			want: Breakdown{
				PromptCostUncached: 0.002,
				CompletionCost:     0.002,
				TotalCost:          0.004,
			},
		},
		{
			name:       "cached tokens discounted",
			model:      "test-model",
			prompt:     1000,
			completion: 0,
			cached:     400,
			want: Breakdown{
				PromptCostUncached: 0.0012,
				PromptCostCached:   0.0004,
				TotalCost:          0.0016,
			},
		},
		{
			name:       "cached above prompt floors uncached at zero",
			model:      "test-model",
			prompt:     100,
			completion: 0,
			cached:     300,
			want: Breakdown{
				PromptCostUncached: 0,
				PromptCostCached:   0.0003,
				TotalCost:          0.0003,
			},
		},
		{
			name:  "zero tokens cost nothing",
			model: "test-model",
			want:  Breakdown{},
		},
		{
			name:       "model without cached price",
			model:      "gpt-4-0613",
			prompt:     1000,
			completion: 1000,
			cached:     1000,
			want: Breakdown{
				PromptCostUncached: 0,
				PromptCostCached:   0,
				CompletionCost:     0.06,
				TotalCost:          0.06,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := e.Estimate(tt.model, tt.prompt, tt.completion, tt.cached)
			if err != nil {
				t.Fatalf("Estimate() error = %v", err)
			}

			got := report.Breakdown
			if !almostEqual(got.PromptCostUncached, tt.want.PromptCostUncached) ||
				!almostEqual(got.PromptCostCached, tt.want.PromptCostCached) ||
				!almostEqual(got.CompletionCost, tt.want.CompletionCost) ||
				!almostEqual(got.TotalCost, tt.want.TotalCost) {
				t.Errorf("Estimate() = %+v, want %+v", got, tt.want)
			}

			if got.PromptCostUncached < 0 || got.PromptCostCached < 0 || got.CompletionCost < 0 {
				t.Errorf("negative cost component in %+v", got)
			}

			sum := got.PromptCostUncached + got.PromptCostCached + got.CompletionCost
			if !almostEqual(sum, got.TotalCost) {
				t.Errorf("TotalCost = %v, components sum to %v", got.TotalCost, sum)
			}

			if report.Usage.TotalTokens != tt.prompt+tt.completion {
				t.Errorf("TotalTokens = %d, want %d", report.Usage.TotalTokens, tt.prompt+tt.completion)
			}
		})
	}
}

func TestEstimator_EstimateResolution(t *testing.T) {
	e := newTestEstimator(t)

	report, err := e.Estimate("gpt-4o-mini-2024-07-18", 1000, 500, 0)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if report.Model != "gpt-4o-mini-2024-07-18" {
		t.Errorf("Model = %q", report.Model)
	}
	if report.ResolvedModel != "gpt-4o-mini" || report.ResolvedVersion != "2024-07-18" {
		t.Errorf("resolved %s %s", report.ResolvedModel, report.ResolvedVersion)
	}
	if want := 0.00015 + 0.0003; !almostEqual(report.Total(), want) {
		t.Errorf("Total() = %v, want %v", report.Total(), want)
	}
}

func TestEstimator_EstimateErrors(t *testing.T) {
	rec := &stubRecorder{}
	e := newTestEstimator(t, WithRecorder(rec))

	tests := []struct {
		name    string
		model   string
		prompt  int
		wantErr error
	}{
		{"unknown model", "non-existent-model", 10, ErrModelNotFound},
		{"empty model", "", 10, ErrInvalidRequest},
		{"negative tokens", "test-model", -1, ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Estimate(tt.model, tt.prompt, 0, 0)

			var ceErr *CostEstimateError
			if !errors.As(err, &ceErr) {
				t.Fatalf("error %v is not a *CostEstimateError", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v does not match %v", err, tt.wantErr)
			}
		})
	}

	if len(rec.failures) != 3 || rec.failures[0] != "model_not_found" || rec.failures[1] != "invalid_request" {
		t.Errorf("recorded failures = %v", rec.failures)
	}
	if len(rec.costs) != 0 {
		t.Errorf("recorded %d costs for failed estimates", len(rec.costs))
	}
}

func TestEstimator_EstimateFromRequest(t *testing.T) {
	e := newTestEstimator(t)

	t.Run("messages", func(t *testing.T) {
		cost, err := e.EstimateFromRequest(Request{
			Model: "test-model",
			Messages: []tokens.Message{
				{Role: "user", Content: "one two three four"},
			},
			MaxTokens: 1000,
		})
		if err != nil {
			t.Fatalf("EstimateFromRequest() error = %v", err)
		}

		// prompt = 3 + 1 + 4 + 3 = 11 tokens, completion = 1000
		want := 11*0.002/1000 + 1000*0.004/1000
		if !almostEqual(cost, want) {
			t.Errorf("cost = %v, want %v", cost, want)
		}
	})

	t.Run("prompt", func(t *testing.T) {
		cost, err := e.EstimateFromRequest(Request{
			Model:  "test-model",
			Prompt: "one two three four five",
		})
		if err != nil {
			t.Fatalf("EstimateFromRequest() error = %v", err)
		}
		if want := 5 * 0.002 / 1000; !almostEqual(cost, want) {
			t.Errorf("cost = %v, want %v", cost, want)
		}
	})

	errorCases := []struct {
		name string
		req  Request
	}{
		{"no messages or prompt", Request{Model: "test-model", MaxTokens: 10}},
		{"no model", Request{Prompt: "hi"}},
		{"unknown model", Request{Model: "non-existent-model", Prompt: "hi"}},
		{"negative max tokens", Request{Model: "test-model", Prompt: "hi", MaxTokens: -5}},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.EstimateFromRequest(tt.req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error %v does not match ErrInvalidRequest", err)
			}
			var ceErr *CostEstimateError
			if !errors.As(err, &ceErr) {
				t.Errorf("error %v is not a *CostEstimateError", err)
			}
		})
	}

	t.Run("unknown model also matches ErrModelNotFound", func(t *testing.T) {
		_, err := e.EstimateFromRequest(Request{Model: "non-existent-model", Prompt: "hi"})
		if !errors.Is(err, ErrModelNotFound) {
			t.Errorf("error %v does not match ErrModelNotFound", err)
		}
	})
}

func TestEstimator_EstimateFromResponse(t *testing.T) {
	e := newTestEstimator(t)

	t.Run("usage", func(t *testing.T) {
		report, err := e.EstimateFromResponse(Response{
			Model: "gpt-4o-mini-2024-07-18",
			Usage: &Usage{PromptTokens: 1000, CompletionTokens: 500, TotalTokens: 1500},
		})
		if err != nil {
			t.Fatalf("EstimateFromResponse() error = %v", err)
		}
		if report.Usage.TotalTokens != 1500 {
			t.Errorf("TotalTokens = %d, want 1500", report.Usage.TotalTokens)
		}
		rounded := report.Breakdown.Rounded()
		if rounded.PromptCostUncached != 0.00015 || rounded.CompletionCost != 0.0003 || rounded.TotalCost != 0.00045 {
			t.Errorf("Rounded() = %+v", rounded)
		}
	})

	t.Run("provider total trusted as-is", func(t *testing.T) {
		report, err := e.EstimateFromResponse(Response{
			Model: "test-model",
			Usage: &Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 25},
		})
		if err != nil {
			t.Fatal(err)
		}
		if report.Usage.TotalTokens != 25 {
			t.Errorf("TotalTokens = %d, want 25", report.Usage.TotalTokens)
		}
	})

	errorCases := []struct {
		name string
		resp Response
	}{
		{"empty response", Response{}},
		{"missing usage", Response{Model: "test-model"}},
		{"missing model", Response{Usage: &Usage{PromptTokens: 1}}},
		{"negative usage", Response{Model: "test-model", Usage: &Usage{CompletionTokens: -1}}},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.EstimateFromResponse(tt.resp)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error %v does not match ErrInvalidRequest", err)
			}
		})
	}
}

func TestEstimator_CalculateCost(t *testing.T) {
	e := newTestEstimator(t)

	if got, want := e.CalculateCost("test-model", 1000, 500), 0.004; !almostEqual(got, want) {
		t.Errorf("CalculateCost() = %v, want %v", got, want)
	}
	if got := e.CalculateCost("non-existent-model", 1000, 500); got != 0 {
		t.Errorf("CalculateCost(unknown) = %v, want 0", got)
	}
	if got := e.CalculateCost("test-model", 0, 0); got != 0 {
		t.Errorf("CalculateCost(0, 0) = %v, want 0", got)
	}
}

func TestEstimator_CalculateTotalCost(t *testing.T) {
	e := newTestEstimator(t)

	tests := []struct {
		name  string
		usage map[string]ModelUsage
		want  float64
	}{
		{"empty", map[string]ModelUsage{}, 0},
		{"nil", nil, 0},
		{
			name: "several models",
			usage: map[string]ModelUsage{
				"test-model": {InputTokens: 1000, OutputTokens: 500},
				"gpt-4":      {InputTokens: 1000, OutputTokens: 1000},
			},
			want: 0.004 + 0.09,
		},
		{
			name: "unknown model contributes zero",
			usage: map[string]ModelUsage{
				"test-model":         {InputTokens: 1000, OutputTokens: 500},
				"non-existent-model": {InputTokens: 1000, OutputTokens: 500},
			},
			want: 0.004,
		},
		{
			name: "cached tokens honored",
			usage: map[string]ModelUsage{
				"test-model": {InputTokens: 1000, CachedTokens: 1000},
			},
			want: 0.001,
		},
		{
			name: "only unknown models",
			usage: map[string]ModelUsage{
				"nope": {InputTokens: 1},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.CalculateTotalCost(tt.usage); !almostEqual(got, tt.want) {
				t.Errorf("CalculateTotalCost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEstimator_TracksPriceChanges(t *testing.T) {
	store := pricing.NewStore(nil)
	e := NewEstimator(store, tokens.NewCounter(wordTokenizer{}, ""))

	before := e.CalculateCost("gpt-4o-mini", 1000, 0)

	doubled, err := pricing.NewTable([]pricing.PriceEntry{
		{Model: "gpt-4o-mini", InputCostPer1K: 0.0003, OutputCostPer1K: 0.0012},
	}, pricing.Metadata{})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Replace(doubled); err != nil {
		t.Fatal(err)
	}

	after := e.CalculateCost("gpt-4o-mini", 1000, 0)
	if !almostEqual(after, 2*before) {
		t.Errorf("cost after swap = %v, want %v", after, 2*before)
	}
}

func TestBreakdown_Rounded(t *testing.T) {
	b := Breakdown{
		PromptCostUncached: 0.00000049,
		PromptCostCached:   0.0000006,
		CompletionCost:     1.23456789,
		TotalCost:          1.2345688,
	}
	got := b.Rounded()

	if got.PromptCostUncached != 0 {
		t.Errorf("PromptCostUncached = %v, want 0", got.PromptCostUncached)
	}
	if got.PromptCostCached != 0.000001 {
		t.Errorf("PromptCostCached = %v, want 0.000001", got.PromptCostCached)
	}
	if got.CompletionCost != 1.234568 {
		t.Errorf("CompletionCost = %v, want 1.234568", got.CompletionCost)
	}
	if b.CompletionCost != 1.23456789 {
		t.Error("Rounded mutated the receiver")
	}
}

func TestReport_Rounded(t *testing.T) {
	r := &Report{
		Model:         "gpt-4o-mini",
		ResolvedModel: "gpt-4o-mini",
		Usage:         Usage{PromptTokens: 7, TotalTokens: 7},
		Breakdown:     Breakdown{PromptCostUncached: 0.00000105, TotalCost: 0.00000105},
	}
	got := r.Rounded()

	if got.Total() != 0.000001 {
		t.Errorf("Total() = %v, want 0.000001", got.Total())
	}
	if got.Model != r.Model || got.Usage != r.Usage {
		t.Errorf("Rounded changed identity fields: %+v", got)
	}
	if r.Breakdown.TotalCost != 0.00000105 {
		t.Error("Rounded mutated the receiver")
	}
}
