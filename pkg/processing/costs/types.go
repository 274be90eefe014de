package costs

import (
	"math"

	"github.com/o1x3/ctoken/pkg/processing/tokens"
)

// displayPrecision is the number of decimal places Rounded keeps.
const displayPrecision = 6

// Usage contains token counts for one API call, as reported by the provider
// or computed locally.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens used. Provider-supplied
	// totals are trusted as-is; zero means PromptTokens + CompletionTokens.
	TotalTokens int `json:"total_tokens"`

	// CachedTokens is the number of prompt tokens served from the cache.
	CachedTokens int `json:"cached_tokens"`
}

func (u Usage) validate() error {
	if u.PromptTokens < 0 || u.CompletionTokens < 0 || u.TotalTokens < 0 || u.CachedTokens < 0 {
		return errNegativeTokens
	}
	return nil
}

// Breakdown is the cost of one call in USD at full precision.
type Breakdown struct {
	// PromptCostUncached is the cost of prompt tokens billed at the full rate.
	PromptCostUncached float64 `json:"prompt_cost_uncached"`

	// PromptCostCached is the cost of prompt tokens billed at the cached rate.
	PromptCostCached float64 `json:"prompt_cost_cached"`

	// CompletionCost is the cost of completion tokens.
	CompletionCost float64 `json:"completion_cost"`

	// TotalCost is the sum of the three.
	TotalCost float64 `json:"total_cost"`
}

// Rounded returns a copy rounded to six decimal places for display.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		PromptCostUncached: round(b.PromptCostUncached),
		PromptCostCached:   round(b.PromptCostCached),
		CompletionCost:     round(b.CompletionCost),
		TotalCost:          round(b.TotalCost),
	}
}

func round(v float64) float64 {
	p := math.Pow10(displayPrecision)
	return math.Round(v*p) / p
}

// Report is the full result of pricing a call: what was asked for, which
// price entry answered, the token counts and the cost breakdown.
type Report struct {
	// Model is the identifier as given by the caller or response.
	Model string `json:"model"`

	// ResolvedModel and ResolvedVersion name the price entry used.
	ResolvedModel   string `json:"resolved_model"`
	ResolvedVersion string `json:"resolved_version"`

	Usage     Usage     `json:"usage"`
	Breakdown Breakdown `json:"cost"`
}

// Total returns the total cost in USD.
func (r *Report) Total() float64 {
	return r.Breakdown.TotalCost
}

// Rounded returns a copy of r with its breakdown rounded for display.
func (r *Report) Rounded() *Report {
	out := *r
	out.Breakdown = r.Breakdown.Rounded()
	return &out
}

// Request is a not-yet-sent chat or completion request. Exactly one of
// Messages or Prompt is normally set.
type Request struct {
	Model    string
	Messages []tokens.Message
	Prompt   string

	// MaxTokens is the worst-case completion size.
	MaxTokens int
}

// Response is the part of an API response that carries billing data.
type Response struct {
	Model string
	Usage *Usage
}

// ModelUsage is one model's token totals in an aggregation.
type ModelUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	CachedTokens int `json:"cached_tokens"`
}
