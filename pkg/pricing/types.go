package pricing

import (
	"fmt"
	"strings"
	"time"
)

// LatestVersion is the version assigned to entries declared without one.
const LatestVersion = "latest"

// PriceEntry is the price of one model snapshot in USD per 1000 tokens.
// Entries are values and are never mutated after a Table is built.
type PriceEntry struct {
	// Model is the base model name (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// Version is the dated snapshot (e.g. "2024-07-18") or "latest".
	Version string `json:"version" yaml:"version"`

	// InputCostPer1K is the cost per 1000 uncached prompt tokens.
	InputCostPer1K float64 `json:"input_cost_per_1k" yaml:"input_cost_per_1k"`

	// CachedInputCostPer1K is the cost per 1000 cached prompt tokens.
	// Zero when the vendor does not discount cached input for the model.
	CachedInputCostPer1K float64 `json:"cached_input_cost_per_1k" yaml:"cached_input_cost_per_1k"`

	// OutputCostPer1K is the cost per 1000 completion tokens.
	OutputCostPer1K float64 `json:"output_cost_per_1k" yaml:"output_cost_per_1k"`
}

// ID returns the full model identifier, "model-version", or just the model
// for "latest" entries.
func (e PriceEntry) ID() string {
	if e.Version == "" || e.Version == LatestVersion {
		return e.Model
	}
	return e.Model + "-" + e.Version
}

func (e PriceEntry) validate() error {
	if strings.TrimSpace(e.Model) == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if e.InputCostPer1K < 0 || e.CachedInputCostPer1K < 0 || e.OutputCostPer1K < 0 {
		return fmt.Errorf("model %q: prices cannot be negative", e.ID())
	}
	return nil
}

// Rule identifies which matching step resolved a model identifier.
type Rule string

const (
	// RuleExactVersion matched a (model, version) pair exactly.
	RuleExactVersion Rule = "exact-version"

	// RuleExactModel matched a model name against a "latest" entry.
	RuleExactModel Rule = "exact-model"

	// RulePrefix matched the longest model name that prefixes the input.
	RulePrefix Rule = "prefix"

	// RuleMiss is reported to recorders when nothing matched.
	RuleMiss Rule = "miss"
)

// Resolution is the outcome of resolving a free-form model identifier.
type Resolution struct {
	// Entry is the matched price entry.
	Entry PriceEntry

	// Rule is the matching step that produced Entry.
	Rule Rule

	// Input is the normalized identifier that was resolved.
	Input string
}

// Metadata describes where a Table came from.
type Metadata struct {
	// Source names the loader ("embedded", "csv:/path", "remote:https://...").
	Source string

	// LoadedAt is when the table was built.
	LoadedAt time.Time
}
