package pricing

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"
)

// Pricing data in USD per 1000 tokens, mirrored in data/openai_text_tokens_pricing.csv
// (which uses the vendor's per-1M notation). Keep both in sync; the tests
// compare them.
var defaultEntries = []PriceEntry{
	{Model: "gpt-4.1", Version: "2025-04-14", InputCostPer1K: 0.002, CachedInputCostPer1K: 0.0005, OutputCostPer1K: 0.008},
	{Model: "gpt-4.1-mini", Version: "2025-04-14", InputCostPer1K: 0.0004, CachedInputCostPer1K: 0.0001, OutputCostPer1K: 0.0016},
	{Model: "gpt-4.1-nano", Version: "2025-04-14", InputCostPer1K: 0.0001, CachedInputCostPer1K: 0.000025, OutputCostPer1K: 0.0004},
	{Model: "gpt-4.5-preview", Version: "2025-02-27", InputCostPer1K: 0.075, CachedInputCostPer1K: 0.0375, OutputCostPer1K: 0.15},
	{Model: "gpt-4o", Version: "2024-08-06", InputCostPer1K: 0.0025, CachedInputCostPer1K: 0.00125, OutputCostPer1K: 0.01},
	{Model: "gpt-4o", Version: "2024-11-20", InputCostPer1K: 0.0025, CachedInputCostPer1K: 0.00125, OutputCostPer1K: 0.01},
	{Model: "gpt-4o", Version: "2024-05-13", InputCostPer1K: 0.005, OutputCostPer1K: 0.015},
	{Model: "gpt-4o-audio-preview", Version: "2024-12-17", InputCostPer1K: 0.0025, OutputCostPer1K: 0.01},
	{Model: "gpt-4o-realtime-preview", Version: "2024-12-17", InputCostPer1K: 0.005, CachedInputCostPer1K: 0.0025, OutputCostPer1K: 0.02},
	{Model: "gpt-4o-mini", Version: "2024-07-18", InputCostPer1K: 0.00015, CachedInputCostPer1K: 0.000075, OutputCostPer1K: 0.0006},
	{Model: "gpt-4o-mini-audio-preview", Version: "2024-12-17", InputCostPer1K: 0.00015, OutputCostPer1K: 0.0006},
	{Model: "gpt-4o-mini-realtime-preview", Version: "2024-12-17", InputCostPer1K: 0.0006, CachedInputCostPer1K: 0.0003, OutputCostPer1K: 0.0024},
	{Model: "gpt-4o-search-preview", Version: "2025-03-11", InputCostPer1K: 0.0025, OutputCostPer1K: 0.01},
	{Model: "gpt-4o-mini-search-preview", Version: "2025-03-11", InputCostPer1K: 0.00015, OutputCostPer1K: 0.0006},
	{Model: "o1", Version: "2024-12-17", InputCostPer1K: 0.015, CachedInputCostPer1K: 0.0075, OutputCostPer1K: 0.06},
	{Model: "o1-pro", Version: "2025-03-19", InputCostPer1K: 0.15, OutputCostPer1K: 0.6},
	{Model: "o1-mini", Version: "2024-09-12", InputCostPer1K: 0.0011, CachedInputCostPer1K: 0.00055, OutputCostPer1K: 0.0044},
	{Model: "o3", Version: "2025-04-16", InputCostPer1K: 0.01, CachedInputCostPer1K: 0.0025, OutputCostPer1K: 0.04},
	{Model: "o3-mini", Version: "2025-01-31", InputCostPer1K: 0.0011, CachedInputCostPer1K: 0.00055, OutputCostPer1K: 0.0044},
	{Model: "o4-mini", Version: "2025-04-16", InputCostPer1K: 0.0011, CachedInputCostPer1K: 0.000275, OutputCostPer1K: 0.0044},
	{Model: "computer-use-preview", Version: "2025-03-11", InputCostPer1K: 0.003, OutputCostPer1K: 0.012},
	{Model: "chatgpt-4o-latest", Version: LatestVersion, InputCostPer1K: 0.005, OutputCostPer1K: 0.015},
	{Model: "gpt-4-turbo", Version: "2024-04-09", InputCostPer1K: 0.01, OutputCostPer1K: 0.03},
	{Model: "gpt-4-vision-preview", Version: LatestVersion, InputCostPer1K: 0.01, OutputCostPer1K: 0.03},
	{Model: "gpt-4", Version: "0613", InputCostPer1K: 0.03, OutputCostPer1K: 0.06},
	{Model: "gpt-4-32k", Version: LatestVersion, InputCostPer1K: 0.06, OutputCostPer1K: 0.12},
	{Model: "gpt-3.5-turbo", Version: "0125", InputCostPer1K: 0.0005, OutputCostPer1K: 0.0015},
	{Model: "gpt-3.5-turbo-instruct", Version: LatestVersion, InputCostPer1K: 0.0015, OutputCostPer1K: 0.002},
	{Model: "gpt-3.5-turbo-16k", Version: "0613", InputCostPer1K: 0.003, OutputCostPer1K: 0.004},
	{Model: "davinci-002", Version: LatestVersion, InputCostPer1K: 0.002, OutputCostPer1K: 0.002},
	{Model: "babbage-002", Version: LatestVersion, InputCostPer1K: 0.0004, OutputCostPer1K: 0.0004},
}

//go:embed data/openai_text_tokens_pricing.csv
var embeddedCSV []byte

// SourceEmbedded is the Metadata.Source of the built-in table.
const SourceEmbedded = "embedded"

// EmbeddedTable returns the built-in price table. It panics if the literal is
// invalid, which the package tests rule out.
func EmbeddedTable() *Table {
	t, err := NewTable(defaultEntries, Metadata{Source: SourceEmbedded, LoadedAt: time.Now().UTC()})
	if err != nil {
		panic(fmt.Sprintf("pricing: invalid embedded table: %v", err))
	}
	return t
}

// EmbeddedCSV returns a copy of the bundled CSV mirror of the built-in table.
func EmbeddedCSV() []byte {
	return bytes.Clone(embeddedCSV)
}

// EmbeddedCSVTable parses the bundled CSV mirror.
func EmbeddedCSVTable() (*Table, error) {
	return ParseCSV(bytes.NewReader(embeddedCSV), Metadata{Source: SourceEmbedded + ":csv"})
}
