package tokens

import (
	"strings"
)

// DefaultCharsPerToken is used when no configured ratio matches a model.
const DefaultCharsPerToken = 4.0

// HeuristicTokenizer estimates tokens from the character count and a
// model-specific characters-per-token ratio. It needs no encoding data and is
// typically within 5% of the real count for English text.
type HeuristicTokenizer struct {
	ratios map[string]float64
}

// NewHeuristicTokenizer creates a heuristic tokenizer. ratios maps model name
// prefixes to characters per token; the "default" key overrides
// DefaultCharsPerToken.
func NewHeuristicTokenizer(ratios map[string]float64) *HeuristicTokenizer {
	copied := make(map[string]float64, len(ratios))
	for k, v := range ratios {
		if v > 0 {
			copied[strings.ToLower(k)] = v
		}
	}
	return &HeuristicTokenizer{ratios: copied}
}

// Count estimates tokens for text.
func (t *HeuristicTokenizer) Count(text string, model string) (int, error) {
	if text == "" {
		return 0, nil
	}

	charCount := len([]rune(text))
	tokens := float64(charCount) / t.charsPerToken(model)
	if tokens < 1.0 {
		tokens = 1.0 // Minimum 1 token for non-empty text
	}

	return int(tokens + 0.5), nil
}

// charsPerToken returns the ratio of the longest configured prefix of model,
// then the "default" ratio, then DefaultCharsPerToken.
func (t *HeuristicTokenizer) charsPerToken(model string) float64 {
	model = strings.ToLower(strings.TrimSpace(model))

	if ratio, ok := t.ratios[model]; ok {
		return ratio
	}

	best := ""
	for pattern := range t.ratios {
		if pattern != "default" && strings.HasPrefix(model, pattern) && len(pattern) > len(best) {
			best = pattern
		}
	}
	if best != "" {
		return t.ratios[best]
	}

	if ratio, ok := t.ratios["default"]; ok {
		return ratio
	}

	return DefaultCharsPerToken
}
