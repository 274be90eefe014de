package tokens

import (
	"fmt"

	"github.com/o1x3/ctoken/pkg/config"
)

// Tokenizer counts the tokens a model's tokenizer produces for a text.
// Implementations must be safe for concurrent use.
type Tokenizer interface {
	// Count returns the number of tokens in text for model. Empty text is 0.
	Count(text string, model string) (int, error)
}

// Tokenizer kinds accepted by NewTokenizer.
const (
	KindBPE       = "bpe"
	KindHeuristic = "heuristic"
)

// NewTokenizer builds the tokenizer selected by cfg.Tokenizer.
func NewTokenizer(cfg *config.TokensConfig) (Tokenizer, error) {
	switch cfg.Tokenizer {
	case "", KindBPE:
		return NewBPETokenizer(cfg.DefaultEncoding, cfg.CacheSize), nil
	case KindHeuristic:
		return NewHeuristicTokenizer(cfg.Models), nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q (must be %q or %q)", cfg.Tokenizer, KindBPE, KindHeuristic)
	}
}
