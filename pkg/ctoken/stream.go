package ctoken

import (
	"fmt"
	"strings"

	"github.com/o1x3/ctoken/pkg/processing/costs"
	"github.com/o1x3/ctoken/pkg/processing/tokens"
)

// accumulate folds a chunk sequence into a single response. The model comes
// from the first chunk that names one and the usage from the last chunk that
// carries it. Without any usage the concatenated deltas are counted as the
// completion and the prompt is left at zero.
func (s ChunkSequence) accumulate(counter *tokens.Counter) (costs.Response, error) {
	if len(s) == 0 {
		return costs.Response{}, fmt.Errorf("%w: empty chunk sequence", costs.ErrInvalidRequest)
	}

	var (
		model string
		usage *costs.Usage
		text  strings.Builder
	)
	for _, c := range s {
		if model == "" && c.Model != "" {
			model = c.Model
		}
		if c.Usage != nil {
			usage = c.Usage
		}
		text.WriteString(c.Delta)
	}

	if model == "" {
		return costs.Response{}, fmt.Errorf("%w: no chunk names a model", costs.ErrInvalidRequest)
	}
	if usage != nil {
		u := *usage
		return costs.Response{Model: model, Usage: &u}, nil
	}

	completion, err := counter.ForModel(model).CountText(text.String())
	if err != nil {
		return costs.Response{}, err
	}

	return costs.Response{
		Model: model,
		Usage: &costs.Usage{
			CompletionTokens: completion,
			TotalTokens:      completion,
		},
	}, nil
}
