package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Encoding names.
const (
	EncodingO200K  = "o200k_base"
	EncodingCL100K = "cl100k_base"
	EncodingP50K   = "p50k_base"
	EncodingR50K   = "r50k_base"
)

// DefaultEncoding is used for models with no known encoding.
const DefaultEncoding = EncodingO200K

// DefaultCacheSize bounds the model-to-encoding memo.
const DefaultCacheSize = 100

// encodingPrefixes maps model name prefixes to encodings. Longer prefixes are
// listed before the shorter ones they extend.
var encodingPrefixes = []struct {
	prefix   string
	encoding string
}{
	{"gpt-4o", EncodingO200K},
	{"gpt-4.1", EncodingO200K},
	{"gpt-4.5", EncodingO200K},
	{"chatgpt-4o", EncodingO200K},
	{"o1", EncodingO200K},
	{"o3", EncodingO200K},
	{"o4", EncodingO200K},
	{"computer-use", EncodingO200K},
	{"gpt-4", EncodingCL100K},
	{"gpt-3.5", EncodingCL100K},
	{"davinci-002", EncodingCL100K},
	{"babbage-002", EncodingCL100K},
	{"text-embedding", EncodingCL100K},
	{"text-davinci-002", EncodingP50K},
	{"text-davinci-003", EncodingP50K},
	{"code-davinci", EncodingP50K},
	{"davinci", EncodingR50K},
	{"curie", EncodingR50K},
	{"babbage", EncodingR50K},
	{"ada", EncodingR50K},
}

var loaderOnce sync.Once

// useOfflineLoader makes tiktoken read BPE ranks from the files compiled into
// tiktoken-go-loader instead of downloading them.
func useOfflineLoader() {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
}

// BPETokenizer counts tokens with the model's byte-pair encoding.
type BPETokenizer struct {
	defaultEncoding string
	cacheSize       int

	mu        sync.RWMutex
	encodings map[string]*tiktoken.Tiktoken
	models    map[string]string
}

// NewBPETokenizer creates a BPE tokenizer. Unknown models use
// defaultEncoding (DefaultEncoding when empty).
func NewBPETokenizer(defaultEncoding string, cacheSize int) *BPETokenizer {
	useOfflineLoader()

	if defaultEncoding == "" {
		defaultEncoding = DefaultEncoding
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	return &BPETokenizer{
		defaultEncoding: defaultEncoding,
		cacheSize:       cacheSize,
		encodings:       make(map[string]*tiktoken.Tiktoken),
		models:          make(map[string]string),
	}
}

// Count returns the number of BPE tokens in text.
func (t *BPETokenizer) Count(text string, model string) (int, error) {
	if text == "" {
		return 0, nil
	}

	enc, err := t.encoder(t.EncodingFor(model))
	if err != nil {
		return 0, err
	}

	return len(enc.Encode(text, nil, nil)), nil
}

// EncodingFor returns the encoding name used for model.
func (t *BPETokenizer) EncodingFor(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))

	t.mu.RLock()
	name, ok := t.models[model]
	t.mu.RUnlock()
	if ok {
		return name
	}

	name = t.defaultEncoding
	for _, p := range encodingPrefixes {
		if strings.HasPrefix(model, p.prefix) {
			name = p.encoding
			break
		}
	}

	t.mu.Lock()
	if len(t.models) >= t.cacheSize {
		clear(t.models)
	}
	t.models[model] = name
	t.mu.Unlock()

	return name
}

func (t *BPETokenizer) encoder(name string) (*tiktoken.Tiktoken, error) {
	t.mu.RLock()
	enc, ok := t.encodings[name]
	t.mu.RUnlock()
	if ok {
		return enc, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if enc, ok := t.encodings[name]; ok {
		return enc, nil
	}

	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("loading encoding %q: %w", name, err)
	}
	t.encodings[name] = enc

	return enc, nil
}
