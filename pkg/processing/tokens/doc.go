// Package tokens counts tokens in text, chat messages and conversations.
//
// # Tokenizers
//
// A Tokenizer turns text into a token count for a given model:
//
//   - BPETokenizer: exact counts from the model's byte-pair encoding
//     (o200k_base for gpt-4o and the o-series, cl100k_base for gpt-4 and
//     gpt-3.5). Encoding data is compiled in; nothing is downloaded.
//   - HeuristicTokenizer: characters divided by a per-model ratio (~4 for
//     English). Fast and dependency-free, within a few percent.
//
// # Chat Overhead
//
// Chat models wrap every message in formatting tokens. Counter applies the
// documented overhead:
//
//	message      = 3 + tokens(role) + tokens(content) + tokens(name) + (1 if name)
//	conversation = sum(messages) + 3
//
// gpt-3.5-turbo-0301 uses 4 per message and -1 for a name.
//
// # Usage
//
//	counter := tokens.NewCounter(tokens.NewBPETokenizer("", 0), "gpt-4o")
//
//	n, err := counter.Count([]tokens.Message{
//		{Role: "system", Content: "You are a helpful assistant."},
//		{Role: "user", Content: "Tell me about Paris."},
//	})
//
// Count also accepts decoded JSON (map[string]any and []any in the shape of
// messages). Inputs of any other shape fail with a *TokenCountError wrapping
// ErrUnsupportedInput; they are never counted as zero.
package tokens
