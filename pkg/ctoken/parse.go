package ctoken

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/o1x3/ctoken/pkg/processing/costs"
	"github.com/o1x3/ctoken/pkg/processing/tokens"
)

// maxSSELine bounds a single SSE line.
const maxSSELine = 1024 * 1024

// ParseInput inspects raw JSON and returns the matching Input:
//
//   - an array is a chunk sequence
//   - an object with "usage" (or a Responses API "response" envelope) is a
//     response; both chat (prompt_tokens/completion_tokens) and Responses API
//     (input_tokens/output_tokens) usage fields are understood
//   - an object with "messages", "prompt" or token counts but no usage is an
//     explicit request
//   - an object with only a "model" is a response without usage, which
//     Calculate rejects
//
// null fails with costs.ErrNilInput; anything else with costs.ErrInvalidRequest.
func ParseInput(data []byte) (Input, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nilInput()
	}
	if !gjson.ValidBytes(data) {
		return nil, invalidInput("malformed JSON")
	}

	root := gjson.ParseBytes(data)
	switch {
	case root.Type == gjson.Null:
		return nil, nilInput()
	case root.IsArray():
		var seq ChunkSequence
		for i, item := range root.Array() {
			if !item.IsObject() {
				return nil, invalidInput(fmt.Sprintf("chunk %d is not an object", i))
			}
			c, err := parseChunk(item)
			if err != nil {
				return nil, err
			}
			seq = append(seq, c)
		}
		return seq, nil
	case root.IsObject():
		return parseObject(root)
	}

	return nil, invalidInput(fmt.Sprintf("unsupported JSON %s", root.Type))
}

func parseObject(obj gjson.Result) (Input, error) {
	if resp := obj.Get("response"); resp.IsObject() {
		obj = resp
	}

	if u := obj.Get("usage"); u.IsObject() {
		usage, err := parseUsage(u)
		if err != nil {
			return nil, err
		}
		return RawResponse{Model: obj.Get("model").String(), Usage: usage}, nil
	}

	if isRequest(obj) {
		return parseRequest(obj)
	}

	if obj.Get("model").Exists() {
		return RawResponse{Model: obj.Get("model").String()}, nil
	}

	return nil, invalidInput("object has neither usage nor request fields")
}

func isRequest(obj gjson.Result) bool {
	for _, key := range []string{"messages", "prompt", "input_tokens", "output_tokens", "max_tokens"} {
		if obj.Get(key).Exists() {
			return true
		}
	}
	return false
}

func parseRequest(obj gjson.Result) (Input, error) {
	req := ExplicitRequest{
		Model:        obj.Get("model").String(),
		InputTokens:  int(obj.Get("input_tokens").Int()),
		OutputTokens: int(obj.Get("output_tokens").Int()),
		CachedTokens: int(obj.Get("cached_tokens").Int()),
		Prompt:       obj.Get("prompt").String(),
		MaxTokens:    int(firstOf(obj, "max_tokens", "max_completion_tokens", "max_output_tokens").Int()),
	}

	if m := obj.Get("messages"); m.Exists() {
		items, ok := m.Value().([]any)
		if !ok {
			return nil, invalidInput("messages is not an array")
		}
		msgs, err := tokens.DecodeMessages(items)
		if err != nil {
			return nil, &costs.CostEstimateError{Model: req.Model, Err: fmt.Errorf("%w: %w", costs.ErrInvalidRequest, err)}
		}
		req.Messages = msgs
	}

	return req, nil
}

// parseChunk reads one chat completion chunk or Responses API stream event.
func parseChunk(obj gjson.Result) (Chunk, error) {
	c := Chunk{Model: obj.Get("model").String()}

	if resp := obj.Get("response"); resp.IsObject() {
		if c.Model == "" {
			c.Model = resp.Get("model").String()
		}
		if u := resp.Get("usage"); u.IsObject() {
			usage, err := parseUsage(u)
			if err != nil {
				return Chunk{}, err
			}
			c.Usage = usage
		}
	}

	if u := obj.Get("usage"); u.IsObject() {
		usage, err := parseUsage(u)
		if err != nil {
			return Chunk{}, err
		}
		c.Usage = usage
	}

	if d := obj.Get("delta"); d.Type == gjson.String {
		c.Delta = d.String()
		return c, nil
	}

	var sb strings.Builder
	for _, content := range obj.Get("choices.#.delta.content").Array() {
		sb.WriteString(content.String())
	}
	c.Delta = sb.String()

	return c, nil
}

// parseUsage reads a usage object. Both the prompt and the completion count
// must be present; a usage block without them cannot be priced.
func parseUsage(u gjson.Result) (*costs.Usage, error) {
	prompt := firstOf(u, "prompt_tokens", "input_tokens")
	completion := firstOf(u, "completion_tokens", "output_tokens")
	if !prompt.Exists() || !completion.Exists() {
		return nil, invalidInput("usage lacks prompt/completion token counts")
	}

	return &costs.Usage{
		PromptTokens:     int(prompt.Int()),
		CompletionTokens: int(completion.Int()),
		TotalTokens:      int(u.Get("total_tokens").Int()),
		CachedTokens: int(firstOf(u,
			"prompt_tokens_details.cached_tokens",
			"input_tokens_details.cached_tokens",
			"cached_tokens",
		).Int()),
	}, nil
}

func firstOf(obj gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := obj.Get(p); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

// ParseSSE reads a server-sent event stream of chunks. Only "data:" lines are
// used; reading stops at "data: [DONE]" or end of input.
//
// A failed read ends the stream with that error, even when the scanner has
// already handed out the truncated last line.
func ParseSSE(r io.Reader) (ChunkSequence, error) {
	src := &readErrReader{r: r}
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	var (
		seq  ChunkSequence
		line int
	)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		payload, ok := strings.CutPrefix(text, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == "" {
			continue
		}
		if payload == "[DONE]" {
			break
		}

		obj := gjson.Parse(payload)
		if !gjson.Valid(payload) || !obj.IsObject() {
			if src.err != nil {
				break
			}
			return nil, invalidInput(fmt.Sprintf("line %d: data is not a JSON object", line))
		}
		c, err := parseChunk(obj)
		if err != nil {
			if src.err != nil {
				break
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		seq = append(seq, c)
	}
	if src.err != nil {
		return nil, fmt.Errorf("failed to read event stream: %w", src.err)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event stream: %w", err)
	}

	return seq, nil
}

// readErrReader remembers the first non-EOF error from r.
type readErrReader struct {
	r   io.Reader
	err error
}

func (e *readErrReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil && err != io.EOF && e.err == nil {
		e.err = err
	}
	return n, err
}

func invalidInput(reason string) error {
	return &costs.CostEstimateError{Err: fmt.Errorf("%w: %s", costs.ErrInvalidRequest, reason)}
}
