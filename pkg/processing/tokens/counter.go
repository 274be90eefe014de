package tokens

import (
	"fmt"
	"strings"
)

// DefaultModel is the model whose tokenizer Counter uses when none is given.
const DefaultModel = "gpt-4o"

// Chat formatting overhead, as documented for OpenAI chat models.
const (
	tokensPerMessage = 3
	tokensPerName    = 1
	replyPriming     = 3

	// gpt-3.5-turbo-0301 wraps every message as <|start|>{role/name}\n{content}<|end|>\n
	// and drops the role when a name is present.
	legacyModel            = "gpt-3.5-turbo-0301"
	legacyTokensPerMessage = 4
	legacyTokensPerName    = -1
)

// Recorder receives token counts, typically a metrics collector.
type Recorder interface {
	RecordTokens(kind string, model string, n int)
}

// Count kinds passed to Recorder.
const (
	KindText         = "text"
	KindMessage      = "message"
	KindConversation = "conversation"
)

// Counter counts tokens in text, chat messages and conversations for one
// model. A Counter is immutable and safe for concurrent use.
type Counter struct {
	tokenizer Tokenizer
	model     string
	recorder  Recorder
}

// NewCounter creates a counter for model. An empty model means DefaultModel.
func NewCounter(tokenizer Tokenizer, model string) *Counter {
	if model == "" {
		model = DefaultModel
	}
	return &Counter{tokenizer: tokenizer, model: model}
}

// ForModel returns a counter sharing the tokenizer but counting for model.
func (c *Counter) ForModel(model string) *Counter {
	if model == "" || model == c.model {
		return c
	}
	out := *c
	out.model = model
	return &out
}

// WithRecorder returns a counter that reports every count to r.
func (c *Counter) WithRecorder(r Recorder) *Counter {
	out := *c
	out.recorder = r
	return &out
}

// Model returns the model the counter counts for.
func (c *Counter) Model() string {
	return c.model
}

// CountText counts the tokens in text.
func (c *Counter) CountText(text string) (int, error) {
	n, err := c.text(text)
	if err != nil {
		return 0, &TokenCountError{Input: "string", Err: err}
	}
	c.record(KindText, n)
	return n, nil
}

// CountMessage counts one chat message including its formatting overhead.
func (c *Counter) CountMessage(msg Message) (int, error) {
	n, err := c.message(msg)
	if err != nil {
		return 0, &TokenCountError{Input: "message", Err: err}
	}
	c.record(KindMessage, n)
	return n, nil
}

// CountMessages counts a conversation: every message plus the tokens that
// prime the assistant's reply.
func (c *Counter) CountMessages(msgs []Message) (int, error) {
	n, err := c.conversation(msgs)
	if err != nil {
		return 0, &TokenCountError{Input: "conversation", Err: err}
	}
	c.record(KindConversation, n)
	return n, nil
}

// Count accepts a string, a Message, a []Message, or decoded JSON in the
// shape of a message ({"role", "content", "name"}) or a list of messages.
// Anything else fails with ErrUnsupportedInput.
func (c *Counter) Count(v any) (int, error) {
	switch in := v.(type) {
	case string:
		return c.CountText(in)
	case Message:
		return c.CountMessage(in)
	case *Message:
		if in == nil {
			break
		}
		return c.CountMessage(*in)
	case []Message:
		return c.CountMessages(in)
	case map[string]any:
		msg, err := messageFromMap(in)
		if err != nil {
			return 0, &TokenCountError{Input: "message", Err: err}
		}
		return c.CountMessage(msg)
	case map[string]string:
		msg, err := messageFromStringMap(in)
		if err != nil {
			return 0, &TokenCountError{Input: "message", Err: err}
		}
		return c.CountMessage(msg)
	case []map[string]any:
		msgs := make([]Message, 0, len(in))
		for i, m := range in {
			msg, err := messageFromMap(m)
			if err != nil {
				return 0, &TokenCountError{Input: fmt.Sprintf("message %d", i), Err: err}
			}
			msgs = append(msgs, msg)
		}
		return c.CountMessages(msgs)
	case []any:
		msgs, err := DecodeMessages(in)
		if err != nil {
			return 0, err
		}
		return c.CountMessages(msgs)
	}

	return 0, &TokenCountError{Input: fmt.Sprintf("%T", v), Err: ErrUnsupportedInput}
}

func (c *Counter) text(s string) (int, error) {
	return c.tokenizer.Count(s, c.model)
}

func (c *Counter) message(msg Message) (int, error) {
	perMessage, perName := tokensPerMessage, tokensPerName
	if strings.EqualFold(c.model, legacyModel) {
		perMessage, perName = legacyTokensPerMessage, legacyTokensPerName
	}

	total := perMessage
	for _, s := range []string{msg.Role, msg.Content, msg.Name} {
		n, err := c.text(s)
		if err != nil {
			return 0, err
		}
		total += n
	}
	if msg.Name != "" {
		total += perName
	}

	return total, nil
}

func (c *Counter) conversation(msgs []Message) (int, error) {
	total := replyPriming
	for i, msg := range msgs {
		n, err := c.message(msg)
		if err != nil {
			return 0, fmt.Errorf("message %d: %w", i, err)
		}
		total += n
	}
	return total, nil
}

func (c *Counter) record(kind string, n int) {
	if c.recorder != nil {
		c.recorder.RecordTokens(kind, c.model, n)
	}
}
