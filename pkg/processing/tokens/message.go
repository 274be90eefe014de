package tokens

import (
	"fmt"
	"strings"
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// messageFromMap converts a decoded JSON object into a Message. Content may
// be a string or an array of content parts, of which only text parts count.
func messageFromMap(m map[string]any) (Message, error) {
	role, ok := m["role"].(string)
	if !ok {
		return Message{}, fmt.Errorf("%w: message has no string role", ErrUnsupportedInput)
	}

	content, err := extractContent(m["content"])
	if err != nil {
		return Message{}, err
	}

	msg := Message{Role: role, Content: content}
	if name, ok := m["name"].(string); ok {
		msg.Name = name
	}
	return msg, nil
}

// DecodeMessages converts a decoded JSON array of message objects into
// Messages.
func DecodeMessages(items []any) ([]Message, error) {
	msgs := make([]Message, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &TokenCountError{
				Input: fmt.Sprintf("message %d", i),
				Err:   fmt.Errorf("%w: %T", ErrUnsupportedInput, item),
			}
		}
		msg, err := messageFromMap(m)
		if err != nil {
			return nil, &TokenCountError{Input: fmt.Sprintf("message %d", i), Err: err}
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func messageFromStringMap(m map[string]string) (Message, error) {
	role, ok := m["role"]
	if !ok {
		return Message{}, fmt.Errorf("%w: message has no role", ErrUnsupportedInput)
	}
	return Message{Role: role, Content: m["content"], Name: m["name"]}, nil
}

// extractContent extracts text from a message content field.
func extractContent(content any) (string, error) {
	switch c := content.(type) {
	case nil:
		return "", nil
	case string:
		return c, nil
	case []any:
		var textParts []string
		for i, part := range c {
			partMap, ok := part.(map[string]any)
			if !ok {
				return "", fmt.Errorf("%w: content part %d is %T", ErrUnsupportedInput, i, part)
			}
			if partMap["type"] == "text" {
				if text, ok := partMap["text"].(string); ok {
					textParts = append(textParts, text)
				}
			}
		}
		return strings.Join(textParts, " "), nil
	default:
		return "", fmt.Errorf("%w: content is %T", ErrUnsupportedInput, content)
	}
}
