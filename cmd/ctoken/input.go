package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/o1x3/ctoken/pkg/processing/tokens"
)

// readInput reads path, or stdin for "-" or "".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// readMessages decodes a JSON file holding one message or a list of them.
func readMessages(stdin io.Reader, path string) ([]tokens.Message, error) {
	data, err := readInput(stdin, path)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", displayPath(path), err)
	}

	switch v := raw.(type) {
	case []any:
		return tokens.DecodeMessages(v)
	case map[string]any:
		return tokens.DecodeMessages([]any{v})
	}
	return nil, fmt.Errorf("%s: expected a message object or an array of messages", displayPath(path))
}

func displayPath(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

// formatUSD renders an amount with enough precision for sub-cent costs.
func formatUSD(v float64) string {
	s := fmt.Sprintf("%.6f", v)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if !strings.Contains(s, ".") {
		s += ".00"
	}
	return "$" + s
}
