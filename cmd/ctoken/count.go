package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/o1x3/ctoken/pkg/cli"
)

var countFlags struct {
	model  string
	file   string
	format string
}

var countCmd = &cobra.Command{
	Use:   "count [text]",
	Short: "Count tokens in text or chat messages",
	Long: `Count tokens the way the API bills them.

Text is taken from the arguments, or from stdin when none are given. With
--file the input is a JSON message or array of messages, and the per-message
and reply framing overhead is included.

Examples:
  ctoken count "How many tokens is this?"
  echo "some text" | ctoken count --model gpt-4.1
  ctoken count --file messages.json --format json`,
	RunE: runCount,
}

func init() {
	rootCmd.AddCommand(countCmd)

	countCmd.Flags().StringVarP(&countFlags.model, "model", "m", "", "model whose tokenizer is used (default: tokens.default_model)")
	countCmd.Flags().StringVarP(&countFlags.file, "file", "f", "", "JSON file with a message or list of messages (- for stdin)")
	countCmd.Flags().StringVar(&countFlags.format, "format", "text", "output format: text, json")
}

type countResult struct {
	Model  string `json:"model"`
	Tokens int    `json:"tokens"`
}

func (r countResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, r.Tokens)
	return err
}

func runCount(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(countFlags.format)
	if err != nil {
		return err
	}

	client, closeStore, err := openClient(cmd.Context(), recorders{})
	if err != nil {
		return err
	}
	defer closeStore()

	counter := client.Counter()
	if countFlags.model != "" {
		counter = counter.ForModel(countFlags.model)
	}

	var n int
	switch {
	case countFlags.file != "":
		msgs, err := readMessages(cmd.InOrStdin(), countFlags.file)
		if err != nil {
			return err
		}
		n, err = counter.CountMessages(msgs)
		if err != nil {
			return err
		}
	default:
		text := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := readInput(cmd.InOrStdin(), "-")
			if err != nil {
				return err
			}
			text = strings.TrimSuffix(string(data), "\n")
		}
		n, err = counter.CountText(text)
		if err != nil {
			return err
		}
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), countResult{Model: counter.Model(), Tokens: n})
}
