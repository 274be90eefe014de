package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/o1x3/ctoken/pkg/cli"
	"github.com/o1x3/ctoken/pkg/ctoken"
)

var estimateFlags struct {
	model        string
	inputTokens  int
	outputTokens int
	cachedTokens int
	messagesFile string
	prompt       string
	maxTokens    int
	format       string
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the cost of a call from token counts or a request",
	Long: `Estimate the USD cost of a call.

With --input-tokens/--output-tokens the counts are priced as given; cached
tokens are billed at the cached-input rate. With --messages-file or --prompt
the prompt is counted locally and --max-tokens is priced as the worst-case
completion.

Examples:
  ctoken estimate --model gpt-4o --input-tokens 1200 --output-tokens 300
  ctoken estimate --model gpt-4o --input-tokens 1200 --cached-tokens 1000
  ctoken estimate --model gpt-4o-mini --messages-file chat.json --max-tokens 500
  ctoken estimate --model gpt-3.5-turbo-instruct --prompt "Say hi" --max-tokens 16`,
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	f := estimateCmd.Flags()
	f.StringVarP(&estimateFlags.model, "model", "m", "", "model identifier (required)")
	f.IntVar(&estimateFlags.inputTokens, "input-tokens", 0, "prompt tokens, including cached ones")
	f.IntVar(&estimateFlags.outputTokens, "output-tokens", 0, "completion tokens")
	f.IntVar(&estimateFlags.cachedTokens, "cached-tokens", 0, "prompt tokens served from the cache")
	f.StringVar(&estimateFlags.messagesFile, "messages-file", "", "JSON file with the chat messages to send")
	f.StringVar(&estimateFlags.prompt, "prompt", "", "completion prompt to send")
	f.IntVar(&estimateFlags.maxTokens, "max-tokens", 0, "maximum completion tokens of the request")
	f.StringVar(&estimateFlags.format, "format", "text", "output format: text, json")
	_ = estimateCmd.MarkFlagRequired("model")
	estimateCmd.MarkFlagsMutuallyExclusive("messages-file", "prompt")
}

type estimateResult struct {
	Model     string  `json:"model"`
	TotalCost float64 `json:"total_cost"`
}

func (r estimateResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s  %s\n", formatUSD(r.TotalCost), r.Model)
	return err
}

func runEstimate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(estimateFlags.format)
	if err != nil {
		return err
	}

	req := ctoken.ExplicitRequest{
		Model:        estimateFlags.model,
		InputTokens:  estimateFlags.inputTokens,
		OutputTokens: estimateFlags.outputTokens,
		CachedTokens: estimateFlags.cachedTokens,
		Prompt:       estimateFlags.prompt,
		MaxTokens:    estimateFlags.maxTokens,
	}
	if estimateFlags.messagesFile != "" {
		req.Messages, err = readMessages(cmd.InOrStdin(), estimateFlags.messagesFile)
		if err != nil {
			return err
		}
	}

	client, closeStore, err := openClient(cmd.Context(), recorders{})
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := client.CalculateContext(cmd.Context(), req)
	if err != nil {
		return err
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), estimateResult{Model: req.Model, TotalCost: res.Total()})
}
