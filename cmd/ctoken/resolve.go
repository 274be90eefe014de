package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/o1x3/ctoken/pkg/cli"
	"github.com/o1x3/ctoken/pkg/pricing"
	"github.com/o1x3/ctoken/pkg/processing/costs"
)

var resolveFlags struct {
	format string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <model>",
	Short: "Show which price entry a model identifier resolves to",
	Long: `Show the price entry a model identifier resolves to and the rule that
matched: exact-version, exact-model or prefix.

Examples:
  ctoken resolve gpt-4o-mini-2024-07-18
  ctoken resolve gpt-4o-2099-01-01 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveFlags.format, "format", "text", "output format: text, json")
}

type resolveResult struct {
	Input string             `json:"input"`
	ID    string             `json:"id"`
	Rule  pricing.Rule       `json:"rule"`
	Entry pricing.PriceEntry `json:"entry"`
}

func (r resolveResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s -> %s (%s)\n  input %s  cached input %s  output %s  per 1K tokens\n",
		r.Input, r.ID, r.Rule,
		formatUSD(r.Entry.InputCostPer1K),
		formatUSD(r.Entry.CachedInputCostPer1K),
		formatUSD(r.Entry.OutputCostPer1K),
	)
	return err
}

func runResolve(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(resolveFlags.format)
	if err != nil {
		return err
	}

	client, closeStore, err := openClient(cmd.Context(), recorders{})
	if err != nil {
		return err
	}
	defer closeStore()

	res, ok := client.Resolve(args[0])
	if !ok {
		return &costs.CostEstimateError{Model: args[0], Err: costs.ErrModelNotFound}
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), resolveResult{
		Input: args[0],
		ID:    res.Entry.ID(),
		Rule:  res.Rule,
		Entry: res.Entry,
	})
}
