package main

import (
	"bytes"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/o1x3/ctoken/pkg/cli"
	"github.com/o1x3/ctoken/pkg/ctoken"
	"github.com/o1x3/ctoken/pkg/pricing"
	"github.com/o1x3/ctoken/pkg/processing/costs"
)

var calcFlags struct {
	sse    bool
	format string
}

var calcCmd = &cobra.Command{
	Use:   "calc [file|-]",
	Short: "Price a response, a streamed response or a request from JSON",
	Long: `Price a saved API payload.

The input shape is detected automatically: a response object with usage, an
array of stream chunks, or a request (messages/prompt with max_tokens, or
explicit input_tokens/output_tokens). With --sse the input is a raw
server-sent event stream as returned by the API with "stream": true.

Examples:
  ctoken calc response.json
  ctoken calc --format json chunks.json
  curl -sN ... | ctoken calc --sse -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCalc,
}

func init() {
	rootCmd.AddCommand(calcCmd)

	calcCmd.Flags().BoolVar(&calcFlags.sse, "sse", false, "input is a server-sent event stream")
	calcCmd.Flags().StringVar(&calcFlags.format, "format", "text", "output format: text, json")
}

// calcResult is either a full report or, for explicit requests, a bare total.
type calcResult struct {
	TotalCost float64       `json:"total_cost"`
	Report    *costs.Report `json:"report,omitempty"`
}

func (r calcResult) WriteText(w io.Writer) error {
	if r.Report == nil {
		_, err := fmt.Fprintf(w, "Total cost: %s\n", formatUSD(r.TotalCost))
		return err
	}

	rep := r.Report
	b := rep.Breakdown.Rounded()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Model:\t%s\n", rep.Model)
	fmt.Fprintf(tw, "Priced as:\t%s\n", priceID(rep))
	fmt.Fprintf(tw, "Prompt tokens:\t%d\t(%d cached)\n", rep.Usage.PromptTokens, rep.Usage.CachedTokens)
	fmt.Fprintf(tw, "Completion tokens:\t%d\n", rep.Usage.CompletionTokens)
	fmt.Fprintf(tw, "Total tokens:\t%d\n", rep.Usage.TotalTokens)
	fmt.Fprintf(tw, "Prompt cost:\t%s\n", formatUSD(b.PromptCostUncached))
	fmt.Fprintf(tw, "Cached prompt cost:\t%s\n", formatUSD(b.PromptCostCached))
	fmt.Fprintf(tw, "Completion cost:\t%s\n", formatUSD(b.CompletionCost))
	fmt.Fprintf(tw, "Total cost:\t%s\n", formatUSD(b.TotalCost))
	return tw.Flush()
}

func priceID(rep *costs.Report) string {
	return pricing.PriceEntry{Model: rep.ResolvedModel, Version: rep.ResolvedVersion}.ID()
}

func runCalc(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(calcFlags.format)
	if err != nil {
		return err
	}

	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	var in ctoken.Input
	if calcFlags.sse {
		in, err = ctoken.ParseSSE(bytes.NewReader(data))
	} else {
		in, err = ctoken.ParseInput(data)
	}
	if err != nil {
		return err
	}

	client, closeStore, err := openClient(cmd.Context(), recorders{})
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := client.CalculateContext(cmd.Context(), in)
	if err != nil {
		return err
	}

	out := calcResult{TotalCost: res.Total()}
	if rep, ok := res.(*costs.Report); ok {
		out.Report = rep.Rounded()
		out.TotalCost = out.Report.Total()
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), out)
}
