package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/o1x3/ctoken/pkg/cli"
	"github.com/o1x3/ctoken/pkg/config"
	"github.com/o1x3/ctoken/pkg/pricing"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Inspect, refresh and verify the price table",
}

var pricingListFlags struct {
	format string
}

var pricingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the current price table",
	Long: `List the price table loaded from the configured source.

Examples:
  ctoken pricing list
  ctoken pricing list --format csv > prices.csv`,
	Args: cobra.NoArgs,
	RunE: runPricingList,
}

var pricingRefreshFlags struct {
	url      string
	writeCSV string
}

var pricingRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the latest prices and persist them",
	Long: `Refresh the price table from the configured refresh source (the CSV file
for the csv source, the remote CSV otherwise) and hand the new table to the
configured persisters: the snapshot database and pricing.write_csv.

Examples:
  ctoken pricing refresh
  ctoken pricing refresh --url https://example.com/prices.csv --write-csv prices.csv`,
	Args: cobra.NoArgs,
	RunE: runPricingRefresh,
}

var pricingVerifyFlags struct {
	csvPath   string
	threshold float64
}

var pricingVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare a pricing CSV against the built-in table",
	Long: `Compare a pricing CSV against the built-in price table and report
missing models and prices that differ by more than the threshold percentage.
Without --csv the embedded CSV mirror is checked. Exits non-zero on any
difference.

Examples:
  ctoken pricing verify
  ctoken pricing verify --csv prices.csv --threshold 0.5`,
	Args: cobra.NoArgs,
	RunE: runPricingVerify,
}

func init() {
	rootCmd.AddCommand(pricingCmd)
	pricingCmd.AddCommand(pricingListCmd, pricingRefreshCmd, pricingVerifyCmd)

	pricingListCmd.Flags().StringVar(&pricingListFlags.format, "format", "text", "output format: text, json, csv")

	pricingRefreshCmd.Flags().StringVar(&pricingRefreshFlags.url, "url", "", "remote CSV to fetch (overrides pricing.remote_url)")
	pricingRefreshCmd.Flags().StringVar(&pricingRefreshFlags.writeCSV, "write-csv", "", "write the refreshed table to this CSV (overrides pricing.write_csv)")

	pricingVerifyCmd.Flags().StringVar(&pricingVerifyFlags.csvPath, "csv", "", "pricing CSV to check (default: embedded mirror)")
	pricingVerifyCmd.Flags().Float64Var(&pricingVerifyFlags.threshold, "threshold", 0, "allowed price difference in percent (default: pricing.discrepancy_threshold)")
}

// priceTable renders a pricing.Table for every output format.
type priceTable struct {
	Source   string               `json:"source"`
	LoadedAt time.Time            `json:"loaded_at"`
	Entries  []pricing.PriceEntry `json:"entries"`
}

func newPriceTable(t *pricing.Table) priceTable {
	meta := t.Metadata()
	return priceTable{Source: meta.Source, LoadedAt: meta.LoadedAt, Entries: t.Entries()}
}

func (p priceTable) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tVERSION\tINPUT/1K\tCACHED/1K\tOUTPUT/1K")
	for _, e := range p.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Model, e.Version,
			formatUSD(e.InputCostPer1K), formatUSD(e.CachedInputCostPer1K), formatUSD(e.OutputCostPer1K))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d entries from %s\n", len(p.Entries), p.Source)
	return err
}

func (p priceTable) CSVHeader() []string {
	return []string{"model", "version", "input_cost_per_1k", "cached_input_cost_per_1k", "output_cost_per_1k"}
}

func (p priceTable) CSVRows() [][]string {
	rows := make([][]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		rows = append(rows, []string{
			e.Model, e.Version,
			strconv.FormatFloat(e.InputCostPer1K, 'f', -1, 64),
			strconv.FormatFloat(e.CachedInputCostPer1K, 'f', -1, 64),
			strconv.FormatFloat(e.OutputCostPer1K, 'f', -1, 64),
		})
	}
	return rows
}

func runPricingList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(pricingListFlags.format)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cmd.Context(), &config.MustCurrent().Pricing, nil, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), newPriceTable(store.Table()))
}

func runPricingRefresh(cmd *cobra.Command, args []string) error {
	cfg := config.MustCurrent().Pricing
	if pricingRefreshFlags.url != "" {
		cfg.RemoteURL = pricingRefreshFlags.url
		if cfg.Source == config.SourceCSV {
			cfg.Source = config.SourceEmbedded
		}
	}
	if pricingRefreshFlags.writeCSV != "" {
		cfg.WriteCSV = pricingRefreshFlags.writeCSV
	}
	// The refresh fetches the remote CSV itself; start from the embedded table.
	if cfg.Source == config.SourceRemote {
		cfg.Source = config.SourceEmbedded
	}

	store, closeStore, err := openStore(cmd.Context(), &cfg, nil, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Refresh(cmd.Context()); err != nil {
		return cli.NewCommandError("pricing refresh", err)
	}

	t := store.Table()
	fmt.Fprintf(cmd.OutOrStdout(), "Refreshed %d entries from %s\n", t.Len(), t.Metadata().Source)
	if cfg.WriteCSV != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfg.WriteCSV)
	}
	return nil
}

func runPricingVerify(cmd *cobra.Command, args []string) error {
	var (
		candidate *pricing.Table
		err       error
	)
	if pricingVerifyFlags.csvPath == "" {
		candidate, err = pricing.EmbeddedCSVTable()
	} else {
		candidate, err = pricing.CSVFileSource{Path: pricingVerifyFlags.csvPath}.Load(cmd.Context())
	}
	if err != nil {
		return err
	}

	threshold := pricingVerifyFlags.threshold
	if threshold <= 0 {
		threshold = config.MustCurrent().Pricing.DiscrepancyThreshold
	}

	report := pricing.VerifyWithThreshold(pricing.EmbeddedTable(), candidate, threshold)
	writeVerifyReport(cmd.OutOrStdout(), report, threshold)

	if !report.OK() {
		return cli.NewCommandError("pricing verify", fmt.Errorf("%s differs from the built-in table", candidate.Metadata().Source))
	}
	return nil
}

func writeVerifyReport(w io.Writer, r pricing.VerifyReport, threshold float64) {
	fmt.Fprintf(w, "Reference models: %d\n", r.ReferenceModels)
	fmt.Fprintf(w, "Candidate models: %d\n", r.CandidateModels)

	for _, m := range r.MissingInCandidate {
		fmt.Fprintf(w, "  missing in candidate: %s\n", m)
	}
	for _, m := range r.MissingInReference {
		fmt.Fprintf(w, "  missing in reference: %s\n", m)
	}
	for _, d := range r.Discrepancies {
		fmt.Fprintf(w, "  %s: input %s vs %s (%.2f%%), output %s vs %s (%.2f%%)\n",
			d.Model,
			formatUSD(d.ReferenceInput), formatUSD(d.CandidateInput), d.InputDiffPct,
			formatUSD(d.ReferenceOutput), formatUSD(d.CandidateOutput), d.OutputDiffPct)
	}

	if r.OK() {
		fmt.Fprintf(w, "OK: no differences above %.2f%%\n", threshold)
	}
}
