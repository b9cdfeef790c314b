// Package summary handles the annual summary command
package summary

import (
	"fmt"

	"fjacquet/statement-ledger/cmd/root"
	"fjacquet/statement-ledger/internal/aggregator"
	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/report"

	"github.com/spf13/cobra"
)

var (
	year   int
	format string
	output string
)

// Cmd represents the summary command
var Cmd = &cobra.Command{
	Use:   "summary",
	Short: "Aggregate the stored months of a year into an annual summary",
	Long: `Aggregate every stored month of a year: income, expenses and net totals,
expense totals per category, per-month totals and a vendor by month expense
matrix. Months still under review are included; processed_months tells how
many are closed.`,
	Args: cobra.NoArgs,
	RunE: run,
}

func init() {
	Cmd.Flags().IntVarP(&year, "year", "y", 0, "Summary year")
	Cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: json, yaml or csv (default from config)")
	Cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
}

func run(cmd *cobra.Command, args []string) error {
	if year < 1 {
		return fmt.Errorf("--year is required")
	}
	name := format
	if name == "" {
		name = root.AppContainer.GetConfig().Report.Format
	}
	f, err := report.ParseFormat(name)
	if err != nil {
		return err
	}

	units, err := root.AppContainer.GetMonthStore().Units(cmd.Context(), year)
	if err != nil {
		return err
	}
	summary := aggregator.Aggregate(year, aggregator.Months(units))
	if summary.ProcessedMonths < len(units) {
		root.Log.Warn("Summary includes months still under review",
			logging.Field{Key: logging.FieldYear, Value: year},
			logging.Field{Key: logging.FieldCount, Value: len(units) - summary.ProcessedMonths})
	}

	data, err := root.AppContainer.GetReportGenerator().Generate(summary, f)
	if err != nil {
		return err
	}
	return root.WriteOutput(cmd.OutOrStdout(), output, data)
}
