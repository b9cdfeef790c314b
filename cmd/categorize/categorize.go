// Package categorize handles transaction categorization commands
package categorize

import (
	"fmt"
	"strings"

	"fjacquet/statement-ledger/cmd/root"
	"fjacquet/statement-ledger/internal/categorizer"
	"fjacquet/statement-ledger/internal/currencyutils"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var amount string

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize DESCRIPTION",
	Short: "Categorize a transaction description with the rule table",
	Long: `Categorize a transaction description with the configured rule table and show
which rule decided. Rules restricted to income or expenses only apply when
--amount is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().StringVarP(&amount, "amount", "a", "", "Signed transaction amount (optional)")
}

func run(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")

	var amt *decimal.Decimal
	if amount != "" {
		parsed, err := currencyutils.ParseAmount(amount)
		if err != nil {
			return err
		}
		amt = &parsed
	}

	match := root.AppContainer.GetEngine().Explain(description, amt)
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Category: %s\n", match.Category)
	_, _ = fmt.Fprintf(out, "Vendor: %s\n", categorizer.VendorName(description))
	if match.Matched {
		_, _ = fmt.Fprintf(out, "Rule: #%d (%s)\n", match.RuleIndex+1, match.Matcher)
	} else {
		_, _ = fmt.Fprintln(out, "Rule: none, default category")
	}
	return nil
}
