// Package categories lists the category enumeration
package categories

import (
	"fmt"

	"fjacquet/statement-ledger/cmd/root"
	"fjacquet/statement-ledger/internal/models"

	"github.com/spf13/cobra"
)

// Cmd represents the categories command
var Cmd = &cobra.Command{
	Use:   "categories",
	Short: "List the known categories and where the rule table comes from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, c := range models.AllCategories() {
			_, _ = fmt.Fprintln(out, c)
		}
		_, _ = fmt.Fprintf(out, "\n%d rules loaded from %s, default %s\n",
			root.AppContainer.RuleCount(), root.AppContainer.RulesSource(), root.AppContainer.GetEngine().Default())
		return nil
	},
}
