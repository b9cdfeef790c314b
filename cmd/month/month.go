// Package month handles the review commands of a single statement month
package month

import (
	"errors"
	"fmt"
	"strings"

	"fjacquet/statement-ledger/cmd/root"
	"fjacquet/statement-ledger/internal/currencyutils"
	"fjacquet/statement-ledger/internal/models"
	"fjacquet/statement-ledger/internal/monthstore"
	"fjacquet/statement-ledger/internal/normalizer"
	"fjacquet/statement-ledger/internal/report"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	year  int
	month int

	format string
	output string

	date        string
	description string
	amount      string
	category    string
)

// Cmd groups the month review subcommands
var Cmd = &cobra.Command{
	Use:   "month",
	Short: "Review the transactions of one statement month",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the transactions of a month",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a manual transaction to a month",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

var updateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change fields of a transaction; setting --category makes it manual",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a transaction from a month",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	Cmd.PersistentFlags().IntVarP(&year, "year", "y", 0, "Statement year")
	Cmd.PersistentFlags().IntVarP(&month, "month", "m", 0, "Statement month 1-12")

	listCmd.Flags().StringVarP(&format, "format", "f", "", "Output format: json, yaml or csv (default from config)")
	listCmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")

	for _, c := range []*cobra.Command{addCmd, updateCmd} {
		c.Flags().StringVar(&date, "date", "", "Transaction date (YYYY-MM-DD, DD.MM.YYYY or MM/DD)")
		c.Flags().StringVar(&description, "description", "", "Transaction description")
		c.Flags().StringVar(&amount, "amount", "", "Signed amount, negative for money out")
		c.Flags().StringVar(&category, "category", "", "Category name")
	}

	Cmd.AddCommand(listCmd, addCmd, updateCmd, deleteCmd)
}

// existing returns a month that must already hold transactions.
func existing(cmd *cobra.Command) (*monthstore.Unit, error) {
	y, m, err := root.YearMonth(year, month)
	if err != nil {
		return nil, err
	}
	return root.AppContainer.GetMonthStore().Lookup(cmd.Context(), y, int(m))
}

func runList(cmd *cobra.Command, args []string) error {
	y, m, err := root.YearMonth(year, month)
	if err != nil {
		return err
	}
	name := format
	if name == "" {
		name = root.AppContainer.GetConfig().Report.Format
	}
	f, err := report.ParseFormat(name)
	if err != nil {
		return err
	}

	txs := []models.Transaction{}
	u, err := root.AppContainer.GetMonthStore().Lookup(cmd.Context(), y, int(m))
	switch {
	case err == nil:
		txs = u.List()
	case !errors.Is(err, monthstore.ErrNotFound):
		return err
	}

	data, err := root.AppContainer.GetReportGenerator().Transactions(txs, f)
	if err != nil {
		return err
	}
	return root.WriteOutput(cmd.OutOrStdout(), output, data)
}

func runAdd(cmd *cobra.Command, args []string) error {
	y, m, err := root.YearMonth(year, month)
	if err != nil {
		return err
	}
	if date == "" || strings.TrimSpace(description) == "" || amount == "" {
		return fmt.Errorf("--date, --description and --amount are required")
	}
	months := root.AppContainer.GetMonthStore()
	if err := months.Editable(cmd.Context(), y, int(m)); err != nil {
		return err
	}

	norm := root.AppContainer.GetNormalizer()
	in := normalizer.ManualInput{Description: description}
	if in.Date, err = norm.ParseDate(date, y, m); err != nil {
		return err
	}
	if in.Amount, err = currencyutils.ParseAmount(amount); err != nil {
		return err
	}
	if category != "" {
		c, err := models.ParseCategory(category)
		if err != nil {
			return err
		}
		in.Category = &c
	}

	tx, err := norm.Manual(in, y, m)
	if err != nil {
		return err
	}
	u, err := months.OpenForEdit(cmd.Context(), y, int(m))
	if err != nil {
		return err
	}
	added, err := u.Add(cmd.Context(), tx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s: %s %s %s\n",
		added.ID, u.Key(), money(added.Amount), added.Category, added.Description)
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	y, m, err := root.YearMonth(year, month)
	if err != nil {
		return err
	}

	var update models.TransactionUpdate
	if date != "" {
		d, err := root.AppContainer.GetNormalizer().ParseDate(date, y, m)
		if err != nil {
			return err
		}
		update.Date = &d
	}
	if description != "" {
		update.Description = &description
	}
	if amount != "" {
		a, err := currencyutils.ParseAmount(amount)
		if err != nil {
			return err
		}
		update.Amount = &a
	}
	if category != "" {
		c, err := models.ParseCategory(category)
		if err != nil {
			return err
		}
		update.Category = &c
	}
	if update.Empty() {
		return fmt.Errorf("nothing to update: set --date, --description, --amount or --category")
	}

	u, err := existing(cmd)
	if err != nil {
		return err
	}
	tx, err := u.Update(cmd.Context(), args[0], update)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s %s %s\n",
		tx.ID, money(tx.Amount), tx.Category, tx.Description)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	u, err := existing(cmd)
	if err != nil {
		return err
	}
	if err := u.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s from %s\n", args[0], u.Key())
	return nil
}

func money(amount decimal.Decimal) string {
	return currencyutils.FormatAmount(amount, root.AppContainer.GetConfig().Report.Currency)
}
