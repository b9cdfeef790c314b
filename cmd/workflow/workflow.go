// Package workflow handles the month-by-month review workflow commands
package workflow

import (
	"fmt"
	"io"

	"fjacquet/statement-ledger/cmd/root"
	"fjacquet/statement-ledger/internal/workflow"

	"github.com/spf13/cobra"
)

var year int

// Cmd groups the workflow subcommands
var Cmd = &cobra.Command{
	Use:   "workflow",
	Short: "Walk the months of a year through review in calendar order",
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which months are processed and which one is under review",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Close the month under review and move to the next one",
	Args:  cobra.NoArgs,
	RunE:  runComplete,
}

func init() {
	Cmd.PersistentFlags().IntVarP(&year, "year", "y", 0, "Statement year")
	Cmd.AddCommand(statusCmd, completeCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	store := root.AppContainer.GetMonthStore()
	if year == 0 {
		years, err := store.Years(cmd.Context())
		if err != nil {
			return err
		}
		if len(years) == 0 {
			_, _ = fmt.Fprintln(out, "No months stored yet")
			return nil
		}
		for _, y := range years {
			c, err := workflow.ForYear(cmd.Context(), store, y, root.Log)
			if err != nil {
				return err
			}
			printStatus(out, c.Status())
		}
		return nil
	}

	c, err := workflow.ForYear(cmd.Context(), store, year, root.Log)
	if err != nil {
		return err
	}
	printStatus(out, c.Status())
	return nil
}

func runComplete(cmd *cobra.Command, args []string) error {
	if year == 0 {
		return fmt.Errorf("--year is required")
	}
	c, err := workflow.ForYear(cmd.Context(), root.AppContainer.GetMonthStore(), year, root.Log)
	if err != nil {
		return err
	}
	current, err := c.Current()
	if err != nil {
		return err
	}
	if err := c.CompleteCurrent(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Completed %d-%02d\n", current.Year(), int(current.Month()))
	if next, err := c.Current(); err == nil {
		_, _ = fmt.Fprintf(out, "Next: %d-%02d\n", next.Year(), int(next.Month()))
	} else {
		_, _ = fmt.Fprintf(out, "All months of %d are processed\n", year)
	}
	return nil
}

func printStatus(w io.Writer, st workflow.Status) {
	_, _ = fmt.Fprintf(w, "%d: %s, %d/%d months processed\n", st.Year, st.State, st.Processed, st.Total)
	for _, u := range st.Units {
		mark := " "
		switch {
		case u.Processed:
			mark = "x"
		case u.Month == st.Current:
			mark = ">"
		}
		_, _ = fmt.Fprintf(w, "  [%s] %d-%02d\n", mark, st.Year, int(u.Month))
	}
}
