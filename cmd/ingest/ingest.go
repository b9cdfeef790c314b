// Package ingest handles statement ingestion commands
package ingest

import (
	"fmt"
	"strings"

	"fjacquet/statement-ledger/cmd/root"
	"fjacquet/statement-ledger/internal/fileutils"
	"fjacquet/statement-ledger/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	year  int
	month int
	dir   string
)

// Cmd represents the ingest command
var Cmd = &cobra.Command{
	Use:   "ingest [file.pdf...]",
	Short: "Extract and categorize transactions from PDF statements",
	Long: `Extract transactions from one or more PDF bank statements, categorize them and
store them in their statement month. The month comes from --month or, failing
that, from the file name (statement_2024-03.pdf, March 2024.pdf). Re-ingesting a
month replaces its extracted transactions and keeps manual edits.`,
	RunE: run,
}

func init() {
	Cmd.Flags().IntVarP(&year, "year", "y", 0, "Statement year (default: from file name)")
	Cmd.Flags().IntVarP(&month, "month", "m", 0, "Statement month 1-12 (default: from file name)")
	Cmd.Flags().StringVarP(&dir, "dir", "d", "", "Ingest every PDF in this directory")
}

func run(cmd *cobra.Command, args []string) error {
	files := append([]string(nil), args...)
	if dir != "" {
		found, err := fileutils.ListFilesWithExtension(dir, ".pdf")
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no statements given: pass files or --dir")
	}
	if month != 0 && len(files) > 1 {
		return fmt.Errorf("--month applies to a single statement, got %d", len(files))
	}

	docs := make([]pipeline.Document, 0, len(files))
	for _, f := range files {
		doc, err := pipeline.ReadDocument(f, year, month)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	results := root.AppContainer.GetPipeline().IngestAll(cmd.Context(), docs)

	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Err != nil {
			_, _ = fmt.Fprintf(out, "%s: failed: %v\n", r.Document, r.Err)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s: %s, %d transactions, %d rejected\n",
			r.Document, r.Key, len(r.Transactions), len(r.Rejections))
		if len(r.Rejections) > 0 {
			reasons := map[string]int{}
			var order []string
			for _, rej := range r.Rejections {
				reason := string(rej.Reason)
				if reasons[reason] == 0 {
					order = append(order, reason)
				}
				reasons[reason]++
			}
			parts := make([]string, 0, len(order))
			for _, reason := range order {
				parts = append(parts, fmt.Sprintf("%s=%d", reason, reasons[reason]))
			}
			_, _ = fmt.Fprintf(out, "  rejected: %s\n", strings.Join(parts, ", "))
		}
	}
	return pipeline.Errors(results)
}
