// Package report renders annual summaries and month listings for report
// consumers.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"fjacquet/statement-ledger/internal/aggregator"
	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/models"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

// Supported formats
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported report format: %s", name)
	}
}

// Section values of summary CSV rows.
const (
	SectionTotal    = "total"
	SectionMonth    = "month"
	SectionCategory = "category"
	SectionVendor   = "vendor"
)

// SummaryRow is one line of the flattened CSV summary.
type SummaryRow struct {
	Section  string `csv:"section"`
	Label    string `csv:"label"`
	Income   string `csv:"income"`
	Expenses string `csv:"expenses"`
	Net      string `csv:"net"`
	Count    int    `csv:"count"`
}

// TransactionRow is one line of a month listing in CSV.
type TransactionRow struct {
	ID          string `csv:"id"`
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Category    string `csv:"category"`
	Manual      bool   `csv:"manual_category"`
	Source      string `csv:"source"`
}

// Generator encodes summaries and transaction lists.
type Generator struct {
	delimiter rune
	logger    logging.Logger
}

// NewGenerator creates a Generator writing CSV with the given delimiter
// (comma when zero).
func NewGenerator(delimiter rune, logger logging.Logger) *Generator {
	if delimiter == 0 {
		delimiter = ','
	}
	return &Generator{delimiter: delimiter, logger: logging.OrDiscard(logger)}
}

// Generate encodes a summary.
func (g *Generator) Generate(summary aggregator.Summary, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return g.encodeJSON(summary)
	case FormatYAML:
		return g.encodeYAML(summary)
	case FormatCSV:
		var buf bytes.Buffer
		if err := g.writeCSV(&buf, SummaryRows(summary)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// Transactions encodes a month listing.
func (g *Generator) Transactions(txs []models.Transaction, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return g.encodeJSON(txs)
	case FormatYAML:
		return g.encodeYAML(txs)
	case FormatCSV:
		rows := make([]TransactionRow, 0, len(txs))
		for _, tx := range txs {
			rows = append(rows, TransactionRow{
				ID:          tx.ID,
				Date:        tx.Date.Format(models.DateLayoutISO),
				Description: tx.Description,
				Amount:      tx.Amount.StringFixed(2),
				Category:    tx.Category.String(),
				Manual:      tx.CategoryManual,
				Source:      string(tx.Source),
			})
		}
		var buf bytes.Buffer
		if err := g.writeCSV(&buf, rows); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// SummaryRows flattens a summary: the year total, one row per month, one per
// expense category and one per vendor. Amounts carry two decimals.
func SummaryRows(s aggregator.Summary) []SummaryRow {
	rows := []SummaryRow{{
		Section:  SectionTotal,
		Label:    fmt.Sprintf("%d", s.Year),
		Income:   s.TotalIncome.StringFixed(2),
		Expenses: s.TotalExpenses.StringFixed(2),
		Net:      s.Net.StringFixed(2),
		Count:    s.TransactionCount,
	}}
	for _, m := range s.MonthlyTotals {
		rows = append(rows, SummaryRow{
			Section:  SectionMonth,
			Label:    m.Month.String(),
			Income:   m.Income.StringFixed(2),
			Expenses: m.Expenses.StringFixed(2),
			Net:      m.Net.StringFixed(2),
			Count:    m.Count,
		})
	}
	for _, c := range s.CategoryTotals {
		rows = append(rows, SummaryRow{
			Section:  SectionCategory,
			Label:    c.Category.String(),
			Expenses: c.Amount.StringFixed(2),
			Count:    c.Count,
		})
	}
	for _, v := range s.VendorMatrix {
		rows = append(rows, SummaryRow{
			Section:  SectionVendor,
			Label:    v.Vendor,
			Expenses: v.Total.StringFixed(2),
		})
	}
	return rows
}

func (g *Generator) encodeJSON(v interface{}) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return out, nil
}

func (g *Generator) encodeYAML(v interface{}) ([]byte, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal YAML report")
		return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
	}
	return out, nil
}

func (g *Generator) writeCSV(w io.Writer, rows interface{}) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = g.delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		g.logger.WithError(err).Error("Failed to marshal CSV report")
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}
