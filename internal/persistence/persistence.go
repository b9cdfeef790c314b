// Package persistence holds the row mapping shared by the SQL month
// repositories.
package persistence

import (
	"fmt"
	"time"

	"fjacquet/statement-ledger/internal/models"
	"fjacquet/statement-ledger/internal/monthstore"

	"github.com/shopspring/decimal"
)

// Table names.
const (
	MonthsTable       = "months"
	TransactionsTable = "transactions"
)

// MonthColumns lists the months table columns in scan order.
var MonthColumns = []string{"year", "month", "processed", "source_ref", "next_sequence"}

// TransactionColumns lists the columns read back from the transactions table,
// in the order TransactionRow.Targets expects.
var TransactionColumns = []string{
	"id", "date", "description", "amount", "category",
	"category_manual", "source", "page_index", "sequence",
}

// InsertColumns is TransactionColumns prefixed with the month key.
var InsertColumns = append([]string{"year", "month"}, TransactionColumns...)

// InsertBatchRows caps the rows of one multi-row INSERT. SQLite binds at most
// 32766 variables per statement.
const InsertBatchRows = 500

// MonthRow is the scanned form of a months row.
type MonthRow struct {
	Year         int
	Month        int
	Processed    bool
	SourceRef    string
	NextSequence int
}

// Targets returns scan destinations matching MonthColumns.
func (r *MonthRow) Targets() []any {
	return []any{&r.Year, &r.Month, &r.Processed, &r.SourceRef, &r.NextSequence}
}

// MonthValues returns the months row of a snapshot, matching MonthColumns.
func MonthValues(snap monthstore.Snapshot) []any {
	return []any{snap.Key.Year, int(snap.Key.Month), snap.Processed, snap.SourceRef, snap.NextSequence}
}

// TransactionRow is the scanned form of a transactions row. Dates and amounts
// are stored as text so both SQL backends share one encoding.
type TransactionRow struct {
	ID             string
	Date           string
	Description    string
	Amount         string
	Category       string
	CategoryManual bool
	Source         string
	PageIndex      int
	Sequence       int
}

// Targets returns scan destinations matching TransactionColumns.
func (r *TransactionRow) Targets() []any {
	return []any{
		&r.ID, &r.Date, &r.Description, &r.Amount, &r.Category,
		&r.CategoryManual, &r.Source, &r.PageIndex, &r.Sequence,
	}
}

// Transaction decodes the row.
func (r TransactionRow) Transaction() (models.Transaction, error) {
	date, err := time.Parse(models.DateLayoutISO, r.Date)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %s: invalid date %q: %w", r.ID, r.Date, err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %s: invalid amount %q: %w", r.ID, r.Amount, err)
	}
	category, err := models.ParseCategory(r.Category)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", r.ID, err)
	}
	return models.Transaction{
		ID:             r.ID,
		Date:           date,
		Description:    r.Description,
		Amount:         amount,
		Category:       category,
		CategoryManual: r.CategoryManual,
		Source:         models.Source(r.Source),
		PageIndex:      r.PageIndex,
		Sequence:       r.Sequence,
	}, nil
}

// TransactionValues returns the insert values of tx, matching InsertColumns.
func TransactionValues(key monthstore.Key, tx models.Transaction) []any {
	return []any{
		key.Year, int(key.Month),
		tx.ID, tx.Date.Format(models.DateLayoutISO), tx.Description, tx.Amount.String(),
		tx.Category.String(), tx.CategoryManual, string(tx.Source), tx.PageIndex, tx.Sequence,
	}
}

// Batches splits txs into consecutive chunks of at most InsertBatchRows.
func Batches(txs []models.Transaction) [][]models.Transaction {
	var batches [][]models.Transaction
	for start := 0; start < len(txs); start += InsertBatchRows {
		end := min(start+InsertBatchRows, len(txs))
		batches = append(batches, txs[start:end])
	}
	return batches
}

// Snapshot assembles a snapshot from a month row and its transactions.
func Snapshot(key monthstore.Key, month MonthRow, txs []models.Transaction) monthstore.Snapshot {
	return monthstore.Snapshot{
		Key:          key,
		Transactions: txs,
		Processed:    month.Processed,
		SourceRef:    month.SourceRef,
		NextSequence: month.NextSequence,
	}
}
