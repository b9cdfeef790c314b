package models

import (
	"fmt"
	"time"

	"fjacquet/statement-ledger/internal/textutils"

	"github.com/shopspring/decimal"
)

// Source records how a transaction entered its month.
type Source string

// Transaction sources
const (
	SourceExtracted Source = "extracted"
	SourceManual    Source = "manual"
)

// Transaction is a canonical, validated statement line.
type Transaction struct {
	ID          string          `json:"id" yaml:"id"`
	Date        time.Time       `json:"date" yaml:"date"`
	Description string          `json:"description" yaml:"description"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	Category    Category        `json:"category" yaml:"category"`

	// CategoryManual is set once a user chose the category; the engine never
	// overwrites it afterwards.
	CategoryManual bool   `json:"category_manual" yaml:"category_manual"`
	Source         Source `json:"source" yaml:"source"`
	PageIndex      int    `json:"page_index" yaml:"page_index"`
	Sequence       int    `json:"sequence" yaml:"sequence"`
}

// IsIncome reports whether the transaction is an inflow.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// IsExpense reports whether the transaction is an outflow.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// Fingerprint identifies "the same statement line" across re-extractions.
func (t Transaction) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%s", t.Date.Format(DateLayoutISO), t.Description, t.Amount.StringFixed(2))
}

// Canonical returns tx with its description cleaned and its date truncated
// to a UTC calendar day.
func (t Transaction) Canonical() Transaction {
	t.Description = textutils.CleanDescription(t.Description)
	t.Date = time.Date(t.Date.Year(), t.Date.Month(), t.Date.Day(), 0, 0, 0, 0, time.UTC)
	return t
}

// TransactionUpdate carries the fields a caller wants to change; nil means
// leave untouched.
type TransactionUpdate struct {
	Date        *time.Time
	Description *string
	Amount      *decimal.Decimal
	Category    *Category
}

// Empty reports whether the update changes nothing.
func (u TransactionUpdate) Empty() bool {
	return u.Date == nil && u.Description == nil && u.Amount == nil && u.Category == nil
}

// Apply returns a copy of tx with the update applied, in canonical form.
// Setting a category makes it manual.
func (u TransactionUpdate) Apply(tx Transaction) Transaction {
	if u.Date != nil {
		tx.Date = *u.Date
	}
	if u.Description != nil {
		tx.Description = *u.Description
	}
	if u.Amount != nil {
		tx.Amount = *u.Amount
	}
	if u.Category != nil {
		tx.Category = *u.Category
		tx.CategoryManual = true
	}
	return tx.Canonical()
}
