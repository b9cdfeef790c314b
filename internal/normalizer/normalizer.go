// Package normalizer turns raw statement rows into canonical transactions.
//
// A row either becomes a models.Transaction or is rejected with a
// parsererror.Rejection naming the reason. Rejected rows never reach the month
// store; callers collect the rejections and show them to the user.
package normalizer

import (
	"fmt"
	"time"

	"fjacquet/statement-ledger/internal/currencyutils"
	"fjacquet/statement-ledger/internal/dateutils"
	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/models"
	"fjacquet/statement-ledger/internal/parsererror"
	"fjacquet/statement-ledger/internal/textutils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultToleranceDays is how far outside the declared month a date may fall.
const DefaultToleranceDays = 3

// Options control date interpretation.
type Options struct {
	ToleranceDays int
	DayFirst      bool
}

// DefaultOptions returns month-first dates with a three day tolerance.
func DefaultOptions() Options {
	return Options{ToleranceDays: DefaultToleranceDays}
}

// Normalizer validates raw rows against a target month.
type Normalizer struct {
	opts   Options
	logger logging.Logger
	newID  func() string
}

// New creates a Normalizer. Negative tolerances are treated as zero.
func New(opts Options, logger logging.Logger) *Normalizer {
	if opts.ToleranceDays < 0 {
		opts.ToleranceDays = 0
	}
	return &Normalizer{
		opts:   opts,
		logger: logging.OrDiscard(logger),
		newID:  uuid.NewString,
	}
}

// Result is the outcome of normalizing a batch of rows.
type Result struct {
	Transactions []models.Transaction
	Rejections   []parsererror.Rejection
}

// Normalize validates one row. Exactly one of the return values is meaningful:
// a nil rejection means the transaction is valid.
func (n *Normalizer) Normalize(row models.RawRow, year int, month time.Month) (models.Transaction, *parsererror.Rejection) {
	reject := func(reason parsererror.Reason, detail string) (models.Transaction, *parsererror.Rejection) {
		return models.Transaction{}, &parsererror.Rejection{Reason: reason, Row: row, Detail: detail}
	}

	// an unparseable amount wins over every other reason
	amount, err := currencyutils.ParseAmount(row.AmountText)
	if err != nil {
		return reject(parsererror.ReasonAmountUnparseable, err.Error())
	}
	if amount.IsZero() {
		return reject(parsererror.ReasonZeroAmount, fmt.Sprintf("amount %q is zero", row.AmountText))
	}

	date, err := n.resolveDate(row.DateText, year, month)
	if err != nil {
		return reject(parsererror.ReasonDateOutOfRange, err.Error())
	}

	description := textutils.CleanDescription(row.DescriptionText)
	if description == "" {
		return reject(parsererror.ReasonEmptyDescription, "description is empty")
	}

	return models.Transaction{
		ID:          n.newID(),
		Date:        date,
		Description: description,
		Amount:      amount,
		Category:    models.CategoryUncategorized,
		Source:      models.SourceExtracted,
		PageIndex:   row.PageIndex,
	}, nil
}

// NormalizeAll normalizes rows in order. Accepted transactions get their
// Sequence from their position in the batch.
func (n *Normalizer) NormalizeAll(rows []models.RawRow, year int, month time.Month) Result {
	var result Result
	for _, row := range rows {
		tx, rejection := n.Normalize(row, year, month)
		if rejection != nil {
			n.logger.Debug("Rejected statement row",
				logging.Field{Key: logging.FieldReason, Value: string(rejection.Reason)},
				logging.Field{Key: logging.FieldPage, Value: row.PageIndex},
				logging.Field{Key: "row", Value: row.RowIndex})
			result.Rejections = append(result.Rejections, *rejection)
			continue
		}
		tx.Sequence = len(result.Transactions)
		result.Transactions = append(result.Transactions, tx)
	}

	if len(result.Rejections) > 0 {
		n.logger.Info("Rejected statement rows",
			logging.Field{Key: logging.FieldCount, Value: len(result.Rejections)},
			logging.Field{Key: logging.FieldYear, Value: year},
			logging.Field{Key: logging.FieldMonth, Value: int(month)})
	}
	return result
}

// ManualInput is a user-entered transaction before validation.
type ManualInput struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Category    *models.Category
}

// Manual builds a user-added transaction for the month. It applies the same
// rules as extraction; the category defaults to Uncategorized.
func (n *Normalizer) Manual(in ManualInput, year int, month time.Month) (models.Transaction, error) {
	tx := models.Transaction{
		ID:          n.newID(),
		Date:        truncateToDay(in.Date),
		Description: textutils.CleanDescription(in.Description),
		Amount:      in.Amount,
		Category:    models.CategoryUncategorized,
		Source:      models.SourceManual,
	}
	if in.Category != nil {
		tx.Category = *in.Category
		tx.CategoryManual = true
	}
	if err := n.ValidateTransaction(year, month, tx); err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// ValidateTransaction checks an already-built transaction, such as one
// changed by a user edit, against the month.
func (n *Normalizer) ValidateTransaction(year int, month time.Month, tx models.Transaction) error {
	switch {
	case !dateutils.WithinMonth(tx.Date, year, month, n.opts.ToleranceDays):
		return &parsererror.Rejection{
			Reason: parsererror.ReasonDateOutOfRange,
			Detail: fmt.Sprintf("%s is outside %s", dateutils.ToISODate(tx.Date), dateutils.MonthLabel(year, month)),
		}
	case tx.Amount.IsZero():
		return &parsererror.Rejection{Reason: parsererror.ReasonZeroAmount, Detail: "amount is zero"}
	case textutils.CleanDescription(tx.Description) == "":
		return &parsererror.Rejection{Reason: parsererror.ReasonEmptyDescription, Detail: "description is empty"}
	case !tx.Category.Valid():
		return fmt.Errorf("invalid category %q", tx.Category)
	}
	return nil
}

// ParseDate reads user-entered date text for the month, with the same
// formats and year resolution as statement rows.
func (n *Normalizer) ParseDate(text string, year int, month time.Month) (time.Time, error) {
	return n.resolveDate(text, year, month)
}

func (n *Normalizer) resolveDate(text string, year int, month time.Month) (time.Time, error) {
	parsed, err := dateutils.ParseDate(text, n.opts.DayFirst)
	if err != nil {
		return time.Time{}, err
	}
	date, ok := dateutils.ResolveYear(parsed, year, month)
	if !ok {
		return time.Time{}, fmt.Errorf("date %q does not exist near %s", text, dateutils.MonthLabel(year, month))
	}
	date = truncateToDay(date)
	if !dateutils.WithinMonth(date, year, month, n.opts.ToleranceDays) {
		return time.Time{}, fmt.Errorf("date %s is outside %s", dateutils.ToISODate(date), dateutils.MonthLabel(year, month))
	}
	return date, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
