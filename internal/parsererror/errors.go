// Package parsererror defines the error taxonomy for statement extraction and
// row validation.
package parsererror

import (
	"errors"
	"fmt"

	"fjacquet/statement-ledger/internal/models"
)

// ErrNoText is wrapped by ParseError when a document carries no text layer,
// typically an image-only scan.
var ErrNoText = errors.New("document contains no extractable text")

// ErrExtractorUnavailable is wrapped by ParseError when the text extractor
// cannot run at all (for example pdftotext is not installed).
var ErrExtractorUnavailable = errors.New("text extractor unavailable")

// ParseError represents an unrecoverable failure to read one document.
// It is reported to the caller and never retried: parsing is deterministic.
type ParseError struct {
	Parser   string
	Document string
	Stage    string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Document == "" {
		return fmt.Sprintf("%s: %s failed: %v", e.Parser, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s failed for '%s': %v", e.Parser, e.Stage, e.Document, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Reason classifies why a raw row was rejected during normalization.
type Reason string

// Rejection reasons
const (
	ReasonDateOutOfRange    Reason = "date-out-of-range"
	ReasonAmountUnparseable Reason = "amount-unparseable"
	ReasonEmptyDescription  Reason = "empty-description"
	ReasonZeroAmount        Reason = "zero-amount"
)

// Rejection is a per-row validation failure. Rejected rows never reach the
// month store, but the rejections are collected and shown to the caller.
type Rejection struct {
	Reason Reason
	Row    models.RawRow
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("row rejected (%s): page %d row %d", r.Reason, r.Row.PageIndex, r.Row.RowIndex)
	}
	return fmt.Sprintf("row rejected (%s): page %d row %d: %s", r.Reason, r.Row.PageIndex, r.Row.RowIndex, r.Detail)
}

// IsRejection reports whether err is a Rejection with the given reason.
func IsRejection(err error, reason Reason) bool {
	var rej *Rejection
	return errors.As(err, &rej) && rej.Reason == reason
}
