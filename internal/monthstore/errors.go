package monthstore

import "errors"

// Errors returned by month units. They are wrapped with the month key; test
// them with errors.Is.
var (
	ErrMonthClosed      = errors.New("month is processed and closed for changes")
	ErrAlreadyProcessed = errors.New("month is already processed")
	ErrEmptyMonth       = errors.New("month has no transactions")
	ErrNotFound         = errors.New("not found")
	ErrDuplicateID      = errors.New("duplicate transaction id")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrLaterProcessed   = errors.New("a later month of the year is already processed")
)
