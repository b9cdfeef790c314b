package models

// RawRow is a candidate transaction line as it came off a statement page,
// before any validation. AmountText is already signed when the statement
// split debits and credits into separate columns.
type RawRow struct {
	DateText        string
	DescriptionText string
	AmountText      string
	PageIndex       int
	RowIndex        int
}
