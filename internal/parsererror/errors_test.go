package parsererror

import (
	"errors"
	"fmt"
	"testing"

	"fjacquet/statement-ledger/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		expected string
	}{
		{
			name: "with document",
			err: &ParseError{
				Parser:   "PDF",
				Document: "jan.pdf",
				Stage:    "text extraction",
				Err:      ErrNoText,
			},
			expected: "PDF: text extraction failed for 'jan.pdf': document contains no extractable text",
		},
		{
			name: "without document",
			err: &ParseError{
				Parser: "PDF",
				Stage:  "text extraction",
				Err:    errors.New("exit status 1"),
			},
			expected: "PDF: text extraction failed: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestParseError_Unwrap(t *testing.T) {
	err := fmt.Errorf("ingest: %w", &ParseError{Parser: "PDF", Stage: "text extraction", Err: ErrNoText})

	assert.True(t, errors.Is(err, ErrNoText))

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "PDF", parseErr.Parser)
}

func TestRejection(t *testing.T) {
	rej := &Rejection{
		Reason: ReasonAmountUnparseable,
		Row:    models.RawRow{PageIndex: 1, RowIndex: 4, AmountText: "abc"},
		Detail: `"abc"`,
	}

	assert.Equal(t, `row rejected (amount-unparseable): page 1 row 4: "abc"`, rej.Error())
	assert.True(t, IsRejection(rej, ReasonAmountUnparseable))
	assert.False(t, IsRejection(rej, ReasonZeroAmount))
	assert.False(t, IsRejection(errors.New("other"), ReasonZeroAmount))

	bare := &Rejection{Reason: ReasonEmptyDescription}
	assert.Equal(t, "row rejected (empty-description): page 0 row 0", bare.Error())
}
