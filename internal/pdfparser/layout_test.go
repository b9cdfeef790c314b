package pdfparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCells(t *testing.T) {
	cells := splitCells("01/15/2024  COFFEE SHOP #12      -4.50")

	require.Len(t, cells, 3)
	assert.Equal(t, cell{text: "01/15/2024", start: 0, end: 10}, cells[0])
	assert.Equal(t, cell{text: "COFFEE SHOP #12", start: 12, end: 27}, cells[1])
	assert.Equal(t, "-4.50", cells[2].text)
	assert.Equal(t, 38, cells[2].end)

	assert.Empty(t, splitCells("   "))
	assert.Len(t, splitCells("Date\tAmount"), 2)
}

func TestClassifyLabel(t *testing.T) {
	tests := map[string]columnKind{
		"Date":             kindDate,
		"Transaction Date": kindDate,
		"Posted":           kindDate,
		"Description":      kindDescription,
		"Details":          kindDescription,
		"Amount ($)":       kindAmount,
		"Withdrawals":      kindDebit,
		"Debits":           kindDebit,
		"Deposits":         kindCredit,
		"Credits":          kindCredit,
		"Running Balance":  kindBalance,
		"Ref #":            kindOther,
		"":                 kindOther,
	}
	for label, want := range tests {
		assert.Equal(t, want, classifyLabel(label), label)
	}
}

func TestDetectHeader(t *testing.T) {
	assert.NotNil(t, detectHeader(splitCells("Date        Description        Amount")))
	assert.NotNil(t, detectHeader(splitCells("Posted  Details  Withdrawals  Deposits  Balance")))
	assert.Nil(t, detectHeader(splitCells("Date        Description")), "no amount column")
	assert.Nil(t, detectHeader(splitCells("01/15/2024  Deposit  4.50")), "transaction line")
	assert.Nil(t, detectHeader(splitCells("Account Summary")))
}

func TestClusterByRightEdge(t *testing.T) {
	cells := []cell{
		{text: "4.50", start: 46, end: 50},
		{text: "2,500.00", start: 42, end: 50},
		{text: "995.50", start: 58, end: 64},
		{text: "1,000.00", start: 57, end: 65},
	}

	columns := clusterByRightEdge(cells, 2)

	require.Len(t, columns, 2)
	assert.Equal(t, 42, columns[0].start)
	assert.Equal(t, 50, columns[0].end)
	assert.Equal(t, 65, columns[1].end)
	assert.Nil(t, clusterByRightEdge(nil, 2))
}
