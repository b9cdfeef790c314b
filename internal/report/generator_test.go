package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"fjacquet/statement-ledger/internal/aggregator"
	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type month struct {
	m   time.Month
	txs []models.Transaction
}

func (m month) Year() int                  { return 2024 }
func (m month) Month() time.Month          { return m.m }
func (m month) Processed() bool            { return true }
func (m month) List() []models.Transaction { return m.txs }

func sampleSummary() aggregator.Summary {
	return aggregator.Aggregate(2024, []aggregator.Month{month{m: time.January, txs: []models.Transaction{
		{ID: "a", Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Description: "COFFEE SHOP", Amount: decimal.RequireFromString("-4.50"), Category: models.CategoryMeals, Source: models.SourceExtracted},
		{ID: "b", Date: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), Description: "PAYROLL DEPOSIT", Amount: decimal.RequireFromString("2500.00"), Category: models.CategoryUncategorized, Source: models.SourceExtracted},
	}}})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{" csv ", FormatCSV, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate_JSON(t *testing.T) {
	g := NewGenerator(0, logging.NewMockLogger())

	out, err := g.Generate(sampleSummary(), FormatJSON)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "2500", decoded["total_income"])
	assert.Equal(t, "4.5", decoded["total_expenses"])
	assert.EqualValues(t, 2, decoded["transaction_count"])
}

func TestGenerate_YAML(t *testing.T) {
	g := NewGenerator(0, nil)

	out, err := g.Generate(sampleSummary(), FormatYAML)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, 2024, decoded["year"])
	assert.Contains(t, string(out), "category: Meals")
}

func TestGenerate_CSV(t *testing.T) {
	g := NewGenerator(';', nil)

	out, err := g.Generate(sampleSummary(), FormatCSV)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "section;label;income;expenses;net;count", lines[0])
	assert.Equal(t, "total;2024;2500.00;4.50;2495.50;2", lines[1])
	assert.Equal(t, "month;January;2500.00;4.50;2495.50;2", lines[2])
	assert.Equal(t, "category;Meals;;4.50;;1", lines[3])
	assert.Equal(t, "vendor;Coffee Shop;;4.50;;0", lines[4])
}

func TestTransactions_CSV(t *testing.T) {
	g := NewGenerator(0, nil)
	txs := []models.Transaction{{
		ID: "a", Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Description: "COFFEE SHOP, DOWNTOWN",
		Amount: decimal.RequireFromString("-4.5"), Category: models.CategoryMeals, CategoryManual: true, Source: models.SourceManual,
	}}

	out, err := g.Transactions(txs, FormatCSV)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,date,description,amount,category,manual_category,source", lines[0])
	assert.Equal(t, `a,2024-01-15,"COFFEE SHOP, DOWNTOWN",-4.50,Meals,true,manual`, lines[1])
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	_, err := NewGenerator(0, nil).Generate(sampleSummary(), Format("xml"))

	assert.Error(t, err)
}
