package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fjacquet/statement-ledger/internal/categorizer"
	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/models"
	"fjacquet/statement-ledger/internal/monthstore"
	"fjacquet/statement-ledger/internal/normalizer"
	"fjacquet/statement-ledger/internal/parsererror"
	"fjacquet/statement-ledger/internal/pdfparser"
	"fjacquet/statement-ledger/internal/store"
	"fjacquet/statement-ledger/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeParser serves canned rows per document name.
type fakeParser struct {
	mu    sync.Mutex
	rows  map[string][]models.RawRow
	err   map[string]error
	calls int
}

func (f *fakeParser) ParseDocument(_ context.Context, name string, _ []byte) ([]models.RawRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.err[name]; err != nil {
		return nil, err
	}
	return f.rows[name], nil
}

func row(date, description, amount string) models.RawRow {
	return models.RawRow{DateText: date, DescriptionText: description, AmountText: amount}
}

func newPipeline(t *testing.T, parser Parser) (*Pipeline, *monthstore.Store, *logging.MockLogger) {
	t.Helper()
	table, err := store.DefaultRuleTable()
	require.NoError(t, err)
	engine, err := categorizer.NewEngine(table, nil)
	require.NoError(t, err)
	norm := normalizer.New(normalizer.DefaultOptions(), nil)
	months := monthstore.New(monthstore.NewMemoryRepository(), norm, nil)
	logger := logging.NewMockLogger()
	return New(parser, norm, engine, months, 2, logger), months, logger
}

func TestResolveKey(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		want    monthstore.Key
		wantErr error
	}{
		{"explicit", Document{Name: "scan.pdf", Year: 2024, Month: 3}, monthstore.Key{Year: 2024, Month: time.March}, nil},
		{"from file name", Document{Name: "statement_2024-02.pdf"}, monthstore.Key{Year: 2024, Month: time.February}, nil},
		{"month name", Document{Name: "March 2023.pdf"}, monthstore.Key{Year: 2023, Month: time.March}, nil},
		{"explicit wins over hint", Document{Name: "statement_2024-02.pdf", Month: 5}, monthstore.Key{Year: 2024, Month: time.May}, nil},
		{"no month", Document{Name: "scan.pdf", Year: 2024}, monthstore.Key{}, ErrMonthUnknown},
		{"no year", Document{Name: "march.pdf"}, monthstore.Key{}, ErrYearUnknown},
		{"invalid month", Document{Name: "scan.pdf", Year: 2024, Month: 13}, monthstore.Key{}, monthstore.ErrInvalidMonth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveKey(tt.doc)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIngest_CategorizesAndStores(t *testing.T) {
	parser := &fakeParser{rows: map[string][]models.RawRow{
		"jan.pdf": {
			row("01/15/2024", "COFFEE SHOP", "-4.50"),
			row("01/20/2024", "PAYROLL DEPOSIT", "2,500.00"),
			row("01/21/2024", "REFUND", "0.00"),
			row("02/30/2024", "BAD DATE", "-1.00"),
		},
	}}
	p, months, logger := newPipeline(t, parser)

	res, err := p.Ingest(context.Background(), Document{Name: "jan.pdf", Year: 2024, Month: 1})
	require.NoError(t, err)

	require.Len(t, res.Transactions, 2)
	assert.Equal(t, models.CategoryMeals, res.Transactions[0].Category)
	assert.Equal(t, "2500", res.Transactions[1].Amount.String())
	require.Len(t, res.Rejections, 2)
	assert.Equal(t, parsererror.ReasonZeroAmount, res.Rejections[0].Reason)
	assert.Equal(t, parsererror.ReasonDateOutOfRange, res.Rejections[1].Reason)

	unit, err := months.Lookup(context.Background(), 2024, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, unit.Len())
	assert.Equal(t, "jan.pdf", unit.SourceRef())
	assert.True(t, logger.HasEntry("INFO", "Statement ingested"))
}

func TestIngest_ClosedMonthIsNotParsed(t *testing.T) {
	ctx := context.Background()
	parser := &fakeParser{rows: map[string][]models.RawRow{"jan.pdf": {row("01/15/2024", "COFFEE SHOP", "-4.50")}}}
	p, months, _ := newPipeline(t, parser)
	_, err := p.Ingest(ctx, Document{Name: "jan.pdf", Year: 2024, Month: 1})
	require.NoError(t, err)
	unit, err := months.Unit(ctx, 2024, 1)
	require.NoError(t, err)
	require.NoError(t, unit.MarkProcessed(ctx))

	_, err = p.Ingest(ctx, Document{Name: "jan.pdf", Year: 2024, Month: 1})

	assert.ErrorIs(t, err, monthstore.ErrMonthClosed)
	assert.Equal(t, 1, parser.calls)
}

func TestIngest_ParseErrorPropagates(t *testing.T) {
	parseErr := &parsererror.ParseError{Parser: "pdf", Document: "blank.pdf", Err: parsererror.ErrNoText}
	p, _, _ := newPipeline(t, &fakeParser{err: map[string]error{"blank.pdf": parseErr}})

	_, err := p.Ingest(context.Background(), Document{Name: "blank.pdf", Year: 2024, Month: 1})

	assert.ErrorIs(t, err, parsererror.ErrNoText)
	var pe *parsererror.ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestIngest_ParseFailureCreatesNoMonth(t *testing.T) {
	ctx := context.Background()
	parseErr := &parsererror.ParseError{Parser: "pdf", Document: "blank.pdf", Err: parsererror.ErrNoText}
	p, months, _ := newPipeline(t, &fakeParser{err: map[string]error{"blank.pdf": parseErr}})

	_, err := p.Ingest(ctx, Document{Name: "blank.pdf", Year: 2024, Month: 1})
	require.ErrorIs(t, err, parsererror.ErrNoText)

	_, err = months.Lookup(ctx, 2024, 1)
	assert.ErrorIs(t, err, monthstore.ErrNotFound)
	units, err := months.Units(ctx, 2024)
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestIngest_MonthBeforeProcessedMonthRefused(t *testing.T) {
	ctx := context.Background()
	parser := &fakeParser{rows: map[string][]models.RawRow{
		"jan.pdf": {row("01/15/2024", "COFFEE SHOP", "-4.50")},
		"feb.pdf": {row("02/15/2024", "COFFEE SHOP", "-5.50")},
		"mar.pdf": {row("03/15/2024", "COFFEE SHOP", "-6.50")},
	}}
	p, months, _ := newPipeline(t, parser)

	for _, doc := range []Document{{Name: "jan.pdf", Year: 2024, Month: 1}, {Name: "mar.pdf", Year: 2024, Month: 3}} {
		_, err := p.Ingest(ctx, doc)
		require.NoError(t, err)
	}
	c, err := workflow.ForYear(ctx, months, 2024, nil)
	require.NoError(t, err)
	require.NoError(t, c.CompleteCurrent(ctx))
	require.NoError(t, c.CompleteCurrent(ctx))
	callsBefore := parser.calls

	_, err = p.Ingest(ctx, Document{Name: "feb.pdf", Year: 2024, Month: 2})

	assert.ErrorIs(t, err, monthstore.ErrLaterProcessed)
	assert.Equal(t, callsBefore, parser.calls)
	_, err = months.Lookup(ctx, 2024, 2)
	assert.ErrorIs(t, err, monthstore.ErrNotFound)

	c, err = workflow.ForYear(ctx, months, 2024, nil)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateCompleted, c.State())
}

func TestIngestAll(t *testing.T) {
	rows := map[string][]models.RawRow{}
	var docs []Document
	for m := 1; m <= 6; m++ {
		name := fmt.Sprintf("statement_2024-%02d.pdf", m)
		rows[name] = []models.RawRow{row(fmt.Sprintf("%02d/10/2024", m), "UPS STORE", "-9.99")}
		docs = append(docs, Document{Name: name})
	}
	docs = append(docs,
		Document{Name: "statement_2024-03-copy.pdf", Month: 3, Year: 2024},
		Document{Name: "unlabeled.pdf"},
	)
	p, months, _ := newPipeline(t, &fakeParser{rows: rows})

	results := p.IngestAll(context.Background(), docs)

	require.Len(t, results, 8)
	for i := 0; i < 6; i++ {
		assert.NoError(t, results[i].Err, results[i].Document)
		assert.Equal(t, time.Month(i+1), results[i].Key.Month)
		assert.Len(t, results[i].Transactions, 1)
	}
	assert.ErrorIs(t, results[6].Err, ErrDuplicateDocument)
	assert.ErrorIs(t, results[7].Err, ErrMonthUnknown)

	err := Errors(results)
	assert.ErrorIs(t, err, ErrDuplicateDocument)
	assert.ErrorIs(t, err, ErrMonthUnknown)

	units, err := months.Units(context.Background(), 2024)
	require.NoError(t, err)
	assert.Len(t, units, 6)
}

func TestIngest_WithPDFParser(t *testing.T) {
	format := "%-12s%-24s%10s"
	extractor := pdfparser.NewStaticExtractor(
		fmt.Sprintf(format, "Date", "Description", "Amount") + "\n" +
			fmt.Sprintf(format, "01/15/2024", "COFFEE SHOP", "-4.50") + "\n" +
			fmt.Sprintf(format, "01/31/2024", "PAYROLL DEPOSIT", "2,500.00"),
	)
	parser := pdfparser.NewParser(extractor, pdfparser.NewMonotonicBalancePolicy(), nil)
	p, _, _ := newPipeline(t, parser)

	res, err := p.Ingest(context.Background(), Document{Name: "2024-01.pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)

	require.Len(t, res.Transactions, 2)
	assert.Equal(t, "COFFEE SHOP", res.Transactions[0].Description)
	assert.Equal(t, models.CategoryMeals, res.Transactions[0].Category)
	assert.True(t, res.Transactions[1].IsIncome())
}
