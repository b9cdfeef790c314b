// Package pdfparser extracts candidate transaction rows from text-layer PDF
// bank statements. Page text comes from a TextExtractor; the parser maps the
// layout columns of each page onto date, description and amount text.
package pdfparser

import (
	"context"
	"strings"

	"fjacquet/statement-ledger/internal/currencyutils"
	"fjacquet/statement-ledger/internal/dateutils"
	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/models"
	"fjacquet/statement-ledger/internal/parsererror"

	"github.com/shopspring/decimal"
)

// ParserName identifies this parser in errors and logs.
const ParserName = "pdf"

const clusterTolerance = 2

// Parser turns statement PDFs into raw rows.
type Parser struct {
	extractor TextExtractor
	policy    BalancePolicy
	logger    logging.Logger
}

// NewParser creates a Parser. A nil policy selects the monotonic balance policy.
func NewParser(extractor TextExtractor, policy BalancePolicy, logger logging.Logger) *Parser {
	if policy == nil {
		policy = NewMonotonicBalancePolicy()
	}
	return &Parser{
		extractor: extractor,
		policy:    policy,
		logger:    logging.OrDiscard(logger),
	}
}

// Parse extracts raw rows from PDF bytes.
func (p *Parser) Parse(ctx context.Context, data []byte) ([]models.RawRow, error) {
	return p.ParseDocument(ctx, "", data)
}

// ParseDocument is Parse with a document name carried into errors and logs.
// A document without any text yields a ParseError wrapping ErrNoText.
func (p *Parser) ParseDocument(ctx context.Context, name string, data []byte) ([]models.RawRow, error) {
	logger := p.logger.WithFields(
		logging.Field{Key: logging.FieldParser, Value: ParserName},
		logging.Field{Key: logging.FieldFile, Value: name},
	)

	pages, err := p.extractor.ExtractPages(ctx, data)
	if err != nil {
		return nil, &parsererror.ParseError{Parser: ParserName, Document: name, Stage: "text extraction", Err: err}
	}

	hasText := false
	for _, page := range pages {
		if strings.TrimSpace(page) != "" {
			hasText = true
			break
		}
	}
	if !hasText {
		return nil, &parsererror.ParseError{Parser: ParserName, Document: name, Stage: "text extraction", Err: parsererror.ErrNoText}
	}

	var (
		rows   []models.RawRow
		header []column
	)
	for pageIndex, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var pageRows []models.RawRow
		pageRows, header = p.parsePage(pageIndex, page, header)
		logger.Debug("Parsed statement page",
			logging.Field{Key: logging.FieldPage, Value: pageIndex},
			logging.Field{Key: logging.FieldCount, Value: len(pageRows)})
		rows = append(rows, pageRows...)
	}

	if len(rows) == 0 {
		logger.Warn("No transaction rows found in document")
	} else {
		logger.Info("Extracted transaction rows", logging.Field{Key: logging.FieldCount, Value: len(rows)})
	}
	return rows, nil
}

// candidate is a page line carrying a date and at least one amount.
type candidate struct {
	lineIndex int
	cells     []cell
	dateCell  int
}

// parsePage extracts the rows of one page. The header of a previous page
// stays in force until the page declares its own.
func (p *Parser) parsePage(pageIndex int, page string, header []column) ([]models.RawRow, []column) {
	var candidates []candidate
	for lineIndex, line := range strings.Split(page, "\n") {
		cells := splitCells(line)
		if len(cells) == 0 {
			continue
		}
		if cols := detectHeader(cells); cols != nil {
			header = cols
			continue
		}
		dateCell, amounts := -1, 0
		for i, c := range cells {
			switch {
			case dateCell < 0 && isDateLike(c.text):
				dateCell = i
			case isAmountLike(c.text):
				amounts++
			}
		}
		if dateCell < 0 || amounts == 0 {
			continue
		}
		candidates = append(candidates, candidate{lineIndex: lineIndex, cells: cells, dateCell: dateCell})
	}
	if len(candidates) == 0 {
		return nil, header
	}

	if header != nil {
		return p.rowsWithHeader(pageIndex, candidates, header), header
	}
	return p.rowsWithoutHeader(pageIndex, candidates), header
}

// assignment holds, per candidate line, the text found in each column.
type assignment struct {
	description []string
	date        string
	numeric     map[int]string
}

func (p *Parser) rowsWithHeader(pageIndex int, candidates []candidate, header []column) []models.RawRow {
	hasDescription := false
	for _, col := range header {
		if col.kind == kindDescription {
			hasDescription = true
		}
	}

	assignments := make([]assignment, len(candidates))
	for i, cand := range candidates {
		a := assignment{numeric: map[int]string{}}
		for j, c := range cand.cells {
			if isAmountLike(c.text) && j != cand.dateCell {
				if idx := nearestColumn(c, header, func(col column) bool { return col.kind.numeric() }); idx >= 0 {
					a.numeric[idx] = c.text
				}
				continue
			}
			idx := nearestColumn(c, header, func(col column) bool { return !col.kind.numeric() })
			kind := kindDescription
			if idx >= 0 {
				kind = header[idx].kind
			}
			switch {
			case j == cand.dateCell:
				a.date = c.text
			case kind == kindDescription, !hasDescription && kind != kindDate:
				a.description = append(a.description, c.text)
			}
		}
		assignments[i] = a
	}

	return p.buildRows(pageIndex, candidates, assignments, header)
}

func (p *Parser) rowsWithoutHeader(pageIndex int, candidates []candidate) []models.RawRow {
	var numericCells []cell
	for _, cand := range candidates {
		for j, c := range cand.cells {
			if j != cand.dateCell && isAmountLike(c.text) {
				numericCells = append(numericCells, c)
			}
		}
	}
	columns := clusterByRightEdge(numericCells, clusterTolerance)

	assignments := make([]assignment, len(candidates))
	for i, cand := range candidates {
		a := assignment{numeric: map[int]string{}, date: cand.cells[cand.dateCell].text}
		for j, c := range cand.cells {
			switch {
			case j == cand.dateCell:
			case isAmountLike(c.text):
				a.numeric[nearestByRightEdge(c, columns)] = c.text
			default:
				a.description = append(a.description, c.text)
			}
		}
		assignments[i] = a
	}

	return p.buildRows(pageIndex, candidates, assignments, columns)
}

// buildRows drops running balances, resolves the signed amount of every line
// and emits the rows in line order.
func (p *Parser) buildRows(pageIndex int, candidates []candidate, assignments []assignment, columns []column) []models.RawRow {
	amountColumns := p.amountColumns(assignments, columns)

	rows := make([]models.RawRow, 0, len(candidates))
	for i, cand := range candidates {
		a := assignments[i]
		amountText := signedAmount(a, columns, amountColumns)
		if amountText == "" || a.date == "" {
			continue
		}
		rows = append(rows, models.RawRow{
			DateText:        a.date,
			DescriptionText: strings.Join(a.description, " "),
			AmountText:      amountText,
			PageIndex:       pageIndex,
			RowIndex:        cand.lineIndex,
		})
	}
	return rows
}

// amountColumns returns the indexes of numeric columns that carry transaction
// amounts, left to right. Columns explicitly labeled as amounts, debits or
// credits are trusted; every other numeric column goes through the balance policy.
func (p *Parser) amountColumns(assignments []assignment, columns []column) []int {
	var trusted, unlabeled, balances, suspects []int
	for idx, col := range columns {
		switch col.kind {
		case kindAmount, kindDebit, kindCredit:
			trusted = append(trusted, idx)
			continue
		case kindBalance, kindOther:
		default:
			continue
		}

		var values []decimal.Decimal
		for _, a := range assignments {
			text, ok := a.numeric[idx]
			if !ok {
				continue
			}
			if v, err := currencyutils.ParseAmount(text); err == nil {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		suspects = append(suspects, idx)
		if p.policy.LooksLikeRunningBalance(col.label, values) {
			p.logger.Debug("Excluding running balance column",
				logging.Field{Key: "column", Value: col.label},
				logging.Field{Key: logging.FieldCount, Value: len(values)})
			continue
		}
		if col.kind == kindBalance {
			balances = append(balances, idx)
		} else {
			unlabeled = append(unlabeled, idx)
		}
	}

	switch {
	case len(trusted) > 0:
		return trusted
	case len(unlabeled) > 0:
		return unlabeled
	case len(balances) > 0:
		return balances
	case len(suspects) > 0:
		// Every candidate looked like a balance; the leftmost is the best guess.
		return suspects[:1]
	default:
		return nil
	}
}

// signedAmount builds the amount text for one line. Debit columns are
// negated; with two unlabeled amount columns the left one is the debit.
func signedAmount(a assignment, columns []column, amountColumns []int) string {
	var debit, credit, plain []string
	for pos, idx := range amountColumns {
		text, ok := a.numeric[idx]
		if !ok {
			continue
		}
		switch columns[idx].kind {
		case kindDebit:
			debit = append(debit, text)
		case kindCredit:
			credit = append(credit, text)
		case kindAmount:
			plain = append(plain, text)
		default:
			if len(amountColumns) >= 2 && pos == 0 {
				debit = append(debit, text)
			} else if len(amountColumns) >= 2 && pos == 1 {
				credit = append(credit, text)
			} else if len(amountColumns) == 1 {
				plain = append(plain, text)
			}
		}
	}

	switch {
	case len(plain) > 0:
		return plain[0]
	case len(debit) > 0:
		return negate(debit[0])
	case len(credit) > 0:
		return credit[0]
	default:
		return ""
	}
}

// negate marks unsigned debit text as negative. Text already carrying a
// negative marker is returned unchanged.
func negate(text string) string {
	t := strings.TrimSpace(text)
	upper := strings.ToUpper(t)
	if strings.HasPrefix(t, "-") || strings.HasSuffix(t, "-") ||
		strings.HasPrefix(t, "(") || strings.HasSuffix(upper, "DR") {
		return t
	}
	return "-" + t
}

func isDateLike(text string) bool {
	return dateutils.LooksLikeDate(text)
}

func isAmountLike(text string) bool {
	return currencyutils.LooksLikeAmount(text)
}
