package pdfparser

import (
	"regexp"
	"sort"
	"strings"
)

// cell is one run of text on a layout line, separated from its neighbours by
// at least two spaces. start and end are rune offsets, end exclusive.
type cell struct {
	text  string
	start int
	end   int
}

type columnKind int

const (
	kindOther columnKind = iota
	kindDate
	kindDescription
	kindAmount
	kindDebit
	kindCredit
	kindBalance
)

func (k columnKind) numeric() bool {
	return k == kindAmount || k == kindDebit || k == kindCredit || k == kindBalance
}

// column is a header label, or a cluster of right-aligned numbers when the
// page has no header.
type column struct {
	label string
	kind  columnKind
	start int
	end   int
}

var (
	cellSeparator = regexp.MustCompile(`\S+(?: \S+)*`)
	labelCleaner  = regexp.MustCompile(`[^a-z ]+`)
)

// Header vocabulary, checked in this order so "transaction date" is a date
// and "running balance" is a balance.
var headerVocabulary = []struct {
	kind  columnKind
	words []string
}{
	{kindBalance, []string{"balance"}},
	{kindDate, []string{"date", "posted", "post day"}},
	{kindDebit, []string{"debit", "withdrawal", "money out", "paid out", "charges"}},
	{kindCredit, []string{"credit", "deposit", "money in", "paid in"}},
	{kindAmount, []string{"amount", "amt"}},
	{kindDescription, []string{"description", "details", "transaction", "payee", "merchant", "memo", "particulars", "narrative"}},
}

// splitCells cuts a layout line into cells. Tabs count as column gaps.
func splitCells(line string) []cell {
	runes := []rune(strings.ReplaceAll(line, "\t", "    "))
	text := string(runes)
	locs := cellSeparator.FindAllStringIndex(text, -1)
	cells := make([]cell, 0, len(locs))
	for _, loc := range locs {
		start := len([]rune(text[:loc[0]]))
		value := text[loc[0]:loc[1]]
		cells = append(cells, cell{
			text:  value,
			start: start,
			end:   start + len([]rune(value)),
		})
	}
	return cells
}

// classifyLabel maps header text to a column kind.
func classifyLabel(label string) columnKind {
	normalized := strings.TrimSpace(labelCleaner.ReplaceAllString(strings.ToLower(label), " "))
	if normalized == "" {
		return kindOther
	}
	for _, entry := range headerVocabulary {
		for _, word := range entry.words {
			if strings.Contains(normalized, word) {
				return entry.kind
			}
		}
	}
	return kindOther
}

// detectHeader returns the columns of a header line, or nil when the line is
// not a header. A header names a date column and at least one amount column.
func detectHeader(cells []cell) []column {
	if len(cells) < 2 {
		return nil
	}
	var (
		columns      []column
		hasDate      bool
		hasAmountCol bool
	)
	for _, c := range cells {
		kind := classifyLabel(c.text)
		if isAmountLike(c.text) || isDateLike(c.text) {
			return nil
		}
		switch {
		case kind == kindDate:
			hasDate = true
		case kind.numeric():
			hasAmountCol = true
		}
		columns = append(columns, column{label: c.text, kind: kind, start: c.start, end: c.end})
	}
	if !hasDate || !hasAmountCol {
		return nil
	}
	return columns
}

// distance is zero when the cell overlaps the column span, otherwise the gap
// between them.
func distance(c cell, col column) int {
	switch {
	case c.end <= col.start:
		return col.start - c.end
	case c.start >= col.end:
		return c.start - col.end
	default:
		return 0
	}
}

// nearestColumn picks the closest column among those accepted by want.
// Ties go to the column whose right edge is closest to the cell's.
func nearestColumn(c cell, columns []column, want func(column) bool) int {
	best, bestDist, bestEdge := -1, 0, 0
	for i, col := range columns {
		if !want(col) {
			continue
		}
		d := distance(c, col)
		edge := abs(c.end - col.end)
		if best < 0 || d < bestDist || (d == bestDist && edge < bestEdge) {
			best, bestDist, bestEdge = i, d, edge
		}
	}
	return best
}

// clusterByRightEdge groups numeric cells into columns by their right edge.
// Cells whose right edges lie within tolerance of the running cluster join it.
func clusterByRightEdge(cells []cell, tolerance int) []column {
	if len(cells) == 0 {
		return nil
	}
	sorted := make([]cell, len(cells))
	copy(sorted, cells)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].end < sorted[j].end })

	var columns []column
	for _, c := range sorted {
		if n := len(columns); n > 0 && c.end-columns[n-1].end <= tolerance {
			if c.start < columns[n-1].start {
				columns[n-1].start = c.start
			}
			columns[n-1].end = c.end
			continue
		}
		columns = append(columns, column{kind: kindOther, start: c.start, end: c.end})
	}
	return columns
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// nearestByRightEdge picks the column whose right edge is closest to the cell's.
func nearestByRightEdge(c cell, columns []column) int {
	best, bestEdge := -1, 0
	for i, col := range columns {
		edge := abs(c.end - col.end)
		if best < 0 || edge < bestEdge {
			best, bestEdge = i, edge
		}
	}
	return best
}
