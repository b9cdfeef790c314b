// Package aggregator folds a year of month units into an annual summary.
package aggregator

import (
	"sort"
	"time"

	"fjacquet/statement-ledger/internal/categorizer"
	"fjacquet/statement-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// Month is the read view of a month unit. *monthstore.Unit satisfies it.
type Month interface {
	Year() int
	Month() time.Month
	Processed() bool
	List() []models.Transaction
}

// CategoryTotal is the expense magnitude booked to one category.
type CategoryTotal struct {
	Category models.Category `json:"category" yaml:"category" csv:"category"`
	Amount   decimal.Decimal `json:"amount" yaml:"amount" csv:"amount"`
	Count    int             `json:"count" yaml:"count" csv:"count"`
}

// MonthTotal holds the flows of one month. Expenses are magnitudes.
type MonthTotal struct {
	Month     time.Month      `json:"month" yaml:"month"`
	Income    decimal.Decimal `json:"income" yaml:"income"`
	Expenses  decimal.Decimal `json:"expenses" yaml:"expenses"`
	Net       decimal.Decimal `json:"net" yaml:"net"`
	Count     int             `json:"count" yaml:"count"`
	Processed bool            `json:"processed" yaml:"processed"`
}

// VendorRow is one line of the vendor by month expense matrix.
type VendorRow struct {
	Vendor string              `json:"vendor" yaml:"vendor"`
	Months [12]decimal.Decimal `json:"months" yaml:"months"`
	Total  decimal.Decimal     `json:"total" yaml:"total"`
}

// Period spans the first and last transaction dates.
type Period struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Summary is the annual fold.
type Summary struct {
	Year             int             `json:"year" yaml:"year"`
	TotalIncome      decimal.Decimal `json:"total_income" yaml:"total_income"`
	TotalExpenses    decimal.Decimal `json:"total_expenses" yaml:"total_expenses"`
	Net              decimal.Decimal `json:"net" yaml:"net"`
	CategoryTotals   []CategoryTotal `json:"category_totals" yaml:"category_totals"`
	MonthlyTotals    []MonthTotal    `json:"monthly_totals" yaml:"monthly_totals"`
	TransactionCount int             `json:"transaction_count" yaml:"transaction_count"`
	ProcessedMonths  int             `json:"processed_months" yaml:"processed_months"`
	Period           *Period         `json:"period,omitempty" yaml:"period,omitempty"`
	VendorMatrix     []VendorRow     `json:"vendor_matrix" yaml:"vendor_matrix"`
	// MonthExpenses is the column total of VendorMatrix.
	MonthExpenses [12]decimal.Decimal `json:"month_expenses" yaml:"month_expenses"`
}

// CategoryAmount returns the expense total of a category, zero when absent.
func (s Summary) CategoryAmount(c models.Category) decimal.Decimal {
	for _, ct := range s.CategoryTotals {
		if ct.Category == c {
			return ct.Amount
		}
	}
	return decimal.Zero
}

// Aggregate folds the units of year. Units of other years are ignored.
// Units are visited in month order and transactions in list order, so
// CategoryTotals follow the first occurrence of each category in the year.
func Aggregate(year int, units []Month) Summary {
	ordered := make([]Month, 0, len(units))
	for _, u := range units {
		if u.Year() == year {
			ordered = append(ordered, u)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Month() < ordered[j].Month() })

	s := Summary{
		Year:           year,
		TotalIncome:    decimal.Zero,
		TotalExpenses:  decimal.Zero,
		Net:            decimal.Zero,
		CategoryTotals: []CategoryTotal{},
		MonthlyTotals:  make([]MonthTotal, 0, len(ordered)),
		VendorMatrix:   []VendorRow{},
	}
	for i := range s.MonthExpenses {
		s.MonthExpenses[i] = decimal.Zero
	}

	categoryIndex := map[models.Category]int{}
	vendorIndex := map[string]int{}

	for _, u := range ordered {
		mt := MonthTotal{
			Month:     u.Month(),
			Income:    decimal.Zero,
			Expenses:  decimal.Zero,
			Processed: u.Processed(),
		}
		if mt.Processed {
			s.ProcessedMonths++
		}
		col := int(u.Month()) - 1

		for _, tx := range u.List() {
			mt.Count++
			s.TransactionCount++
			s.extendPeriod(tx.Date)

			switch {
			case tx.IsIncome():
				mt.Income = mt.Income.Add(tx.Amount)
			case tx.IsExpense():
				magnitude := tx.Amount.Abs()
				mt.Expenses = mt.Expenses.Add(magnitude)

				idx, ok := categoryIndex[tx.Category]
				if !ok {
					idx = len(s.CategoryTotals)
					categoryIndex[tx.Category] = idx
					s.CategoryTotals = append(s.CategoryTotals, CategoryTotal{Category: tx.Category, Amount: decimal.Zero})
				}
				s.CategoryTotals[idx].Amount = s.CategoryTotals[idx].Amount.Add(magnitude)
				s.CategoryTotals[idx].Count++

				vendor := categorizer.VendorName(tx.Description)
				vi, ok := vendorIndex[vendor]
				if !ok {
					vi = len(s.VendorMatrix)
					vendorIndex[vendor] = vi
					row := VendorRow{Vendor: vendor, Total: decimal.Zero}
					for m := range row.Months {
						row.Months[m] = decimal.Zero
					}
					s.VendorMatrix = append(s.VendorMatrix, row)
				}
				s.VendorMatrix[vi].Months[col] = s.VendorMatrix[vi].Months[col].Add(magnitude)
				s.VendorMatrix[vi].Total = s.VendorMatrix[vi].Total.Add(magnitude)
				s.MonthExpenses[col] = s.MonthExpenses[col].Add(magnitude)
			}
		}

		mt.Net = mt.Income.Sub(mt.Expenses)
		s.TotalIncome = s.TotalIncome.Add(mt.Income)
		s.TotalExpenses = s.TotalExpenses.Add(mt.Expenses)
		s.MonthlyTotals = append(s.MonthlyTotals, mt)
	}

	s.Net = s.TotalIncome.Sub(s.TotalExpenses)
	sort.SliceStable(s.VendorMatrix, func(i, j int) bool {
		if c := s.VendorMatrix[i].Total.Cmp(s.VendorMatrix[j].Total); c != 0 {
			return c > 0
		}
		return s.VendorMatrix[i].Vendor < s.VendorMatrix[j].Vendor
	})
	return s
}

func (s *Summary) extendPeriod(date time.Time) {
	if s.Period == nil {
		s.Period = &Period{Start: date, End: date}
		return
	}
	if date.Before(s.Period.Start) {
		s.Period.Start = date
	}
	if date.After(s.Period.End) {
		s.Period.End = date
	}
}

// Months adapts a slice of concrete units for Aggregate.
func Months[T Month](units []T) []Month {
	out := make([]Month, len(units))
	for i, u := range units {
		out[i] = u
	}
	return out
}
