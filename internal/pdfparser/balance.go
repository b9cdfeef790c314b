package pdfparser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Balance policy names accepted by PolicyByName.
const (
	PolicyMonotonic = "monotonic"
	PolicyLabel     = "label"
	PolicyNone      = "none"
)

// BalancePolicy decides whether a numeric column is a running balance rather
// than a per-transaction amount. Balance columns never become amounts.
type BalancePolicy interface {
	LooksLikeRunningBalance(label string, values []decimal.Decimal) bool
}

// LabelBalancePolicy trusts the column header only.
type LabelBalancePolicy struct{}

// LooksLikeRunningBalance reports whether the label names a balance column.
func (LabelBalancePolicy) LooksLikeRunningBalance(label string, _ []decimal.Decimal) bool {
	return strings.Contains(strings.ToLower(label), "balance")
}

// MonotonicBalancePolicy flags a column labeled as a balance, or one holding at
// least MinValues values whose magnitudes only ever move in one direction.
type MonotonicBalancePolicy struct {
	MinValues int
}

// NewMonotonicBalancePolicy returns the policy with a three value minimum.
func NewMonotonicBalancePolicy() MonotonicBalancePolicy {
	return MonotonicBalancePolicy{MinValues: 3}
}

// LooksLikeRunningBalance implements BalancePolicy.
func (p MonotonicBalancePolicy) LooksLikeRunningBalance(label string, values []decimal.Decimal) bool {
	if (LabelBalancePolicy{}).LooksLikeRunningBalance(label, values) {
		return true
	}
	minValues := p.MinValues
	if minValues < 2 {
		minValues = 2
	}
	if len(values) < minValues {
		return false
	}

	increasing, decreasing, changed := true, true, false
	for i := 1; i < len(values); i++ {
		switch values[i].Abs().Cmp(values[i-1].Abs()) {
		case 1:
			decreasing = false
			changed = true
		case -1:
			increasing = false
			changed = true
		}
	}
	return changed && (increasing || decreasing)
}

// NoBalancePolicy never excludes a column.
type NoBalancePolicy struct{}

// LooksLikeRunningBalance always reports false.
func (NoBalancePolicy) LooksLikeRunningBalance(string, []decimal.Decimal) bool {
	return false
}

// PolicyByName maps a configuration value to a BalancePolicy.
// An empty name selects the monotonic policy.
func PolicyByName(name string) (BalancePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyMonotonic:
		return NewMonotonicBalancePolicy(), nil
	case PolicyLabel:
		return LabelBalancePolicy{}, nil
	case PolicyNone:
		return NoBalancePolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown balance policy %q (want %s, %s or %s)", name, PolicyMonotonic, PolicyLabel, PolicyNone)
	}
}
