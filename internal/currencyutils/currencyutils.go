// Package currencyutils provides common currency and decimal operations used throughout the application.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned when the amount text holds no digits at all.
var ErrEmptyAmount = errors.New("empty amount")

var (
	currencyTokens  = regexp.MustCompile(`(?i)\b(USD|EUR|CHF|GBP|CAD)\b|[€$£¥₣\s]`)
	plainNumber     = regexp.MustCompile(`^\d+(\.\d+)?$`)
	amountShape     = regexp.MustCompile(`(?i)^(?:[€$£]\s*|(?:USD|EUR|CHF|GBP|CAD)\s+)?[-+]?\(?[-+]?\s*(?:[€$£]|USD|EUR|CHF|GBP|CAD)?\s*(?:\d{1,3}(?:[,.' ]\d{3})+|\d+)[.,]\d{2}\)?-?(?:\s*(?:CR|DR))?$`)
	creditDebitMark = regexp.MustCompile(`(?i)\s*(CR|DR)$`)
)

// ParseAmount parses statement amount text into a signed decimal.
//
// Accepted sign conventions: leading or trailing minus, parentheses for
// negatives, and a CR (credit, positive) or DR (debit, negative) suffix.
// Currency symbols, ISO codes and thousands separators are stripped.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	s := strings.TrimSpace(amountStr)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	negative := false
	if m := creditDebitMark.FindStringSubmatch(s); m != nil {
		negative = strings.EqualFold(m[1], "DR")
		s = strings.TrimSpace(s[:len(s)-len(m[0])])
	}
	s = currencyTokens.ReplaceAllString(s, "")
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = !negative
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasSuffix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(strings.TrimSuffix(s, "-"))
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}

	standardized := StandardizeAmount(s)
	if standardized == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	if !plainNumber.MatchString(standardized) {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s'", amountStr)
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// StandardizeAmount rewrites the thousands and decimal separators of an
// unsigned number to the form decimal.NewFromString accepts.
// Handles patterns like "1'234.56", "1.234,56", "1,234.56", "1 234,56".
func StandardizeAmount(amountStr string) string {
	amountStr = strings.ReplaceAll(amountStr, "'", "")
	amountStr = strings.ReplaceAll(amountStr, " ", "")

	lastDot := strings.LastIndex(amountStr, ".")
	lastComma := strings.LastIndex(amountStr, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot < lastComma {
			// European format (1.234,56)
			amountStr = strings.ReplaceAll(amountStr, ".", "")
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	case lastComma >= 0:
		parts := strings.Split(amountStr, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			// Comma used as decimal separator (1234,56)
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	}

	return amountStr
}

// LooksLikeAmount reports whether text has the shape of a statement amount
// (two decimal places, optional sign markers, currency and separators).
// It is a cheap shape test; ParseAmount remains the authority.
func LooksLikeAmount(text string) bool {
	return amountShape.MatchString(strings.TrimSpace(text))
}

// FormatAmount formats a decimal amount to a consistent display format with the specified currency.
// The amount is formatted with two decimal places without inserting thousands separators.
func FormatAmount(amount decimal.Decimal, currency string) string {
	formattedAmount := amount.StringFixed(2)

	switch strings.ToUpper(currency) {
	case "":
		return formattedAmount
	case "EUR":
		return "€" + formattedAmount
	case "USD":
		return "$" + formattedAmount
	case "GBP":
		return "£" + formattedAmount
	default:
		return currency + " " + formattedAmount
	}
}
