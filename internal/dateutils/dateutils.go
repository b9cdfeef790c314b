// Package dateutils provides common date and time operations used throughout the application.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutUS       = "01/02/2006"
	DateLayoutMonth    = "2006-01"
)

// monthFirstFormats are tried when statements use the US month/day order.
var monthFirstFormats = []string{
	DateLayoutUS,
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
}

// dayFirstFormats are the day/month counterparts of monthFirstFormats.
var dayFirstFormats = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2/1/06",
	"02-01-2006",
}

// unambiguousFormats carry a four digit year first, dots or a month name.
var unambiguousFormats = []string{
	DateLayoutISO,
	"2006/01/02",
	DateLayoutEuropean,
	"2.1.2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
}

var (
	yearlessMonthFirst = []string{"01/02", "1/2"}
	yearlessDayFirst   = []string{"02/01", "2/1"}
	yearlessNamed      = []string{"Jan 2", "January 2", "2 Jan", "2 January", "02.01."}
)

const monthNames = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?`

var (
	whitespace = regexp.MustCompile(`\s+`)
	dateShape  = regexp.MustCompile(`(?i)^(?:` +
		`\d{1,2}/\d{1,2}(?:/(?:\d{2}|\d{4}))?` +
		`|\d{1,2}-\d{1,2}-(?:\d{2}|\d{4})` +
		`|\d{1,2}\.\d{1,2}\.(?:\d{2}|\d{4})?` +
		`|\d{4}[/-]\d{1,2}[/-]\d{1,2}` +
		`|` + monthNames + `\s+\d{1,2}(?:,?\s+\d{4})?` +
		`|\d{1,2}[\s-]+` + monthNames + `(?:[\s-]+\d{4})?` +
		`)$`)
)

// ParsedDate is the result of parsing statement date text.
// HasYear is false when the text carried only a month and a day; Time then
// holds year zero and must be resolved with ResolveYear.
type ParsedDate struct {
	Time    time.Time
	HasYear bool
	Layout  string
}

// ParseDate attempts to parse a date string using the statement formats.
// Numeric dates are read month first unless dayFirst is set.
func ParseDate(dateStr string, dayFirst bool) (ParsedDate, error) {
	cleaned := CleanDateString(dateStr)
	if cleaned == "" {
		return ParsedDate{}, fmt.Errorf("unable to parse date: empty")
	}

	numeric, yearless := monthFirstFormats, yearlessMonthFirst
	if dayFirst {
		numeric, yearless = dayFirstFormats, yearlessDayFirst
	}

	for _, group := range [][]string{numeric, unambiguousFormats} {
		for _, layout := range group {
			if t, err := time.Parse(layout, cleaned); err == nil {
				return ParsedDate{Time: t, HasYear: true, Layout: layout}, nil
			}
		}
	}
	for _, group := range [][]string{yearless, yearlessNamed} {
		for _, layout := range group {
			if t, err := time.Parse(layout, cleaned); err == nil {
				return ParsedDate{Time: t, HasYear: false, Layout: layout}, nil
			}
		}
	}

	return ParsedDate{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ResolveYear places a year-less month/day into the year that puts it
// closest to the given statement month. Days that do not exist in a
// candidate year (Feb 29) rule that year out.
func ResolveYear(p ParsedDate, year int, month time.Month) (time.Time, bool) {
	if p.HasYear {
		return p.Time, true
	}

	target := StartOfMonth(year, month)
	var (
		best     time.Time
		bestDiff time.Duration
		found    bool
	)
	for _, y := range []int{year, year - 1, year + 1} {
		candidate := time.Date(y, p.Time.Month(), p.Time.Day(), 0, 0, 0, 0, time.UTC)
		if candidate.Month() != p.Time.Month() {
			continue
		}
		diff := candidate.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if !found || diff < bestDiff {
			best, bestDiff, found = candidate, diff, true
		}
	}
	return best, found
}

// LooksLikeDate reports whether text has the shape of a statement date.
// It is a shape test only: "02/30/2024" looks like a date.
func LooksLikeDate(text string) bool {
	return dateShape.MatchString(CleanDateString(text))
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// CleanDateString removes unwanted characters and normalizes a date string
func CleanDateString(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)
	return whitespace.ReplaceAllString(dateStr, " ")
}

// StartOfMonth returns midnight UTC on the first day of the month.
func StartOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns midnight UTC on the last day of the month.
func EndOfMonth(year int, month time.Month) time.Time {
	return StartOfMonth(year, month).AddDate(0, 1, -1)
}

// WithinMonth reports whether date falls in the month, allowing up to
// toleranceDays on either side of the month boundaries.
func WithinMonth(date time.Time, year int, month time.Month, toleranceDays int) bool {
	if toleranceDays < 0 {
		toleranceDays = 0
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	lower := StartOfMonth(year, month).AddDate(0, 0, -toleranceDays)
	upper := EndOfMonth(year, month).AddDate(0, 0, toleranceDays)
	return !day.Before(lower) && !day.After(upper)
}

// MonthLabel formats a year and month as YYYY-MM.
func MonthLabel(year int, month time.Month) string {
	return StartOfMonth(year, month).Format(DateLayoutMonth)
}
