// Package textutils provides text cleanup helpers for statement descriptions.
package textutils

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)

	// Card network boilerplate that precedes the merchant on many statements.
	paymentPrefixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^purchase authorized on \d{1,2}/\d{1,2}\s+`),
		regexp.MustCompile(`(?i)^(?:debit |credit )?card purchase(?: at)?\s+`),
		regexp.MustCompile(`(?i)^checkcard \d{4}\s+`),
		regexp.MustCompile(`(?i)^pos (?:purchase|debit)?\s*`),
		regexp.MustCompile(`(?i)^recurring payment\s+`),
	}
)

// CleanDescription removes control characters, collapses whitespace and trims.
func CleanDescription(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, text)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(cleaned, " "))
}

// StripPaymentPrefix drops leading card-payment boilerplate so the merchant
// name comes first. The description is returned unchanged when nothing matches.
func StripPaymentPrefix(description string) string {
	for _, re := range paymentPrefixes {
		if loc := re.FindStringIndex(description); loc != nil {
			rest := strings.TrimSpace(description[loc[1]:])
			if rest != "" {
				return rest
			}
		}
	}
	return description
}

// LettersOnly keeps ASCII letters and whitespace.
func LettersOnly(text string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest.
func TitleCase(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// FirstWords returns at most n whitespace-separated words joined by single spaces.
func FirstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
