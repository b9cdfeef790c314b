package categorizer

import (
	"regexp"

	"fjacquet/statement-ledger/internal/textutils"
)

// UnknownVendor names transactions without a description.
const UnknownVendor = "Unknown"

type vendorRule struct {
	pattern *regexp.Regexp
	name    string
}

// Known merchants whose statement spellings vary a lot.
var vendorRules = []vendorRule{
	{regexp.MustCompile(`(?i)\bAFFIRM\b`), "Affirm"},
	{regexp.MustCompile(`(?i)\bGOO?GLE\b`), "Google"},
	{regexp.MustCompile(`(?i)\bGSUITE\b|\bWORKSPACE\b`), "Google"},
	{regexp.MustCompile(`(?i)\bPAY\s*PAL\b|\bPAYPAL\b`), "PayPal"},
	{regexp.MustCompile(`(?i)\bAMAZON\b|\bAMZN\b`), "Amazon"},
	{regexp.MustCompile(`(?i)MCDONALD`), "McDonald's"},
	{regexp.MustCompile(`(?i)\bSTARBUCKS\b`), "Starbucks"},
	{regexp.MustCompile(`(?i)HOME\s*DEPOT`), "The Home Depot"},
	{regexp.MustCompile(`(?i)\bAPPLE\b|APPLE\.?COM|APPLECARD`), "Apple"},
	{regexp.MustCompile(`(?i)\bMICROSOFT\b|\bMSFT\b`), "Microsoft"},
	{regexp.MustCompile(`(?i)\bUBER\b`), "Uber"},
	{regexp.MustCompile(`(?i)\bLYFT\b`), "Lyft"},
}

// VendorName maps a noisy description to a stable vendor name. Known
// merchants are matched first; otherwise the first three words of the
// letters-only description are title-cased.
func VendorName(description string) string {
	if description == "" {
		return UnknownVendor
	}
	for _, rule := range vendorRules {
		if rule.pattern.MatchString(description) {
			return rule.name
		}
	}

	cleaned := textutils.LettersOnly(textutils.StripPaymentPrefix(description))
	candidate := textutils.FirstWords(cleaned, 3)
	if candidate == "" {
		return description
	}
	return textutils.TitleCase(candidate)
}
