package validation

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// strictHTMLPolicy removes all markup.
var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeText strips HTML and unprintable characters and trims the result.
func SanitizeText(s string) string {
	return strings.TrimSpace(strictHTMLPolicy.Sanitize(StripUnprintable(s)))
}

// SanitizeForFormulaInjection prefixes a quote when s would start a spreadsheet formula.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}

// SanitizeImportedText cleans a free text cell read from an uploaded blotter.
func SanitizeImportedText(s string) string {
	return SanitizeForFormulaInjection(SanitizeText(s))
}

// StripUnprintable removes non-printable characters, keeping tab and newlines.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}
