// Package parse provides tolerant conversion of human-formatted spreadsheet
// cell values into numeric primitives.
//
// Spreadsheet exports from branch staff carry inconsistent formatting:
// currency symbols, thousand separators, percent signs, accounting-style
// parenthesized negatives, and trailing annotations ("9 (EA)"). Centralizing
// that tolerance here keeps per-row validation a simple branch on the ok
// result rather than ad hoc coercion at every call site.
//
// Both functions are pure and never panic. Failure is reported through the
// second return value, so callers can distinguish "parsed as zero" from
// "failed to parse, defaulted to zero".
package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates a cleaned string as a plain numeric literal.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// dayPrefixRegex matches a leading run of one or two digits, ignoring any
// trailing annotation text ("31 - promo", "9 (EA)").
var dayPrefixRegex = regexp.MustCompile(`^(\d{1,2})`)

// currencyTokens are stripped before numeric parsing. Longer tokens first so
// "PHP" is removed before a bare "P" could interfere with digits.
var currencyTokens = []string{"PHP", "Php", "php", "₱", "$"}

// Number converts a loosely formatted cell value to a float64.
//
// It strips whitespace, currency markers, percent signs, and thousands
// separators, and treats a fully parenthesized value as negative
// (accounting convention). Returns ok=false if no number remains.
//
//	Number("₱1,200.00") == 1200, true
//	Number("50%")       == 50, true
//	Number("(123.45)")  == -123.45, true
//	Number("abc")       == 0, false
func Number(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	// Accounting negative: "(123.45)" -> "-123.45"
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.TrimSpace(s[1:len(s)-1])
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Day extracts a day-of-month from a cell value.
//
// The value may carry trailing annotation text; only the leading one or two
// digits are read. Returns ok=false for empty input, values without leading
// digits, or days outside [1, 31].
func Day(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	m := dayPrefixRegex.FindString(s)
	if m == "" {
		return 0, false
	}

	d, err := strconv.Atoi(m)
	if err != nil || d < 1 || d > 31 {
		return 0, false
	}
	return d, true
}

// Round2 rounds a currency amount to two decimal places, half away from zero.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
