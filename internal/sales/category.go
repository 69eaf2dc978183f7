package sales

import "strings"

// CategoryExtractor infers a category code from a product name field.
// Implementations return "" when no code can be resolved; an unresolvable
// category is not a validation error.
//
// Two strategies exist because the source data format changed between
// deployments: older sheets carry the branch code as a name prefix, newer
// ones encode it at a fixed character position. The mapper takes the
// strategy as a value rather than hard-coding one.
type CategoryExtractor func(name string) string

// DefaultCategories is the closed set of recognized branch-style codes.
var DefaultCategories = []string{"MHB", "SMCO", "SMBP", "SMDM"}

// PrefixExtractor matches a leading category code, case-insensitively.
// Longer codes are checked first so "SMCO" wins over a hypothetical "SM".
func PrefixExtractor(codes ...string) CategoryExtractor {
	if len(codes) == 0 {
		codes = DefaultCategories
	}
	ordered := make([]string, len(codes))
	copy(ordered, codes)
	// Stable insertion sort by descending length; the set is tiny.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && len(ordered[j]) > len(ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	return func(name string) string {
		n := strings.ToUpper(strings.TrimSpace(name))
		for _, code := range ordered {
			if strings.HasPrefix(n, strings.ToUpper(code)) {
				return code
			}
		}
		return ""
	}
}

// PositionExtractor reads length characters starting at start (0-based) and
// returns the code if it is in the recognized set.
func PositionExtractor(start, length int, codes ...string) CategoryExtractor {
	if len(codes) == 0 {
		codes = DefaultCategories
	}

	return func(name string) string {
		n := strings.TrimSpace(name)
		if start < 0 || length <= 0 || start >= len(n) {
			return ""
		}
		end := start + length
		if end > len(n) {
			end = len(n)
		}
		got := strings.TrimSpace(n[start:end])
		for _, code := range codes {
			if strings.EqualFold(got, code) {
				return code
			}
		}
		return ""
	}
}

// ExtractorByName resolves a configured strategy name. Unknown names fall
// back to the prefix strategy.
func ExtractorByName(name string) CategoryExtractor {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "position":
		// Branch codes occupy the first four characters in the fixed-width
		// format family.
		return PositionExtractor(0, 4)
	default:
		return PrefixExtractor()
	}
}
