// internal/rules/coercion.go
package rules

import (
	"strconv"
	"strings"
)

/*
 * Numeric coercion for rule evaluation.
 *
 * Spreadsheet cells arrive as raw strings in either plain decimal-point
 * notation ("1234.56") or Brazilian notation with thousands separators
 * ("1.234,56"). Both forms must coerce to the same float64 so expression
 * conditions behave identically regardless of the export locale.
 *
 * Two entry points with different failure behavior:
 *   - ParseNumber: strict, reports whether the cell held a number at all
 *   - NumberOrZero: permissive, non-numeric coerces to 0
 *
 * The permissive form backs the ordering operators (gt/gte/lt/lte) and
 * arithmetic field references, matching the documented behavior of the
 * engine: bad cell data is expected input and must never abort evaluation.
 */

// ParseNumber converts a cell value to float64.
// Accepts plain decimal-point and Brazilian comma-decimal notation.
// Whitespace-only and empty strings are not numbers.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if strings.Contains(s, ",") {
		// Brazilian notation: dots are thousands separators, comma is the
		// decimal mark
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// NumberOrZero converts a cell value to float64, coercing anything
// non-numeric (including missing values) to 0.
func NumberOrZero(s string) float64 {
	f, ok := ParseNumber(s)
	if !ok {
		return 0
	}
	return f
}

// IsBlank reports whether a cell value is empty after trimming.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
