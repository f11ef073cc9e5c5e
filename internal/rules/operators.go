// internal/rules/operators.go
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/walisonlf/fiscal/internal/types"
)

/*
 * Comparison operator logic.
 *
 * Implements the 14 comparison operators over cell values. Operator names
 * are resolved once at compile time; evaluation dispatches on the enum.
 *
 * Missing-field semantics: a field absent from the row fails every operator
 * except empty (true). A present-but-blank cell behaves the same way, which
 * matches how spreadsheet exports represent unfilled cells.
 *
 * Equality is numeric-aware: when both sides parse as numbers they compare
 * numerically ("10" equals "10.0"), otherwise as exact strings. Ordering
 * operators coerce both sides permissively (non-numeric becomes 0).
 *
 * Why function-based: operator behavior varies too little to justify an
 * interface per operator; a switch keeps the whole comparison surface in
 * one screen.
 */

// Operator identifies a comparison operator, including the six comparison
// forms usable inside expression conditions.
type Operator int

const (
	OpUnspecified Operator = iota
	OpEq
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
	OpIn
	OpNin
	OpContains
	OpStartsWith
	OpEndsWith
	OpEmpty
	OpNotEmpty
	OpRegex
)

// ParseOperator resolves an authored operator name.
// Accepts both "regex" (original catalogue documents) and "regexMatches".
func ParseOperator(name string) (Operator, error) {
	switch name {
	case "eq":
		return OpEq, nil
	case "neq":
		return OpNeq, nil
	case "gt":
		return OpGt, nil
	case "gte":
		return OpGte, nil
	case "lt":
		return OpLt, nil
	case "lte":
		return OpLte, nil
	case "in":
		return OpIn, nil
	case "nin":
		return OpNin, nil
	case "contains":
		return OpContains, nil
	case "startsWith":
		return OpStartsWith, nil
	case "endsWith":
		return OpEndsWith, nil
	case "empty":
		return OpEmpty, nil
	case "notEmpty":
		return OpNotEmpty, nil
	case "regex", "regexMatches":
		return OpRegex, nil
	default:
		return OpUnspecified, fmt.Errorf("%w: %q", types.ErrUnknownOperator, name)
	}
}

// compare applies a compiled comparison condition to a row field value.
// present reports whether the field exists in the row at all.
func compare(cond *CompiledCondition, value string, present bool) bool {
	// Missing fields fail everything except the emptiness probe.
	if !present {
		return cond.Op == OpEmpty
	}

	switch cond.Op {
	case OpEq:
		return valuesEqual(value, cond.Value)
	case OpNeq:
		return !valuesEqual(value, cond.Value)
	case OpGt:
		return NumberOrZero(value) > NumberOrZero(cond.Value)
	case OpGte:
		return NumberOrZero(value) >= NumberOrZero(cond.Value)
	case OpLt:
		return NumberOrZero(value) < NumberOrZero(cond.Value)
	case OpLte:
		return NumberOrZero(value) <= NumberOrZero(cond.Value)
	case OpIn:
		return inList(value, cond.Values)
	case OpNin:
		return !inList(value, cond.Values)
	case OpContains:
		return strings.Contains(value, cond.Value)
	case OpStartsWith:
		return strings.HasPrefix(value, cond.Value)
	case OpEndsWith:
		return strings.HasSuffix(value, cond.Value)
	case OpEmpty:
		return IsBlank(value)
	case OpNotEmpty:
		return !IsBlank(value)
	case OpRegex:
		return cond.Pattern.MatchString(value)
	default:
		return false
	}
}

// valuesEqual compares numerically when both sides are numbers, otherwise
// as exact strings.
func valuesEqual(a, b string) bool {
	na, oka := ParseNumber(a)
	nb, okb := ParseNumber(b)
	if oka && okb {
		return na == nb
	}
	return a == b
}

// inList performs exact string membership against a fixed list.
func inList(value string, list []string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// compilePattern validates a regex operand at load time.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", types.ErrBadPattern, pattern, err)
	}
	return re, nil
}
