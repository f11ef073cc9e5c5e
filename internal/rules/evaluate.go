// internal/rules/evaluate.go
package rules

import (
	"math"

	"github.com/walisonlf/fiscal/internal/types"
)

/*
 * Condition evaluation.
 *
 * Evaluates CompiledCondition trees against a row. Pure, side-effect free,
 * and total: compiled input never fails at evaluation time, bad cell data
 * simply makes conditions false (or true for the emptiness probe).
 *
 * Evaluation flow per condition:
 *   - Comparison: read field -> compare per operator semantics
 *   - Expression: evaluate both arithmetic sides -> compare, equality and
 *     inequality honoring the configured tolerance
 *   - Composite: depth-first recursion with short-circuit (AND stops at the
 *     first false, OR at the first true); empty AND is vacuously true,
 *     empty OR vacuously false
 *
 * Exception semantics: a rule's exceptions are independent and ORed; one
 * exception matches when ALL of its conditions hold. A matching exception
 * suppresses the rule's own conditions for that row.
 */

// Evaluate reports whether a compiled condition holds for a row.
func Evaluate(cond *CompiledCondition, row types.Row) bool {
	switch cond.kind {
	case kindComparison:
		value, present := row.Get(cond.Field)
		return compare(cond, value, present)

	case kindExpression:
		lhs := cond.Expr.Left.Eval(row)
		rhs := cond.Expr.Right.Eval(row)
		return compareNumeric(cond.Expr.Op, lhs, rhs, cond.Tolerance)

	case kindComposite:
		if cond.Combinator == CombinatorOr {
			for i := range cond.Subs {
				if Evaluate(&cond.Subs[i], row) {
					return true
				}
			}
			return false
		}
		for i := range cond.Subs {
			if !Evaluate(&cond.Subs[i], row) {
				return false
			}
		}
		return true

	default:
		return false
	}
}

// compareNumeric applies an expression comparison with tolerance.
// Equality accepts |lhs-rhs| <= tolerance; inequality requires the
// difference to exceed it. Ordering operators ignore tolerance.
func compareNumeric(op Operator, lhs, rhs, tolerance float64) bool {
	switch op {
	case OpEq:
		return math.Abs(lhs-rhs) <= tolerance
	case OpNeq:
		return math.Abs(lhs-rhs) > tolerance
	case OpGt:
		return lhs > rhs
	case OpGte:
		return lhs >= rhs
	case OpLt:
		return lhs < rhs
	case OpLte:
		return lhs <= rhs
	default:
		return false
	}
}

// MatchesException reports whether any of the rule's exceptions fully holds
// for the row. Conditions within one exception are ANDed (cost-ordered at
// compile time); exceptions themselves are ORed.
func MatchesException(rule *CompiledRule, row types.Row) bool {
	for i := range rule.Exceptions {
		if exceptionHolds(&rule.Exceptions[i], row) {
			return true
		}
	}
	return false
}

func exceptionHolds(exc *CompiledException, row types.Row) bool {
	for i := range exc.Conditions {
		if !Evaluate(&exc.Conditions[i], row) {
			return false
		}
	}
	return true
}
