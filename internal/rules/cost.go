// internal/rules/cost.go
package rules

/*
 * Cost model for condition evaluation.
 *
 * Assigns a relative cost to each compiled condition so exception condition
 * lists can be evaluated cheapest-first. Exceptions are ANDed and emit no
 * findings, so the reordering is outcome-invariant while maximizing the
 * short-circuit benefit on non-matching rows.
 *
 * cost = operator base cost, plus per-element cost for membership lists,
 * per-node cost for arithmetic expressions, and the sum of subcondition
 * costs for composites.
 */

const (
	costEmpty      = 1
	costEq         = 2
	costMembership = 4
	costOrdering   = 5
	costSubstring  = 6
	costRegex      = 20

	// Per-element / per-node increments
	costPerInValue  = 1
	costPerExprNode = 3

	// Composite overhead per nesting level
	costCompositeOverhead = 1
)

// conditionCost computes the relative evaluation cost of one condition.
// Subcondition costs are already populated when composites are costed,
// since compilation builds trees bottom-up.
func conditionCost(c *CompiledCondition) int {
	switch c.kind {
	case kindComparison:
		return operatorCost(c)
	case kindExpression:
		return costPerExprNode * (c.Expr.Left.nodeCount() + c.Expr.Right.nodeCount())
	case kindComposite:
		total := costCompositeOverhead
		for i := range c.Subs {
			total += c.Subs[i].Cost
		}
		return total
	default:
		return costEq
	}
}

func operatorCost(c *CompiledCondition) int {
	switch c.Op {
	case OpEmpty, OpNotEmpty:
		return costEmpty
	case OpEq, OpNeq:
		return costEq
	case OpIn, OpNin:
		return costMembership + costPerInValue*len(c.Values)
	case OpGt, OpGte, OpLt, OpLte:
		return costOrdering
	case OpContains, OpStartsWith, OpEndsWith:
		return costSubstring
	case OpRegex:
		return costRegex
	default:
		return costEq
	}
}
