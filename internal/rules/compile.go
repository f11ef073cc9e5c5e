// internal/rules/compile.go
package rules

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/walisonlf/fiscal/internal/types"
)

/*
 * Rule compilation and validation.
 *
 * Compiles types.RuleDef to CompiledRule: operator names resolved, regex
 * patterns and arithmetic expressions parsed, membership lists bounded,
 * composite nesting depth-checked, and exception conditions ordered by
 * ascending cost.
 *
 * Why compile-time validation: a malformed condition is a configuration
 * defect, not row data. Surfacing it when the catalogue is loaded or
 * imported keeps evaluation total - Evaluate never fails and never silently
 * returns false because of an authoring mistake.
 *
 * Exactly-one-variant enforcement: a ConditionDef must be a comparison
 * (field + operator), an expression, or a composite (and/or), never a blend.
 * The original data model let these coexist ambiguously; here a blend is
 * ErrInvalidRule at import.
 *
 * Why only exceptions are cost-ordered: exception conditions are ANDed and
 * produce no findings, so reordering them is outcome-invariant and buys
 * short-circuit speed. A rule's own conditions keep authored order because
 * each failure emits a finding and finding order must be stable.
 */

// Combinator joins subconditions of a composite condition.
type Combinator int

const (
	CombinatorAnd Combinator = iota
	CombinatorOr
)

type conditionKind int

const (
	kindComparison conditionKind = iota
	kindExpression
	kindComposite
)

// CompiledCondition is a pre-processed condition ready for evaluation.
// Exactly one variant's fields are populated, selected by kind.
type CompiledCondition struct {
	kind conditionKind

	// Comparison
	Field   string
	Op      Operator
	Value   string
	Values  []string
	Pattern *regexp.Regexp

	// Expression
	Expr      *Comparison
	Tolerance float64

	// Composite
	Combinator Combinator
	Subs       []CompiledCondition

	Cost int
}

// CompiledCheck pairs a condition with the finding it produces on failure.
type CompiledCheck struct {
	Condition    CompiledCondition
	ErrorCode    string
	ErrorMessage string
}

// CompiledException is a carve-out with its conditions ordered by ascending
// cost for short-circuit evaluation.
type CompiledException struct {
	Conditions []CompiledCondition
}

// CompiledRule is fully pre-processed and ready for evaluation.
type CompiledRule struct {
	Codes       []string
	Description string
	TaxType     string
	Checks      []CompiledCheck
	Exceptions  []CompiledException
}

// Compile validates and pre-processes a rule definition.
// Returns an error wrapping types.ErrInvalidRule for definitions that
// cannot be evaluated.
func Compile(def *types.RuleDef) (*CompiledRule, error) {
	if len(def.Codes) == 0 {
		return nil, fmt.Errorf("%w: rule has no classification codes", types.ErrInvalidRule)
	}
	if def.TaxType != "" && def.TaxType != types.TaxTypePIS && def.TaxType != types.TaxTypeCOFINS {
		return nil, fmt.Errorf("%w: unknown tax type %q", types.ErrInvalidRule, def.TaxType)
	}

	compiled := &CompiledRule{
		Codes:       append([]string(nil), def.Codes...),
		Description: def.Description,
		TaxType:     def.TaxType,
		Checks:      make([]CompiledCheck, 0, len(def.Conditions)),
	}

	for i, cond := range def.Conditions {
		cc, err := compileCondition(cond, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: condition %d: %w", types.ErrInvalidRule, i, err)
		}
		compiled.Checks = append(compiled.Checks, CompiledCheck{
			Condition:    cc,
			ErrorCode:    cond.ErrorCode,
			ErrorMessage: cond.ErrorMessage,
		})
	}

	for i, exc := range def.Exceptions {
		if len(exc.Conditions) == 0 {
			return nil, fmt.Errorf("%w: exception %d has no conditions", types.ErrInvalidRule, i)
		}
		ce := CompiledException{Conditions: make([]CompiledCondition, 0, len(exc.Conditions))}
		for j, cond := range exc.Conditions {
			cc, err := compileCondition(cond, 0)
			if err != nil {
				return nil, fmt.Errorf("%w: exception %d condition %d: %w", types.ErrInvalidRule, i, j, err)
			}
			ce.Conditions = append(ce.Conditions, cc)
		}
		// Stable sort: equal-cost conditions keep authored order
		sort.SliceStable(ce.Conditions, func(a, b int) bool {
			return ce.Conditions[a].Cost < ce.Conditions[b].Cost
		})
		compiled.Exceptions = append(compiled.Exceptions, ce)
	}

	return compiled, nil
}

// compileCondition resolves one ConditionDef into its variant, validating
// operator names, patterns, expressions, list sizes, and nesting depth.
func compileCondition(def types.ConditionDef, depth int) (CompiledCondition, error) {
	if depth > types.MaxConditionDepth {
		return CompiledCondition{}, types.ErrConditionTooDeep
	}

	composite := len(def.And) > 0 || len(def.Or) > 0
	comparison := def.Operator != ""
	expression := def.Expression != ""

	switch {
	case composite:
		if comparison || expression {
			return CompiledCondition{}, fmt.Errorf("composite condition mixes variants")
		}
		if len(def.And) > 0 && len(def.Or) > 0 {
			return CompiledCondition{}, fmt.Errorf("condition has both and and or lists")
		}
		return compileComposite(def, depth)

	case expression:
		return compileExpression(def)

	case comparison:
		return compileComparison(def)

	default:
		return CompiledCondition{}, types.ErrEmptyCondition
	}
}

func compileComposite(def types.ConditionDef, depth int) (CompiledCondition, error) {
	combinator := CombinatorAnd
	subs := def.And
	if len(def.Or) > 0 {
		combinator = CombinatorOr
		subs = def.Or
	}

	cc := CompiledCondition{
		kind:       kindComposite,
		Combinator: combinator,
		Subs:       make([]CompiledCondition, 0, len(subs)),
	}
	for i, sub := range subs {
		sc, err := compileCondition(sub, depth+1)
		if err != nil {
			return CompiledCondition{}, fmt.Errorf("subcondition %d: %w", i, err)
		}
		cc.Subs = append(cc.Subs, sc)
	}
	cc.Cost = conditionCost(&cc)
	return cc, nil
}

func compileExpression(def types.ConditionDef) (CompiledCondition, error) {
	cmp, err := ParseComparison(def.Expression)
	if err != nil {
		return CompiledCondition{}, err
	}
	if def.Tolerance < 0 {
		return CompiledCondition{}, fmt.Errorf("%w: negative tolerance", types.ErrBadExpression)
	}

	// Simple-format conditions reference the validated column as "value";
	// bind the placeholder to the concrete field at compile time.
	if def.Field != "" {
		cmp.Left.rewriteField("value", def.Field)
		cmp.Right.rewriteField("value", def.Field)
	}

	cc := CompiledCondition{
		kind:      kindExpression,
		Field:     def.Field,
		Expr:      cmp,
		Tolerance: def.Tolerance,
	}
	cc.Cost = conditionCost(&cc)
	return cc, nil
}

func compileComparison(def types.ConditionDef) (CompiledCondition, error) {
	op, err := ParseOperator(def.Operator)
	if err != nil {
		return CompiledCondition{}, err
	}
	if def.Field == "" {
		return CompiledCondition{}, fmt.Errorf("comparison without a field: %w", types.ErrEmptyCondition)
	}

	cc := CompiledCondition{
		kind:  kindComparison,
		Field: def.Field,
		Op:    op,
		Value: def.Value,
	}

	switch op {
	case OpIn, OpNin:
		if len(def.Values) > types.MaxInValues {
			return CompiledCondition{}, types.ErrTooManyInValues
		}
		if len(def.Values) == 0 {
			return CompiledCondition{}, fmt.Errorf("%s without values list: %w", def.Operator, types.ErrEmptyCondition)
		}
		cc.Values = append([]string(nil), def.Values...)
	case OpRegex:
		re, err := compilePattern(def.Value)
		if err != nil {
			return CompiledCondition{}, err
		}
		cc.Pattern = re
	}

	cc.Cost = conditionCost(&cc)
	return cc, nil
}
