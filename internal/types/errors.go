package types

import "errors"

// Sentinel errors for catalogue and rule-definition handling. Bad row data is
// never an error; it becomes findings. Only malformed rule definitions and
// catalogue documents are exceptional, and only at load/import time.
var (
	// ErrInvalidFormat indicates a catalogue document that is missing one
	// of the three required partitions or is not a mapping.
	ErrInvalidFormat = errors.New("invalid catalogue document format")

	// ErrInvalidRule indicates a rule definition that cannot be compiled.
	ErrInvalidRule = errors.New("invalid rule definition")

	// ErrUnknownOperator indicates a comparison condition with an
	// unrecognized operator name.
	ErrUnknownOperator = errors.New("unknown condition operator")

	// ErrBadExpression indicates an expression condition that does not
	// parse into exactly one comparison over arithmetic terms.
	ErrBadExpression = errors.New("malformed expression")

	// ErrBadPattern indicates a regex condition with an invalid pattern.
	ErrBadPattern = errors.New("invalid regex pattern")

	// ErrEmptyCondition indicates a condition with no operator, no
	// expression and no subconditions.
	ErrEmptyCondition = errors.New("condition is empty")

	// ErrConditionTooDeep indicates composite nesting beyond MaxConditionDepth.
	ErrConditionTooDeep = errors.New("condition tree exceeds maximum depth")

	// ErrTooManyInValues indicates an in/nin list beyond MaxInValues.
	ErrTooManyInValues = errors.New("membership list has too many values")

	// ErrExpressionTooLong indicates an expression source beyond
	// MaxExpressionLength.
	ErrExpressionTooLong = errors.New("expression exceeds maximum length")

	// ErrUnknownPartition indicates a catalogue operation against a
	// partition name outside cfop/cst_icms/cst_pis_cofins.
	ErrUnknownPartition = errors.New("unknown catalogue partition")

	// ErrRuleNotFound indicates a remove/lookup for a code with no rule.
	ErrRuleNotFound = errors.New("rule not found")
)
