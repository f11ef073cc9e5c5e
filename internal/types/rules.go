package types

/*
 * Domain types for rule definitions.
 *
 * Provides RuleDef, ConditionDef, and ExceptionDef as the wire-format
 * agnostic authoring model used by internal/rules for compilation and by
 * internal/catalogue for import/export. JSON tags follow the richer
 * authoring format of the catalogue document.
 *
 * A ConditionDef is a tagged variant resolved during compilation:
 *   - Comparison: Field + Operator (+ Value or Values)
 *   - Expression: Expression string (+ optional Tolerance)
 *   - Composite:  And or Or subcondition lists
 * Exactly one variant must be populated; mixed or empty definitions are
 * rejected at compile time, never silently skipped at evaluation time.
 */

// ConditionDef is a single condition as authored or imported.
type ConditionDef struct {
	Field      string   `json:"field,omitempty"`
	Operator   string   `json:"operator,omitempty"`
	Value      string   `json:"value,omitempty"`
	Values     []string `json:"values,omitempty"`
	Expression string   `json:"expression,omitempty"`
	Tolerance  float64  `json:"tolerance,omitempty"`

	And []ConditionDef `json:"and,omitempty"`
	Or  []ConditionDef `json:"or,omitempty"`

	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// ExceptionDef is a carve-out: when ALL its conditions hold for a row, the
// owning rule's conditions are not enforced for that row. Multiple
// exceptions on one rule are independent and ORed.
type ExceptionDef struct {
	Conditions []ConditionDef `json:"conditions"`
}

// RuleDef is a complete rule definition for one or more classification
// codes. Several codes sharing identical conditions are stored once and
// indexed per code (storage optimization, not a semantic variant).
type RuleDef struct {
	Codes       []string       `json:"codes"`
	Description string         `json:"description,omitempty"`
	TaxType     string         `json:"taxType,omitempty"` // PIS, COFINS or empty (both)
	Conditions  []ConditionDef `json:"conditions"`
	Exceptions  []ExceptionDef `json:"exceptions,omitempty"`
}
