// internal/rules/compile_test.go
package rules

import (
	"errors"
	"testing"

	"github.com/walisonlf/fiscal/internal/types"
)

func TestCompile_SimpleRule(t *testing.T) {
	def := &types.RuleDef{
		Codes:       []string{"5101"},
		Description: "Venda de produção do estabelecimento",
		Conditions: []types.ConditionDef{
			{
				Field:        "CST ICMS",
				Operator:     "in",
				Values:       []string{"00", "10", "20", "90"},
				ErrorCode:    "E100",
				ErrorMessage: "CST ICMS inválido",
			},
		},
	}

	compiled, err := Compile(def)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if len(compiled.Checks) != 1 {
		t.Fatalf("len(Checks) = %v, want 1", len(compiled.Checks))
	}
	if compiled.Checks[0].ErrorCode != "E100" {
		t.Errorf("ErrorCode = %v, want E100", compiled.Checks[0].ErrorCode)
	}
}

func TestCompile_ExpressionRule(t *testing.T) {
	def := &types.RuleDef{
		Codes: []string{"00"},
		Conditions: []types.ConditionDef{
			{Expression: "Valor ICMS == Base ICMS * (Aliquota ICMS / 100)", Tolerance: 0.01, ErrorCode: "E203"},
		},
	}

	compiled, err := Compile(def)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if compiled.Checks[0].Condition.Tolerance != 0.01 {
		t.Errorf("Tolerance = %v, want 0.01", compiled.Checks[0].Condition.Tolerance)
	}
}

func TestCompile_Invalid(t *testing.T) {
	deep := types.ConditionDef{Field: "F", Operator: "empty"}
	for i := 0; i <= types.MaxConditionDepth+1; i++ {
		deep = types.ConditionDef{And: []types.ConditionDef{deep}}
	}

	manyValues := make([]string, types.MaxInValues+1)
	for i := range manyValues {
		manyValues[i] = "x"
	}

	tests := []struct {
		name    string
		def     types.RuleDef
		wantErr error
	}{
		{
			name:    "no codes",
			def:     types.RuleDef{},
			wantErr: types.ErrInvalidRule,
		},
		{
			name:    "bad tax type",
			def:     types.RuleDef{Codes: []string{"01"}, TaxType: "ISS"},
			wantErr: types.ErrInvalidRule,
		},
		{
			name: "unknown operator",
			def: types.RuleDef{Codes: []string{"01"}, Conditions: []types.ConditionDef{
				{Field: "F", Operator: "equals", Value: "x"},
			}},
			wantErr: types.ErrUnknownOperator,
		},
		{
			name: "empty condition",
			def: types.RuleDef{Codes: []string{"01"}, Conditions: []types.ConditionDef{
				{Field: "F"},
			}},
			wantErr: types.ErrEmptyCondition,
		},
		{
			name: "condition mixes variants",
			def: types.RuleDef{Codes: []string{"01"}, Conditions: []types.ConditionDef{
				{Field: "F", Operator: "eq", Value: "x", And: []types.ConditionDef{{Field: "G", Operator: "empty"}}},
			}},
			wantErr: types.ErrInvalidRule,
		},
		{
			name: "bad expression",
			def: types.RuleDef{Codes: []string{"01"}, Conditions: []types.ConditionDef{
				{Expression: "Base ICMS +"},
			}},
			wantErr: types.ErrBadExpression,
		},
		{
			name: "negative tolerance",
			def: types.RuleDef{Codes: []string{"01"}, Conditions: []types.ConditionDef{
				{Expression: "Base ICMS == 0", Tolerance: -1},
			}},
			wantErr: types.ErrBadExpression,
		},
		{
			name: "bad regex",
			def: types.RuleDef{Codes: []string{"01"}, Conditions: []types.ConditionDef{
				{Field: "F", Operator: "regex", Value: "(["},
			}},
			wantErr: types.ErrBadPattern,
		},
		{
			name: "in without values",
			def: types.RuleDef{Codes: []string{"01"}, Conditions: []types.ConditionDef{
				{Field: "F", Operator: "in"},
			}},
			wantErr: types.ErrEmptyCondition,
		},
		{
			name: "too many in values",
			def: types.RuleDef{Codes: []string{"01"}, Conditions: []types.ConditionDef{
				{Field: "F", Operator: "in", Values: manyValues},
			}},
			wantErr: types.ErrTooManyInValues,
		},
		{
			name:    "too deep",
			def:     types.RuleDef{Codes: []string{"01"}, Conditions: []types.ConditionDef{deep}},
			wantErr: types.ErrConditionTooDeep,
		},
		{
			name: "exception without conditions",
			def: types.RuleDef{Codes: []string{"01"}, Exceptions: []types.ExceptionDef{
				{},
			}},
			wantErr: types.ErrInvalidRule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(&tt.def)
			if err == nil {
				t.Fatalf("Compile() error = nil, want %v", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Compile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCompile_ExceptionConditionsOrderedByCost(t *testing.T) {
	def := &types.RuleDef{
		Codes: []string{"49"},
		Exceptions: []types.ExceptionDef{
			{Conditions: []types.ConditionDef{
				{Field: "Descrição", Operator: "regex", Value: "^BONIF"},
				{Field: "CFOP", Operator: "eq", Value: "5927"},
			}},
		},
	}

	compiled, err := Compile(def)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}

	conds := compiled.Exceptions[0].Conditions
	if len(conds) != 2 {
		t.Fatalf("len(Conditions) = %v, want 2", len(conds))
	}
	// The cheap equality probe must run before the regex
	if conds[0].Op != OpEq {
		t.Errorf("Conditions[0].Op = %v, want OpEq", conds[0].Op)
	}
	if conds[0].Cost > conds[1].Cost {
		t.Errorf("Cost order = %v > %v, want ascending", conds[0].Cost, conds[1].Cost)
	}
}
