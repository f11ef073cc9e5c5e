// internal/rules/evaluate_test.go
package rules

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/walisonlf/fiscal/internal/types"
)

func mustCompile(t *testing.T, def *types.RuleDef) *CompiledRule {
	t.Helper()
	compiled, err := Compile(def)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	return compiled
}

func TestEvaluate_ToleranceEquality(t *testing.T) {
	rule := mustCompile(t, &types.RuleDef{
		Codes: []string{"00"},
		Conditions: []types.ConditionDef{
			{Expression: "Valor ICMS == Base ICMS * (Aliquota ICMS / 100)", Tolerance: 0.01, ErrorCode: "E203"},
		},
	})
	cond := &rule.Checks[0].Condition

	tests := []struct {
		name  string
		valor string
		want  bool
	}{
		{name: "exact", valor: "10", want: true},
		{name: "within tolerance", valor: "10.004", want: true},
		{name: "at tolerance boundary", valor: "10.01", want: true},
		{name: "beyond tolerance", valor: "10.02", want: false},
		{name: "comma decimal within tolerance", valor: "10,004", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := types.Row{
				"Base ICMS":     "100",
				"Aliquota ICMS": "10",
				"Valor ICMS":    tt.valor,
			}
			if got := Evaluate(cond, row); got != tt.want {
				t.Errorf("Evaluate(Valor ICMS=%s) = %v, want %v", tt.valor, got, tt.want)
			}
		})
	}
}

func TestEvaluate_InequalityTolerance(t *testing.T) {
	rule := mustCompile(t, &types.RuleDef{
		Codes: []string{"00"},
		Conditions: []types.ConditionDef{
			{Expression: "Valor ICMS != Base ICMS", Tolerance: 0.01},
		},
	})
	cond := &rule.Checks[0].Condition

	// Inequality must be tolerance-consistent: values equal within
	// tolerance are not unequal
	row := types.Row{"Valor ICMS": "100.005", "Base ICMS": "100"}
	if Evaluate(cond, row) {
		t.Errorf("Evaluate(diff within tolerance) = true, want false")
	}
	row["Valor ICMS"] = "100.02"
	if !Evaluate(cond, row) {
		t.Errorf("Evaluate(diff beyond tolerance) = false, want true")
	}
}

func TestEvaluate_Composite(t *testing.T) {
	andRule := mustCompile(t, &types.RuleDef{
		Codes: []string{"x"},
		Conditions: []types.ConditionDef{
			{And: []types.ConditionDef{
				{Field: "A", Operator: "eq", Value: "1"},
				{Field: "B", Operator: "eq", Value: "2"},
			}},
		},
	})
	orRule := mustCompile(t, &types.RuleDef{
		Codes: []string{"x"},
		Conditions: []types.ConditionDef{
			{Or: []types.ConditionDef{
				{Field: "A", Operator: "eq", Value: "1"},
				{Field: "B", Operator: "eq", Value: "2"},
			}},
		},
	})

	tests := []struct {
		name    string
		row     types.Row
		wantAnd bool
		wantOr  bool
	}{
		{name: "both hold", row: types.Row{"A": "1", "B": "2"}, wantAnd: true, wantOr: true},
		{name: "first holds", row: types.Row{"A": "1", "B": "9"}, wantAnd: false, wantOr: true},
		{name: "second holds", row: types.Row{"A": "9", "B": "2"}, wantAnd: false, wantOr: true},
		{name: "neither holds", row: types.Row{"A": "9", "B": "9"}, wantAnd: false, wantOr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(&andRule.Checks[0].Condition, tt.row); got != tt.wantAnd {
				t.Errorf("AND = %v, want %v", got, tt.wantAnd)
			}
			if got := Evaluate(&orRule.Checks[0].Condition, tt.row); got != tt.wantOr {
				t.Errorf("OR = %v, want %v", got, tt.wantOr)
			}
		})
	}
}

func TestMatchesException(t *testing.T) {
	rule := mustCompile(t, &types.RuleDef{
		Codes: []string{"49"},
		Conditions: []types.ConditionDef{
			{Expression: "Base PIS == 0", ErrorCode: "E264"},
		},
		Exceptions: []types.ExceptionDef{
			{Conditions: []types.ConditionDef{
				{Field: "CFOP", Operator: "in", Values: []string{"5201", "5202", "5411", "5927", "6201", "6202", "6411"}},
			}},
			{Conditions: []types.ConditionDef{
				{Field: "CFOP", Operator: "eq", Value: "5949"},
				{Field: "Descrição", Operator: "notEmpty"},
			}},
		},
	})

	tests := []struct {
		name string
		row  types.Row
		want bool
	}{
		{name: "first exception matches", row: types.Row{"CFOP": "5927"}, want: true},
		{name: "no exception matches", row: types.Row{"CFOP": "5101"}, want: false},
		{name: "second exception needs all conditions", row: types.Row{"CFOP": "5949"}, want: false},
		{name: "second exception matches fully", row: types.Row{"CFOP": "5949", "Descrição": "brinde"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesException(rule, tt.row); got != tt.want {
				t.Errorf("MatchesException() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Property-based test: evaluation is total and deterministic for arbitrary
// cell contents.
func TestEvaluate_PropertyTotalAndDeterministic(t *testing.T) {
	rule := mustCompile(t, &types.RuleDef{
		Codes: []string{"00"},
		Conditions: []types.ConditionDef{
			{Expression: "Valor ICMS == Base ICMS * (Aliquota ICMS / 100)", Tolerance: 0.01},
			{Field: "CST ICMS", Operator: "in", Values: []string{"00", "10"}},
			{Or: []types.ConditionDef{
				{Field: "Base ICMS", Operator: "gt", Value: "0"},
				{Field: "Base ICMS", Operator: "empty"},
			}},
		},
	})

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("never panics and repeats identically", prop.ForAll(
		func(base, valor, aliquota, cst string) bool {
			row := types.Row{
				"Base ICMS":     base,
				"Valor ICMS":    valor,
				"Aliquota ICMS": aliquota,
				"CST ICMS":      cst,
			}

			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Evaluate() panicked: %v", r)
				}
			}()

			for i := range rule.Checks {
				first := Evaluate(&rule.Checks[i].Condition, row)
				second := Evaluate(&rule.Checks[i].Condition, row)
				if first != second {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
		gen.AnyString(),
		gen.Float64().Map(func(f float64) string { return fmt.Sprintf("%g", f) }),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
