// internal/rules/expr_test.go
package rules

import (
	"errors"
	"testing"

	"github.com/walisonlf/fiscal/internal/types"
)

func TestParseComparison_Valid(t *testing.T) {
	row := types.Row{
		"Base ICMS":     "100",
		"Aliquota ICMS": "18",
		"Valor ICMS":    "18",
		"Val.Total NF":  "100",
		"Isentas ICMS":  "60",
		"Outras ICMS":   "40",
	}

	tests := []struct {
		name string
		src  string
		want bool
	}{
		{name: "equality", src: "Base ICMS == Val.Total NF", want: true},
		{name: "multiplication with parens", src: "Valor ICMS == Base ICMS * (Aliquota ICMS / 100)", want: true},
		{name: "sum of fields", src: "(Isentas ICMS + Outras ICMS) == Val.Total NF", want: true},
		{name: "greater than", src: "Base ICMS > 0", want: true},
		{name: "greater than fails", src: "Base ICMS > 100", want: false},
		{name: "less or equal", src: "Valor ICMS <= 18", want: true},
		{name: "not equal", src: "Base ICMS != 0", want: true},
		{name: "literal both sides", src: "2 + 2 == 4", want: true},
		{name: "precedence", src: "2 + 3 * 4 == 14", want: true},
		{name: "unary minus", src: "-Base ICMS < 0", want: true},
		{name: "missing field coerces to zero", src: "No Such Column == 0", want: true},
		{name: "division by zero yields zero", src: "Base ICMS / Nope == 0", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, err := ParseComparison(tt.src)
			if err != nil {
				t.Fatalf("ParseComparison(%q) error = %v, want nil", tt.src, err)
			}
			got := compareNumeric(cmp.Op, cmp.Left.Eval(row), cmp.Right.Eval(row), 0)
			if got != tt.want {
				t.Errorf("eval(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseComparison_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "no comparison operator", src: "Base ICMS + 1"},
		{name: "two comparison operators", src: "A == B == C"},
		{name: "missing closing paren", src: "(Base ICMS == 0"},
		{name: "trailing operator", src: "Base ICMS == 1 +"},
		{name: "empty", src: ""},
		{name: "stray exclamation", src: "Base ICMS ! 0"},
		{name: "bad number", src: "Base ICMS == 1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseComparison(tt.src)
			if err == nil {
				t.Fatalf("ParseComparison(%q) error = nil, want error", tt.src)
			}
			if !errors.Is(err, types.ErrBadExpression) {
				t.Errorf("error = %v, want ErrBadExpression", err)
			}
		})
	}
}

func TestParseComparison_TooLong(t *testing.T) {
	src := make([]byte, types.MaxExpressionLength+1)
	for i := range src {
		src[i] = 'a'
	}
	_, err := ParseComparison(string(src))
	if !errors.Is(err, types.ErrExpressionTooLong) {
		t.Errorf("error = %v, want ErrExpressionTooLong", err)
	}
}

func TestExpr_RewriteField(t *testing.T) {
	cmp, err := ParseComparison("value > 0")
	if err != nil {
		t.Fatalf("ParseComparison() error = %v, want nil", err)
	}
	cmp.Left.rewriteField("value", "Base PIS")
	cmp.Right.rewriteField("value", "Base PIS")

	row := types.Row{"Base PIS": "10"}
	if !compareNumeric(cmp.Op, cmp.Left.Eval(row), cmp.Right.Eval(row), 0) {
		t.Errorf("rewritten expression = false, want true")
	}
}

func TestExpr_BrazilianNotationCells(t *testing.T) {
	cmp, err := ParseComparison("Val.Total NF == 1234.56")
	if err != nil {
		t.Fatalf("ParseComparison() error = %v, want nil", err)
	}
	row := types.Row{"Val.Total NF": "1.234,56"}
	if !compareNumeric(cmp.Op, cmp.Left.Eval(row), cmp.Right.Eval(row), 0) {
		t.Errorf("comparison over comma-decimal cell = false, want true")
	}
}
