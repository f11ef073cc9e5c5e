// internal/rules/operators_test.go
package rules

import (
	"errors"
	"testing"

	"github.com/walisonlf/fiscal/internal/types"
)

func TestParseOperator(t *testing.T) {
	names := []string{
		"eq", "neq", "gt", "gte", "lt", "lte", "in", "nin",
		"contains", "startsWith", "endsWith", "empty", "notEmpty",
		"regex", "regexMatches",
	}
	for _, name := range names {
		if _, err := ParseOperator(name); err != nil {
			t.Errorf("ParseOperator(%q) error = %v, want nil", name, err)
		}
	}

	_, err := ParseOperator("equals")
	if !errors.Is(err, types.ErrUnknownOperator) {
		t.Errorf("ParseOperator(equals) error = %v, want ErrUnknownOperator", err)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		value   string
		values  []string
		cell    string
		present bool
		want    bool
	}{
		{name: "eq exact string", op: "eq", value: "5101", cell: "5101", present: true, want: true},
		{name: "eq numeric-aware", op: "eq", value: "10.0", cell: "10", present: true, want: true},
		{name: "eq comma decimal", op: "eq", value: "10.5", cell: "10,5", present: true, want: true},
		{name: "eq mismatch", op: "eq", value: "00", cell: "10", present: true, want: false},
		{name: "neq", op: "neq", value: "00", cell: "10", present: true, want: true},
		{name: "gt numeric", op: "gt", value: "0", cell: "0,01", present: true, want: true},
		{name: "gt non-numeric coerces to zero", op: "gt", value: "0", cell: "abc", present: true, want: false},
		{name: "gte equal", op: "gte", value: "10", cell: "10", present: true, want: true},
		{name: "lt", op: "lt", value: "100", cell: "99,99", present: true, want: true},
		{name: "lte", op: "lte", value: "100", cell: "100", present: true, want: true},
		{name: "in member", op: "in", values: []string{"00", "10", "20"}, cell: "10", present: true, want: true},
		{name: "in non-member", op: "in", values: []string{"00", "10"}, cell: "90", present: true, want: false},
		{name: "nin", op: "nin", values: []string{"00", "10"}, cell: "90", present: true, want: true},
		{name: "contains", op: "contains", value: "ICMS", cell: "Base ICMS", present: true, want: true},
		{name: "startsWith", op: "startsWith", value: "51", cell: "5101", present: true, want: true},
		{name: "endsWith", op: "endsWith", value: "01", cell: "5101", present: true, want: true},
		{name: "empty on blank cell", op: "empty", cell: "  ", present: true, want: true},
		{name: "empty on filled cell", op: "empty", cell: "x", present: true, want: false},
		{name: "notEmpty", op: "notEmpty", cell: "x", present: true, want: true},
		{name: "regex", op: "regex", value: `^\d{4}$`, cell: "5101", present: true, want: true},
		{name: "regex mismatch", op: "regex", value: `^\d{4}$`, cell: "51a1", present: true, want: false},

		// Missing field fails everything except the emptiness probe
		{name: "missing field eq", op: "eq", value: "x", present: false, want: false},
		{name: "missing field notEmpty", op: "notEmpty", present: false, want: false},
		{name: "missing field empty", op: "empty", present: false, want: true},
		{name: "missing field in", op: "in", values: []string{""}, present: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := types.ConditionDef{
				Field:    "F",
				Operator: tt.op,
				Value:    tt.value,
				Values:   tt.values,
			}
			cc, err := compileComparison(def)
			if err != nil {
				t.Fatalf("compileComparison() error = %v, want nil", err)
			}
			if got := compare(&cc, tt.cell, tt.present); got != tt.want {
				t.Errorf("compare(%s, %q, %v) = %v, want %v", tt.op, tt.cell, tt.present, got, tt.want)
			}
		})
	}
}

func TestCompilePattern_Invalid(t *testing.T) {
	_, err := compilePattern("([")
	if !errors.Is(err, types.ErrBadPattern) {
		t.Errorf("compilePattern error = %v, want ErrBadPattern", err)
	}
}
