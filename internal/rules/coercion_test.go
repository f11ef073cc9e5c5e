// internal/rules/coercion_test.go
package rules

import "testing"

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		want   float64
		wantOK bool
	}{
		{name: "plain integer", value: "100", want: 100, wantOK: true},
		{name: "plain decimal", value: "1234.56", want: 1234.56, wantOK: true},
		{name: "negative decimal", value: "-12.5", want: -12.5, wantOK: true},
		{name: "brazilian decimal", value: "1234,56", want: 1234.56, wantOK: true},
		{name: "brazilian with thousands", value: "1.234,56", want: 1234.56, wantOK: true},
		{name: "brazilian millions", value: "1.234.567,89", want: 1234567.89, wantOK: true},
		{name: "surrounding whitespace", value: "  42,5  ", want: 42.5, wantOK: true},
		{name: "zero", value: "0", want: 0, wantOK: true},
		{name: "empty", value: "", wantOK: false},
		{name: "whitespace only", value: "   ", wantOK: false},
		{name: "text", value: "abc", wantOK: false},
		{name: "mixed", value: "12abc", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.value, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestNumberOrZero(t *testing.T) {
	if got := NumberOrZero("garbage"); got != 0 {
		t.Errorf("NumberOrZero(garbage) = %v, want 0", got)
	}
	if got := NumberOrZero("10,5"); got != 10.5 {
		t.Errorf("NumberOrZero(10,5) = %v, want 10.5", got)
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank("  ") {
		t.Errorf("IsBlank(whitespace) = false, want true")
	}
	if IsBlank(" x ") {
		t.Errorf("IsBlank(x) = true, want false")
	}
}
