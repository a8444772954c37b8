package engine

import (
	"testing"

	"github.com/deskforge/automation/internal/rules"
)

func TestOperatorHandlers(t *testing.T) {
	tests := []struct {
		name       string
		op         rules.Operator
		fieldValue string
		condValue  string
		want       bool
	}{
		{name: "equals true", op: rules.OpEquals, fieldValue: "HIGH", condValue: "HIGH", want: true},
		{name: "equals false", op: rules.OpEquals, fieldValue: "HIGH", condValue: "LOW", want: false},
		{name: "equals is case sensitive", op: rules.OpEquals, fieldValue: "high", condValue: "HIGH", want: false},
		{name: "equals preserves whitespace", op: rules.OpEquals, fieldValue: " HIGH", condValue: "HIGH", want: false},
		{name: "not_equals true", op: rules.OpNotEquals, fieldValue: "LOW", condValue: "HIGH", want: true},
		{name: "not_equals false", op: rules.OpNotEquals, fieldValue: "HIGH", condValue: "HIGH", want: false},
		{name: "contains true", op: rules.OpContains, fieldValue: "printer is on fire", condValue: "fire", want: true},
		{name: "contains false", op: rules.OpContains, fieldValue: "printer jam", condValue: "fire", want: false},
		{name: "contains is case sensitive", op: rules.OpContains, fieldValue: "Printer", condValue: "printer", want: false},
		{name: "starts_with true", op: rules.OpStartsWith, fieldValue: "HW-laptop", condValue: "HW-", want: true},
		{name: "starts_with false", op: rules.OpStartsWith, fieldValue: "laptop-HW", condValue: "HW-", want: false},
		{name: "ends_with true", op: rules.OpEndsWith, fieldValue: "alice@corp.example", condValue: "@corp.example", want: true},
		{name: "ends_with false", op: rules.OpEndsWith, fieldValue: "alice@other.example", condValue: "@corp.example", want: false},
		{name: "version_gt true", op: rules.OpVersionGT, fieldValue: "1.2.0", condValue: "1.1.9", want: true},
		{name: "version_gt false", op: rules.OpVersionGT, fieldValue: "1.1.0", condValue: "1.1.9", want: false},
		{name: "version_lt prerelease", op: rules.OpVersionLT, fieldValue: "1.0.0-beta.1", condValue: "1.0.0", want: true},
		{name: "version with invalid field value", op: rules.OpVersionGT, fieldValue: "not-a-version", condValue: "1.0.0", want: false},
		{name: "version with invalid cond value", op: rules.OpVersionLT, fieldValue: "1.0.0", condValue: "garbage", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, ok := operatorHandlers[tt.op]
			if !ok {
				t.Fatalf("handler not found for %q", tt.op)
			}
			if got := handler.Check(tt.fieldValue, tt.condValue); got != tt.want {
				t.Fatalf("Check(%q, %q) = %v, want %v", tt.fieldValue, tt.condValue, got, tt.want)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "string", in: "HIGH", want: "HIGH"},
		{name: "bool", in: true, want: "true"},
		{name: "int", in: 42, want: "42"},
		{name: "integral float", in: float64(3), want: "3"},
		{name: "fractional float", in: 2.5, want: "2.5"},
		{name: "nil", in: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stringify(tt.in); got != tt.want {
				t.Fatalf("stringify(%#v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
