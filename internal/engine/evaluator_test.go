package engine

import (
	"testing"

	"github.com/deskforge/automation/internal/rules"
)

func TestMatches_MissingField(t *testing.T) {
	snapshot := map[string]any{"status": "OPEN"}

	tests := []struct {
		name string
		op   rules.Operator
		want bool
	}{
		// Positive operators fail closed on a missing field.
		{name: "equals", op: rules.OpEquals, want: false},
		{name: "contains", op: rules.OpContains, want: false},
		{name: "starts_with", op: rules.OpStartsWith, want: false},
		{name: "ends_with", op: rules.OpEndsWith, want: false},
		{name: "version_gt", op: rules.OpVersionGT, want: false},
		// not_equals fails open: absent is "not equal".
		{name: "not_equals", op: rules.OpNotEquals, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := rules.Condition{Field: "priority", Operator: tt.op, Value: "LOW"}
			if got := Matches(c, snapshot); got != tt.want {
				t.Fatalf("Matches(%s on missing field) = %v, want %v", tt.op, got, tt.want)
			}
		})
	}
}

func TestMatches_UnknownOperator(t *testing.T) {
	c := rules.Condition{Field: "priority", Operator: "regex", Value: ".*"}
	if Matches(c, map[string]any{"priority": "HIGH"}) {
		t.Fatal("unknown operator should never match")
	}
}

func TestMatches_StringifiesSnapshotValues(t *testing.T) {
	snapshot := map[string]any{"retries": float64(3), "urgent": true}

	if !Matches(rules.Condition{Field: "retries", Operator: rules.OpEquals, Value: "3"}, snapshot) {
		t.Fatal("numeric snapshot value should compare as its string form")
	}
	if !Matches(rules.Condition{Field: "urgent", Operator: rules.OpEquals, Value: "true"}, snapshot) {
		t.Fatal("bool snapshot value should compare as its string form")
	}
}

func TestMatchesAll(t *testing.T) {
	snapshot := map[string]any{"priority": "HIGH", "category": "hardware"}

	tests := []struct {
		name       string
		conditions []rules.Condition
		want       bool
	}{
		{name: "empty list vacuously matches", conditions: nil, want: true},
		{
			name: "all conditions hold",
			conditions: []rules.Condition{
				{Field: "priority", Operator: rules.OpEquals, Value: "HIGH"},
				{Field: "category", Operator: rules.OpContains, Value: "hard"},
			},
			want: true,
		},
		{
			name: "one condition fails",
			conditions: []rules.Condition{
				{Field: "priority", Operator: rules.OpEquals, Value: "HIGH"},
				{Field: "category", Operator: rules.OpEquals, Value: "software"},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesAll(tt.conditions, snapshot); got != tt.want {
				t.Fatalf("MatchesAll() = %v, want %v", got, tt.want)
			}
		})
	}
}
