package engine

import (
	"github.com/deskforge/automation/internal/rules"
)

// Matches evaluates a single condition against an event snapshot. It is a
// pure function of its two inputs.
//
// Missing-field semantics: a snapshot without the condition's field fails the
// positive operators (fail-closed) but satisfies not_equals (fail-open). The
// asymmetry is deliberate: "not equals X" matches whenever the field is
// absent or different.
func Matches(c rules.Condition, snapshot map[string]any) bool {
	raw, present := snapshot[c.Field]
	if !present {
		return c.Operator == rules.OpNotEquals
	}

	handler, known := operatorHandlers[c.Operator]
	if !known {
		return false
	}
	return handler.Check(stringify(raw), c.Value)
}

// MatchesAll computes a rule's composite predicate: AND over all conditions.
// An empty condition list vacuously matches.
func MatchesAll(conditions []rules.Condition, snapshot map[string]any) bool {
	for _, c := range conditions {
		if !Matches(c, snapshot) {
			return false
		}
	}
	return true
}
