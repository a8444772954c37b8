package rules

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Validate.
var (
	ErrInvalidRule     = errors.New("invalid rule")
	ErrInvalidTrigger  = errors.New("invalid trigger type")
	ErrInvalidOperator = errors.New("invalid operator")
	ErrUnknownField    = errors.New("unknown field")
)

// validOperators is the set of all recognised condition operators.
var validOperators = map[Operator]struct{}{
	OpEquals:     {},
	OpNotEquals:  {},
	OpContains:   {},
	OpStartsWith: {},
	OpEndsWith:   {},
	OpVersionGT:  {},
	OpVersionLT:  {},
}

var validTriggers = map[TriggerType]struct{}{
	TriggerTicketCreated: {},
	TriggerTicketUpdated: {},
	TriggerAssetUpdated:  {},
}

// Validate performs save-time validation of a Rule. It is a pure function:
// it never mutates r and has no side effects.
//
// Action params are deliberately NOT validated here. The rule builder allows
// partially-filled actions before submit, so a missing required param is an
// execution-time configuration error, not a save-time rejection. Only the
// presence of at least one action is enforced: a rule with zero actions is
// inert and can never have an effect.
func Validate(r Rule) error {
	if r.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidRule)
	}

	if _, ok := validTriggers[r.TriggerType]; !ok {
		return fmt.Errorf("%w: %q is not a supported trigger", ErrInvalidTrigger, r.TriggerType)
	}

	if len(r.Actions) == 0 {
		return fmt.Errorf("%w: rule must have at least one action", ErrInvalidRule)
	}

	entity := r.TriggerType.Entity()
	for i, c := range r.Conditions {
		if err := validateCondition(entity, i, c); err != nil {
			return err
		}
	}

	return nil
}

func validateCondition(entity EntityKind, i int, c Condition) error {
	if c.Field == "" {
		return fmt.Errorf("%w: condition[%d] field must not be empty", ErrInvalidRule, i)
	}

	if _, ok := validOperators[c.Operator]; !ok {
		return fmt.Errorf("%w: condition[%d] operator %q is not supported", ErrInvalidOperator, i, c.Operator)
	}

	if !IsEvaluableField(entity, c.Field) {
		return fmt.Errorf("%w: condition[%d] field %q is not evaluable for %s rules", ErrUnknownField, i, c.Field, entity)
	}

	return nil
}
