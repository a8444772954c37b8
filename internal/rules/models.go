package rules

import (
	"encoding/json"
	"strings"
	"time"
)

// TriggerType identifies the domain-event category a rule subscribes to.
type TriggerType string

// Supported trigger types (string values for clean JSON serialization).
const (
	TriggerTicketCreated TriggerType = "TICKET_CREATED"
	TriggerTicketUpdated TriggerType = "TICKET_UPDATED"
	TriggerAssetUpdated  TriggerType = "ASSET_UPDATED"
)

// EntityKind is the kind of record a trigger fires for.
type EntityKind string

const (
	EntityTicket EntityKind = "ticket"
	EntityAsset  EntityKind = "asset"
)

// Entity returns the entity kind a trigger type fires for.
// The zero EntityKind is returned for unknown triggers.
func (t TriggerType) Entity() EntityKind {
	switch t {
	case TriggerTicketCreated, TriggerTicketUpdated:
		return EntityTicket
	case TriggerAssetUpdated:
		return EntityAsset
	}
	return ""
}

// IsUpdate reports whether the trigger carries a previous snapshot.
func (t TriggerType) IsUpdate() bool {
	return strings.HasSuffix(string(t), "_UPDATED")
}

// Operator represents a comparison operator used in rule conditions.
type Operator string

// Supported condition operators.
const (
	OpEquals     Operator = "equals"
	OpNotEquals  Operator = "not_equals"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
	OpVersionGT  Operator = "version_gt"
	OpVersionLT  Operator = "version_lt"
)

// ActionType identifies the side effect an action performs.
type ActionType string

const (
	ActionUpdateField ActionType = "UPDATE_FIELD"
	ActionSendEmail   ActionType = "SEND_EMAIL"
)

// Condition is a single field/operator/value predicate evaluated against an
// event snapshot. When multiple conditions belong to one Rule, they are
// evaluated with AND semantics: all conditions must match for the rule to fire.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// Action is a side-effecting instruction executed when a rule fully matches.
// Required Params keys depend on Type; missing keys surface as execution-time
// configuration errors, not save-time validation errors.
type Action struct {
	Type   ActionType        `json:"type"`
	Params map[string]string `json:"params"`
}

// Param returns the named parameter and whether it is present and non-empty.
func (a Action) Param(name string) (string, bool) {
	v, ok := a.Params[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Rule is a named, toggleable automation: one trigger, zero-or-more conditions
// (AND-ed), one-or-more actions executed in stored order. Inactive rules are
// never evaluated.
type Rule struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	TriggerType TriggerType `json:"triggerType"`
	Conditions  []Condition `json:"conditions"`
	Actions     []Action    `json:"actions"`
	// Expression is an optional CEL predicate AND-ed with Conditions.
	Expression *string   `json:"expression,omitempty"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// DecodeConditions parses a persisted conditions JSON body. Rule rows written
// by the admin UI may carry an empty string instead of "[]"; both decode to an
// empty list. Unknown object keys are ignored.
func DecodeConditions(raw string) ([]Condition, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var conditions []Condition
	if err := json.Unmarshal([]byte(raw), &conditions); err != nil {
		return nil, err
	}
	return conditions, nil
}

// DecodeActions parses a persisted actions JSON body with the same tolerance
// as DecodeConditions.
func DecodeActions(raw string) ([]Action, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var actions []Action
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		return nil, err
	}
	return actions, nil
}
