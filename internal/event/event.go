// Package event defines the domain events the automation engine consumes.
// Events are emitted by the services that mutate ticket and asset records and
// passed by value into the engine; the engine never persists them.
package event

import (
	"github.com/deskforge/automation/internal/rules"
)

// Event is a typed fact describing something that happened to a record.
// Snapshot holds the post-mutation field values conditions are evaluated
// against. PreviousSnapshot is present only for *_UPDATED triggers and is
// carried for downstream consumers; no current operator reads it.
type Event struct {
	TriggerType      rules.TriggerType `json:"triggerType"`
	EntityID         string            `json:"entityId"`
	Snapshot         map[string]any    `json:"snapshot"`
	PreviousSnapshot map[string]any    `json:"previousSnapshot,omitempty"`
}

// Created builds an event for a record creation trigger.
func Created(trigger rules.TriggerType, entityID string, snapshot map[string]any) Event {
	return Event{
		TriggerType: trigger,
		EntityID:    entityID,
		Snapshot:    snapshot,
	}
}

// Updated builds an event for a record update trigger, carrying the
// pre-mutation state alongside the current snapshot.
func Updated(trigger rules.TriggerType, entityID string, snapshot, previous map[string]any) Event {
	return Event{
		TriggerType:      trigger,
		EntityID:         entityID,
		Snapshot:         snapshot,
		PreviousSnapshot: previous,
	}
}

// EntityKind returns the kind of record the event concerns.
func (e Event) EntityKind() rules.EntityKind {
	return e.TriggerType.Entity()
}
