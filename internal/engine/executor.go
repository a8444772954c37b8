package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/deskforge/automation/internal/event"
	"github.com/deskforge/automation/internal/rules"
)

// RecordMutator applies field mutations to domain records. Implementations
// own their consistency guarantees; the engine does not serialize per-entity.
type RecordMutator interface {
	SetField(ctx context.Context, kind rules.EntityKind, entityID, field, value string) error
}

// Notifier dispatches outbound messages for SEND_EMAIL actions.
type Notifier interface {
	SendEmail(ctx context.Context, recipient, subject, body string) error
}

// ActionResult is the per-action outcome within a matched rule.
type ActionResult struct {
	ActionType rules.ActionType
	Success    bool
	Err        error
}

// executeAction performs one action for the triggering event. The returned
// result is never nil-errored on failure: every failure mode is classified as
// configuration or collaborator so callers can tell a broken rule from a
// broken dependency.
func (e *Engine) executeAction(ctx context.Context, action rules.Action, ev event.Event) ActionResult {
	result := ActionResult{ActionType: action.Type}

	ctx, cancel := context.WithTimeout(ctx, e.actionTimeout)
	defer cancel()

	switch action.Type {
	case rules.ActionUpdateField:
		result.Err = e.executeUpdateField(ctx, action, ev)
	case rules.ActionSendEmail:
		result.Err = e.executeSendEmail(ctx, action, ev)
	default:
		result.Err = fmt.Errorf("%w: unknown action type %q", ErrConfiguration, action.Type)
	}

	result.Success = result.Err == nil
	return result
}

func (e *Engine) executeUpdateField(ctx context.Context, action rules.Action, ev event.Event) error {
	field, ok := action.Param("field")
	if !ok {
		return fmt.Errorf("%w: UPDATE_FIELD requires a field param", ErrConfiguration)
	}
	value, ok := action.Param("value")
	if !ok {
		return fmt.Errorf("%w: UPDATE_FIELD requires a value param", ErrConfiguration)
	}

	if err := e.mutator.SetField(ctx, ev.EntityKind(), ev.EntityID, field, value); err != nil {
		return fmt.Errorf("%w: set %s.%s: %v", ErrCollaborator, ev.EntityKind(), field, err)
	}
	return nil
}

func (e *Engine) executeSendEmail(ctx context.Context, action rules.Action, ev event.Event) error {
	subject, ok := action.Param("subject")
	if !ok {
		return fmt.Errorf("%w: SEND_EMAIL requires a subject param", ErrConfiguration)
	}

	recipient, err := resolveRecipient(action, ev)
	if err != nil {
		return err
	}

	// Body is rendered from the original snapshot, not a live re-read, so
	// action evaluation stays side-effect-isolated.
	body := renderEmailBody(ev)

	if err := e.notifier.SendEmail(ctx, recipient, subject, body); err != nil {
		return fmt.Errorf("%w: send email to %s: %v", ErrCollaborator, recipient, err)
	}
	return nil
}

// resolveRecipient prefers an explicit recipient param, then falls back to
// the record's owning actor field in the snapshot.
func resolveRecipient(action rules.Action, ev event.Event) (string, error) {
	if recipient, ok := action.Param("recipient"); ok {
		return recipient, nil
	}

	field, ok := rules.RecipientField(ev.EntityKind())
	if !ok {
		return "", fmt.Errorf("%w: no recipient convention for entity kind %q", ErrConfiguration, ev.EntityKind())
	}

	raw, present := ev.Snapshot[field]
	recipient := stringify(raw)
	if !present || recipient == "" {
		return "", fmt.Errorf("%w: snapshot has no resolvable recipient in %q", ErrConfiguration, field)
	}
	return recipient, nil
}

// renderEmailBody produces a deterministic plain-text summary of the
// triggering record, one "field: value" line per snapshot entry.
func renderEmailBody(ev event.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", ev.EntityKind(), ev.EntityID)

	keys := make([]string, 0, len(ev.Snapshot))
	for k := range ev.Snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, stringify(ev.Snapshot[k]))
	}
	return b.String()
}
