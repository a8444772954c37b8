package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/deskforge/automation/internal/event"
	"github.com/deskforge/automation/internal/rules"
)

// stubSource returns a fixed rule slice or a fixed error.
type stubSource struct {
	rules []rules.Rule
	err   error
}

func (s stubSource) ListActiveByTrigger(ctx context.Context, trigger rules.TriggerType) ([]rules.Rule, error) {
	return s.rules, s.err
}

// stubMutator records SetField calls and can be primed to fail.
type stubMutator struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *stubMutator) SetField(ctx context.Context, kind rules.EntityKind, entityID, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, string(kind)+"/"+entityID+"/"+field+"="+value)
	return nil
}

// stubNotifier records SendEmail calls and can be primed to fail.
type stubNotifier struct {
	mu         sync.Mutex
	recipients []string
	subjects   []string
	err        error
}

func (n *stubNotifier) SendEmail(ctx context.Context, recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.recipients = append(n.recipients, recipient)
	n.subjects = append(n.subjects, subject)
	return nil
}

func newTestEngine(t *testing.T, source RuleSource, mutator *stubMutator, notifier *stubNotifier) *Engine {
	t.Helper()
	eng, err := New(source, mutator, notifier)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return eng
}

func escalateRule() rules.Rule {
	return rules.Rule{
		ID:          "rule-escalate",
		Name:        "Escalate high priority tickets",
		TriggerType: rules.TriggerTicketCreated,
		Conditions: []rules.Condition{
			{Field: "priority", Operator: rules.OpEquals, Value: "HIGH"},
		},
		Actions: []rules.Action{
			{Type: rules.ActionUpdateField, Params: map[string]string{"field": "status", "value": "ESCALATED"}},
		},
		IsActive: true,
	}
}

func TestOnEvent_MatchAndApply(t *testing.T) {
	mutator := &stubMutator{}
	notifier := &stubNotifier{}
	eng := newTestEngine(t, stubSource{rules: []rules.Rule{escalateRule()}}, mutator, notifier)

	ev := event.Created(rules.TriggerTicketCreated, "T-1", map[string]any{"priority": "HIGH"})
	report, err := eng.OnEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("OnEvent() error: %v", err)
	}

	if len(report.Reports) != 1 {
		t.Fatalf("got %d rule reports, want 1", len(report.Reports))
	}
	rr := report.Reports[0]
	if !rr.Matched {
		t.Fatal("rule should match")
	}
	if len(rr.ActionResults) != 1 || !rr.ActionResults[0].Success {
		t.Fatalf("expected one successful action, got %+v", rr.ActionResults)
	}
	if len(mutator.calls) != 1 || mutator.calls[0] != "ticket/T-1/status=ESCALATED" {
		t.Fatalf("unexpected mutator calls: %v", mutator.calls)
	}
}

func TestOnEvent_NoMatch(t *testing.T) {
	mutator := &stubMutator{}
	eng := newTestEngine(t, stubSource{rules: []rules.Rule{escalateRule()}}, mutator, &stubNotifier{})

	ev := event.Created(rules.TriggerTicketCreated, "T-2", map[string]any{"priority": "LOW"})
	report, err := eng.OnEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("OnEvent() error: %v", err)
	}

	// Non-matching rules still appear in the report.
	if len(report.Reports) != 1 {
		t.Fatalf("got %d rule reports, want 1", len(report.Reports))
	}
	rr := report.Reports[0]
	if rr.Matched {
		t.Fatal("rule should not match")
	}
	if len(rr.ActionResults) != 0 {
		t.Fatalf("no actions should run, got %+v", rr.ActionResults)
	}
	if len(mutator.calls) != 0 {
		t.Fatalf("mutator should not be called, got %v", mutator.calls)
	}
}

func TestOnEvent_NotEqualsMatchesMissingField(t *testing.T) {
	rule := escalateRule()
	rule.Conditions = []rules.Condition{
		{Field: "priority", Operator: rules.OpNotEquals, Value: "LOW"},
	}
	eng := newTestEngine(t, stubSource{rules: []rules.Rule{rule}}, &stubMutator{}, &stubNotifier{})

	// Snapshot is missing the priority key entirely.
	ev := event.Created(rules.TriggerTicketCreated, "T-3", map[string]any{"status": "OPEN"})
	report, err := eng.OnEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("OnEvent() error: %v", err)
	}
	if !report.Reports[0].Matched {
		t.Fatal("not_equals should fail open on a missing field")
	}
}

func TestOnEvent_ActionFailureDoesNotStopLaterActions(t *testing.T) {
	rule := escalateRule()
	rule.Conditions = nil // vacuous match
	rule.Actions = []rules.Action{
		// Missing the value param: configuration error at execution time.
		{Type: rules.ActionUpdateField, Params: map[string]string{"field": "status"}},
		{Type: rules.ActionSendEmail, Params: map[string]string{"subject": "heads up"}},
	}

	notifier := &stubNotifier{}
	eng := newTestEngine(t, stubSource{rules: []rules.Rule{rule}}, &stubMutator{}, notifier)

	ev := event.Created(rules.TriggerTicketCreated, "T-4", map[string]any{
		"assignee_email": "ops@corp.example",
	})
	report, err := eng.OnEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("OnEvent() error: %v", err)
	}

	results := report.Reports[0].ActionResults
	if len(results) != 2 {
		t.Fatalf("got %d action results, want 2", len(results))
	}

	// Order is preserved: the failing UPDATE_FIELD comes first.
	if results[0].ActionType != rules.ActionUpdateField || results[0].Success {
		t.Fatalf("first result should be a failed UPDATE_FIELD, got %+v", results[0])
	}
	if !errors.Is(results[0].Err, ErrConfiguration) {
		t.Fatalf("first failure should be a configuration error, got %v", results[0].Err)
	}
	if results[1].ActionType != rules.ActionSendEmail || !results[1].Success {
		t.Fatalf("second result should be a successful SEND_EMAIL, got %+v", results[1])
	}
	if len(notifier.recipients) != 1 || notifier.recipients[0] != "ops@corp.example" {
		t.Fatalf("unexpected recipients: %v", notifier.recipients)
	}
}

func TestOnEvent_CollaboratorFailureIsClassified(t *testing.T) {
	rule := escalateRule()
	mutator := &stubMutator{err: errors.New("row deleted")}
	eng := newTestEngine(t, stubSource{rules: []rules.Rule{rule}}, mutator, &stubNotifier{})

	ev := event.Created(rules.TriggerTicketCreated, "T-5", map[string]any{"priority": "HIGH"})
	report, err := eng.OnEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("OnEvent() error: %v", err)
	}

	result := report.Reports[0].ActionResults[0]
	if result.Success {
		t.Fatal("action should fail when the mutator fails")
	}
	if !errors.Is(result.Err, ErrCollaborator) {
		t.Fatalf("expected collaborator error, got %v", result.Err)
	}
	if kind := ErrorKind(result.Err); kind != "collaborator" {
		t.Fatalf("ErrorKind = %q, want collaborator", kind)
	}
}

func TestOnEvent_RuleSourceFailureAbortsPass(t *testing.T) {
	eng := newTestEngine(t, stubSource{err: errors.New("connection refused")}, &stubMutator{}, &stubNotifier{})

	ev := event.Created(rules.TriggerTicketCreated, "T-6", map[string]any{"priority": "HIGH"})
	report, err := eng.OnEvent(context.Background(), ev)
	if err == nil {
		t.Fatal("expected a top-level error")
	}
	if !errors.Is(err, ErrCollaborator) {
		t.Fatalf("expected collaborator error, got %v", err)
	}
	if report != nil {
		t.Fatalf("no report should be produced, got %+v", report)
	}
}

func TestOnEvent_LaterRulesRunAfterFailures(t *testing.T) {
	broken := escalateRule()
	broken.ID = "rule-broken"
	broken.Conditions = nil
	broken.Actions = []rules.Action{{Type: "ARCHIVE", Params: nil}} // unknown type

	second := escalateRule()
	second.ID = "rule-second"
	second.Conditions = nil

	mutator := &stubMutator{}
	eng := newTestEngine(t, stubSource{rules: []rules.Rule{broken, second}}, mutator, &stubNotifier{})

	ev := event.Created(rules.TriggerTicketCreated, "T-7", map[string]any{"priority": "HIGH"})
	report, err := eng.OnEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("OnEvent() error: %v", err)
	}

	if len(report.Reports) != 2 {
		t.Fatalf("both rules should be evaluated, got %d reports", len(report.Reports))
	}
	if report.Reports[0].RuleID != "rule-broken" || report.Reports[1].RuleID != "rule-second" {
		t.Fatalf("rule order not preserved: %s then %s", report.Reports[0].RuleID, report.Reports[1].RuleID)
	}
	if !errors.Is(report.Reports[0].ActionResults[0].Err, ErrConfiguration) {
		t.Fatalf("unknown action type should be a configuration error, got %v",
			report.Reports[0].ActionResults[0].Err)
	}
	if len(mutator.calls) != 1 {
		t.Fatalf("second rule's action should still run, mutator calls: %v", mutator.calls)
	}
}

func TestOnEvent_MatchedFlagsAreIdempotent(t *testing.T) {
	eng := newTestEngine(t, stubSource{rules: []rules.Rule{escalateRule()}}, &stubMutator{}, &stubNotifier{})
	ev := event.Created(rules.TriggerTicketCreated, "T-8", map[string]any{"priority": "HIGH"})

	first, err := eng.OnEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("first OnEvent() error: %v", err)
	}
	second, err := eng.OnEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("second OnEvent() error: %v", err)
	}

	if len(first.Reports) != len(second.Reports) {
		t.Fatalf("report counts differ: %d vs %d", len(first.Reports), len(second.Reports))
	}
	for i := range first.Reports {
		if first.Reports[i].Matched != second.Reports[i].Matched {
			t.Fatalf("matched flag for rule %s changed between identical passes", first.Reports[i].RuleID)
		}
	}
}

func TestOnEvent_CancelledContext(t *testing.T) {
	eng := newTestEngine(t, stubSource{rules: []rules.Rule{escalateRule()}}, &stubMutator{}, &stubNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := event.Created(rules.TriggerTicketCreated, "T-9", map[string]any{"priority": "HIGH"})
	if _, err := eng.OnEvent(ctx, ev); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOnEvent_ExpressionGatesMatch(t *testing.T) {
	expr := `snapshot.priority == "HIGH" && entityId.startsWith("T-")`
	rule := escalateRule()
	rule.Conditions = nil
	rule.Expression = &expr

	mutator := &stubMutator{}
	eng := newTestEngine(t, stubSource{rules: []rules.Rule{rule}}, mutator, &stubNotifier{})

	matchingEv := event.Created(rules.TriggerTicketCreated, "T-10", map[string]any{"priority": "HIGH"})
	report, err := eng.OnEvent(context.Background(), matchingEv)
	if err != nil {
		t.Fatalf("OnEvent() error: %v", err)
	}
	if !report.Reports[0].Matched {
		t.Fatal("expression should match")
	}

	otherEv := event.Created(rules.TriggerTicketCreated, "A-11", map[string]any{"priority": "HIGH"})
	report, err = eng.OnEvent(context.Background(), otherEv)
	if err != nil {
		t.Fatalf("OnEvent() error: %v", err)
	}
	if report.Reports[0].Matched {
		t.Fatal("expression should reject non-ticket entity IDs")
	}
}

func TestOnEvent_BrokenExpressionDisablesRule(t *testing.T) {
	expr := `this is not CEL (`
	rule := escalateRule()
	rule.Conditions = nil
	rule.Expression = &expr

	eng := newTestEngine(t, stubSource{rules: []rules.Rule{rule}}, &stubMutator{}, &stubNotifier{})

	ev := event.Created(rules.TriggerTicketCreated, "T-12", map[string]any{"priority": "HIGH"})
	report, err := eng.OnEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("a broken expression must not fail the pass: %v", err)
	}

	rr := report.Reports[0]
	if rr.Matched {
		t.Fatal("rule with a broken expression should not match")
	}
	if !errors.Is(rr.EvalErr, ErrConfiguration) {
		t.Fatalf("expected configuration error on the rule report, got %v", rr.EvalErr)
	}
}
