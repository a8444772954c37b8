// Package engine evaluates automation rules against domain events and
// executes the actions of every matching rule.
//
// The engine is stateless between invocations: each OnEvent call loads the
// candidate rules, matches them, and runs actions strictly in stored order.
// Concurrent OnEvent calls for different events are safe; within one call
// nothing runs in parallel because action ordering is a user-visible
// contract.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/deskforge/automation/internal/event"
	"github.com/deskforge/automation/internal/rules"
)

const defaultActionTimeout = 5 * time.Second

// RuleSource supplies rule definitions for an automation pass. The order of
// the returned slice is the evaluation and execution order: there is no
// stored precedence between rules, so ties between matching rules are
// resolved by store-return order.
type RuleSource interface {
	ListActiveByTrigger(ctx context.Context, trigger rules.TriggerType) ([]rules.Rule, error)
}

// RuleReport is the per-rule outcome of a pass. Non-matching rules are
// reported too, with Matched=false and no action results, so callers can
// assert negatives.
type RuleReport struct {
	RuleID        string
	RuleName      string
	Matched       bool
	EvalErr       error
	ActionResults []ActionResult
}

// RunReport is the full outcome of one OnEvent pass.
type RunReport struct {
	TriggerType rules.TriggerType
	EntityID    string
	StartedAt   time.Time
	Duration    time.Duration
	Reports     []RuleReport
}

// MatchedCount returns how many rules matched in the pass.
func (r *RunReport) MatchedCount() int {
	n := 0
	for _, rr := range r.Reports {
		if rr.Matched {
			n++
		}
	}
	return n
}

// FailedActionCount returns how many actions failed across all rules.
func (r *RunReport) FailedActionCount() int {
	n := 0
	for _, rr := range r.Reports {
		for _, ar := range rr.ActionResults {
			if !ar.Success {
				n++
			}
		}
	}
	return n
}

// Engine orchestrates rule evaluation for domain events. Collaborators are
// injected; the engine holds no mutable state of its own beyond the compiled
// expression cache.
type Engine struct {
	source        RuleSource
	mutator       RecordMutator
	notifier      Notifier
	expressions   *ExpressionCache
	log           zerolog.Logger
	actionTimeout time.Duration
	clock         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithActionTimeout sets the per-action deadline applied to collaborator
// calls. A timeout is reported as a collaborator failure, never a crash of
// the pass.
func WithActionTimeout(d time.Duration) Option {
	return func(e *Engine) { e.actionTimeout = d }
}

// WithLogger sets the structured logger used for pass diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine with the given collaborators.
func New(source RuleSource, mutator RecordMutator, notifier Notifier, opts ...Option) (*Engine, error) {
	expressions, err := NewExpressionCache()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		source:        source,
		mutator:       mutator,
		notifier:      notifier,
		expressions:   expressions,
		log:           zerolog.Nop(),
		actionTimeout: defaultActionTimeout,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// OnEvent runs one automation pass for a domain event.
//
// A rule-source failure aborts the whole pass with a top-level error: no
// partial rule list is ever evaluated. Within a pass, per-action and
// per-rule failures are recorded in the report and never stop later rules
// or actions.
func (e *Engine) OnEvent(ctx context.Context, ev event.Event) (*RunReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := e.clock()

	candidates, err := e.source.ListActiveByTrigger(ctx, ev.TriggerType)
	if err != nil {
		return nil, fmt.Errorf("%w: list rules for %s: %v", ErrCollaborator, ev.TriggerType, err)
	}

	report := &RunReport{
		TriggerType: ev.TriggerType,
		EntityID:    ev.EntityID,
		StartedAt:   started,
		Reports:     make([]RuleReport, 0, len(candidates)),
	}

	for _, rule := range candidates {
		report.Reports = append(report.Reports, e.evaluateRule(ctx, rule, ev))
	}

	report.Duration = e.clock().Sub(started)

	e.log.Debug().
		Str("trigger", string(ev.TriggerType)).
		Str("entity_id", ev.EntityID).
		Int("rules", len(report.Reports)).
		Int("matched", report.MatchedCount()).
		Int("failed_actions", report.FailedActionCount()).
		Dur("duration", report.Duration).
		Msg("automation pass complete")

	return report, nil
}

func (e *Engine) evaluateRule(ctx context.Context, rule rules.Rule, ev event.Event) RuleReport {
	rr := RuleReport{RuleID: rule.ID, RuleName: rule.Name}

	rr.Matched = MatchesAll(rule.Conditions, ev.Snapshot)

	if rr.Matched && rule.Expression != nil && *rule.Expression != "" {
		matched, err := e.expressions.Eval(*rule.Expression, ev.EntityID, ev.Snapshot)
		if err != nil {
			// A broken expression disables the rule for this pass; it
			// never brings the pass down.
			rr.Matched = false
			rr.EvalErr = fmt.Errorf("%w: rule %s expression: %v", ErrConfiguration, rule.ID, err)
			e.log.Warn().Err(err).Str("rule_id", rule.ID).Msg("rule expression failed")
			return rr
		}
		rr.Matched = matched
	}

	if !rr.Matched {
		return rr
	}

	rr.ActionResults = make([]ActionResult, 0, len(rule.Actions))
	for _, action := range rule.Actions {
		result := e.executeAction(ctx, action, ev)
		if result.Err != nil {
			e.log.Warn().
				Err(result.Err).
				Str("rule_id", rule.ID).
				Str("action", string(action.Type)).
				Msg("action failed")
		}
		rr.ActionResults = append(rr.ActionResults, result)
	}
	return rr
}
