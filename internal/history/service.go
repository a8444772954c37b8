// Package history records automation run outcomes for later inspection.
// Recording is asynchronous and best-effort: a slow or failing sink never
// blocks or fails an automation pass.
package history

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deskforge/automation/internal/engine"
	"github.com/deskforge/automation/internal/rules"
)

const sinkWriteTimeout = 5 * time.Second

// ActionOutcome is the persisted form of one action result.
type ActionOutcome struct {
	ActionType string `json:"actionType"`
	Success    bool   `json:"success"`
	ErrorKind  string `json:"errorKind,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RuleOutcome is the persisted form of one rule report.
type RuleOutcome struct {
	RuleID   string          `json:"ruleId"`
	RuleName string          `json:"ruleName"`
	Matched  bool            `json:"matched"`
	EvalErr  string          `json:"evalError,omitempty"`
	Actions  []ActionOutcome `json:"actions,omitempty"`
}

// RunRecord is one automation pass as stored in the run history.
type RunRecord struct {
	ID             string            `json:"id"`
	OccurredAt     time.Time         `json:"occurredAt"`
	TriggerType    rules.TriggerType `json:"triggerType"`
	EntityID       string            `json:"entityId"`
	RulesEvaluated int               `json:"rulesEvaluated"`
	RulesMatched   int               `json:"rulesMatched"`
	ActionsFailed  int               `json:"actionsFailed"`
	DurationMs     int64             `json:"durationMs"`
	Outcomes       []RuleOutcome     `json:"outcomes"`
}

// Sink persists run records.
type Sink interface {
	Write(ctx context.Context, record RunRecord) error
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock with time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Recorder queues run records and writes them to a sink from a background
// worker. When the queue is full, records are dropped with a warning rather
// than blocking the event path.
type Recorder struct {
	sink   Sink
	clock  Clock
	log    zerolog.Logger
	queue  chan RunRecord
	stopCh chan struct{}
	done   chan struct{}
	closed int32
}

// NewRecorder creates a recorder and starts its worker.
func NewRecorder(sink Sink, clock Clock, log zerolog.Logger, queueSize int) *Recorder {
	if clock == nil {
		clock = SystemClock{}
	}
	r := &Recorder{
		sink:   sink,
		clock:  clock,
		log:    log,
		queue:  make(chan RunRecord, queueSize),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go r.worker()
	return r
}

// Record converts an engine run report into a record and queues it.
func (r *Recorder) Record(report *engine.RunReport) {
	record := FromReport(report)
	record.ID = uuid.NewString()
	if record.OccurredAt.IsZero() {
		record.OccurredAt = r.clock.Now()
	}

	select {
	case r.queue <- record:
	default:
		r.log.Warn().
			Str("trigger", string(record.TriggerType)).
			Str("entity_id", record.EntityID).
			Msg("run history queue full, dropping record")
	}
}

func (r *Recorder) worker() {
	defer close(r.done)
	for {
		select {
		case record := <-r.queue:
			r.write(record)
		case <-r.stopCh:
			for {
				select {
				case record := <-r.queue:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record RunRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
	defer cancel()
	if err := r.sink.Write(ctx, record); err != nil {
		r.log.Error().Err(err).Str("run_id", record.ID).Msg("failed to write run record")
	}
}

// Close stops the worker after draining queued records. Safe to call more
// than once.
func (r *Recorder) Close() error {
	if !atomic.CompareAndSwapInt32(&r.closed, 0, 1) {
		return nil
	}
	close(r.stopCh)
	<-r.done
	return nil
}

// FromReport flattens an engine run report into its persisted form.
func FromReport(report *engine.RunReport) RunRecord {
	record := RunRecord{
		OccurredAt:     report.StartedAt,
		TriggerType:    report.TriggerType,
		EntityID:       report.EntityID,
		RulesEvaluated: len(report.Reports),
		RulesMatched:   report.MatchedCount(),
		ActionsFailed:  report.FailedActionCount(),
		DurationMs:     report.Duration.Milliseconds(),
		Outcomes:       make([]RuleOutcome, 0, len(report.Reports)),
	}

	for _, rr := range report.Reports {
		outcome := RuleOutcome{
			RuleID:   rr.RuleID,
			RuleName: rr.RuleName,
			Matched:  rr.Matched,
		}
		if rr.EvalErr != nil {
			outcome.EvalErr = rr.EvalErr.Error()
		}
		for _, ar := range rr.ActionResults {
			actionOutcome := ActionOutcome{
				ActionType: string(ar.ActionType),
				Success:    ar.Success,
			}
			if ar.Err != nil {
				actionOutcome.ErrorKind = engine.ErrorKind(ar.Err)
				actionOutcome.Error = ar.Err.Error()
			}
			outcome.Actions = append(outcome.Actions, actionOutcome)
		}
		record.Outcomes = append(record.Outcomes, outcome)
	}
	return record
}
