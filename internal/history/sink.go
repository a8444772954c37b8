package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Schema for the run history table. Per-rule outcomes are stored as a JSONB
// document; the scalar columns exist for filtering and dashboards.
const schema = `
CREATE TABLE IF NOT EXISTS automation_runs (
    id              UUID PRIMARY KEY,
    occurred_at     TIMESTAMPTZ NOT NULL,
    trigger_type    TEXT NOT NULL,
    entity_id       TEXT NOT NULL,
    rules_evaluated INT NOT NULL,
    rules_matched   INT NOT NULL,
    actions_failed  INT NOT NULL,
    duration_ms     BIGINT NOT NULL,
    outcomes        JSONB NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS automation_runs_entity_idx
    ON automation_runs (entity_id, occurred_at DESC);
`

// PostgresSink persists run records to PostgreSQL.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a PostgreSQL-backed run history sink.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// EnsureSchema creates the run history table if it does not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Write persists one run record.
func (s *PostgresSink) Write(ctx context.Context, record RunRecord) error {
	outcomes, err := json.Marshal(record.Outcomes)
	if err != nil {
		return fmt.Errorf("encode outcomes: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO automation_runs
		    (id, occurred_at, trigger_type, entity_id, rules_evaluated,
		     rules_matched, actions_failed, duration_ms, outcomes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.OccurredAt, string(record.TriggerType), record.EntityID,
		record.RulesEvaluated, record.RulesMatched, record.ActionsFailed,
		record.DurationMs, outcomes,
	)
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

// ZerologSink writes run records to the structured log. It is the sink used
// with the memory store and in development.
type ZerologSink struct {
	log zerolog.Logger
}

// NewZerologSink creates a log-backed run history sink.
func NewZerologSink(log zerolog.Logger) *ZerologSink {
	return &ZerologSink{log: log}
}

// Write logs one run record.
func (s *ZerologSink) Write(ctx context.Context, record RunRecord) error {
	s.log.Info().
		Str("run_id", record.ID).
		Str("trigger", string(record.TriggerType)).
		Str("entity_id", record.EntityID).
		Int("rules_evaluated", record.RulesEvaluated).
		Int("rules_matched", record.RulesMatched).
		Int("actions_failed", record.ActionsFailed).
		Int64("duration_ms", record.DurationMs).
		Msg("automation run")
	return nil
}
