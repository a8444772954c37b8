package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskforge/automation/internal/rules"
)

// Schema for the rules table. Conditions and actions are stored as
// stringified JSON arrays, matching how the admin UI persists them.
const schema = `
CREATE TABLE IF NOT EXISTS automation_rules (
    id           UUID PRIMARY KEY,
    name         TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    trigger_type TEXT NOT NULL,
    conditions   TEXT NOT NULL DEFAULT '[]',
    actions      TEXT NOT NULL DEFAULT '[]',
    expression   TEXT,
    is_active    BOOLEAN NOT NULL DEFAULT TRUE,
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS automation_rules_trigger_idx
    ON automation_rules (trigger_type) WHERE is_active;
`

const ruleColumns = `id, name, description, trigger_type, conditions, actions, expression, is_active, created_at, updated_at`

// PostgresStore is a PostgreSQL implementation of the Store interface.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the rules table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schema)
	return err
}

// CreateRule persists a new rule.
func (p *PostgresStore) CreateRule(ctx context.Context, r rules.Rule) (rules.Rule, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	conditions, actions, err := encodeRule(r)
	if err != nil {
		return rules.Rule{}, err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO automation_rules (`+ruleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.Name, r.Description, string(r.TriggerType),
		conditions, actions, r.Expression, r.IsActive, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return rules.Rule{}, fmt.Errorf("insert rule: %w", err)
	}
	return r, nil
}

// UpdateRule replaces an existing rule, preserving created_at.
func (p *PostgresStore) UpdateRule(ctx context.Context, r rules.Rule) (rules.Rule, error) {
	conditions, actions, err := encodeRule(r)
	if err != nil {
		return rules.Rule{}, err
	}
	r.UpdatedAt = time.Now().UTC()

	tag, err := p.pool.Exec(ctx, `
		UPDATE automation_rules
		SET name = $2, description = $3, trigger_type = $4, conditions = $5,
		    actions = $6, expression = $7, is_active = $8, updated_at = $9
		WHERE id = $1`,
		r.ID, r.Name, r.Description, string(r.TriggerType),
		conditions, actions, r.Expression, r.IsActive, r.UpdatedAt,
	)
	if err != nil {
		return rules.Rule{}, fmt.Errorf("update rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rules.Rule{}, ErrNotFound
	}

	stored, err := p.GetRule(ctx, r.ID)
	if err != nil {
		return rules.Rule{}, err
	}
	return *stored, nil
}

// DeleteRule removes a rule by ID.
func (p *PostgresStore) DeleteRule(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM automation_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRule retrieves a rule by ID.
func (p *PostgresStore) GetRule(ctx context.Context, id string) (*rules.Rule, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+ruleColumns+` FROM automation_rules WHERE id = $1`, id)

	r, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// ListRules returns every rule in creation order.
func (p *PostgresStore) ListRules(ctx context.Context) ([]rules.Rule, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+ruleColumns+` FROM automation_rules
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()
	return collectRules(rows)
}

// ListActiveByTrigger returns active rules for a trigger in creation order.
// Creation order is the engine's evaluation order; there is no priority
// column.
func (p *PostgresStore) ListActiveByTrigger(ctx context.Context, trigger rules.TriggerType) ([]rules.Rule, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+ruleColumns+` FROM automation_rules
		WHERE trigger_type = $1 AND is_active
		ORDER BY created_at, id`, string(trigger))
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	defer rows.Close()
	return collectRules(rows)
}

// Close closes the underlying connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func encodeRule(r rules.Rule) (conditions, actions string, err error) {
	condBytes, err := json.Marshal(r.Conditions)
	if err != nil {
		return "", "", fmt.Errorf("encode conditions: %w", err)
	}
	actionBytes, err := json.Marshal(r.Actions)
	if err != nil {
		return "", "", fmt.Errorf("encode actions: %w", err)
	}
	if r.Conditions == nil {
		condBytes = []byte("[]")
	}
	if r.Actions == nil {
		actionBytes = []byte("[]")
	}
	return string(condBytes), string(actionBytes), nil
}

func scanRule(row pgx.Row) (rules.Rule, error) {
	var (
		r          rules.Rule
		trigger    string
		conditions string
		actions    string
	)
	if err := row.Scan(
		&r.ID, &r.Name, &r.Description, &trigger,
		&conditions, &actions, &r.Expression, &r.IsActive,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return rules.Rule{}, err
	}

	r.TriggerType = rules.TriggerType(trigger)

	// Legacy rows may hold an empty string instead of "[]"; the decoders
	// treat both as an empty list.
	decoded, err := rules.DecodeConditions(conditions)
	if err != nil {
		return rules.Rule{}, fmt.Errorf("decode conditions for rule %s: %w", r.ID, err)
	}
	r.Conditions = decoded

	decodedActions, err := rules.DecodeActions(actions)
	if err != nil {
		return rules.Rule{}, fmt.Errorf("decode actions for rule %s: %w", r.ID, err)
	}
	r.Actions = decodedActions

	return r, nil
}

func collectRules(rows pgx.Rows) ([]rules.Rule, error) {
	var result []rules.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
