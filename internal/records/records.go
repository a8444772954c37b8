// Package records provides the record-mutation collaborator used by
// UPDATE_FIELD actions. The automation engine only needs a single narrow
// operation: set one field on one record. Consistency under concurrent
// mutation is the mutator's problem, not the engine's.
package records

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskforge/automation/internal/rules"
)

// ErrNoRecord is returned when the target record does not exist (for
// example, it was deleted between the event and the action).
var ErrNoRecord = errors.New("record not found")

// ErrUnknownField is returned when the field is not mutable for the entity
// kind.
var ErrUnknownField = errors.New("unknown field")

// mutableColumns whitelists the columns UPDATE_FIELD actions may touch,
// per entity table. Anything else is rejected before touching the database.
var mutableColumns = map[rules.EntityKind]struct {
	table   string
	columns map[string]struct{}
}{
	rules.EntityTicket: {
		table: "tickets",
		columns: map[string]struct{}{
			"status":         {},
			"priority":       {},
			"category":       {},
			"assignee_email": {},
		},
	},
	rules.EntityAsset: {
		table: "assets",
		columns: map[string]struct{}{
			"status":      {},
			"category":    {},
			"location":    {},
			"owner_email": {},
		},
	},
}

// MemoryRecords is an in-memory record mutator for development and tests.
type MemoryRecords struct {
	mu      sync.RWMutex
	records map[rules.EntityKind]map[string]map[string]string
}

// NewMemoryRecords creates an empty in-memory record set.
func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{
		records: make(map[rules.EntityKind]map[string]map[string]string),
	}
}

// Put seeds or replaces a record.
func (m *MemoryRecords) Put(kind rules.EntityKind, id string, fields map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.records[kind] == nil {
		m.records[kind] = make(map[string]map[string]string)
	}
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	m.records[kind][id] = copied
}

// Get returns a copy of a record's fields.
func (m *MemoryRecords) Get(kind rules.EntityKind, id string) (map[string]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fields, ok := m.records[kind][id]
	if !ok {
		return nil, false
	}
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return copied, true
}

// SetField sets one field on an existing record.
func (m *MemoryRecords) SetField(ctx context.Context, kind rules.EntityKind, entityID, field, value string) error {
	if err := checkMutable(kind, field); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[kind][entityID]
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrNoRecord, kind, entityID)
	}
	record[field] = value
	return nil
}

// PostgresRecords mutates ticket and asset rows directly. Each SetField is a
// single UPDATE statement; readers racing the update see either the old or
// the new value, never a torn write.
type PostgresRecords struct {
	pool *pgxpool.Pool
}

// NewPostgresRecords creates a PostgreSQL-backed record mutator.
func NewPostgresRecords(pool *pgxpool.Pool) *PostgresRecords {
	return &PostgresRecords{pool: pool}
}

// SetField sets one whitelisted column on an existing row.
func (p *PostgresRecords) SetField(ctx context.Context, kind rules.EntityKind, entityID, field, value string) error {
	if err := checkMutable(kind, field); err != nil {
		return err
	}

	target := mutableColumns[kind]
	// field is whitelisted above, so interpolating the identifier is safe.
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, updated_at = now() WHERE id = $2`, target.table, field)

	tag, err := p.pool.Exec(ctx, query, value, entityID)
	if err != nil {
		return fmt.Errorf("update %s.%s: %w", target.table, field, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s", ErrNoRecord, kind, entityID)
	}
	return nil
}

func checkMutable(kind rules.EntityKind, field string) error {
	target, ok := mutableColumns[kind]
	if !ok {
		return fmt.Errorf("%w: entity kind %q", ErrUnknownField, kind)
	}
	if _, ok := target.columns[field]; !ok {
		return fmt.Errorf("%w: %s.%s is not mutable", ErrUnknownField, kind, field)
	}
	return nil
}
