package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deskforge/automation/internal/rules"
)

// MemoryStore is an in-memory implementation of the Store interface, suitable
// for development, tests, and single-instance deployments. Insertion order is
// tracked explicitly so listing honors the creation-order contract.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]rules.Rule
	order []string
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]rules.Rule),
	}
}

// CreateRule persists a new rule in memory.
func (m *MemoryStore) CreateRule(ctx context.Context, r rules.Rule) (rules.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	if _, exists := m.byID[r.ID]; !exists {
		m.order = append(m.order, r.ID)
	}
	m.byID[r.ID] = r
	return r, nil
}

// UpdateRule replaces an existing rule, preserving its creation timestamp.
func (m *MemoryStore) UpdateRule(ctx context.Context, r rules.Rule) (rules.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.byID[r.ID]
	if !exists {
		return rules.Rule{}, ErrNotFound
	}

	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now().UTC()
	m.byID[r.ID] = r
	return r, nil
}

// DeleteRule removes a rule from memory.
func (m *MemoryStore) DeleteRule(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[id]; !exists {
		return ErrNotFound
	}
	delete(m.byID, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// GetRule retrieves a rule by ID.
func (m *MemoryStore) GetRule(ctx context.Context, id string) (*rules.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, exists := m.byID[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &r, nil
}

// ListRules returns all rules in creation order.
func (m *MemoryStore) ListRules(ctx context.Context) ([]rules.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]rules.Rule, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.byID[id])
	}
	return result, nil
}

// ListActiveByTrigger returns active rules for a trigger in creation order.
func (m *MemoryStore) ListActiveByTrigger(ctx context.Context, trigger rules.TriggerType) ([]rules.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []rules.Rule
	for _, id := range m.order {
		r := m.byID[id]
		if r.IsActive && r.TriggerType == trigger {
			result = append(result, r)
		}
	}
	return result, nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}
