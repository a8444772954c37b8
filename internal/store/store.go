package store

import (
	"context"
	"errors"

	"github.com/deskforge/automation/internal/rules"
)

// ErrNotFound is returned when a rule ID does not exist.
var ErrNotFound = errors.New("rule not found")

// Store persists automation rule definitions. Implementations must be safe
// for concurrent use.
//
// Listing order is part of the contract: rules come back in creation order,
// and the engine evaluates them in exactly that order.
type Store interface {
	// CreateRule persists a new rule. A missing ID is assigned; CreatedAt
	// and UpdatedAt are set. The stored rule is returned.
	CreateRule(ctx context.Context, r rules.Rule) (rules.Rule, error)

	// UpdateRule replaces an existing rule, preserving CreatedAt.
	// Returns ErrNotFound if the ID does not exist.
	UpdateRule(ctx context.Context, r rules.Rule) (rules.Rule, error)

	// DeleteRule removes a rule by ID. Returns ErrNotFound if absent.
	DeleteRule(ctx context.Context, id string) error

	// GetRule retrieves a rule by ID. Returns ErrNotFound if absent.
	GetRule(ctx context.Context, id string) (*rules.Rule, error)

	// ListRules returns every rule, active or not, in creation order.
	ListRules(ctx context.Context) ([]rules.Rule, error)

	// ListActiveByTrigger returns active rules for a trigger type in
	// creation order. This is the engine's rule-loading path.
	ListActiveByTrigger(ctx context.Context, trigger rules.TriggerType) ([]rules.Rule, error)

	// Close releases any resources held by the store.
	Close() error
}
