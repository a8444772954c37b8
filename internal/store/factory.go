package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskforge/automation/internal/db"
)

// NewStore creates a rule store for the given backend type.
// Supported types: "memory", "postgres".
//
// For "postgres" the underlying pool is returned alongside the store so the
// caller can wire other collaborators to the same database; the store's Close
// owns the pool. For "memory" the pool is nil.
func NewStore(ctx context.Context, storeType, dbDSN string) (Store, *pgxpool.Pool, error) {
	switch storeType {
	case "memory":
		return NewMemoryStore(), nil, nil
	case "postgres":
		pool, err := db.NewPool(ctx, dbDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("database unreachable: %w", err)
		}
		pg := NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ensure rules schema: %w", err)
		}
		return pg, pool, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
