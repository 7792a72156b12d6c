package repository

import (
	"context"
	"fmt"
)

// Settings selects and configures a backend.
type Settings struct {
	Backend     string
	DatabaseURL string
	SQLitePath  string
	// CacheSize wraps the backend in a week cache of that many weeks when
	// positive.
	CacheSize int
}

// Open creates the store described by s.
func Open(ctx context.Context, s Settings, opts ...Option) (Store, error) {
	const op = "repository.open_backend"
	var (
		store Store
		err   error
	)
	switch s.Backend {
	case BackendMemory:
		store = NewMemoryStore()
	case BackendSQLite:
		store, err = OpenSQLite(ctx, s.SQLitePath, opts...)
	case BackendPostgres:
		store, err = OpenPostgres(ctx, s.DatabaseURL, opts...)
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownBackend, s.Backend)
	}
	if err != nil {
		return nil, err
	}
	if s.CacheSize > 0 {
		store = NewCachedStore(store, WithCacheSize(s.CacheSize))
	}
	return store, nil
}
