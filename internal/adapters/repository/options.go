package repository

import "time"

// Option applies a configuration option to an SQLStore.
type Option func(*SQLStore)

// WithClock replaces time.Now for updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxOpenConns limits the connection pool. SQLite defaults to one.
func WithMaxOpenConns(n int) Option {
	return func(s *SQLStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// CacheOption applies a configuration option to a CachedStore.
type CacheOption func(*CachedStore)

// WithCacheSize bounds the number of cached weeks. Zero or less disables
// caching.
func WithCacheSize(n int) CacheOption {
	return func(c *CachedStore) {
		c.maxSize = n
	}
}
