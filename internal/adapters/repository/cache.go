package repository

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/pkg/metrics"
)

// defaultCacheSize covers a full season plus headroom.
const defaultCacheSize = 64

// CachedStore keeps recently read weeks in an LRU in front of another
// Store. Every write drops the written weeks before and after it reaches
// the backing store, and a read that raced a write is not cached.
type CachedStore struct {
	Store

	maxSize int
	weeks   *lru.Cache[model.WeekID, model.WeekEntries]

	mu  sync.Mutex
	gen map[model.WeekID]uint64 // bumped on every invalidation
}

// NewCachedStore wraps backing with a bounded week cache.
func NewCachedStore(backing Store, opts ...CacheOption) *CachedStore {
	c := &CachedStore{
		Store:   backing,
		maxSize: defaultCacheSize,
		gen:     make(map[model.WeekID]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxSize > 0 {
		// lru.New only fails for a non-positive size.
		c.weeks, _ = lru.New[model.WeekID, model.WeekEntries](c.maxSize)
	}
	return c
}

// Set implements Store.
func (c *CachedStore) Set(ctx context.Context, key model.Key, value string) error {
	c.invalidate(key.Week)
	err := c.Store.Set(ctx, key, value)
	c.invalidate(key.Week)
	return err
}

// SetMany implements Store.
func (c *CachedStore) SetMany(ctx context.Context, records []Record) error {
	for _, r := range records {
		c.invalidate(r.Key.Week)
	}
	err := c.Store.SetMany(ctx, records)
	for _, r := range records {
		c.invalidate(r.Key.Week)
	}
	return err
}

// ListWeekEntries implements Store, serving repeated reads from memory.
func (c *CachedStore) ListWeekEntries(ctx context.Context, week model.WeekID) (model.WeekEntries, error) {
	if c.weeks == nil {
		return c.Store.ListWeekEntries(ctx, week)
	}

	if entries, ok := c.weeks.Get(week); ok {
		metrics.RecordWeekCacheHit()
		return entries.Clone(), nil
	}
	c.mu.Lock()
	gen := c.gen[week]
	c.mu.Unlock()
	metrics.RecordWeekCacheMiss()

	entries, err := c.Store.ListWeekEntries(ctx, week)
	if err != nil {
		return nil, err
	}
	c.put(week, gen, entries.Clone())
	return entries, nil
}

// Len returns the number of cached weeks.
func (c *CachedStore) Len() int {
	if c.weeks == nil {
		return 0
	}
	return c.weeks.Len()
}

// put caches entries unless the week was written since gen was read.
func (c *CachedStore) put(week model.WeekID, gen uint64, entries model.WeekEntries) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen[week] != gen {
		return
	}
	c.weeks.Add(week, entries)
	metrics.UpdateWeekCacheSize(c.weeks.Len())
}

func (c *CachedStore) invalidate(week model.WeekID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen[week]++
	if c.weeks != nil && c.weeks.Remove(week) {
		metrics.UpdateWeekCacheSize(c.weeks.Len())
	}
}
