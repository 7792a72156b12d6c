package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/pkg/metrics"
)

// MemoryStore keeps entries in process memory. Data is lost on exit.
type MemoryStore struct {
	mu      sync.RWMutex
	weeks   map[model.WeekID]model.WeekEntries
	records int
	updated time.Time
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		weeks: make(map[model.WeekID]model.WeekEntries),
		now:   time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key model.Key) (string, error) {
	defer observe(BackendMemory, "get", time.Now())
	if err := checkKey(key); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weeks[key.Week].Person(key.Person).Value(key.Day, key.Category), nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, key model.Key, value string) error {
	return s.SetMany(ctx, []Record{{Key: key, Value: value}})
}

// SetMany implements Store. Either every key is valid and all records are
// written, or nothing is.
func (s *MemoryStore) SetMany(ctx context.Context, records []Record) error {
	defer observe(BackendMemory, "set", time.Now())
	for _, r := range records {
		if err := checkKey(r.Key); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		week := s.weeks[r.Key.Week]
		if week == nil {
			week = model.WeekEntries{}
			s.weeks[r.Key.Week] = week
		}
		if !week.Person(r.Key.Person).Has(r.Key.Day, r.Key.Category) {
			s.records++
		}
		week.Set(r.Key.Person, r.Key.Day, r.Key.Category, r.Value)
	}
	if len(records) > 0 {
		s.updated = s.now()
	}
	return nil
}

// ListWeeks implements Store.
func (s *MemoryStore) ListWeeks(ctx context.Context) ([]model.WeekID, error) {
	defer observe(BackendMemory, "list_weeks", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.WeekID, 0, len(s.weeks))
	for w := range s.weeks {
		out = append(out, w)
	}
	sortWeeks(out)
	return out, nil
}

// ListWeekEntries implements Store.
func (s *MemoryStore) ListWeekEntries(ctx context.Context, week model.WeekID) (model.WeekEntries, error) {
	defer observe(BackendMemory, "list_week_entries", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entries, ok := s.weeks[week]; ok {
		return entries.Clone(), nil
	}
	return model.WeekEntries{}, nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	persons := make(map[model.Person]struct{})
	for _, week := range s.weeks {
		for p := range week {
			persons[p] = struct{}{}
		}
	}
	metrics.UpdateStoreRecords(s.records)
	return Stats{
		TotalRecords: s.records,
		TotalWeeks:   len(s.weeks),
		TotalPersons: len(persons),
		LastUpdated:  s.updated,
		Backend:      BackendMemory,
	}, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

func sortWeeks(weeks []model.WeekID) {
	sort.Slice(weeks, func(i, j int) bool { return weeks[i] < weeks[j] })
}
