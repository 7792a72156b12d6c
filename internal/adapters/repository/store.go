// Package repository stores raw competition entries keyed by
// (week, person, day, category).
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/pkg/metrics"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Record is one raw entry.
type Record struct {
	Key   model.Key
	Value string
}

// Stats describes the stored data.
type Stats struct {
	TotalRecords int       `json:"total_records"`
	TotalWeeks   int       `json:"total_weeks"`
	TotalPersons int       `json:"total_persons"`
	LastUpdated  time.Time `json:"last_updated"`
	Backend      string    `json:"backend"`
}

// Store provides read/write access to raw entries. Writes overwrite; entries
// are never deleted. Implementations are safe for concurrent use.
type Store interface {
	// Get returns the value of key, "" when absent.
	Get(ctx context.Context, key model.Key) (string, error)

	// Set writes value for key. A blank value still creates the entry.
	Set(ctx context.Context, key model.Key, value string) error

	// SetMany writes every record. SQL backends apply them in one
	// transaction.
	SetMany(ctx context.Context, records []Record) error

	// ListWeeks returns every week with at least one entry, ascending.
	ListWeeks(ctx context.Context) ([]model.WeekID, error)

	// ListWeekEntries returns all entries of week. The result is owned by
	// the caller.
	ListWeekEntries(ctx context.Context, week model.WeekID) (model.WeekEntries, error)

	// Stats summarizes the stored data.
	Stats(ctx context.Context) (Stats, error)

	// Close releases backend resources.
	Close() error
}

// observe records the latency of one store operation.
func observe(backend, op string, start time.Time) {
	metrics.RecordStoreLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
}

// checkKey rejects keys no backend can hold.
func checkKey(k model.Key) error {
	if !k.Week.Valid() || k.Person == "" || !k.Day.Valid() || k.Category == "" {
		return fmt.Errorf("%w: %s", ErrInvalidKey, k)
	}
	return nil
}
