package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/pkg/metrics"
)

const tableName = "brecher_data"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS brecher_data (
	week       TEXT NOT NULL,
	person     TEXT NOT NULL,
	day        TEXT NOT NULL,
	category   TEXT NOT NULL,
	value      TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (week, person, day, category)
);
CREATE INDEX IF NOT EXISTS idx_week_person_day ON brecher_data(week, person, day);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS brecher_data (
	week       TEXT NOT NULL,
	person     TEXT NOT NULL,
	day        TEXT NOT NULL,
	category   TEXT NOT NULL,
	value      TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	PRIMARY KEY (week, person, day, category)
);
CREATE INDEX IF NOT EXISTS idx_week_person_day ON brecher_data(week, person, day);
`

const upsertQuery = `
INSERT INTO brecher_data (week, person, day, category, value, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (week, person, day, category)
DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// SQLStore persists entries in SQLite (modernc.org/sqlite) or PostgreSQL
// (pgx). Weeks are stored as "KW<n>" labels.
type SQLStore struct {
	db           *sql.DB
	backend      string
	now          func() time.Time
	maxOpenConns int
}

// OpenSQLite opens or creates the database file at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrMissingDSN
	}
	return open(ctx, BackendSQLite, "sqlite", path, opts...)
}

// OpenPostgres connects to the database at dsn.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrMissingDSN
	}
	return open(ctx, BackendPostgres, "pgx", dsn, opts...)
}

func open(ctx context.Context, backend, driver, dsn string, opts ...Option) (*SQLStore, error) {
	const op = "repository.open"

	s := &SQLStore{backend: backend, now: time.Now}
	if backend == BackendSQLite {
		// A single connection avoids "database is locked" under concurrent writers.
		s.maxOpenConns = 1
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, backend, err)
	}
	if s.maxOpenConns > 0 {
		db.SetMaxOpenConns(s.maxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping %s: %w", op, backend, err)
	}

	schema := sqliteSchema
	if backend == BackendPostgres {
		schema = postgresSchema
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: create %s: %w", op, tableName, err)
		}
	}

	s.db = db
	return s, nil
}

// Backend returns "sqlite" or "postgres".
func (s *SQLStore) Backend() string { return s.backend }

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, key model.Key) (string, error) {
	const op = "repository.get"
	defer observe(s.backend, "get", time.Now())
	if err := checkKey(key); err != nil {
		return "", err
	}

	var value string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT value FROM brecher_data WHERE week = ? AND person = ? AND day = ? AND category = ?`),
		key.Week.Label(), string(key.Person), string(key.Day), string(key.Category),
	).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		metrics.RecordStoreError(s.backend, "get")
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

// Set implements Store.
func (s *SQLStore) Set(ctx context.Context, key model.Key, value string) error {
	const op = "repository.set"
	defer observe(s.backend, "set", time.Now())
	if err := checkKey(key); err != nil {
		return err
	}

	ts := s.now().Unix()
	if _, err := s.db.ExecContext(ctx, s.rebind(upsertQuery),
		key.Week.Label(), string(key.Person), string(key.Day), string(key.Category), value, ts, ts,
	); err != nil {
		metrics.RecordStoreError(s.backend, "set")
		return fmt.Errorf("%s: %s: %w", op, key, err)
	}
	return nil
}

// SetMany implements Store in a single transaction.
func (s *SQLStore) SetMany(ctx context.Context, records []Record) (err error) {
	const op = "repository.set_many"
	defer observe(s.backend, "set_many", time.Now())
	for _, r := range records {
		if err := checkKey(r.Key); err != nil {
			return err
		}
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordStoreError(s.backend, "set_many")
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			metrics.RecordStoreError(s.backend, "set_many")
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.rebind(upsertQuery))
	if err != nil {
		return fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	ts := s.now().Unix()
	for _, r := range records {
		k := r.Key
		if _, err = stmt.ExecContext(ctx, k.Week.Label(), string(k.Person), string(k.Day), string(k.Category), r.Value, ts, ts); err != nil {
			return fmt.Errorf("%s: %s: %w", op, k, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// ListWeeks implements Store. Rows whose week label does not parse are
// skipped.
func (s *SQLStore) ListWeeks(ctx context.Context) ([]model.WeekID, error) {
	const op = "repository.list_weeks"
	defer observe(s.backend, "list_weeks", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT week FROM brecher_data`)
	if err != nil {
		metrics.RecordStoreError(s.backend, "list_weeks")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var weeks []model.WeekID
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		w, err := model.ParseWeekLabel(label)
		if err != nil {
			continue
		}
		weeks = append(weeks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sortWeeks(weeks)
	return weeks, nil
}

// ListWeekEntries implements Store.
func (s *SQLStore) ListWeekEntries(ctx context.Context, week model.WeekID) (model.WeekEntries, error) {
	const op = "repository.list_week_entries"
	defer observe(s.backend, "list_week_entries", time.Now())

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT person, day, category, value FROM brecher_data WHERE week = ?`), week.Label())
	if err != nil {
		metrics.RecordStoreError(s.backend, "list_week_entries")
		return nil, fmt.Errorf("%s: %s: %w", op, week.Label(), err)
	}
	defer rows.Close()

	out := model.WeekEntries{}
	for rows.Next() {
		var person, day, category, value string
		if err := rows.Scan(&person, &day, &category, &value); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !model.Day(day).Valid() {
			return nil, fmt.Errorf("%s: %w: day %q", op, ErrMalformedRecord, day)
		}
		out.Set(model.Person(person), model.Day(day), model.Category(category), value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Stats implements Store.
func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	const op = "repository.stats"
	defer observe(s.backend, "stats", time.Now())

	var (
		st      = Stats{Backend: s.backend}
		updated sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*), COUNT(DISTINCT week), COUNT(DISTINCT person), MAX(updated_at)
FROM brecher_data`).Scan(&st.TotalRecords, &st.TotalWeeks, &st.TotalPersons, &updated)
	if err != nil {
		metrics.RecordStoreError(s.backend, "stats")
		return Stats{}, fmt.Errorf("%s: %w", op, err)
	}
	if updated.Valid {
		st.LastUpdated = time.Unix(updated.Int64, 0).UTC()
	}
	metrics.UpdateStoreRecords(st.TotalRecords)
	return st, nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind turns "?" placeholders into "$n" for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.backend != BackendPostgres {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
