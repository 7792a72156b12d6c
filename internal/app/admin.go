package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/brecher/internal/adapters/repository"
	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/internal/domain/rules"
	"github.com/okian/brecher/pkg/logger"
	"github.com/okian/brecher/pkg/metrics"
)

// Backup is the portable form of all entries, keyed by week label ("KW39").
type Backup map[string]model.WeekEntries

// InitializeWeeks seeds every configured season week. Existing values are
// kept; only missing cells are created blank.
func (e *Engine) InitializeWeeks(ctx context.Context) (int, error) {
	total := 0
	for _, week := range e.seasonWeeks {
		n, err := e.CreateWeek(ctx, week)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// CreateWeek makes week tracked by creating every missing cell of the
// roster blank. It returns the number of cells created.
func (e *Engine) CreateWeek(ctx context.Context, week model.WeekID) (int, error) {
	const op = "service.create_week"
	store, err := e.backend()
	if err != nil {
		return 0, err
	}
	if !week.Valid() {
		return 0, fmt.Errorf("%w: week %d", ErrInvalidParameter, week)
	}

	existing, err := store.ListWeekEntries(ctx, week)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	var records []repository.Record
	for _, p := range e.roster {
		pw := existing.Person(p)
		for _, day := range model.Days {
			for _, category := range e.rules.Categories() {
				if pw.Has(day, category) {
					continue
				}
				records = append(records, repository.Record{
					Key: model.Key{Week: week, Person: p, Day: day, Category: category},
				})
			}
		}
	}
	if err := store.SetMany(ctx, records); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(records) > 0 {
		e.logger.Info(ctx, "week created", logger.String("week", week.Label()), logger.Int("cells", len(records)))
	}
	return len(records), nil
}

// Export returns every stored entry.
func (e *Engine) Export(ctx context.Context) (Backup, error) {
	const op = "service.export"
	h, err := e.loadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make(Backup, len(h.Weeks))
	for _, week := range h.Weeks {
		out[week.Label()] = h.Entries[week]
	}
	return out, nil
}

// Import writes every entry of b in one batch and returns how many were
// written. Unknown weeks, people, days or categories and values the rule
// set refuses reject the whole backup before anything is written.
func (e *Engine) Import(ctx context.Context, b Backup) (int, error) {
	return e.importBackup(ctx, b, "")
}

// ImportOwn is Import restricted to the entries of person. A backup that
// touches anyone else is refused with ErrForbidden.
func (e *Engine) ImportOwn(ctx context.Context, person model.Person, b Backup) (int, error) {
	if !e.roster.Contains(person) {
		return 0, fmt.Errorf("%w: person %q", ErrInvalidParameter, person)
	}
	return e.importBackup(ctx, b, person)
}

func (e *Engine) importBackup(ctx context.Context, b Backup, only model.Person) (int, error) {
	const op = "service.import"
	store, err := e.backend()
	if err != nil {
		return 0, err
	}

	labels := make([]string, 0, len(b))
	for label := range b {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	byWeek := make(map[model.WeekID][]repository.Record, len(labels))
	var weeks []model.WeekID
	for _, label := range labels {
		week, err := model.ParseWeekLabel(label)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
		}
		if _, seen := byWeek[week]; !seen {
			weeks = append(weeks, week)
		}
		written := byWeek[week]
		for person, pw := range b[label] {
			if only != "" && person != only {
				return 0, fmt.Errorf("%w: %s holds entries of %q", ErrForbidden, label, person)
			}
			for day, de := range pw {
				for category, value := range de {
					if err := e.checkParams(week, person, day, category); err != nil {
						return 0, err
					}
					written = append(written, repository.Record{
						Key:   model.Key{Week: week, Person: person, Day: day, Category: category},
						Value: value,
					})
				}
			}
		}
		byWeek[week] = written
	}

	var records []repository.Record
	for _, week := range weeks {
		if err := e.validateImport(ctx, store, week, byWeek[week]); err != nil {
			return 0, err
		}
		records = append(records, byWeek[week]...)
	}
	if err := store.SetMany(ctx, records); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	e.logger.Info(ctx, "backup imported",
		logger.Int("weeks", len(labels)),
		logger.Int("records", len(records)),
		logger.Bool("ownOnly", only != ""),
	)
	return len(records), nil
}

// validateImport runs the rule set's validators on every record against the
// week as it will look once the whole batch is stored.
func (e *Engine) validateImport(ctx context.Context, store repository.Store, week model.WeekID, records []repository.Record) error {
	const op = "service.import"
	stored, err := store.ListWeekEntries(ctx, week)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	merged := stored.Clone()
	for _, r := range records {
		merged.Set(r.Key.Person, r.Key.Day, r.Key.Category, r.Value)
	}

	sort.Slice(records, func(i, j int) bool {
		return lessKey(e.roster, records[i].Key, records[j].Key)
	})
	for _, r := range records {
		err := e.rules.Validate(rules.Write{
			Person:   r.Key.Person,
			Day:      r.Key.Day,
			Category: r.Key.Category,
			Value:    strings.TrimSpace(r.Value),
			Week:     merged.Person(r.Key.Person),
		})
		if err == nil {
			continue
		}
		var verr *rules.ValidationError
		if errors.As(err, &verr) {
			metrics.RecordValidationRejection(string(r.Key.Category))
			return fmt.Errorf("%s: %w", r.Key, err)
		}
		return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	return nil
}

// lessKey orders keys by roster position, then day, then category.
func lessKey(roster model.Roster, a, b model.Key) bool {
	if ai, bi := roster.Index(a.Person), roster.Index(b.Person); ai != bi {
		return ai < bi
	}
	if a.Day != b.Day {
		return a.Day.Index() < b.Day.Index()
	}
	return a.Category < b.Category
}

// Stats summarizes the store.
func (e *Engine) Stats(ctx context.Context) (repository.Stats, error) {
	const op = "service.stats"
	store, err := e.backend()
	if err != nil {
		return repository.Stats{}, err
	}
	st, err := store.Stats(ctx)
	if err != nil {
		return repository.Stats{}, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}
