// Package service provides the scoring engine that implements the
// dependencies required by the HTTP API and the admin CLI.
//
// The engine holds no cross-request state: every operation reads what it
// needs from the store and derives scores from scratch.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/brecher/internal/adapters/repository"
	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/internal/domain/reveal"
	"github.com/okian/brecher/internal/domain/rules"
	"github.com/okian/brecher/internal/domain/scoreboard"
	"github.com/okian/brecher/internal/domain/scoring"
	"github.com/okian/brecher/pkg/logger"
	"github.com/okian/brecher/pkg/metrics"
)

// Default league configuration.
const defaultSeasonStart model.WeekID = 39

// DefaultRoster is the league's fixed line-up.
var DefaultRoster = model.Roster{"David", "Cedric", "Müller"}

// Engine implements the scoring operations over an injected store.
type Engine struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	rules   *rules.RuleSet
	scorer  *scoring.Scorer
	builder *scoreboard.Builder
	gate    *reveal.Gate

	// Configuration
	roster      model.Roster
	season      reveal.Season
	seasonWeeks []model.WeekID
	gateOpts    []reveal.Option

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithStore sets the entry store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(e *Engine) {
		if store != nil {
			e.store = store
		}
	}
}

// WithRuleSet sets the rule generation. Defaults to the current rules.
func WithRuleSet(rs *rules.RuleSet) Option {
	return func(e *Engine) {
		if rs != nil {
			e.rules = rs
		}
	}
}

// WithRoster sets the competitors in tie-break order.
func WithRoster(roster model.Roster) Option {
	return func(e *Engine) {
		if len(roster) > 0 {
			e.roster = roster
		}
	}
}

// WithSeason sets the first week of the season and the weeks seeded by
// InitializeWeeks.
func WithSeason(start model.WeekID, weeks []model.WeekID) Option {
	return func(e *Engine) {
		if start.Valid() {
			e.season = reveal.Season{StartWeek: start}
		}
		if len(weeks) > 0 {
			e.seasonWeeks = weeks
		}
	}
}

// WithRevealOptions configures the reveal gate (time zone, clock).
func WithRevealOptions(opts ...reveal.Option) Option {
	return func(e *Engine) {
		e.gateOpts = append(e.gateOpts, opts...)
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New constructs an Engine with default configuration.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:  rules.Current(),
		roster: DefaultRoster,
		season: reveal.Season{StartWeek: defaultSeasonStart},
	}
	for w := defaultSeasonStart; w < defaultSeasonStart+8; w++ {
		e.seasonWeeks = append(e.seasonWeeks, w)
	}

	for _, opt := range opts {
		opt(e)
	}

	e.scorer = scoring.NewScorer(scoring.WithRuleSet(e.rules))
	e.builder = scoreboard.NewBuilder(e.roster, e.scorer, scoreboard.WithSeason(e.season))
	e.gate = reveal.NewGate(e.gateOpts...)
	return e
}

// Start prepares the engine for use.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}
	if e.logger == nil {
		e.logger = logger.Get()
	}
	if e.store == nil {
		e.store = repository.NewMemoryStore()
		e.logger.Info(ctx, "using memory store")
	}

	e.started = true
	e.logger.Info(ctx, "scoring engine started",
		logger.String("rules", e.rules.Version()),
		logger.Int("roster", len(e.roster)),
		logger.Int("seasonStart", int(e.season.StartWeek)),
	)
	return nil
}

// Stop closes the store.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return
	}
	if err := e.store.Close(); err != nil {
		e.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
	}
	e.started = false
	e.logger.Info(context.Background(), "scoring engine stopped")
}

// Roster returns the competitors in tie-break order.
func (e *Engine) Roster() model.Roster { return e.roster }

// Rules returns the active rule set.
func (e *Engine) Rules() *rules.RuleSet { return e.rules }

// GetStats returns engine statistics for monitoring.
func (e *Engine) GetStats() map[string]interface{} {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     e.started,
		"rules":       e.rules.Version(),
		"roster":      e.roster,
		"seasonStart": int(e.season.StartWeek),
	}
	if e.started {
		ctx := context.Background()
		now := e.gate.Now()
		stats["officialWeek"] = int(e.gate.OfficialWeek(now))
		stats["scoreboardVisible"] = e.gate.IsScoreboardVisible(now)
		if st, err := e.store.Stats(ctx); err == nil {
			stats["store"] = st
			metrics.UpdateTrackedWeeks(st.TotalWeeks)
		}
	}
	return stats
}

// backend returns the store, failing when the engine is not running.
func (e *Engine) backend() (repository.Store, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.started {
		return nil, ErrNotStarted
	}
	return e.store, nil
}

// checkParams rejects unknown people, days and categories.
func (e *Engine) checkParams(week model.WeekID, person model.Person, day model.Day, category model.Category) error {
	switch {
	case !week.Valid():
		return fmt.Errorf("%w: week %d", ErrInvalidParameter, week)
	case !e.roster.Contains(person):
		return fmt.Errorf("%w: person %q", ErrInvalidParameter, person)
	case !day.Valid():
		return fmt.Errorf("%w: day %q", ErrInvalidParameter, day)
	case !e.rules.Has(category):
		return fmt.Errorf("%w: category %q", ErrInvalidParameter, category)
	}
	return nil
}

// tracked reports whether week has any stored entry.
func tracked(ctx context.Context, store repository.Store, week model.WeekID) (bool, error) {
	weeks, err := store.ListWeeks(ctx)
	if err != nil {
		return false, err
	}
	for _, w := range weeks {
		if w == week {
			return true, nil
		}
	}
	return false, nil
}

// history loads every tracked week.
func (e *Engine) history(ctx context.Context, store repository.Store) (scoreboard.History, error) {
	weeks, err := store.ListWeeks(ctx)
	if err != nil {
		return scoreboard.History{}, err
	}
	h := scoreboard.History{Weeks: weeks, Entries: make(map[model.WeekID]model.WeekEntries, len(weeks))}
	for _, w := range weeks {
		entries, err := store.ListWeekEntries(ctx, w)
		if err != nil {
			return scoreboard.History{}, err
		}
		h.Entries[w] = entries
	}
	return h, nil
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
