package service

import (
	"context"
	"fmt"

	"github.com/okian/brecher/internal/adapters/repository"
	"github.com/okian/brecher/internal/config"
	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/internal/domain/reveal"
	"github.com/okian/brecher/internal/domain/rules"
)

// OptionsFromConfig translates the loaded configuration into engine
// options. The store is not part of it; callers open it themselves.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	rs, err := rules.DefaultRegistry().Get(cfg.RulesVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	roster := make(model.Roster, 0, len(cfg.Roster))
	for _, p := range cfg.Roster {
		roster = append(roster, model.Person(p))
	}
	weeks := make([]model.WeekID, 0, len(cfg.SeasonWeeks))
	for _, w := range cfg.SeasonWeeks {
		weeks = append(weeks, model.WeekID(w))
	}

	return []Option{
		WithRuleSet(rs),
		WithRoster(roster),
		WithSeason(model.WeekID(cfg.SeasonStartWeek), weeks),
		WithRevealOptions(reveal.WithLocation(loc), reveal.WithRevealHour(cfg.RevealHour)),
	}, nil
}

// OpenEngine opens the configured store and returns a started engine over
// it. extra options are applied after the configured ones.
func OpenEngine(ctx context.Context, cfg *config.Config, extra ...Option) (*Engine, error) {
	const op = "service.open_engine"
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := repository.Open(ctx, repository.Settings{
		Backend:     cfg.StoreBackend,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
		CacheSize:   cfg.WeekCacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e := New(append(append(opts, WithStore(store)), extra...)...)
	if err := e.Start(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}
