package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/brecher/internal/adapters/repository"
	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/internal/domain/rules"
	"github.com/okian/brecher/internal/domain/types"
	"github.com/okian/brecher/pkg/logger"
	"github.com/okian/brecher/pkg/metrics"
)

// degradedWarning is returned with a write whose recompute failed.
const degradedWarning = "value saved, but scores could not be recomputed"

// Write outcomes used as metric labels.
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeRejected = "rejected"
	outcomeError    = "error"
	outcomeDegraded = "degraded"
)

// CellDisplay is the scored form of one stored value.
type CellDisplay struct {
	Value  string      `json:"value"`
	Points float64     `json:"points"`
	Color  model.Color `json:"color"`
}

// CellWrite is a request to store one value.
type CellWrite struct {
	Week     model.WeekID   `json:"week"`
	Person   model.Person   `json:"person"`
	Day      model.Day      `json:"day"`
	Category model.Category `json:"category"`
	Value    string         `json:"value"`
}

// WriteResult is everything a client needs to refresh after a write.
// During the Sunday blackout the scoreboard rows are hidden and Bonuses
// holds only the writer's own entry.
type WriteResult struct {
	Points      float64                  `json:"points"`
	Color       model.Color              `json:"color"`
	DailyTotal  float64                  `json:"dailyTotal"`
	WeeklyTotal float64                  `json:"weeklyTotal"`
	Bonus       float64                  `json:"bonus"`
	Errors      map[model.Day]rules.Cell `json:"errors,omitempty"`
	Bonuses     map[model.Person]float64 `json:"bonuses"`
	Scoreboard  []types.Entry            `json:"scoreboard"`
	Warning     string                   `json:"warning,omitempty"`
}

// ComputeCellDisplay returns the stored value of a cell with its points and
// color. Cells whose rule needs the whole week are scored in that context.
func (e *Engine) ComputeCellDisplay(ctx context.Context, week model.WeekID, person model.Person, day model.Day, category model.Category) (CellDisplay, error) {
	const op = "service.compute_cell_display"
	store, err := e.backend()
	if err != nil {
		return CellDisplay{}, err
	}
	if err := e.checkParams(week, person, day, category); err != nil {
		return CellDisplay{}, err
	}

	entries, err := store.ListWeekEntries(ctx, week)
	if err != nil {
		return CellDisplay{}, fmt.Errorf("%s: %w", op, err)
	}
	pw := entries.Person(person)
	cell := e.scorer.Cell(pw, day, category)
	return CellDisplay{Value: pw.Value(day, category), Points: cell.Points, Color: cell.Color}, nil
}

// WriteCell validates and stores a value, then recomputes the affected
// week from a fresh read. A rejected write leaves the store untouched. When
// the recompute fails after a successful write the result is zeroed and
// carries a warning instead of an error.
func (e *Engine) WriteCell(ctx context.Context, w CellWrite) (WriteResult, error) {
	const op = "service.write_cell"
	store, err := e.backend()
	if err != nil {
		return WriteResult{}, err
	}
	w.Value = strings.TrimSpace(w.Value)
	category := string(w.Category)

	if err := e.checkParams(w.Week, w.Person, w.Day, w.Category); err != nil {
		metrics.RecordCellWrite(category, outcomeInvalid)
		return WriteResult{}, err
	}
	ok, err := tracked(ctx, store, w.Week)
	if err != nil {
		metrics.RecordCellWrite(category, outcomeError)
		return WriteResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		metrics.RecordCellWrite(category, outcomeInvalid)
		return WriteResult{}, fmt.Errorf("%w: week %s is not tracked", ErrInvalidParameter, w.Week.Label())
	}

	before, err := store.ListWeekEntries(ctx, w.Week)
	if err != nil {
		metrics.RecordCellWrite(category, outcomeError)
		return WriteResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := e.rules.Validate(rules.Write{
		Person:   w.Person,
		Day:      w.Day,
		Category: w.Category,
		Value:    w.Value,
		Week:     before.Person(w.Person),
	}); err != nil {
		var verr *rules.ValidationError
		if errors.As(err, &verr) {
			metrics.RecordCellWrite(category, outcomeRejected)
			metrics.RecordValidationRejection(category)
			e.logger.Info(ctx, "write rejected",
				logger.String("cell", keyOf(w).String()),
				logger.String("reason", verr.Reason),
			)
			return WriteResult{}, err
		}
		metrics.RecordCellWrite(category, outcomeInvalid)
		return WriteResult{}, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	if err := store.Set(ctx, keyOf(w), w.Value); err != nil {
		metrics.RecordCellWrite(category, outcomeError)
		metrics.RecordErrorByComponent("service", "store_write")
		e.logger.Error(ctx, "store write failed", logger.String("cell", keyOf(w).String()), logger.Error(err))
		return WriteResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := e.confirmWrite(ctx, store, w, before.Person(w.Person).Value(w.Day, w.Category)); err != nil {
		metrics.RecordCellWrite(category, outcomeRejected)
		return WriteResult{}, err
	}
	e.logger.Debug(ctx, "cell written",
		logger.String("cell", keyOf(w).String()),
		logger.String("value", w.Value),
	)

	start := time.Now()
	result, err := e.recompute(ctx, w)
	metrics.RecordRecomputeLatency(sinceMs(start))
	if err != nil {
		metrics.RecordCellWrite(category, outcomeDegraded)
		metrics.RecordDegradedRecompute()
		e.logger.Warn(ctx, "recompute after write failed",
			logger.String("cell", keyOf(w).String()),
			logger.Error(err),
		)
		return WriteResult{Color: model.White, Bonuses: map[model.Person]float64{}, Warning: degradedWarning}, nil
	}
	metrics.RecordCellWrite(category, outcomeOK)
	e.logger.Debug(ctx, "week recomputed",
		logger.String("cell", keyOf(w).String()),
		logger.Float64("points", result.Points),
		logger.Float64("weeklyTotal", result.WeeklyTotal),
		logger.Bool("scoresHidden", e.scoresHidden(w.Week)),
	)
	return result, nil
}

// confirmWrite validates w again against the week as stored after the
// write. When a concurrent write on another cell made w invalid, the
// previous value is restored and the validation error returned. If the
// week cannot be re-read the write stands and the recompute reports it.
func (e *Engine) confirmWrite(ctx context.Context, store repository.Store, w CellWrite, previous string) error {
	const op = "service.write_cell"
	after, err := store.ListWeekEntries(ctx, w.Week)
	if err != nil {
		return nil
	}
	verr := e.rules.Validate(rules.Write{
		Person:   w.Person,
		Day:      w.Day,
		Category: w.Category,
		Value:    w.Value,
		Week:     after.Person(w.Person),
	})
	var rejected *rules.ValidationError
	if !errors.As(verr, &rejected) {
		return nil
	}
	if err := store.Set(ctx, keyOf(w), previous); err != nil {
		metrics.RecordErrorByComponent("service", "store_write")
		e.logger.Error(ctx, "undoing conflicting write failed", logger.String("cell", keyOf(w).String()), logger.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordValidationRejection(string(w.Category))
	e.logger.Warn(ctx, "write undone after a concurrent conflict",
		logger.String("cell", keyOf(w).String()),
		logger.String("reason", rejected.Reason),
	)
	return verr
}

// recompute scores the written week as it is stored now.
func (e *Engine) recompute(ctx context.Context, w CellWrite) (result WriteResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recompute panicked: %v", r)
		}
	}()

	store, err := e.backend()
	if err != nil {
		return WriteResult{}, err
	}
	entries, err := store.ListWeekEntries(ctx, w.Week)
	if err != nil {
		return WriteResult{}, err
	}

	pw := entries.Person(w.Person)
	ws := e.scorer.Week(pw)
	cell := ws.Cells[w.Day][w.Category]

	result = WriteResult{
		Points:      cell.Points,
		Color:       cell.Color,
		DailyTotal:  ws.Daily[w.Day],
		WeeklyTotal: ws.Weekly,
		Bonus:       ws.Bonus,
		Bonuses:     map[model.Person]float64{w.Person: ws.Bonus},
		Scoreboard:  e.weekly(w.Week, entries),
	}
	if cells, ok := e.scorer.ContextCells(pw, w.Category); ok {
		result.Errors = cells
	}
	if e.scoresHidden(w.Week) {
		return result, nil
	}
	for _, p := range e.roster {
		result.Bonuses[p] = e.scorer.Bonus(entries.Person(p))
	}
	return result, nil
}

func keyOf(w CellWrite) model.Key {
	return model.Key{Week: w.Week, Person: w.Person, Day: w.Day, Category: w.Category}
}
