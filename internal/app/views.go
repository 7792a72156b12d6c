package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/internal/domain/scoreboard"
	"github.com/okian/brecher/internal/domain/types"
)

// RevealStatus tells which week is official right now.
type RevealStatus struct {
	Now               time.Time    `json:"now"`
	OfficialWeek      model.WeekID `json:"officialWeek"`
	ScoreboardVisible bool         `json:"scoreboardVisible"`
}

// Overview is the per-week summary with the reveal status it was built
// under.
type Overview struct {
	RevealStatus
	Weeks []scoreboard.WeekSummary `json:"weeks"`
}

// Leaders are the category leaders of the latest tracked week.
type Leaders struct {
	Week       model.WeekID                `json:"week"`
	Revealed   bool                        `json:"revealed"`
	Categories []scoreboard.CategoryLeader `json:"categories"`
}

// DayView is one person's day in the week grid.
type DayView struct {
	Cells      map[model.Category]CellDisplay `json:"cells"`
	DailyTotal float64                        `json:"dailyTotal"`
}

// PersonWeekView is one person's row block in the week grid.
type PersonWeekView struct {
	Days        map[model.Day]DayView `json:"days"`
	Bonuses     map[string]float64    `json:"bonuses"`
	Bonus       float64               `json:"bonus"`
	WeeklyTotal float64               `json:"weeklyTotal"`
}

// WeekView is the complete scored grid of one week.
type WeekView struct {
	Week       model.WeekID                    `json:"week"`
	Label      string                          `json:"label"`
	Days       []model.Day                     `json:"days"`
	Categories []model.Category                `json:"categories"`
	People     map[model.Person]PersonWeekView `json:"people"`
	Scoreboard []types.Entry                   `json:"scoreboard"`
}

// Reveal returns the reveal status at the engine's current time.
func (e *Engine) Reveal() RevealStatus {
	now := e.gate.Now()
	return RevealStatus{
		Now:               now,
		OfficialWeek:      e.gate.OfficialWeek(now),
		ScoreboardVisible: e.gate.IsScoreboardVisible(now),
	}
}

// scoresHidden reports whether week falls into the Sunday blackout before
// the reveal hour, when only the official week and earlier may be ranked.
func (e *Engine) scoresHidden(week model.WeekID) bool {
	status := e.Reveal()
	return !status.ScoreboardVisible && !e.builder.Revealed(week, status.OfficialWeek)
}

// weekly ranks entries of week, or returns the suppressed placeholder
// during the blackout.
func (e *Engine) weekly(week model.WeekID, entries model.WeekEntries) []types.Entry {
	if e.scoresHidden(week) {
		return e.builder.Suppressed()
	}
	return e.builder.Weekly(entries)
}

// GetWeeklyScoreboard ranks the roster by weekly total for week. During the
// Sunday blackout an unrevealed week yields hidden rows.
func (e *Engine) GetWeeklyScoreboard(ctx context.Context, week model.WeekID) ([]types.Entry, error) {
	const op = "service.weekly_scoreboard"
	store, err := e.backend()
	if err != nil {
		return nil, err
	}
	if !week.Valid() {
		return nil, fmt.Errorf("%w: week %d", ErrInvalidParameter, week)
	}
	entries, err := store.ListWeekEntries(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e.weekly(week, entries), nil
}

// GetMonthlyScoreboard ranks the roster by points over all revealed weeks.
func (e *Engine) GetMonthlyScoreboard(ctx context.Context) ([]types.Entry, error) {
	const op = "service.monthly_scoreboard"
	h, err := e.loadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e.builder.Monthly(h, e.Reveal().OfficialWeek), nil
}

// GetWeeklyOverview summarizes every tracked week. Weeks still in progress
// carry no scores and no winner.
func (e *Engine) GetWeeklyOverview(ctx context.Context) (Overview, error) {
	const op = "service.weekly_overview"
	h, err := e.loadHistory(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("%s: %w", op, err)
	}
	status := e.Reveal()
	return Overview{RevealStatus: status, Weeks: e.builder.Overview(h, status.OfficialWeek)}, nil
}

// GetCategoryLeaders reports the chart category leaders of the latest
// tracked week. The leader is named even when the week is in progress, but
// scores are then masked.
func (e *Engine) GetCategoryLeaders(ctx context.Context) (Leaders, error) {
	const op = "service.category_leaders"
	store, err := e.backend()
	if err != nil {
		return Leaders{}, err
	}
	weeks, err := store.ListWeeks(ctx)
	if err != nil {
		return Leaders{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(weeks) == 0 {
		return Leaders{Categories: []scoreboard.CategoryLeader{}}, nil
	}
	e.season.Sort(weeks)
	current := weeks[len(weeks)-1]

	entries, err := store.ListWeekEntries(ctx, current)
	if err != nil {
		return Leaders{}, fmt.Errorf("%s: %w", op, err)
	}
	revealed := e.builder.Revealed(current, e.Reveal().OfficialWeek)
	return Leaders{
		Week:       current,
		Revealed:   revealed,
		Categories: e.builder.CategoryLeaders(current, entries, revealed),
	}, nil
}

// GetUserStatistics returns wins and points over revealed weeks and the
// number of weeks the person filled completely.
func (e *Engine) GetUserStatistics(ctx context.Context, person model.Person) (scoreboard.UserStatistics, error) {
	const op = "service.user_statistics"
	if !e.roster.Contains(person) {
		return scoreboard.UserStatistics{}, fmt.Errorf("%w: person %q", ErrInvalidParameter, person)
	}
	h, err := e.loadHistory(ctx)
	if err != nil {
		return scoreboard.UserStatistics{}, fmt.Errorf("%s: %w", op, err)
	}
	return e.builder.UserStatistics(person, h, e.Reveal().OfficialWeek), nil
}

// GetChartData returns per-category weekly points over revealed weeks.
func (e *Engine) GetChartData(ctx context.Context) ([]scoreboard.ChartSeries, error) {
	const op = "service.chart_data"
	h, err := e.loadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e.builder.ChartData(h, e.Reveal().OfficialWeek), nil
}

// GetWeekView scores the full grid of a tracked week.
func (e *Engine) GetWeekView(ctx context.Context, week model.WeekID) (WeekView, error) {
	const op = "service.week_view"
	store, err := e.backend()
	if err != nil {
		return WeekView{}, err
	}
	ok, err := tracked(ctx, store, week)
	if err != nil {
		return WeekView{}, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return WeekView{}, fmt.Errorf("%w: week %s is not tracked", ErrInvalidParameter, week.Label())
	}
	entries, err := store.ListWeekEntries(ctx, week)
	if err != nil {
		return WeekView{}, fmt.Errorf("%s: %w", op, err)
	}

	view := WeekView{
		Week:       week,
		Label:      week.Label(),
		Days:       model.Days,
		Categories: e.rules.Categories(),
		People:     make(map[model.Person]PersonWeekView, len(e.roster)),
		Scoreboard: e.weekly(week, entries),
	}
	for _, p := range e.roster {
		pw := entries.Person(p)
		ws := e.scorer.Week(pw)
		pv := PersonWeekView{
			Days:        make(map[model.Day]DayView, len(model.Days)),
			Bonuses:     ws.Bonuses,
			Bonus:       ws.Bonus,
			WeeklyTotal: ws.Weekly,
		}
		for _, day := range model.Days {
			dv := DayView{Cells: make(map[model.Category]CellDisplay, len(view.Categories)), DailyTotal: ws.Daily[day]}
			for _, category := range view.Categories {
				cell := ws.Cells[day][category]
				dv.Cells[category] = CellDisplay{Value: pw.Value(day, category), Points: cell.Points, Color: cell.Color}
			}
			pv.Days[day] = dv
		}
		view.People[p] = pv
	}
	return view, nil
}

// ListWeeks returns the tracked weeks in season order.
func (e *Engine) ListWeeks(ctx context.Context) ([]model.WeekID, error) {
	const op = "service.list_weeks"
	store, err := e.backend()
	if err != nil {
		return nil, err
	}
	weeks, err := store.ListWeeks(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e.season.Sort(weeks)
	return weeks, nil
}

func (e *Engine) loadHistory(ctx context.Context) (scoreboard.History, error) {
	store, err := e.backend()
	if err != nil {
		return scoreboard.History{}, err
	}
	return e.history(ctx, store)
}
