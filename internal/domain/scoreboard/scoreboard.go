// Package scoreboard builds ranked views over scored weeks: weekly and
// season standings, the per-week overview, category leaders, personal
// statistics and chart series.
//
// The builder is pure. Callers load raw entries and decide which week is
// official; the builder only applies those facts.
package scoreboard

import (
	"sort"
	"strings"

	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/internal/domain/reveal"
	"github.com/okian/brecher/internal/domain/scoring"
	"github.com/okian/brecher/internal/domain/types"
)

// Week states reported by the overview.
const (
	StatusFinal      = "final"
	StatusInProgress = "in_progress"
)

// History is every tracked week with its raw entries.
type History struct {
	Weeks   []model.WeekID
	Entries map[model.WeekID]model.WeekEntries
}

// WeekSummary is one row of the weekly overview. Scores and Winner are nil
// while the week is in progress.
type WeekSummary struct {
	Week   model.WeekID             `json:"week"`
	Label  string                   `json:"label"`
	Status string                   `json:"status"`
	Scores map[model.Person]float64 `json:"scores"`
	Winner *model.Person            `json:"winner"`
}

// CategoryLeader names the best person of one category in a week. For a
// week in progress the leader is shown but Score and Scores are masked.
type CategoryLeader struct {
	Category model.Category           `json:"category"`
	Week     model.WeekID             `json:"week"`
	Leader   *model.Person            `json:"leader"`
	Score    *float64                 `json:"score"`
	Scores   map[model.Person]float64 `json:"scores"`
	Masked   bool                     `json:"masked"`
}

// UserStatistics summarizes one person's season.
type UserStatistics struct {
	Person         model.Person `json:"person"`
	Wins           int          `json:"wins"`
	TotalPoints    float64      `json:"totalPoints"`
	CompletedWeeks int          `json:"completedWeeks"`
}

// ChartSeries is the weekly points of one category across revealed weeks.
type ChartSeries struct {
	Category model.Category             `json:"category"`
	Weeks    []string                   `json:"weeks"`
	Points   map[model.Person][]float64 `json:"points"`
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithSeason sets the season used to order weeks across New Year.
func WithSeason(season reveal.Season) Option {
	return func(b *Builder) {
		b.season = season
	}
}

// Builder derives standings for a fixed roster with one scorer.
type Builder struct {
	roster model.Roster
	scorer *scoring.Scorer
	season reveal.Season
}

// NewBuilder creates a builder. A nil scorer selects the current rules.
func NewBuilder(roster model.Roster, scorer *scoring.Scorer, opts ...Option) *Builder {
	if scorer == nil {
		scorer = scoring.NewScorer()
	}
	b := &Builder{roster: roster, scorer: scorer}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Revealed reports whether week is at or before the official week.
func (b *Builder) Revealed(week, official model.WeekID) bool {
	return b.season.AtOrBefore(week, official)
}

// WeekTotals returns every roster member's weekly total for entries.
func (b *Builder) WeekTotals(entries model.WeekEntries) map[model.Person]float64 {
	out := make(map[model.Person]float64, len(b.roster))
	for _, p := range b.roster {
		out[p] = b.scorer.WeeklyTotal(entries.Person(p))
	}
	return out
}

// Weekly ranks the roster by weekly total.
func (b *Builder) Weekly(entries model.WeekEntries) []types.Entry {
	return Rank(b.roster, b.WeekTotals(entries))
}

// Suppressed is the scoreboard of a week whose scores are hidden: the
// roster in order, unranked and without scores.
func (b *Builder) Suppressed() []types.Entry {
	entries := make([]types.Entry, 0, len(b.roster))
	for _, p := range b.roster {
		entries = append(entries, types.Entry{Person: p, Hidden: true})
	}
	return entries
}

// Monthly ranks the roster by the sum of weekly totals over revealed weeks.
// Weeks after official contribute nothing.
func (b *Builder) Monthly(h History, official model.WeekID) []types.Entry {
	sums := make(map[model.Person]float64, len(b.roster))
	for _, p := range b.roster {
		sums[p] = 0
	}
	for _, week := range h.Weeks {
		if !b.Revealed(week, official) {
			continue
		}
		for p, total := range b.WeekTotals(h.Entries[week]) {
			sums[p] += total
		}
	}
	for p, v := range sums {
		sums[p] = scoring.Round2(v)
	}
	return Rank(b.roster, sums)
}

// Overview summarizes every tracked week in season order.
func (b *Builder) Overview(h History, official model.WeekID) []WeekSummary {
	weeks := b.sorted(h.Weeks)
	out := make([]WeekSummary, 0, len(weeks))
	for _, week := range weeks {
		row := WeekSummary{Week: week, Label: week.Label(), Status: StatusInProgress}
		if b.Revealed(week, official) {
			row.Status = StatusFinal
			row.Scores = b.WeekTotals(h.Entries[week])
			if winner, ok := Winner(b.roster, row.Scores); ok {
				row.Winner = &winner
			}
		}
		out = append(out, row)
	}
	return out
}

// CategoryLeaders reports the leader of each chart category for week.
// revealed decides whether scores are shown.
func (b *Builder) CategoryLeaders(week model.WeekID, entries model.WeekEntries, revealed bool) []CategoryLeader {
	categories := b.scorer.Rules().ChartCategories()
	out := make([]CategoryLeader, 0, len(categories))
	for _, category := range categories {
		scores := make(map[model.Person]float64, len(b.roster))
		for _, p := range b.roster {
			scores[p] = b.scorer.CategoryTotal(entries.Person(p), category)
		}
		row := CategoryLeader{Category: category, Week: week, Masked: !revealed}
		if leader, ok := Winner(b.roster, scores); ok {
			row.Leader = &leader
			if revealed {
				score := scores[leader]
				row.Score = &score
			}
		}
		if revealed {
			row.Scores = scores
		}
		out = append(out, row)
	}
	return out
}

// UserStatistics counts wins and points over revealed weeks. Completed
// weeks count every tracked week in which the person filled every cell.
func (b *Builder) UserStatistics(person model.Person, h History, official model.WeekID) UserStatistics {
	stats := UserStatistics{Person: person}
	var total float64
	for _, week := range h.Weeks {
		entries := h.Entries[week]
		if b.complete(entries.Person(person)) {
			stats.CompletedWeeks++
		}
		if !b.Revealed(week, official) {
			continue
		}
		scores := b.WeekTotals(entries)
		total += scores[person]
		if winner, ok := Winner(b.roster, scores); ok && winner == person {
			stats.Wins++
		}
	}
	stats.TotalPoints = scoring.Round2(total)
	return stats
}

// ChartData returns one series per chart category over revealed weeks in
// season order.
func (b *Builder) ChartData(h History, official model.WeekID) []ChartSeries {
	var weeks []model.WeekID
	for _, week := range b.sorted(h.Weeks) {
		if b.Revealed(week, official) {
			weeks = append(weeks, week)
		}
	}
	labels := make([]string, len(weeks))
	for i, week := range weeks {
		labels[i] = week.Label()
	}

	categories := b.scorer.Rules().ChartCategories()
	out := make([]ChartSeries, 0, len(categories))
	for _, category := range categories {
		series := ChartSeries{
			Category: category,
			Weeks:    labels,
			Points:   make(map[model.Person][]float64, len(b.roster)),
		}
		for _, p := range b.roster {
			points := make([]float64, len(weeks))
			for i, week := range weeks {
				points[i] = b.scorer.CategoryTotal(h.Entries[week].Person(p), category)
			}
			series.Points[p] = points
		}
		out = append(out, series)
	}
	return out
}

func (b *Builder) complete(pw model.PersonWeek) bool {
	for _, day := range model.Days {
		for _, category := range b.scorer.Rules().Categories() {
			if strings.TrimSpace(pw.Value(day, category)) == "" {
				return false
			}
		}
	}
	return true
}

func (b *Builder) sorted(weeks []model.WeekID) []model.WeekID {
	out := append([]model.WeekID(nil), weeks...)
	b.season.Sort(out)
	return out
}

// Rank orders roster members by score descending. Equal scores keep roster
// order and share a rank.
func Rank(roster model.Roster, scores map[model.Person]float64) []types.Entry {
	entries := make([]types.Entry, 0, len(roster))
	for _, p := range roster {
		entries = append(entries, types.Entry{Person: p, Score: scores[p]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	assignRanksWithTies(entries)
	return entries
}

// Winner returns the highest scorer when that score is positive. Ties go to
// the earlier roster member.
func Winner(roster model.Roster, scores map[model.Person]float64) (model.Person, bool) {
	var (
		best  model.Person
		score float64
		found bool
	)
	for _, p := range roster {
		if s := scores[p]; s > 0 && (!found || s > score) {
			best, score, found = p, s, true
		}
	}
	return best, found
}

// assignRanksWithTies gives equal scores the same rank; the next distinct
// score takes the next consecutive rank.
func assignRanksWithTies(entries []types.Entry) {
	if len(entries) == 0 {
		return
	}

	currentRank := 1
	for i := 0; i < len(entries); i++ {
		entries[i].Rank = currentRank

		sameScoreCount := 1
		for j := i + 1; j < len(entries) && entries[j].Score == entries[i].Score; j++ {
			entries[j].Rank = currentRank
			sameScoreCount++
		}

		currentRank++
		i += sameScoreCount - 1
	}
}
