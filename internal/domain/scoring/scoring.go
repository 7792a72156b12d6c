// Package scoring turns a person's raw week into cell scores, daily totals,
// bonuses and the weekly total under a given rule set.
package scoring

import (
	"math"

	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/internal/domain/rules"
)

// Round2 rounds x to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithRuleSet sets the rule generation used for scoring.
func WithRuleSet(rs *rules.RuleSet) Option {
	return func(s *Scorer) {
		if rs != nil {
			s.rules = rs
		}
	}
}

// Scorer computes scores from raw entries. It holds no state besides the
// rule set and is safe for concurrent use.
type Scorer struct {
	rules *rules.RuleSet
}

// NewScorer creates a scorer using the current rule generation unless an
// option says otherwise.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{rules: rules.Current()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the rule set the scorer applies.
func (s *Scorer) Rules() *rules.RuleSet { return s.rules }

// WeekScore is a fully scored person-week.
type WeekScore struct {
	Cells   map[model.Day]map[model.Category]rules.Cell `json:"cells"`
	Daily   map[model.Day]float64                       `json:"daily"`
	Bonuses map[string]float64                          `json:"bonuses"`
	Bonus   float64                                     `json:"bonus"`
	Weekly  float64                                     `json:"weekly"`
}

// Week scores every cell of week and aggregates the totals. Rules with week
// context are evaluated once over the whole week.
func (s *Scorer) Week(week model.PersonWeek) WeekScore {
	contextual := s.contextCells(week)

	ws := WeekScore{
		Cells:   make(map[model.Day]map[model.Category]rules.Cell, len(model.Days)),
		Daily:   make(map[model.Day]float64, len(model.Days)),
		Bonuses: make(map[string]float64, len(s.rules.Bonuses())),
	}
	var days float64
	for _, day := range model.Days {
		cells := make(map[model.Category]rules.Cell, len(s.rules.Categories()))
		var total float64
		for _, category := range s.rules.Categories() {
			cell := s.cell(week, contextual, day, category)
			cells[category] = cell
			total += cell.Points
		}
		ws.Cells[day] = cells
		ws.Daily[day] = Round2(total)
		days += ws.Daily[day]
	}
	for _, b := range s.rules.Bonuses() {
		award := b.Award(week)
		ws.Bonuses[b.Name()] = award
		ws.Bonus += award
	}
	ws.Weekly = Round2(days + ws.Bonus)
	return ws
}

// Cell scores one (day, category) of week.
func (s *Scorer) Cell(week model.PersonWeek, day model.Day, category model.Category) rules.Cell {
	r, ok := s.rules.Rule(category)
	if !ok {
		return rules.Cell{Color: model.White}
	}
	if wr, ok := r.(rules.WeekContextRule); ok {
		return wr.ScoreWeek(week)[day]
	}
	return r.Score(week.Value(day, category))
}

// ContextCells returns the per-day cells of category when its rule needs the
// whole week, and false otherwise.
func (s *Scorer) ContextCells(week model.PersonWeek, category model.Category) (map[model.Day]rules.Cell, bool) {
	r, ok := s.rules.Rule(category)
	if !ok {
		return nil, false
	}
	wr, ok := r.(rules.WeekContextRule)
	if !ok {
		return nil, false
	}
	return wr.ScoreWeek(week), true
}

// DailyTotal is the rounded sum of all category points of one day.
func (s *Scorer) DailyTotal(week model.PersonWeek, day model.Day) float64 {
	contextual := s.contextCells(week)
	var total float64
	for _, category := range s.rules.Categories() {
		total += s.cell(week, contextual, day, category).Points
	}
	return Round2(total)
}

// Bonus is the sum of all weekly bonuses earned in week.
func (s *Scorer) Bonus(week model.PersonWeek) float64 {
	var total float64
	for _, b := range s.rules.Bonuses() {
		total += b.Award(week)
	}
	return total
}

// WeeklyTotal is the sum of the daily totals plus the bonus, rounded.
func (s *Scorer) WeeklyTotal(week model.PersonWeek) float64 {
	return s.Week(week).Weekly
}

// CategoryTotal is the rounded sum of one category's points over the week.
func (s *Scorer) CategoryTotal(week model.PersonWeek, category model.Category) float64 {
	if cells, ok := s.ContextCells(week, category); ok {
		var total float64
		for _, day := range model.Days {
			total += cells[day].Points
		}
		return Round2(total)
	}
	r, ok := s.rules.Rule(category)
	if !ok {
		return 0
	}
	var total float64
	for _, day := range model.Days {
		total += r.Score(week.Value(day, category)).Points
	}
	return Round2(total)
}

// contextCells evaluates every week-context rule once.
func (s *Scorer) contextCells(week model.PersonWeek) map[model.Category]map[model.Day]rules.Cell {
	out := make(map[model.Category]map[model.Day]rules.Cell)
	for _, category := range s.rules.Categories() {
		if cells, ok := s.ContextCells(week, category); ok {
			out[category] = cells
		}
	}
	return out
}

func (s *Scorer) cell(week model.PersonWeek, contextual map[model.Category]map[model.Day]rules.Cell, day model.Day, category model.Category) rules.Cell {
	if cells, ok := contextual[category]; ok {
		return cells[day]
	}
	r, _ := s.rules.Rule(category)
	return r.Score(week.Value(day, category))
}
