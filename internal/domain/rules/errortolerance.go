package rules

import (
	"math"

	"github.com/okian/brecher/internal/domain/model"
)

// Default error tolerance: the first error of a week is free, every later
// one costs two points.
const (
	defaultToleratedErrors = 1
	defaultErrorPenalty    = -2
)

// ErrorToleranceRule scores an error-count category across a whole week.
// Errors are numbered in chronological order (Mo..So, then within a day);
// the first Tolerated positions score 0 and every later position scores
// Penalty.
type ErrorToleranceRule struct {
	category  model.Category
	tolerated int
	penalty   float64
}

// NewErrorToleranceRule returns a week-context rule with the default
// tolerance of one free error per week.
func NewErrorToleranceRule(category model.Category) *ErrorToleranceRule {
	return &ErrorToleranceRule{
		category:  category,
		tolerated: defaultToleratedErrors,
		penalty:   defaultErrorPenalty,
	}
}

// Category implements Rule.
func (r *ErrorToleranceRule) Category() model.Category { return r.category }

// Score implements Rule as if value were the week's only entry.
func (r *ErrorToleranceRule) Score(value string) Cell {
	return r.scoreDay(value, 1)
}

// ScoreWeek implements WeekContextRule. Every day of the week gets a cell,
// white for days without a value.
func (r *ErrorToleranceRule) ScoreWeek(week model.PersonWeek) map[model.Day]Cell {
	out := make(map[model.Day]Cell, len(model.Days))
	next := 1
	for _, day := range model.Days {
		value := week.Value(day, r.category)
		out[day] = r.scoreDay(value, next)
		if n, ok := parseCount(value); ok {
			next += n
		}
	}
	return out
}

// scoreDay scores a day whose first error has position first.
func (r *ErrorToleranceRule) scoreDay(value string, first int) Cell {
	n, ok := parseCount(value)
	if !ok {
		return blank
	}
	if n == 0 {
		return Cell{Points: 0, Color: model.Green}
	}
	last := first + n - 1
	penalized := last - max(first-1, r.tolerated)
	if penalized <= 0 {
		return Cell{Points: 0, Color: model.Green}
	}
	return Cell{Points: float64(penalized) * r.penalty, Color: model.Red}
}

// parseCount parses a non-negative whole error count.
func parseCount(value string) (int, bool) {
	v, ok := parseNumber(value)
	if !ok || v < 0 || v != math.Trunc(v) || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}
