// Package rules holds the category rule tables: how a raw value turns into
// points and a status color, which writes are allowed, and which weekly
// bonuses exist. Rule sets are versioned and swappable as a whole.
package rules

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/brecher/internal/domain/model"
)

// Cell is the scored form of one raw value.
type Cell struct {
	Points float64     `json:"points"`
	Color  model.Color `json:"color"`
}

// blank is the score of an empty or unparsable value.
var blank = Cell{Points: 0, Color: model.White}

// Rule scores a single category value in isolation.
type Rule interface {
	Category() model.Category
	Score(value string) Cell
}

// WeekContextRule is a Rule whose per-day result depends on the rest of the
// person's week. Aggregators must use ScoreWeek for such rules; Score is the
// result the value would get if it were the only entry of the week.
type WeekContextRule interface {
	Rule
	ScoreWeek(week model.PersonWeek) map[model.Day]Cell
}

// parseNumber parses a numeric literal. Empty, non-numeric and non-finite
// input reports false.
func parseNumber(value string) (float64, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// isToken reports whether value is the sentinel token, ignoring case and
// surrounding space.
func isToken(value, token string) bool {
	return token != "" && strings.EqualFold(strings.TrimSpace(value), token)
}

// numericRule covers every category whose score is a pure function of the
// parsed number, plus optional sentinel tokens.
type numericRule struct {
	category  model.Category
	points    func(v float64) float64
	color     func(v float64) model.Color
	sentinels map[string]Cell
}

func (r *numericRule) Category() model.Category { return r.category }

func (r *numericRule) Score(value string) Cell {
	for token, cell := range r.sentinels {
		if isToken(value, token) {
			return cell
		}
	}
	v, ok := parseNumber(value)
	if !ok {
		return blank
	}
	return Cell{Points: r.points(v), Color: r.color(v)}
}

// NewNumericRule builds a rule from a point formula and a color function.
func NewNumericRule(category model.Category, points func(float64) float64, color func(float64) model.Color) Rule {
	return &numericRule{category: category, points: points, color: color}
}

// NewSentinelRule is NewNumericRule plus non-numeric tokens with fixed cells.
func NewSentinelRule(category model.Category, points func(float64) float64, color func(float64) model.Color, sentinels map[string]Cell) Rule {
	return &numericRule{category: category, points: points, color: color, sentinels: sentinels}
}

// Point formulas.

func scaled(factor float64) func(float64) float64 {
	return func(v float64) float64 { return v * factor }
}

func identity(v float64) float64 { return v }

func capped(factor, limit float64) func(float64) float64 {
	return func(v float64) float64 { return math.Min(v*factor, limit) }
}

func flag(atLeast, points float64) func(float64) float64 {
	return func(v float64) float64 {
		if v >= atLeast {
			return points
		}
		return 0
	}
}

// Color functions.

// thresholds colors v green at or above green, orange at or above orange,
// red below.
func thresholds(green, orange float64) func(float64) model.Color {
	return func(v float64) model.Color {
		switch {
		case v >= green:
			return model.Green
		case v >= orange:
			return model.Orange
		default:
			return model.Red
		}
	}
}

func binary(atLeast float64) func(float64) model.Color {
	return func(v float64) model.Color {
		if v >= atLeast {
			return model.Green
		}
		return model.Red
	}
}

func positive(v float64) model.Color {
	if v > 0 {
		return model.Green
	}
	return model.Red
}

// sleepBand maps hours of sleep to the three sleep bands.
func sleepBand(v float64) Cell {
	switch {
	case v >= 7 && v <= 9:
		return Cell{Points: 4, Color: model.Green}
	case (v >= 6 && v < 7) || (v > 9 && v <= 10):
		return Cell{Points: 3, Color: model.Orange}
	default:
		return Cell{Points: 1, Color: model.Red}
	}
}

func sleepPoints(v float64) float64 { return sleepBand(v).Points }

func sleepColor(v float64) model.Color { return sleepBand(v).Color }
