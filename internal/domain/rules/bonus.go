package rules

import (
	"strings"

	"github.com/okian/brecher/internal/domain/model"
)

// Bonus is a weekly award evaluated over one person's full week.
type Bonus interface {
	// Name identifies the bonus in breakdowns.
	Name() string
	// Award returns the points earned for week, 0 when not earned.
	Award(week model.PersonWeek) float64
}

// ConsistencyBonus pays out when the numeric values of a category summed
// over the week reach a threshold. Sentinel tokens and unparsable values
// count as nothing.
type ConsistencyBonus struct {
	Category  model.Category
	Sentinel  string
	Threshold float64
	Points    float64
}

// Name implements Bonus.
func (b ConsistencyBonus) Name() string { return "consistency" }

// Award implements Bonus.
func (b ConsistencyBonus) Award(week model.PersonWeek) float64 {
	var sum float64
	for _, day := range model.Days {
		value := week.Value(day, b.Category)
		if isToken(value, b.Sentinel) {
			continue
		}
		if v, ok := parseNumber(value); ok {
			sum += v
		}
	}
	if sum >= b.Threshold {
		return b.Points
	}
	return 0
}

// CleanWeekBonus pays out when every day of the week carries an explicit
// value for the category and each of them is exactly zero.
type CleanWeekBonus struct {
	Category model.Category
	Points   float64
}

// Name implements Bonus.
func (b CleanWeekBonus) Name() string { return "clean_week" }

// Award implements Bonus.
func (b CleanWeekBonus) Award(week model.PersonWeek) float64 {
	for _, day := range model.Days {
		value := week.Value(day, b.Category)
		if strings.TrimSpace(value) == "" {
			return 0
		}
		v, ok := parseNumber(value)
		if !ok || v != 0 {
			return 0
		}
	}
	return b.Points
}
