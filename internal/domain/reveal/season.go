package reveal

import (
	"sort"

	"github.com/okian/brecher/internal/domain/model"
)

// Season orders week numbers of a competition that may run across New Year.
// Weeks below StartWeek belong to the following calendar year.
type Season struct {
	StartWeek model.WeekID
}

// Ordinal maps w onto a monotonic scale for the season.
func (s Season) Ordinal(w model.WeekID) int {
	if s.StartWeek <= 1 || w >= s.StartWeek {
		return int(w)
	}
	return int(w) + model.MaxWeek
}

// AtOrBefore reports whether week a is not later than week b.
func (s Season) AtOrBefore(a, b model.WeekID) bool {
	return s.Ordinal(a) <= s.Ordinal(b)
}

// Sort orders weeks in season order, in place.
func (s Season) Sort(weeks []model.WeekID) {
	sort.SliceStable(weeks, func(i, j int) bool {
		return s.Ordinal(weeks[i]) < s.Ordinal(weeks[j])
	})
}
