package rules

import (
	"github.com/okian/brecher/internal/domain/model"
)

// Write describes a pending cell write. Week is the person's week as stored
// before the write.
type Write struct {
	Person   model.Person
	Day      model.Day
	Category model.Category
	Value    string
	Week     model.PersonWeek
}

// Validator inspects a pending write and returns a *ValidationError to
// refuse it. Validators ignore writes to categories they do not guard.
type Validator interface {
	Validate(w Write) error
}

// OncePerWeek allows a sentinel token on at most one day per person and week.
type OncePerWeek struct {
	Category model.Category
	Token    string
}

// Validate implements Validator.
func (v OncePerWeek) Validate(w Write) error {
	if w.Category != v.Category || !isToken(w.Value, v.Token) {
		return nil
	}
	for _, day := range model.Days {
		if day == w.Day {
			continue
		}
		if isToken(w.Week.Value(day, v.Category), v.Token) {
			return reject(v.Category, "%q is allowed once per week and is already logged on %s", v.Token, day)
		}
	}
	return nil
}

// RecoveryGate allows a recovery token only on a day without training that
// still reached a step floor.
type RecoveryGate struct {
	Category model.Category
	Token    string
	Gym      model.Category
	Steps    model.Category
	MinSteps float64
}

// Validate implements Validator.
func (v RecoveryGate) Validate(w Write) error {
	if w.Category != v.Category || !isToken(w.Value, v.Token) {
		return nil
	}
	gym, _ := parseNumber(w.Week.Value(w.Day, v.Gym))
	steps, _ := parseNumber(w.Week.Value(w.Day, v.Steps))
	if gym != 0 || steps < v.MinSteps {
		return reject(v.Category, "%q requires %s=0 and %s>=%.0f on the same day", v.Token, v.Gym, v.Steps, v.MinSteps)
	}
	return nil
}
