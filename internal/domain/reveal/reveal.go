// Package reveal decides which week's results may be shown at a given time.
//
// A week closes on Sunday at the reveal hour (22:00 local time by default).
// Until then the previous week is the latest official one and the current
// week's numbers stay hidden.
package reveal

import (
	"time"

	"github.com/okian/brecher/internal/domain/model"
)

// Default reveal configuration constants.
const (
	defaultRevealHour = 22
	defaultRevealDay  = time.Sunday
)

// Option applies a configuration option to the Gate.
type Option func(*Gate)

// WithLocation sets the time zone the reveal hour is read in.
func WithLocation(loc *time.Location) Option {
	return func(g *Gate) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// WithRevealHour sets the local hour on the reveal day at which the week
// becomes official.
func WithRevealHour(hour int) Option {
	return func(g *Gate) {
		if hour >= 0 && hour < 24 {
			g.revealHour = hour
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// Gate is the reveal-time policy.
type Gate struct {
	loc        *time.Location
	revealHour int
	revealDay  time.Weekday
	now        func() time.Time
}

// NewGate creates a gate with local time, Sunday 22:00 reveal and the wall
// clock unless options say otherwise.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		loc:        time.Local,
		revealHour: defaultRevealHour,
		revealDay:  defaultRevealDay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Now returns the current time in the gate's location.
func (g *Gate) Now() time.Time {
	return g.now().In(g.loc)
}

// OfficialWeek returns the most recent week whose results are revealed at
// now: the running ISO week once it has closed, the previous one otherwise.
func (g *Gate) OfficialWeek(now time.Time) model.WeekID {
	local := now.In(g.loc)
	year, week := local.ISOWeek()
	if g.closed(local) {
		return model.WeekID(week)
	}
	_, prev := PreviousISOWeek(year, week)
	return model.WeekID(prev)
}

// IsScoreboardVisible is false only on the reveal day before the reveal
// hour.
func (g *Gate) IsScoreboardVisible(now time.Time) bool {
	local := now.In(g.loc)
	if local.Weekday() != g.revealDay {
		return true
	}
	return local.Hour() >= g.revealHour
}

func (g *Gate) closed(local time.Time) bool {
	return local.Weekday() == g.revealDay && local.Hour() >= g.revealHour
}

// PreviousISOWeek returns the ISO week before (year, week); week 1 wraps to
// the last week of the prior year.
func PreviousISOWeek(year, week int) (int, int) {
	if week > 1 {
		return year, week - 1
	}
	return year - 1, LastISOWeek(year - 1)
}

// LastISOWeek returns 52 or 53. December 28th always lies in the last ISO
// week of its year.
func LastISOWeek(year int) int {
	_, week := time.Date(year, time.December, 28, 12, 0, 0, 0, time.UTC).ISOWeek()
	return week
}
