// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// weekLabelPrefix is the "Kalenderwoche" prefix used for week keys in exports.
const weekLabelPrefix = "KW"

// MaxWeek is the highest ISO week number a year can have.
const MaxWeek = 53

// WeekID is a calendar-week number, unique within a season.
type WeekID int

// Label renders the week the way the league writes it, e.g. "KW39".
func (w WeekID) Label() string {
	return weekLabelPrefix + strconv.Itoa(int(w))
}

// Valid reports whether w is a possible ISO week number.
func (w WeekID) Valid() bool {
	return w >= 1 && w <= MaxWeek
}

// ParseWeekLabel accepts "KW39" or "39".
func ParseWeekLabel(s string) (WeekID, error) {
	raw := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), weekLabelPrefix)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidWeek, s, err)
	}
	w := WeekID(n)
	if !w.Valid() {
		return 0, fmt.Errorf("%w %q: out of range", ErrInvalidWeek, s)
	}
	return w, nil
}

// Day is one of the seven weekday tokens.
type Day string

// Weekday tokens in week order. The order matters for error tolerance.
const (
	Monday    Day = "Mo"
	Tuesday   Day = "Di"
	Wednesday Day = "Mi"
	Thursday  Day = "Do"
	Friday    Day = "Fr"
	Saturday  Day = "Sa"
	Sunday    Day = "So"
)

// Days lists the weekday tokens Monday first.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Index returns the position of d in the week, or -1 for an unknown token.
func (d Day) Index() int {
	for i, day := range Days {
		if day == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is a known weekday token.
func (d Day) Valid() bool { return d.Index() >= 0 }

// Person identifies a roster member.
type Person string

// Category identifies a tracked habit dimension.
type Category string

// Color is the status color of a scored cell.
type Color string

// Status colors.
const (
	White     Color = "white"
	Red       Color = "red"
	Orange    Color = "orange"
	Green     Color = "green"
	DarkGreen Color = "darkgreen"
)

// Key is the uniqueness key of a raw entry.
type Key struct {
	Week     WeekID
	Person   Person
	Day      Day
	Category Category
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.Week.Label(), k.Person, k.Day, k.Category)
}

// Roster is the fixed, ordered list of competitors. Its order breaks ties.
type Roster []Person

// Contains reports whether p is on the roster.
func (r Roster) Contains(p Person) bool {
	return r.Index(p) >= 0
}

// Index returns the roster position of p, or -1.
func (r Roster) Index(p Person) int {
	for i, member := range r {
		if member == p {
			return i
		}
	}
	return -1
}

// DayEntries maps a category to its raw value for one person and day.
type DayEntries map[Category]string

// PersonWeek holds one person's raw values for a whole week.
type PersonWeek map[Day]DayEntries

// Value returns the raw value for (day, category); missing reads as "".
func (pw PersonWeek) Value(day Day, category Category) string {
	if pw == nil {
		return ""
	}
	return pw[day][category]
}

// Has reports whether a tuple exists for (day, category), blank or not.
func (pw PersonWeek) Has(day Day, category Category) bool {
	if pw == nil {
		return false
	}
	_, ok := pw[day][category]
	return ok
}

// Set stores value for (day, category).
func (pw PersonWeek) Set(day Day, category Category, value string) {
	if pw[day] == nil {
		pw[day] = DayEntries{}
	}
	pw[day][category] = value
}

// WeekEntries holds all raw values of one week: person -> day -> category.
type WeekEntries map[Person]PersonWeek

// Person returns p's week. The result may be nil; reads on it are safe.
func (w WeekEntries) Person(p Person) PersonWeek {
	if w == nil {
		return nil
	}
	return w[p]
}

// Set stores value for the given tuple, creating intermediate maps.
func (w WeekEntries) Set(p Person, day Day, category Category, value string) {
	if w[p] == nil {
		w[p] = PersonWeek{}
	}
	w[p].Set(day, category, value)
}

// Clone returns a deep copy.
func (w WeekEntries) Clone() WeekEntries {
	out := make(WeekEntries, len(w))
	for p, pw := range w {
		cp := make(PersonWeek, len(pw))
		for d, de := range pw {
			cd := make(DayEntries, len(de))
			for c, v := range de {
				cd[c] = v
			}
			cp[d] = cd
		}
		out[p] = cp
	}
	return out
}
