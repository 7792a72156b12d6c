// Package types contains common types used across the application
package types

import (
	"encoding/json"

	"github.com/okian/brecher/internal/domain/model"
)

// Entry represents a scoreboard row. A hidden row carries no rank or score
// and encodes its score as null.
type Entry struct {
	Rank   int          `json:"rank"`
	Person model.Person `json:"person"`
	Score  float64      `json:"score"`
	Hidden bool         `json:"hidden,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	if !e.Hidden {
		type row Entry
		return json.Marshal(row(e))
	}
	return json.Marshal(struct {
		Rank   *int         `json:"rank"`
		Person model.Person `json:"person"`
		Score  *float64     `json:"score"`
		Hidden bool         `json:"hidden"`
	}{Person: e.Person, Hidden: true})
}
