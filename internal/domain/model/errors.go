package model

import "errors"

// ErrInvalidWeek reports a week label or number outside 1..MaxWeek.
var ErrInvalidWeek = errors.New("invalid week")
