package service

import "errors"

// Sentinel kinds for engine errors.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNotStarted       = errors.New("engine not started")
	ErrForbidden        = errors.New("not allowed for this person")
)
