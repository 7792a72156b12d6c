package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrInvalidKey      = errors.New("invalid entry key")
	ErrUnknownBackend  = errors.New("unknown store backend")
	ErrMissingDSN      = errors.New("database url required")
	ErrClosed          = errors.New("store closed")
	ErrMalformedRecord = errors.New("malformed stored record")
)
