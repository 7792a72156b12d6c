package rules

import (
	"errors"
	"fmt"

	"github.com/okian/brecher/internal/domain/model"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrValidationRejected = errors.New("validation rejected")
	ErrUnknownVersion     = errors.New("unknown rule set version")
	ErrUnknownCategory    = errors.New("unknown category")
)

// ValidationError explains why a write was refused.
type ValidationError struct {
	Category model.Category
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidationRejected, e.Category, e.Reason)
}

// Unwrap makes errors.Is(err, ErrValidationRejected) hold.
func (e *ValidationError) Unwrap() error { return ErrValidationRejected }

func reject(category model.Category, format string, args ...any) error {
	return &ValidationError{Category: category, Reason: fmt.Sprintf(format, args...)}
}
