package ledger

import (
	"errors"
	"fmt"
)

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// Venue lookup failures from ResolveVenue.
var (
	ErrVenueNotFound  = errors.New("no venue matches")
	ErrAmbiguousVenue = errors.New("venue name is ambiguous, use an id")
)

// ValidationError reports input the ledger refuses to write. The write is
// never applied when one is returned.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// Is lets callers test with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
