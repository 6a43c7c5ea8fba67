package domain

import "errors"

// Entity is implemented by every synchronized record type.
type Entity interface {
	EntityID() string
	OwnerID() string
}

var (
	// ErrWorkoutNotFound is returned when a workout cannot be located.
	ErrWorkoutNotFound = errors.New("workout not found")
	// ErrHabitNotFound is returned when a habit cannot be located.
	ErrHabitNotFound = errors.New("habit not found")
	// ErrGoalNotFound is returned when a goal cannot be located.
	ErrGoalNotFound = errors.New("goal not found")
)

// ValidationError reports an invalid entity field. It is always surfaced
// before any write is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Field + ": " + e.Reason
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
