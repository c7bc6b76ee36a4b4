package domain

import (
	"errors"
	"fmt"
)

// ErrNamingConflict is matched by every NamingConflictError.
var ErrNamingConflict = errors.New("naming conflict")

// ErrReadOnly is returned when a read-only scope property would be redefined.
var ErrReadOnly = errors.New("property is read-only")

// NamingConflictError is returned when a state name collides with a foreign scope property.
type NamingConflictError struct {
	Key string
}

func (e *NamingConflictError) Error() string {
	return fmt.Sprintf("fabstate: %s is already defined at form scope", e.Key)
}

// Is matches ErrNamingConflict.
func (e *NamingConflictError) Is(target error) bool {
	return target == ErrNamingConflict
}

// ErrSubmissionNotFound is returned when a stored submission cannot be found.
var ErrSubmissionNotFound = errors.New("submission not found")
