package manifest

import (
	"fmt"
	"strings"
)

// ValidationError lists every problem found in a manifest.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("found %d errors:\n- %s", len(e.Problems), strings.Join(e.Problems, "\n- "))
}

// ActionError reports an expression that failed while a state was running.
// Actions have no error return, so it travels as a panic value and is recovered by Run.
type ActionError struct {
	State  string
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("state %s: action %s: %v", e.State, e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// StepError wraps the failure of a scripted step.
type StepError struct {
	Index int
	Kind  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
