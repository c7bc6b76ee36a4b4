package decorators

import "fmt"

// EvaluationError captures the failing expression alongside the originating error.
type EvaluationError struct {
	Expr  string
	State string
	Err   error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.State == "" {
		return fmt.Sprintf("decorators: expr=%q: %v", e.Expr, e.Err)
	}
	return fmt.Sprintf("decorators: expr=%q state=%s: %v", e.Expr, e.State, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
