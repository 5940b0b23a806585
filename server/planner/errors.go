package planner

import (
	"errors"
	"fmt"
)

// Sentinel errors for the planner package.
// Use errors.Is to check: errors.Is(err, planner.ErrInvalidInput)
var (
	ErrInvalidInput  = errors.New("planner: invalid input")
	ErrInvalidWindow = errors.New("planner: invalid search window")
)

// InputError names the precondition a generation request failed.
type InputError struct {
	Field  string
	Reason string
	kind   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("planner: invalid %s: %s", e.Field, e.Reason)
}

// Is makes InputError match ErrInvalidInput, and ErrInvalidWindow for window errors.
func (e *InputError) Is(target error) bool {
	if target == ErrInvalidInput {
		return true
	}
	return e.kind != nil && target == e.kind
}

func inputError(field, format string, args ...any) *InputError {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func windowError(format string, args ...any) *InputError {
	return &InputError{Field: "window", Reason: fmt.Sprintf(format, args...), kind: ErrInvalidWindow}
}
