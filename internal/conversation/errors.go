package conversation

import (
	"errors"
	"fmt"
)

var (
	// ErrPrerequisiteMissing aborts a flow that needs settings the user does not have.
	ErrPrerequisiteMissing = errors.New("conversation: user settings missing")
	// ErrNoActiveFlow is returned by Handle when the user is idle.
	ErrNoActiveFlow = errors.New("conversation: no active flow")
)

// Validation failure reasons.
const (
	ReasonNotNumber      = "not_a_number"
	ReasonNotPositive    = "not_positive"
	ReasonNegative       = "negative"
	ReasonEndBeforeStart = "end_before_start"
)

// ValidationError reports rejected input; the flow recovers locally.
type ValidationError struct {
	Step   string
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input at %s: %s", e.Step, e.Reason)
}

// StoreFailure wraps a storage or session backend error.
type StoreFailure struct {
	Op  string
	Err error
}

func (e *StoreFailure) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreFailure) Unwrap() error {
	return e.Err
}

// Code is picked up by the router summary as the log cause.
func (e *StoreFailure) Code() string {
	return "store." + e.Op
}
