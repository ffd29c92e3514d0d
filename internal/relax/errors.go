package relax

import (
	"errors"
	"fmt"
)

// Domain errors for relaxation runs.
var (
	// ErrNonPositiveTarget indicates a target accepted-move count <= 0.
	ErrNonPositiveTarget = errors.New("relax: target accepted moves must be positive")

	// ErrInvalidStepSize indicates a step size that is not a positive finite number.
	ErrInvalidStepSize = errors.New("relax: step size must be positive")

	// ErrInvalidTemperature indicates a negative or non-finite temperature.
	ErrInvalidTemperature = errors.New("relax: temperature must be non-negative")

	// ErrFieldMismatch indicates a model that is not bound to the field being relaxed.
	ErrFieldMismatch = errors.New("relax: model is not bound to the field")

	// ErrNonPositiveRuns indicates an ensemble with no members.
	ErrNonPositiveRuns = errors.New("relax: ensemble run count must be positive")

	// ErrAttemptBudget indicates the attempt budget ran out before the target was reached.
	ErrAttemptBudget = errors.New("relax: attempt budget exhausted")
)

// RunError reports where a run stopped before reaching its target.
type RunError struct {
	Attempts int
	Accepted int
	Wrapped  error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("stopped after %d attempts (%d accepted): %v", e.Attempts, e.Accepted, e.Wrapped)
}

func (e *RunError) Unwrap() error {
	return e.Wrapped
}
