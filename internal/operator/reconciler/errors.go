package reconciler

import (
	"errors"
	"fmt"
)

// ErrMissingResource is returned when a decision requests a write without a resource.
var ErrMissingResource = errors.New("resource cannot be nil in case of update")

// ValidationError reports a malformed decision. It is fatal to the call that
// constructed the decision.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PreconditionError is returned when the precondition rejects a primary
// before any dependent resource was touched.
type PreconditionError struct {
	Primary ResourceID
	Reason  string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed for %s: %s", e.Primary, e.Reason)
}

// IsPreconditionError checks if err was produced by a failed precondition.
func IsPreconditionError(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
