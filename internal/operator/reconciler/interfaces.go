package reconciler

import "sigs.k8s.io/controller-runtime/pkg/client"

// Reconciler converges the dependents of a primary and returns what to persist.
type Reconciler[P client.Object] interface {
	Reconcile(rc *Context, primary P) (UpdateControl[P], error)
}

// ErrorStatusHandler is implemented by reconcilers that report failures on
// the primary's status. It is called exactly when Reconcile returns an error
// and must not fail.
type ErrorStatusHandler[P client.Object] interface {
	UpdateErrorStatus(rc *Context, primary P, err error) ErrorStatusUpdateControl[P]
}

// Dependent is a unit the orchestrator runs for one secondary kind.
type Dependent[P client.Object] interface {
	// Name identifies the dependent within a primary's pass.
	Name() string

	// Reconcile creates, updates or leaves the secondary resource as is.
	Reconcile(rc *Context, primary P) error
}

// PreconditionResult is the tagged outcome of a precondition check.
type PreconditionResult struct {
	Passed bool
	Reason string
}

// Pass is a successful precondition result.
func Pass() PreconditionResult {
	return PreconditionResult{Passed: true}
}

// Fail is a failed precondition result.
func Fail(reason string) PreconditionResult {
	return PreconditionResult{Reason: reason}
}

// Precondition is evaluated before any dependent work. It must be pure.
type Precondition[P client.Object] func(primary P) PreconditionResult

// StatusFunc derives the primary's status from the dependents' outputs.
type StatusFunc[P client.Object] func(rc *Context, primary P) error
