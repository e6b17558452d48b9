package reconciler

import (
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Orchestrator runs the dependents of a primary in declared order and turns
// their outputs into a status update.
type Orchestrator[P client.Object] struct {
	dependents   []Dependent[P]
	precondition Precondition[P]
	status       StatusFunc[P]
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption[P client.Object] func(*Orchestrator[P])

// WithPrecondition sets the check evaluated before any dependent work.
func WithPrecondition[P client.Object](p Precondition[P]) OrchestratorOption[P] {
	return func(o *Orchestrator[P]) {
		o.precondition = p
	}
}

// WithStatus sets the function deriving the primary's status.
func WithStatus[P client.Object](fn StatusFunc[P]) OrchestratorOption[P] {
	return func(o *Orchestrator[P]) {
		o.status = fn
	}
}

// NewOrchestrator creates an orchestrator. Dependents run in the given order;
// their names must be unique.
func NewOrchestrator[P client.Object](dependents []Dependent[P], opts ...OrchestratorOption[P]) (*Orchestrator[P], error) {
	seen := make(map[string]struct{}, len(dependents))
	for _, d := range dependents {
		if _, dup := seen[d.Name()]; dup {
			return nil, fmt.Errorf("duplicate dependent name %q", d.Name())
		}
		seen[d.Name()] = struct{}{}
	}

	o := &Orchestrator[P]{
		dependents: dependents,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Reconcile runs one pass. The first failing dependent aborts the pass and
// its error is returned unchanged; changes already applied are kept.
func (o *Orchestrator[P]) Reconcile(rc *Context, primary P) (UpdateControl[P], error) {
	logger := rc.Logger()

	if o.precondition != nil {
		if res := o.precondition(primary); !res.Passed {
			return NoUpdate[P](), &PreconditionError{Primary: IDOf(primary), Reason: res.Reason}
		}
	}

	for _, d := range o.dependents {
		logger.V(1).Info("reconciling dependent", "dependent", d.Name())
		if err := d.Reconcile(rc, primary); err != nil {
			logger.Error(err, "dependent reconciliation failed", "dependent", d.Name())
			return NoUpdate[P](), err
		}
	}

	if o.status != nil {
		if err := o.status(rc, primary); err != nil {
			return NoUpdate[P](), err
		}
	}

	return UpdateStatus(primary)
}
