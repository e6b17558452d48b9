package dependent

import (
	"errors"
	"fmt"
	"reflect"

	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/imamik/webpage-operator/internal/operator/association"
	"github.com/imamik/webpage-operator/internal/operator/reconciler"
	"github.com/imamik/webpage-operator/internal/operator/store"
)

// Operation is the action a dependent took during a pass.
type Operation string

const (
	OperationNone    Operation = "none"
	OperationCreated Operation = "created"
	OperationUpdated Operation = "updated"
)

// DesiredFunc computes the desired secondary for a primary. It must be pure:
// no I/O and no reads of the secondary's own actual state. It may read the
// outputs of dependents that ran earlier in the pass through rc.
type DesiredFunc[R client.Object, P client.Object] func(rc *reconciler.Context, primary P) (R, error)

// Config configures a KubernetesDependentResource.
type Config[R client.Object, P client.Object] struct {
	// Name identifies the dependent within a pass. Required.
	Name string

	// Desired computes the desired secondary. Required.
	Desired DesiredFunc[R, P]

	// Matcher compares actual and desired. Defaults to GenericMatcher.
	Matcher Matcher[R]

	// Updater persists changes. Defaults to MergeUpdater.
	Updater Updater[R, P]

	// SecondaryID maps the primary identity to the secondary identity when the
	// secondary's name is not the desired object's own name. The same function
	// is registered with the association registry.
	SecondaryID association.MapperFunc

	// LabelSelector restricts which secondaries this dependent reacts to.
	// Empty selects everything.
	LabelSelector string

	// Scheme resolves the primary's kind for controller owner references.
	// When nil no owner reference is set.
	Scheme *runtime.Scheme
}

// KubernetesDependentResource keeps one secondary resource of kind R in sync
// with a primary of kind P.
type KubernetesDependentResource[R client.Object, P client.Object] struct {
	name          string
	store         store.Store
	desired       DesiredFunc[R, P]
	matcher       Matcher[R]
	updater       Updater[R, P]
	secondaryID   association.MapperFunc
	selector      labels.Selector
	scheme        *runtime.Scheme
	enableMetrics bool
}

var _ reconciler.Dependent[client.Object] = (*KubernetesDependentResource[client.Object, client.Object])(nil)

// New creates a dependent resource from cfg.
func New[R client.Object, P client.Object](st store.Store, cfg Config[R, P]) (*KubernetesDependentResource[R, P], error) {
	if cfg.Name == "" {
		return nil, errors.New("dependent name is required")
	}
	if cfg.Desired == nil {
		return nil, fmt.Errorf("dependent %s: desired function is required", cfg.Name)
	}
	if st == nil {
		return nil, fmt.Errorf("dependent %s: store is required", cfg.Name)
	}

	selector := labels.Everything()
	if cfg.LabelSelector != "" {
		parsed, err := labels.Parse(cfg.LabelSelector)
		if err != nil {
			return nil, fmt.Errorf("dependent %s: invalid label selector %q: %w", cfg.Name, cfg.LabelSelector, err)
		}
		selector = parsed
	}

	d := &KubernetesDependentResource[R, P]{
		name:          cfg.Name,
		store:         st,
		desired:       cfg.Desired,
		matcher:       cfg.Matcher,
		updater:       cfg.Updater,
		secondaryID:   cfg.SecondaryID,
		selector:      selector,
		scheme:        cfg.Scheme,
		enableMetrics: true,
	}
	if d.matcher == nil {
		d.matcher = GenericMatcher[R]{}
	}
	if d.updater == nil {
		d.updater = MergeUpdater[R, P]{Store: st}
	}
	return d, nil
}

// Name returns the dependent's name.
func (d *KubernetesDependentResource[R, P]) Name() string {
	return d.name
}

// Selector returns the label selector secondaries must match.
func (d *KubernetesDependentResource[R, P]) Selector() labels.Selector {
	return d.selector
}

// Object returns an empty instance of the secondary kind, for watches.
func (d *KubernetesDependentResource[R, P]) Object() client.Object {
	return newObject[R]()
}

// Association returns how notifications about this secondary resolve to primaries.
func (d *KubernetesDependentResource[R, P]) Association() association.Strategy {
	if d.secondaryID != nil {
		return association.Mapped(d.secondaryID)
	}
	return association.OwnerReference()
}

// SetMetricsEnabled toggles operation metrics.
func (d *KubernetesDependentResource[R, P]) SetMetricsEnabled(enabled bool) {
	d.enableMetrics = enabled
}

// Reconcile creates the secondary when absent, updates it when it differs
// from the desired state, and otherwise leaves it alone. Failures are
// returned unchanged and not retried.
func (d *KubernetesDependentResource[R, P]) Reconcile(rc *reconciler.Context, primary P) error {
	logger := rc.Logger().WithValues("dependent", d.name)

	desired, err := d.desired(rc, primary)
	if err != nil {
		return err
	}
	id := d.id(primary, desired)
	if desired.GetNamespace() == "" {
		desired.SetNamespace(id.Namespace)
	}

	actual := newObject[R]()
	found, err := d.store.Get(rc.Ctx(), id, actual)
	if err != nil {
		return err
	}

	var (
		result R
		op     Operation
	)
	switch {
	case !found:
		logger.Info("creating dependent resource", "resource", id.String())
		if result, err = d.create(rc, desired, primary); err != nil {
			return err
		}
		op = OperationCreated
	default:
		matched, err := d.matcher.Match(actual, desired)
		if err != nil {
			return fmt.Errorf("failed to compare %s: %w", id, err)
		}
		if matched {
			logger.V(1).Info("dependent resource up to date", "resource", id.String())
			result, op = actual, OperationNone
			break
		}
		logger.Info("updating dependent resource", "resource", id.String())
		if result, err = d.updater.Update(rc, actual, desired, primary); err != nil {
			return err
		}
		op = OperationUpdated
	}

	if d.enableMetrics {
		recordDependentOperationMetric(d.name, string(op))
	}
	rc.SetSecondary(d.name, result)
	return nil
}

// GetResource returns the secondary computed or fetched by Reconcile in
// this pass.
func (d *KubernetesDependentResource[R, P]) GetResource(rc *reconciler.Context, _ P) (R, bool) {
	obj, ok := rc.Secondary(d.name)
	if !ok {
		var zero R
		return zero, false
	}
	r, ok := obj.(R)
	return r, ok
}

func (d *KubernetesDependentResource[R, P]) id(primary P, desired R) reconciler.ResourceID {
	if d.secondaryID != nil {
		return d.secondaryID(reconciler.IDOf(primary))
	}
	id := reconciler.IDOf(desired)
	if id.Namespace == "" {
		id.Namespace = primary.GetNamespace()
	}
	return id
}

func (d *KubernetesDependentResource[R, P]) create(rc *reconciler.Context, desired R, primary P) (R, error) {
	if d.scheme != nil {
		if err := controllerutil.SetControllerReference(primary, desired, d.scheme); err != nil {
			var zero R
			return zero, fmt.Errorf("failed to set owner reference on %s: %w", reconciler.IDOf(desired), err)
		}
	}
	if err := d.store.Create(rc.Ctx(), desired); err != nil {
		var zero R
		return zero, err
	}
	return desired, nil
}

// newObject returns a new zero value of the struct R points to.
func newObject[R client.Object]() R {
	var zero R
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Pointer {
		panic(fmt.Sprintf("dependent resource type %T must be a pointer to a struct", zero))
	}
	return reflect.New(t.Elem()).Interface().(R)
}
