package controller

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"github.com/imamik/webpage-operator/internal/operator/reconciler"
	"github.com/imamik/webpage-operator/internal/operator/store"
)

const (
	resultSuccess = "success"
	resultError   = "error"
	resultSkipped = "skipped"

	// EventReasonReconcileFailed is the reason of the Warning event emitted
	// when a pass fails.
	EventReasonReconcileFailed = "ReconcileFailed"
)

// Controller adapts a reconciler.Reconciler for primaries of type P to
// controller-runtime.
type Controller[P client.Object] struct {
	name       string
	store      store.Store
	newPrimary func() P
	reconciler reconciler.Reconciler[P]

	recorder                record.EventRecorder
	selector                labels.Selector
	maxConcurrentReconciles int
	enableMetrics           bool
}

var _ reconcile.Reconciler = (*Controller[client.Object])(nil)

// Option configures a Controller.
type Option func(*options)

type options struct {
	recorder                record.EventRecorder
	selector                labels.Selector
	maxConcurrentReconciles int
	enableMetrics           bool
}

// WithRecorder sets the event recorder used for failure events.
func WithRecorder(recorder record.EventRecorder) Option {
	return func(o *options) {
		o.recorder = recorder
	}
}

// WithLabelSelector restricts the primaries the controller handles.
func WithLabelSelector(selector labels.Selector) Option {
	return func(o *options) {
		o.selector = selector
	}
}

// WithMaxConcurrentReconciles sets how many distinct primaries reconcile in
// parallel.
func WithMaxConcurrentReconciles(n int) Option {
	return func(o *options) {
		o.maxConcurrentReconciles = n
	}
}

// WithMetrics enables or disables reconcile metrics.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.enableMetrics = enabled
	}
}

// New creates a controller named name. newPrimary must return an empty
// primary object.
func New[P client.Object](name string, st store.Store, newPrimary func() P, r reconciler.Reconciler[P], opts ...Option) *Controller[P] {
	o := options{
		recorder:                &record.FakeRecorder{},
		selector:                labels.Everything(),
		maxConcurrentReconciles: 1,
		enableMetrics:           true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller[P]{
		name:                    name,
		store:                   st,
		newPrimary:              newPrimary,
		reconciler:              r,
		recorder:                o.recorder,
		selector:                o.selector,
		maxConcurrentReconciles: o.maxConcurrentReconciles,
		enableMetrics:           o.enableMetrics,
	}
}

// Name returns the controller name.
func (c *Controller[P]) Name() string {
	return c.name
}

// Reconcile runs one pass for the primary identified by req.
func (c *Controller[P]) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	start := time.Now()
	id := reconciler.FromNamespacedName(req.NamespacedName)
	logger := log.FromContext(ctx).WithValues("controller", c.name)
	ctx = log.IntoContext(ctx, logger)

	primary := c.newPrimary()
	found, err := c.store.Get(ctx, id, primary)
	if err != nil {
		logger.Error(err, "unable to fetch primary", "primary", id.String())
		c.recordReconcile(resultError, start)
		return ctrl.Result{}, err
	}
	if !found {
		// Deleted; owner references garbage collect the secondaries.
		return ctrl.Result{}, nil
	}
	if !primary.GetDeletionTimestamp().IsZero() {
		logger.V(1).Info("primary is being deleted, skipping reconciliation", "primary", id.String())
		c.recordReconcile(resultSkipped, start)
		return ctrl.Result{}, nil
	}
	if !c.selector.Matches(labels.Set(primary.GetLabels())) {
		logger.V(1).Info("primary does not match label selector, skipping reconciliation",
			"primary", id.String(), "selector", c.selector.String())
		c.recordReconcile(resultSkipped, start)
		return ctrl.Result{}, nil
	}

	original := primary.DeepCopyObject().(P)
	rc := reconciler.NewContext(ctx, id)

	decision, err := c.reconciler.Reconcile(rc, primary)
	if err != nil {
		c.recordReconcile(resultError, start)
		return c.handleError(rc, original, err)
	}

	if err := c.apply(ctx, decision, original); err != nil {
		logger.Error(err, "failed to persist update decision", "primary", id.String())
		c.recordReconcile(resultError, start)
		return ctrl.Result{}, err
	}

	c.recordReconcile(resultSuccess, start)
	if delay, ok := decision.ScheduleDelay(); ok {
		return ctrl.Result{RequeueAfter: delay}, nil
	}
	return ctrl.Result{}, nil
}

// handleError runs the error status feedback path. The status write is best
// effort; the reconcile error is always returned so the work queue retries.
func (c *Controller[P]) handleError(rc *reconciler.Context, original P, reconcileErr error) (ctrl.Result, error) {
	logger := rc.Logger()
	logger.Error(reconcileErr, "reconciliation failed")
	c.recorder.Eventf(original, corev1.EventTypeWarning, EventReasonReconcileFailed, "Reconciliation failed: %v", reconcileErr)

	handler, ok := c.reconciler.(reconciler.ErrorStatusHandler[P])
	if !ok {
		return ctrl.Result{}, reconcileErr
	}

	fresh := original.DeepCopyObject().(P)
	decision := handler.UpdateErrorStatus(rc, fresh, reconcileErr)
	if resource, ok := decision.Resource(); ok {
		var writeErr error
		if decision.IsPatch() {
			writeErr = c.store.PatchStatus(rc.Ctx(), resource, original)
		} else {
			writeErr = c.store.UpdateStatus(rc.Ctx(), resource)
		}
		if writeErr != nil {
			logger.Error(writeErr, "failed to write error status")
			c.recordErrorStatusWrite(resultError)
		} else {
			c.recordErrorStatusWrite(resultSuccess)
		}
	}

	if decision.IsNoRetry() {
		return ctrl.Result{}, reconcile.TerminalError(reconcileErr)
	}
	return ctrl.Result{}, reconcileErr
}

// apply persists decision. A resource write precedes the status write, and
// the status carried by the decision survives the resource write.
func (c *Controller[P]) apply(ctx context.Context, decision reconciler.UpdateControl[P], original P) error {
	resource, ok := decision.Resource()
	if !ok {
		return nil
	}

	if decision.IsUpdateResource() {
		desired := resource.DeepCopyObject().(P)
		var err error
		if decision.IsPatch() {
			err = c.store.Patch(ctx, resource, original)
		} else {
			err = c.store.Update(ctx, resource)
		}
		if err != nil {
			return err
		}
		if decision.IsUpdateStatus() {
			if err := restoreStatus(resource, desired); err != nil {
				return err
			}
		}
	}

	if decision.IsUpdateStatus() {
		if decision.IsPatch() {
			return c.store.PatchStatus(ctx, resource, original)
		}
		return c.store.UpdateStatus(ctx, resource)
	}
	return nil
}

// restoreStatus copies the status of from into into. A resource write
// refreshes the object from the server response, which carries the stored
// status rather than the one the reconciler computed.
func restoreStatus(into, from client.Object) error {
	src, err := runtime.DefaultUnstructuredConverter.ToUnstructured(from)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", reconciler.IDOf(from), err)
	}
	dst, err := runtime.DefaultUnstructuredConverter.ToUnstructured(into)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", reconciler.IDOf(into), err)
	}
	if status, ok := src["status"]; ok {
		dst["status"] = status
	} else {
		delete(dst, "status")
	}
	return runtime.DefaultUnstructuredConverter.FromUnstructured(dst, into)
}

func (c *Controller[P]) recordReconcile(result string, start time.Time) {
	if c.enableMetrics {
		recordReconcileMetric(c.name, result, time.Since(start).Seconds())
	}
}

func (c *Controller[P]) recordErrorStatusWrite(result string) {
	if c.enableMetrics {
		recordErrorStatusWriteMetric(c.name, result)
	}
}
