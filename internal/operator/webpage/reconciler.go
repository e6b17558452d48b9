package webpage

import (
	"errors"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	webpagev1alpha1 "github.com/imamik/webpage-operator/api/v1alpha1"
	"github.com/imamik/webpage-operator/internal/config"
	"github.com/imamik/webpage-operator/internal/operator/association"
	"github.com/imamik/webpage-operator/internal/operator/dependent"
	"github.com/imamik/webpage-operator/internal/operator/reconciler"
	"github.com/imamik/webpage-operator/internal/operator/store"
)

// SimulatedErrorReason is the failure reported when a page contains the error marker.
const SimulatedErrorReason = "Simulating error"

// secondary is the watch-facing view of a dependent resource.
type secondary interface {
	Name() string
	Object() client.Object
	Association() association.Strategy
	Selector() labels.Selector
}

// Reconciler converges the ConfigMap, Deployment and Service of a WebPage
// and reports the outcome on its status.
type Reconciler struct {
	orchestrator *reconciler.Orchestrator[page]
	configMaps   *dependent.KubernetesDependentResource[*corev1.ConfigMap, page]
	secondaries  []secondary
	errorMarker  string
}

var (
	_ reconciler.Reconciler[page]         = (*Reconciler)(nil)
	_ reconciler.ErrorStatusHandler[page] = (*Reconciler)(nil)
)

// Options configures a Reconciler.
type Options struct {
	// LabelSelector is applied to the secondaries' watches.
	LabelSelector string

	// ErrorMarker fails the pass when the page HTML contains it. Empty disables it.
	ErrorMarker string
}

// OptionsFromConfig derives reconciler options from the operator configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		LabelSelector: cfg.LabelSelector,
		ErrorMarker:   cfg.ErrorMarker,
	}
}

// NewReconciler wires the three dependents in reconciliation order.
func NewReconciler(st store.Store, scheme *runtime.Scheme, opts Options) (*Reconciler, error) {
	configMaps, err := newConfigMapDependent(st, scheme, opts.LabelSelector)
	if err != nil {
		return nil, err
	}
	deployments, err := newDeploymentDependent(st, scheme, opts.LabelSelector, configMaps)
	if err != nil {
		return nil, err
	}
	services, err := newServiceDependent(st, scheme, opts.LabelSelector, deployments)
	if err != nil {
		return nil, err
	}

	r := &Reconciler{
		configMaps:  configMaps,
		secondaries: []secondary{configMaps, deployments, services},
		errorMarker: opts.ErrorMarker,
	}
	r.orchestrator, err = reconciler.NewOrchestrator(
		[]reconciler.Dependent[page]{configMaps, deployments, services},
		reconciler.WithPrecondition[page](r.precondition),
		reconciler.WithStatus[page](r.status),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Reconcile runs one pass for p.
func (r *Reconciler) Reconcile(rc *reconciler.Context, p page) (reconciler.UpdateControl[page], error) {
	return r.orchestrator.Reconcile(rc, p)
}

// UpdateErrorStatus records err on the page status.
func (r *Reconciler) UpdateErrorStatus(_ *reconciler.Context, p page, err error) reconciler.ErrorStatusUpdateControl[page] {
	msg := err.Error()
	var precondition *reconciler.PreconditionError
	if errors.As(err, &precondition) {
		msg = precondition.Reason
	}
	message := "Error: " + msg

	p.Status.ErrorMessage = &message
	p.Status.AreWeGood = false
	meta.SetStatusCondition(&p.Status.Conditions, metav1.Condition{
		Type:               webpagev1alpha1.ConditionReady,
		Status:             metav1.ConditionFalse,
		Reason:             webpagev1alpha1.ReasonReconcileFailed,
		Message:            message,
		ObservedGeneration: p.Generation,
	})
	return reconciler.ErrorStatusUpdate(p)
}

func (r *Reconciler) precondition(p page) reconciler.PreconditionResult {
	if r.errorMarker != "" && strings.Contains(p.Spec.HTML, r.errorMarker) {
		return reconciler.Fail(SimulatedErrorReason)
	}
	return reconciler.Pass()
}

func (r *Reconciler) status(rc *reconciler.Context, p page) error {
	cm, ok := r.configMaps.GetResource(rc, p)
	if !ok {
		return errConfigMapNotReconciled
	}

	p.Status.HTMLConfigMap = cm.Name
	p.Status.AreWeGood = true
	p.Status.ErrorMessage = nil
	p.Status.ObservedGeneration = p.Generation
	meta.SetStatusCondition(&p.Status.Conditions, metav1.Condition{
		Type:               webpagev1alpha1.ConditionReady,
		Status:             metav1.ConditionTrue,
		Reason:             webpagev1alpha1.ReasonReconciled,
		Message:            "All dependent resources are reconciled",
		ObservedGeneration: p.Generation,
	})
	return nil
}
