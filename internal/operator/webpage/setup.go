package webpage

import (
	"fmt"

	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/predicate"

	webpagev1alpha1 "github.com/imamik/webpage-operator/api/v1alpha1"
	"github.com/imamik/webpage-operator/internal/config"
	"github.com/imamik/webpage-operator/internal/operator/association"
	"github.com/imamik/webpage-operator/internal/operator/controller"
	"github.com/imamik/webpage-operator/internal/operator/store"
)

// ControllerName names the controller, its event source and its metrics.
const ControllerName = "webpage"

// +kubebuilder:rbac:groups=webpage.k8zner.io,resources=webpages,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=webpage.k8zner.io,resources=webpages/status,verbs=get;update;patch
// +kubebuilder:rbac:groups="",resources=configmaps;services,verbs=get;list;watch;create;update;patch
// +kubebuilder:rbac:groups=apps,resources=deployments,verbs=get;list;watch;create;update;patch
// +kubebuilder:rbac:groups="",resources=pods,verbs=list;delete;deletecollection
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch
// +kubebuilder:rbac:groups=coordination.k8s.io,resources=leases,verbs=get;create;update

// Setup registers the WebPage controller and its secondary watches with mgr.
func Setup(mgr ctrl.Manager, cfg *config.Config) error {
	selector, err := cfg.Selector()
	if err != nil {
		return fmt.Errorf("invalid label selector: %w", err)
	}

	st := store.NewClientStore(mgr.GetClient())
	r, err := NewReconciler(st, mgr.GetScheme(), OptionsFromConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create reconciler: %w", err)
	}

	registry, err := association.NewRegistry(mgr.GetClient(), mgr.GetScheme(), &webpagev1alpha1.WebPage{},
		func() client.ObjectList { return &webpagev1alpha1.WebPageList{} })
	if err != nil {
		return fmt.Errorf("failed to create association registry: %w", err)
	}
	watches, err := r.watches(registry)
	if err != nil {
		return err
	}

	c := controller.New(ControllerName, st,
		func() page { return &webpagev1alpha1.WebPage{} },
		r,
		controller.WithRecorder(mgr.GetEventRecorderFor(ControllerName)),
		controller.WithLabelSelector(selector),
		controller.WithMaxConcurrentReconciles(cfg.MaxConcurrentReconciles),
	)
	return c.SetupWithManager(mgr, watches...)
}

// watches registers every secondary kind with registry and returns the
// matching watch definitions.
func (r *Reconciler) watches(registry *association.Registry) ([]controller.Watch, error) {
	watches := make([]controller.Watch, 0, len(r.secondaries))
	for _, s := range r.secondaries {
		obj := s.Object()
		if err := registry.Register(obj, s.Association()); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", s.Name(), err)
		}
		watches = append(watches, controller.Watch{
			Object:     obj,
			Handler:    registry.Handler(obj),
			Predicates: []predicate.Predicate{controller.SelectorPredicate(s.Selector())},
		})
	}
	return watches, nil
}
