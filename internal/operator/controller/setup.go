package controller

import (
	"k8s.io/apimachinery/pkg/labels"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	crcontroller "sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
)

// Watch describes a secondary kind whose changes re-trigger primaries.
type Watch struct {
	Object     client.Object
	Handler    handler.EventHandler
	Predicates []predicate.Predicate
}

// SetupWithManager sets up the controller with the Manager.
func (c *Controller[P]) SetupWithManager(mgr ctrl.Manager, watches ...Watch) error {
	b := ctrl.NewControllerManagedBy(mgr).
		Named(c.name).
		For(c.newPrimary(), builder.WithPredicates(SelectorPredicate(c.selector))).
		WithOptions(crcontroller.Options{MaxConcurrentReconciles: c.maxConcurrentReconciles})

	for _, w := range watches {
		b = b.Watches(w.Object, w.Handler, builder.WithPredicates(w.Predicates...))
	}
	return b.Complete(c)
}

// SelectorPredicate admits objects whose labels match selector.
func SelectorPredicate(selector labels.Selector) predicate.Predicate {
	return predicate.NewPredicateFuncs(func(obj client.Object) bool {
		return selector.Matches(labels.Set(obj.GetLabels()))
	})
}
