// Package dependent keeps a single secondary Kubernetes resource in sync with
// its primary.
//
// A KubernetesDependentResource computes the desired secondary from the
// primary, fetches the actual one exactly once per pass and then either
// creates it, updates it through its Updater when the Matcher reports a
// difference, or leaves it alone. The value it ends up with is recorded in the
// pass context so dependents running later can read it with GetResource.
//
// Kinds that need a side effect whenever they change embed MergeUpdater and
// override Update:
//
//	type configMapUpdater struct {
//		dependent.MergeUpdater[*corev1.ConfigMap, *v1alpha1.WebPage]
//	}
package dependent
