package dependent

import (
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Matcher decides whether actual already satisfies desired. Implementations
// must ignore fields populated by the server.
type Matcher[R client.Object] interface {
	Match(actual, desired R) (bool, error)
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc[R client.Object] func(actual, desired R) (bool, error)

func (f MatcherFunc[R]) Match(actual, desired R) (bool, error) {
	return f(actual, desired)
}

// GenericMatcher matches when every field set in desired has the same value
// in actual. Status and metadata other than labels and annotations are
// ignored, so defaults and server-generated fields never cause a diff.
type GenericMatcher[R client.Object] struct{}

func (GenericMatcher[R]) Match(actual, desired R) (bool, error) {
	a, err := comparable(actual)
	if err != nil {
		return false, err
	}
	d, err := comparable(desired)
	if err != nil {
		return false, err
	}
	return equality.Semantic.DeepDerivative(d, a), nil
}

// LabelsAndAnnotationsMatch reports whether actual carries every label and
// annotation of desired.
func LabelsAndAnnotationsMatch(actual, desired client.Object) bool {
	return isSubset(desired.GetLabels(), actual.GetLabels()) &&
		isSubset(desired.GetAnnotations(), actual.GetAnnotations())
}

func isSubset(want, have map[string]string) bool {
	for k, v := range want {
		if got, ok := have[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// comparable returns the unstructured content of obj relevant for matching.
func comparable(obj client.Object) (map[string]interface{}, error) {
	u, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, err
	}
	delete(u, "apiVersion")
	delete(u, "kind")
	delete(u, "status")

	meta := map[string]interface{}{}
	if labels := obj.GetLabels(); len(labels) > 0 {
		meta["labels"] = toInterfaceMap(labels)
	}
	if annotations := obj.GetAnnotations(); len(annotations) > 0 {
		meta["annotations"] = toInterfaceMap(annotations)
	}
	u["metadata"] = meta
	return u, nil
}

func toInterfaceMap(in map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
