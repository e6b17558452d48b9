package dependent

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/imamik/webpage-operator/internal/operator/reconciler"
	"github.com/imamik/webpage-operator/internal/operator/store"
)

// Updater persists desired over a differing actual and returns the persisted
// value. Kinds that need side effects on change embed MergeUpdater and
// override Update; the side effect then only runs when a diff was detected.
type Updater[R client.Object, P client.Object] interface {
	Update(rc *reconciler.Context, actual, desired R, primary P) (R, error)
}

// MergeUpdater is the default Updater. It merges desired onto actual so that
// fields populated by the server survive, then updates the object.
type MergeUpdater[R client.Object, P client.Object] struct {
	Store store.Store
}

func (u MergeUpdater[R, P]) Update(rc *reconciler.Context, actual, desired R, _ P) (R, error) {
	merged, err := Merge(actual, desired)
	if err != nil {
		var zero R
		return zero, err
	}
	if err := u.Store.Update(rc.Ctx(), merged); err != nil {
		var zero R
		return zero, err
	}
	return merged, nil
}

// Merge returns a copy of actual with every field set in desired applied on
// top. Maps merge recursively; lists and scalars from desired replace those of
// actual. Identity and server-owned metadata are taken from actual.
func Merge[R client.Object](actual, desired R) (R, error) {
	var zero R

	a, err := runtime.DefaultUnstructuredConverter.ToUnstructured(actual)
	if err != nil {
		return zero, fmt.Errorf("failed to convert actual %s: %w", reconciler.IDOf(actual), err)
	}
	d, err := runtime.DefaultUnstructuredConverter.ToUnstructured(desired)
	if err != nil {
		return zero, fmt.Errorf("failed to convert desired %s: %w", reconciler.IDOf(desired), err)
	}
	delete(d, "status")
	delete(d, "metadata")

	merged := mergeMaps(a, d)

	out := newObject[R]()
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(merged, out); err != nil {
		return zero, fmt.Errorf("failed to convert merged %s: %w", reconciler.IDOf(actual), err)
	}
	out.SetLabels(mergeStringMaps(actual.GetLabels(), desired.GetLabels()))
	out.SetAnnotations(mergeStringMaps(actual.GetAnnotations(), desired.GetAnnotations()))
	return out, nil
}

func mergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	for k, sv := range src {
		if sv == nil {
			continue
		}
		sm, srcIsMap := sv.(map[string]interface{})
		dm, dstIsMap := dst[k].(map[string]interface{})
		if srcIsMap && dstIsMap {
			dst[k] = mergeMaps(dm, sm)
			continue
		}
		dst[k] = sv
	}
	return dst
}

func mergeStringMaps(base, overlay map[string]string) map[string]string {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
