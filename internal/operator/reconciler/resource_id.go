package reconciler

import (
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// ResourceID identifies a resource instance by name and namespace.
type ResourceID struct {
	Name      string
	Namespace string
}

// IDOf returns the identity of obj.
func IDOf(obj client.Object) ResourceID {
	return ResourceID{Name: obj.GetName(), Namespace: obj.GetNamespace()}
}

// FromNamespacedName converts a controller-runtime request key.
func FromNamespacedName(nn types.NamespacedName) ResourceID {
	return ResourceID{Name: nn.Name, Namespace: nn.Namespace}
}

// NamespacedName returns the id as a client key.
func (id ResourceID) NamespacedName() types.NamespacedName {
	return types.NamespacedName{Name: id.Name, Namespace: id.Namespace}
}

func (id ResourceID) String() string {
	if id.Namespace == "" {
		return id.Name
	}
	return id.Namespace + "/" + id.Name
}
