package association

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"github.com/imamik/webpage-operator/internal/operator/reconciler"
)

var (
	// ErrUnresolved is returned when a secondary maps to no known primary.
	ErrUnresolved = errors.New("secondary resource does not resolve to a primary")

	// ErrUnregistered is returned for secondary kinds without a strategy.
	ErrUnregistered = errors.New("secondary kind is not registered")
)

// MapperFunc maps a primary identity to the identity of one of its
// secondaries. It must be pure and deterministic.
type MapperFunc func(primary reconciler.ResourceID) reconciler.ResourceID

// Strategy resolves a secondary back to the primaries that own it.
type Strategy interface {
	resolve(ctx context.Context, r *Registry, secondary client.Object) ([]reconciler.ResourceID, error)
}

type ownerReferenceStrategy struct{}

// OwnerReference resolves through the secondary's controller owner reference.
func OwnerReference() Strategy {
	return ownerReferenceStrategy{}
}

func (ownerReferenceStrategy) resolve(_ context.Context, r *Registry, secondary client.Object) ([]reconciler.ResourceID, error) {
	ref := metav1.GetControllerOf(secondary)
	if ref == nil {
		return nil, ErrUnresolved
	}
	gv, err := schema.ParseGroupVersion(ref.APIVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid owner reference on %s: %w", reconciler.IDOf(secondary), err)
	}
	if gv.Group != r.primaryGVK.Group || ref.Kind != r.primaryGVK.Kind {
		return nil, ErrUnresolved
	}
	return []reconciler.ResourceID{{Name: ref.Name, Namespace: secondary.GetNamespace()}}, nil
}

type mappedStrategy struct {
	fn MapperFunc
}

// Mapped resolves by evaluating fn for every primary in the secondary's
// namespace and keeping those that map to the secondary.
func Mapped(fn MapperFunc) Strategy {
	return mappedStrategy{fn: fn}
}

func (s mappedStrategy) resolve(ctx context.Context, r *Registry, secondary client.Object) ([]reconciler.ResourceID, error) {
	list := r.newPrimaryList()
	if err := r.reader.List(ctx, list, client.InNamespace(secondary.GetNamespace())); err != nil {
		return nil, fmt.Errorf("failed to list primaries in %s: %w", secondary.GetNamespace(), err)
	}

	target := reconciler.IDOf(secondary)
	var ids []reconciler.ResourceID
	err := apimeta.EachListItem(list, func(item runtime.Object) error {
		primary, ok := item.(client.Object)
		if !ok {
			return nil
		}
		id := reconciler.IDOf(primary)
		if s.fn(id) == target {
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate primaries: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrUnresolved
	}
	return ids, nil
}

// Registry maps secondary kinds to the strategy that resolves their primaries.
// Registration happens during setup; lookups are read-only afterwards.
type Registry struct {
	reader         client.Reader
	scheme         *runtime.Scheme
	primaryGVK     schema.GroupVersionKind
	newPrimaryList func() client.ObjectList

	mu         sync.RWMutex
	strategies map[schema.GroupVersionKind]Strategy
}

// NewRegistry creates a registry for primaries of the same kind as primary.
// newPrimaryList must return an empty list of that kind.
func NewRegistry(reader client.Reader, scheme *runtime.Scheme, primary client.Object, newPrimaryList func() client.ObjectList) (*Registry, error) {
	gvk, err := apiutil.GVKForObject(primary, scheme)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve primary kind: %w", err)
	}
	return &Registry{
		reader:         reader,
		scheme:         scheme,
		primaryGVK:     gvk,
		newPrimaryList: newPrimaryList,
		strategies:     make(map[schema.GroupVersionKind]Strategy),
	}, nil
}

// Register records the strategy for the kind of obj.
func (r *Registry) Register(obj client.Object, strategy Strategy) error {
	gvk, err := apiutil.GVKForObject(obj, r.scheme)
	if err != nil {
		return fmt.Errorf("failed to resolve secondary kind: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[gvk]; exists {
		return fmt.Errorf("secondary kind %s is already registered", gvk.Kind)
	}
	r.strategies[gvk] = strategy
	return nil
}

// Resolve returns the primaries obj belongs to.
func (r *Registry) Resolve(ctx context.Context, obj client.Object) ([]reconciler.ResourceID, error) {
	gvk, err := apiutil.GVKForObject(obj, r.scheme)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve secondary kind: %w", err)
	}

	r.mu.RLock()
	strategy, ok := r.strategies[gvk]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregistered, gvk.Kind)
	}
	return strategy.resolve(ctx, r, obj)
}

// Handler returns an event handler enqueueing the primaries of changed
// secondaries of obj's kind. Unresolvable notifications are dropped.
func (r *Registry) Handler(obj client.Object) handler.EventHandler {
	kind := ""
	if gvk, err := apiutil.GVKForObject(obj, r.scheme); err == nil {
		kind = gvk.Kind
	}
	return handler.EnqueueRequestsFromMapFunc(func(ctx context.Context, secondary client.Object) []reconcile.Request {
		return r.requestsFor(ctx, kind, secondary)
	})
}

func (r *Registry) requestsFor(ctx context.Context, kind string, secondary client.Object) []reconcile.Request {
	logger := log.FromContext(ctx).WithValues("kind", kind, "secondary", reconciler.IDOf(secondary).String())

	ids, err := r.Resolve(ctx, secondary)
	if err != nil {
		logResolveError(logger, err)
		return nil
	}
	requests := make([]reconcile.Request, 0, len(ids))
	for _, id := range ids {
		requests = append(requests, reconcile.Request{NamespacedName: id.NamespacedName()})
	}
	return requests
}

func logResolveError(logger logr.Logger, err error) {
	if errors.Is(err, ErrUnresolved) {
		logger.V(1).Info("dropping notification", "reason", err.Error())
		return
	}
	logger.Error(err, "failed to resolve primary for secondary resource")
}
