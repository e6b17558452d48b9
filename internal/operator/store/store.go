// Package store provides the resource store used by reconciliation passes.
//
// Every call is a synchronous boundary: the pass blocks until the API server
// answers, and cancellation is only observed through the supplied context.
package store

import (
	"context"
	"fmt"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/labels"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/imamik/webpage-operator/internal/operator/reconciler"
)

// Store defines the resource store operations the engine depends on.
// This interface enables testing with mocks.
type Store interface {
	// Get reads the object identified by id into obj. It reports false when
	// the object does not exist.
	Get(ctx context.Context, id reconciler.ResourceID, obj client.Object) (bool, error)

	// Create persists a new object and refreshes obj from the response.
	Create(ctx context.Context, obj client.Object) error

	// Update replaces the object, excluding its status subresource.
	Update(ctx context.Context, obj client.Object) error

	// UpdateStatus replaces the status subresource.
	UpdateStatus(ctx context.Context, obj client.Object) error

	// Patch merge-patches the object relative to base.
	Patch(ctx context.Context, obj, base client.Object) error

	// PatchStatus merge-patches the status subresource relative to base.
	PatchStatus(ctx context.Context, obj, base client.Object) error

	// DeleteBySelector deletes every object of obj's kind in namespace
	// matching selector.
	DeleteBySelector(ctx context.Context, obj client.Object, namespace string, selector labels.Selector) error
}

// ClientStore implements Store on top of a controller-runtime client.
type ClientStore struct {
	client        client.Client
	enableMetrics bool
}

// Option configures a ClientStore.
type Option func(*ClientStore)

// WithMetrics enables or disables call metrics.
func WithMetrics(enabled bool) Option {
	return func(s *ClientStore) {
		s.enableMetrics = enabled
	}
}

// NewClientStore creates a store backed by c.
func NewClientStore(c client.Client, opts ...Option) *ClientStore {
	s := &ClientStore{
		client:        c,
		enableMetrics: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*ClientStore)(nil)

func (s *ClientStore) Get(ctx context.Context, id reconciler.ResourceID, obj client.Object) (bool, error) {
	var found bool
	err := s.observe("get", obj, func() error {
		err := s.client.Get(ctx, id.NamespacedName(), obj)
		if apierrors.IsNotFound(err) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to get %s %s: %w", s.kind(obj), id, err)
	}
	return found, nil
}

func (s *ClientStore) Create(ctx context.Context, obj client.Object) error {
	if err := s.observe("create", obj, func() error {
		return s.client.Create(ctx, obj)
	}); err != nil {
		return fmt.Errorf("failed to create %s %s: %w", s.kind(obj), reconciler.IDOf(obj), err)
	}
	return nil
}

func (s *ClientStore) Update(ctx context.Context, obj client.Object) error {
	if err := s.observe("update", obj, func() error {
		return s.client.Update(ctx, obj)
	}); err != nil {
		return fmt.Errorf("failed to update %s %s: %w", s.kind(obj), reconciler.IDOf(obj), err)
	}
	return nil
}

func (s *ClientStore) UpdateStatus(ctx context.Context, obj client.Object) error {
	if err := s.observe("update_status", obj, func() error {
		return s.client.Status().Update(ctx, obj)
	}); err != nil {
		return fmt.Errorf("failed to update status of %s %s: %w", s.kind(obj), reconciler.IDOf(obj), err)
	}
	return nil
}

func (s *ClientStore) Patch(ctx context.Context, obj, base client.Object) error {
	if err := s.observe("patch", obj, func() error {
		return s.client.Patch(ctx, obj, client.MergeFrom(base))
	}); err != nil {
		return fmt.Errorf("failed to patch %s %s: %w", s.kind(obj), reconciler.IDOf(obj), err)
	}
	return nil
}

func (s *ClientStore) PatchStatus(ctx context.Context, obj, base client.Object) error {
	if err := s.observe("patch_status", obj, func() error {
		return s.client.Status().Patch(ctx, obj, client.MergeFrom(base))
	}); err != nil {
		return fmt.Errorf("failed to patch status of %s %s: %w", s.kind(obj), reconciler.IDOf(obj), err)
	}
	return nil
}

func (s *ClientStore) DeleteBySelector(ctx context.Context, obj client.Object, namespace string, selector labels.Selector) error {
	if err := s.observe("delete_by_selector", obj, func() error {
		return s.client.DeleteAllOf(ctx, obj,
			client.InNamespace(namespace),
			client.MatchingLabelsSelector{Selector: selector},
		)
	}); err != nil {
		return fmt.Errorf("failed to delete %s in %s matching %q: %w", s.kind(obj), namespace, selector.String(), err)
	}
	return nil
}

// observe runs call and records its latency and outcome.
func (s *ClientStore) observe(operation string, obj client.Object, call func() error) error {
	start := time.Now()
	err := call()
	if s.enableMetrics {
		result := "success"
		if err != nil {
			result = "error"
		}
		recordStoreCallMetric(operation, s.kind(obj), result, time.Since(start).Seconds())
	}
	return err
}

func (s *ClientStore) kind(obj client.Object) string {
	gvk, err := s.client.GroupVersionKindFor(obj)
	if err != nil {
		return fmt.Sprintf("%T", obj)
	}
	return gvk.Kind
}
