package testing

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"k8s.io/apimachinery/pkg/labels"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/imamik/webpage-operator/internal/operator/reconciler"
	"github.com/imamik/webpage-operator/internal/operator/store"
)

// Store operation names used as keys in RecordingStore.
const (
	OpGet              = "get"
	OpCreate           = "create"
	OpUpdate           = "update"
	OpUpdateStatus     = "update_status"
	OpPatch            = "patch"
	OpPatchStatus      = "patch_status"
	OpDeleteBySelector = "delete_by_selector"
)

// StoreCall describes one recorded store call.
type StoreCall struct {
	Op       string
	Kind     string
	ID       reconciler.ResourceID
	Selector string
	Object   client.Object
}

// RecordingStore wraps a store.Store and records every call. A FailFunc can
// inject failures before the delegate is reached.
type RecordingStore struct {
	mu sync.Mutex

	delegate store.Store

	// FailFunc returns a non-nil error to fail the call without reaching the delegate.
	FailFunc func(op, kind string) error

	Calls []StoreCall
}

// NewRecordingStore creates a recording wrapper around delegate.
func NewRecordingStore(delegate store.Store) *RecordingStore {
	return &RecordingStore{delegate: delegate}
}

var _ store.Store = (*RecordingStore)(nil)

func (s *RecordingStore) Get(ctx context.Context, id reconciler.ResourceID, obj client.Object) (bool, error) {
	if err := s.record(StoreCall{Op: OpGet, Kind: KindOf(obj), ID: id}); err != nil {
		return false, err
	}
	return s.delegate.Get(ctx, id, obj)
}

func (s *RecordingStore) Create(ctx context.Context, obj client.Object) error {
	if err := s.record(s.objectCall(OpCreate, obj)); err != nil {
		return err
	}
	return s.delegate.Create(ctx, obj)
}

func (s *RecordingStore) Update(ctx context.Context, obj client.Object) error {
	if err := s.record(s.objectCall(OpUpdate, obj)); err != nil {
		return err
	}
	return s.delegate.Update(ctx, obj)
}

func (s *RecordingStore) UpdateStatus(ctx context.Context, obj client.Object) error {
	if err := s.record(s.objectCall(OpUpdateStatus, obj)); err != nil {
		return err
	}
	return s.delegate.UpdateStatus(ctx, obj)
}

func (s *RecordingStore) Patch(ctx context.Context, obj, base client.Object) error {
	if err := s.record(s.objectCall(OpPatch, obj)); err != nil {
		return err
	}
	return s.delegate.Patch(ctx, obj, base)
}

func (s *RecordingStore) PatchStatus(ctx context.Context, obj, base client.Object) error {
	if err := s.record(s.objectCall(OpPatchStatus, obj)); err != nil {
		return err
	}
	return s.delegate.PatchStatus(ctx, obj, base)
}

func (s *RecordingStore) DeleteBySelector(ctx context.Context, obj client.Object, namespace string, selector labels.Selector) error {
	call := StoreCall{
		Op:       OpDeleteBySelector,
		Kind:     KindOf(obj),
		ID:       reconciler.ResourceID{Namespace: namespace},
		Selector: selector.String(),
	}
	if err := s.record(call); err != nil {
		return err
	}
	return s.delegate.DeleteBySelector(ctx, obj, namespace, selector)
}

// CallsFor returns the recorded calls of op on kind.
func (s *RecordingStore) CallsFor(op, kind string) []StoreCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []StoreCall
	for _, c := range s.Calls {
		if c.Op == op && c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Mutations returns every recorded call that is not a read.
func (s *RecordingStore) Mutations() []StoreCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []StoreCall
	for _, c := range s.Calls {
		if c.Op != OpGet {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets all recorded calls.
func (s *RecordingStore) Reset() {
	s.mu.Lock()
	s.Calls = nil
	s.mu.Unlock()
}

func (s *RecordingStore) objectCall(op string, obj client.Object) StoreCall {
	return StoreCall{
		Op:     op,
		Kind:   KindOf(obj),
		ID:     reconciler.IDOf(obj),
		Object: obj.DeepCopyObject().(client.Object),
	}
}

func (s *RecordingStore) record(call StoreCall) error {
	s.mu.Lock()
	s.Calls = append(s.Calls, call)
	fail := s.FailFunc
	s.mu.Unlock()

	if fail != nil {
		if err := fail(call.Op, call.Kind); err != nil {
			return fmt.Errorf("injected %s failure on %s: %w", call.Op, call.Kind, err)
		}
	}
	return nil
}

// KindOf returns the Go type name of obj, which matches its Kind for typed objects.
func KindOf(obj client.Object) string {
	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
