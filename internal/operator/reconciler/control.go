package reconciler

import (
	"reflect"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/client"
)

// UpdateControl describes what the hosting runtime persists on the primary
// after a pass. The zero value is a no-update decision.
type UpdateControl[P client.Object] struct {
	resource        P
	updateStatus    bool
	updateResource  bool
	patch           bool
	rescheduleAfter time.Duration
}

// NewUpdateControl builds a decision and enforces that a resource is present
// whenever a write is requested.
func NewUpdateControl[P client.Object](resource P, updateStatus, updateResource, patch bool) (UpdateControl[P], error) {
	if (updateStatus || updateResource) && isNil(resource) {
		return UpdateControl[P]{}, &ValidationError{Field: "update control", Err: ErrMissingResource}
	}
	return UpdateControl[P]{
		resource:       resource,
		updateStatus:   updateStatus,
		updateResource: updateResource,
		patch:          patch,
	}, nil
}

// NoUpdate returns a decision that persists nothing.
func NoUpdate[P client.Object]() UpdateControl[P] {
	return UpdateControl[P]{}
}

// UpdateStatus requests a status subresource update.
func UpdateStatus[P client.Object](resource P) (UpdateControl[P], error) {
	return NewUpdateControl(resource, true, false, false)
}

// UpdateResource requests an update of the resource itself. A pass should
// usually end in a status update instead.
func UpdateResource[P client.Object](resource P) (UpdateControl[P], error) {
	return NewUpdateControl(resource, false, true, false)
}

// UpdateResourceAndStatus issues two writes: the resource first, then its status.
func UpdateResourceAndStatus[P client.Object](resource P) (UpdateControl[P], error) {
	return NewUpdateControl(resource, true, true, false)
}

// PatchStatus requests a merge patch of the status subresource.
func PatchStatus[P client.Object](resource P) (UpdateControl[P], error) {
	return NewUpdateControl(resource, true, false, true)
}

// PatchResource requests a merge patch of the resource itself.
func PatchResource[P client.Object](resource P) (UpdateControl[P], error) {
	return NewUpdateControl(resource, false, true, true)
}

// PatchResourceAndStatus issues two patches: the resource first, then its status.
func PatchResourceAndStatus[P client.Object](resource P) (UpdateControl[P], error) {
	return NewUpdateControl(resource, true, true, true)
}

// RescheduleAfter returns a copy of the decision that asks for another pass after d.
func (c UpdateControl[P]) RescheduleAfter(d time.Duration) UpdateControl[P] {
	c.rescheduleAfter = d
	return c
}

// Resource returns the resource to persist and whether one is present.
func (c UpdateControl[P]) Resource() (P, bool) {
	return c.resource, !isNil(c.resource)
}

func (c UpdateControl[P]) IsUpdateStatus() bool {
	return c.updateStatus
}

func (c UpdateControl[P]) IsUpdateResource() bool {
	return c.updateResource
}

func (c UpdateControl[P]) IsPatch() bool {
	return c.patch
}

func (c UpdateControl[P]) IsNoUpdate() bool {
	return !c.updateResource && !c.updateStatus
}

func (c UpdateControl[P]) IsUpdateResourceAndStatus() bool {
	return c.updateResource && c.updateStatus
}

// ScheduleDelay returns the requested delay before the next pass, if any.
func (c UpdateControl[P]) ScheduleDelay() (time.Duration, bool) {
	return c.rescheduleAfter, c.rescheduleAfter > 0
}

// ErrorStatusUpdateControl is the decision returned by error feedback. It
// only ever writes status.
type ErrorStatusUpdateControl[P client.Object] struct {
	resource P
	patch    bool
	noRetry  bool
}

// ErrorStatusUpdate requests a status update carrying the failure.
func ErrorStatusUpdate[P client.Object](resource P) ErrorStatusUpdateControl[P] {
	return ErrorStatusUpdateControl[P]{resource: resource}
}

// ErrorStatusPatch requests a status merge patch carrying the failure.
func ErrorStatusPatch[P client.Object](resource P) ErrorStatusUpdateControl[P] {
	return ErrorStatusUpdateControl[P]{resource: resource, patch: true}
}

// NoErrorStatusUpdate leaves the primary untouched.
func NoErrorStatusUpdate[P client.Object]() ErrorStatusUpdateControl[P] {
	return ErrorStatusUpdateControl[P]{}
}

// WithNoRetry marks the failure as terminal so the work queue does not retry it.
func (c ErrorStatusUpdateControl[P]) WithNoRetry() ErrorStatusUpdateControl[P] {
	c.noRetry = true
	return c
}

// Resource returns the resource to persist and whether one is present.
func (c ErrorStatusUpdateControl[P]) Resource() (P, bool) {
	return c.resource, !isNil(c.resource)
}

func (c ErrorStatusUpdateControl[P]) IsUpdateStatus() bool {
	return !isNil(c.resource)
}

func (c ErrorStatusUpdateControl[P]) IsPatch() bool {
	return c.patch
}

func (c ErrorStatusUpdateControl[P]) IsNoRetry() bool {
	return c.noRetry
}

func isNil(obj client.Object) bool {
	if obj == nil {
		return true
	}
	v := reflect.ValueOf(obj)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
