// Package controller hosts a primary reconciler inside controller-runtime.
//
// Controller fetches the primary for each request, runs the reconciler with a
// fresh pass context and persists the returned decision: a resource write
// followed by a status write when both are requested. When the reconciler
// fails and implements reconciler.ErrorStatusHandler, the controller writes
// the error status once, emits a Warning event and hands the error back to
// the work queue for retry with backoff.
package controller
