// Package testing provides test utilities, builders, and fixtures for unit and integration tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - WebPageBuilder: Fluent builder for creating test primaries
//   - NewFakeClient: controller-runtime fake client with the operator scheme
//   - RecordingStore: store wrapper that records and optionally fails calls
//
// Usage:
//
//	page := testing.NewWebPageBuilder("site1", "ns1").
//	    WithHTML("<h1>hi</h1>").
//	    Build()
//
//	st := testing.NewRecordingStore(store.NewClientStore(testing.NewFakeClient(t, page)))
package testing
