// Package reconciler defines the primary-facing reconciliation model: the
// update decisions returned by a pass, the error status feedback contract,
// the call-scoped pass context and the orchestrator that runs dependent
// resources in declared order.
//
// A pass is stateless. Every call recomputes desired state and re-reads
// actual state, so a pass that failed halfway is retried from scratch and
// reaches the same fixed point.
package reconciler
