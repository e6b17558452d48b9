package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// Reconciliation metrics
	reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webpage",
			Subsystem: "controller",
			Name:      "reconcile_total",
			Help:      "Total number of reconciliations by result",
		},
		[]string{"controller", "result"},
	)

	reconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webpage",
			Subsystem: "controller",
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconciliation in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"controller"},
	)

	// Error status feedback metrics
	errorStatusWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webpage",
			Subsystem: "controller",
			Name:      "error_status_writes_total",
			Help:      "Total number of error status writes by result",
		},
		[]string{"controller", "result"},
	)
)

func init() {
	// Register metrics with controller-runtime's registry
	metrics.Registry.MustRegister(
		reconcileTotal,
		reconcileDuration,
		errorStatusWritesTotal,
	)
}

// recordReconcileMetric records a reconciliation result.
func recordReconcileMetric(controller, result string, duration float64) {
	reconcileTotal.WithLabelValues(controller, result).Inc()
	reconcileDuration.WithLabelValues(controller).Observe(duration)
}

// recordErrorStatusWriteMetric records an error status write attempt.
func recordErrorStatusWriteMetric(controller, result string) {
	errorStatusWritesTotal.WithLabelValues(controller, result).Inc()
}
