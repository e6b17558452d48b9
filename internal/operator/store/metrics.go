package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// Store call metrics
	storeCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webpage",
			Subsystem: "store",
			Name:      "calls_total",
			Help:      "Total number of resource store calls by operation, kind and result",
		},
		[]string{"operation", "kind", "result"},
	)

	storeCallLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webpage",
			Subsystem: "store",
			Name:      "call_latency_seconds",
			Help:      "Latency of resource store calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		},
		[]string{"operation", "kind"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		storeCallsTotal,
		storeCallLatency,
	)
}

// recordStoreCallMetric records a resource store call.
func recordStoreCallMetric(operation, kind, result string, latency float64) {
	storeCallsTotal.WithLabelValues(operation, kind, result).Inc()
	storeCallLatency.WithLabelValues(operation, kind).Observe(latency)
}
