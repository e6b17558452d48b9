package dependent

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// Dependent operation metrics
	dependentOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webpage",
			Subsystem: "dependent",
			Name:      "operations_total",
			Help:      "Total number of dependent resource passes by dependent and operation",
		},
		[]string{"dependent", "operation"},
	)
)

func init() {
	metrics.Registry.MustRegister(dependentOperationsTotal)
}

// recordDependentOperationMetric records the outcome of one dependent pass.
func recordDependentOperationMetric(dependent, operation string) {
	dependentOperationsTotal.WithLabelValues(dependent, operation).Inc()
}
