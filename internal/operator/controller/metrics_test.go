package controller

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordReconcileMetric(t *testing.T) {
	// Reset metrics for testing
	reconcileTotal.Reset()
	reconcileDuration.Reset()

	recordReconcileMetric("webpage", resultSuccess, 1.5)

	counter, err := reconcileTotal.GetMetricWithLabelValues("webpage", resultSuccess)
	assert.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))

	recordReconcileMetric("webpage", resultError, 0.5)

	errorCounter, err := reconcileTotal.GetMetricWithLabelValues("webpage", resultError)
	assert.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(errorCounter))

	_, err = reconcileDuration.GetMetricWithLabelValues("webpage")
	assert.NoError(t, err)
}

func TestRecordErrorStatusWriteMetric(t *testing.T) {
	errorStatusWritesTotal.Reset()

	recordErrorStatusWriteMetric("webpage", resultError)
	recordErrorStatusWriteMetric("webpage", resultError)

	counter, err := errorStatusWritesTotal.GetMetricWithLabelValues("webpage", resultError)
	assert.NoError(t, err)
	assert.Equal(t, float64(2), testutil.ToFloat64(counter))
}
