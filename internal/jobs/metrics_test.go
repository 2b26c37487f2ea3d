package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, metrics.Track("scan").End(nil))
	failure := errors.New("boom")
	assert.ErrorIs(t, metrics.Track("scan").End(failure), failure)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("scan", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("scan", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("scan")))
}

func TestAddDueFollowUpsIgnoresNonPositive(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.AddDueFollowUps(3)
	metrics.AddDueFollowUps(0)
	metrics.AddDueFollowUps(-2)

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.dueFollowUps))
}

func TestNilMetricsTrackerPassesErrorThrough(t *testing.T) {
	var metrics *Metrics
	failure := errors.New("boom")
	assert.ErrorIs(t, metrics.Track("scan").End(failure), failure)
	metrics.AddDueFollowUps(1)
}
