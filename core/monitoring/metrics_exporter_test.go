package monitoring

import (
	"context"
	"errors"
	"testing"

	"profiling-bundler/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCounts map[models.JobStatus]int

func (s staticCounts) CountByStatus(context.Context) (map[models.JobStatus]int, error) {
	return s, nil
}

type failingCounts struct{}

func (failingCounts) CountByStatus(context.Context) (map[models.JobStatus]int, error) {
	return nil, errors.New("db down")
}

type queueLen int

func (q queueLen) QueueLength() int { return int(q) }

func TestMetricsExporter_GetPrometheusMetrics(t *testing.T) {
	me := NewMetricsExporter(staticCounts{models.JobStatusReady: 3, models.JobStatusFailed: 1}, queueLen(2))

	out, err := me.GetPrometheusMetrics(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out, `profiling_bundle_jobs{status="pending"} 0`)
	assert.Contains(t, out, `profiling_bundle_jobs{status="ready"} 3`)
	assert.Contains(t, out, `profiling_bundle_jobs{status="failed"} 1`)
	assert.Contains(t, out, "profiling_bundle_jobs_total 4")
	assert.Contains(t, out, "profiling_bundle_queue_length 2")
}

func TestMetricsExporter_WithoutQueue(t *testing.T) {
	out, err := NewMetricsExporter(staticCounts{}, nil).GetPrometheusMetrics(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, out, "queue_length")
}

func TestMetricsExporter_StoreError(t *testing.T) {
	_, err := NewMetricsExporter(failingCounts{}, nil).GetPrometheusMetrics(context.Background())
	assert.Error(t, err)
}
