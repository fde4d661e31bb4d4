package monitoring

import (
	"context"
	"fmt"
	"strings"

	"profiling-bundler/core/models"
)

// StatusCounter counts jobs per status
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[models.JobStatus]int, error)
}

// QueueLengther reports how many jobs wait for a worker
type QueueLengther interface {
	QueueLength() int
}

var exportedStatuses = []models.JobStatus{
	models.JobStatusPending,
	models.JobStatusRunning,
	models.JobStatusReady,
	models.JobStatusFailed,
}

// MetricsExporter exports job metrics in Prometheus text format
type MetricsExporter struct {
	jobs  StatusCounter
	queue QueueLengther
}

// NewMetricsExporter creates a new metrics exporter; queue may be nil
func NewMetricsExporter(jobs StatusCounter, queue QueueLengther) *MetricsExporter {
	return &MetricsExporter{
		jobs:  jobs,
		queue: queue,
	}
}

// GetPrometheusMetrics returns metrics in Prometheus format
func (me *MetricsExporter) GetPrometheusMetrics(ctx context.Context) (string, error) {
	counts, err := me.jobs.CountByStatus(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString("# HELP profiling_bundle_jobs Number of profiling bundle jobs by status\n")
	b.WriteString("# TYPE profiling_bundle_jobs gauge\n")
	total := 0
	for _, status := range exportedStatuses {
		fmt.Fprintf(&b, "profiling_bundle_jobs{status=%q} %d\n", status, counts[status])
		total += counts[status]
	}

	b.WriteString("# HELP profiling_bundle_jobs_total Total number of profiling bundle jobs\n")
	b.WriteString("# TYPE profiling_bundle_jobs_total gauge\n")
	fmt.Fprintf(&b, "profiling_bundle_jobs_total %d\n", total)

	if me.queue != nil {
		b.WriteString("# HELP profiling_bundle_queue_length Jobs waiting for a worker\n")
		b.WriteString("# TYPE profiling_bundle_queue_length gauge\n")
		fmt.Fprintf(&b, "profiling_bundle_queue_length %d\n", me.queue.QueueLength())
	}

	return b.String(), nil
}
