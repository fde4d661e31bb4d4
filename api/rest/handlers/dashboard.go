package handlers

import (
	"net/http"
	"strconv"

	"profiling-bundler/core/monitoring"
)

// DashboardHandler serves the job summary and Prometheus metrics
type DashboardHandler struct {
	jobs    JobStore
	counts  monitoring.StatusCounter
	queue   monitoring.QueueLengther
	metrics *monitoring.MetricsExporter
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	jobs JobStore,
	counts monitoring.StatusCounter,
	queue monitoring.QueueLengther,
) *DashboardHandler {
	return &DashboardHandler{
		jobs:    jobs,
		counts:  counts,
		queue:   queue,
		metrics: monitoring.NewMetricsExporter(counts, queue),
	}
}

// GetSummary handles GET /v1/dashboard/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	recent := 10
	if recentParam := r.URL.Query().Get("recent"); recentParam != "" {
		n, err := strconv.Atoi(recentParam)
		if err != nil || n < 0 {
			http.Error(w, "Invalid recent", http.StatusBadRequest)
			return
		}
		recent = n
	}

	counts, err := h.counts.CountByStatus(r.Context())
	if err != nil {
		http.Error(w, "Failed to count jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	total := 0
	byStatus := make(map[string]int, len(counts))
	for status, n := range counts {
		byStatus[string(status)] = n
		total += n
	}

	items := []JobResponse{}
	if recent > 0 {
		jobs, _, err := h.jobs.ListJobs(r.Context(), nil, recent, "")
		if err != nil {
			http.Error(w, "Failed to fetch jobs: "+err.Error(), http.StatusInternalServerError)
			return
		}
		for _, job := range jobs {
			items = append(items, newJobResponse(job))
		}
	}

	queued := 0
	if h.queue != nil {
		queued = h.queue.QueueLength()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": map[string]interface{}{
			"total":     total,
			"by_status": byStatus,
			"queued":    queued,
		},
		"recent": items,
	})
}

// GetMetrics handles GET /metrics
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.metrics.GetPrometheusMetrics(r.Context())
	if err != nil {
		http.Error(w, "Failed to collect metrics: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(metrics))
}
