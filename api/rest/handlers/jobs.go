package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"profiling-bundler/core/mapping"
	"profiling-bundler/core/models"
	"profiling-bundler/core/repository"
	"profiling-bundler/core/spec"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// JobStore persists profiling jobs
type JobStore interface {
	CreateJob(ctx context.Context, job *models.ProfilingJob) error
	GetJob(ctx context.Context, id string) (*models.ProfilingJob, error)
	ListJobs(ctx context.Context, status *models.JobStatus, limit int, cursor string) ([]*models.ProfilingJob, string, error)
}

// EventStore reads job events
type EventStore interface {
	GetJobEvents(ctx context.Context, jobID string, limit int) ([]models.JobEvent, error)
}

// ArtifactStore reads job artifacts
type ArtifactStore interface {
	GetJobArtifacts(ctx context.Context, jobID string, artifactType *models.ArtifactType) ([]models.JobArtifact, error)
}

// BundleLocator finds the inputs and the published copy of a finished bundle
type BundleLocator interface {
	GetInputMapping(ctx context.Context, jobID string) (*mapping.ProfilingInputFileMapping, error)
	GetBundleURI(ctx context.Context, jobID string) (string, error)
}

// Enqueuer hands new jobs to the workers
type Enqueuer interface {
	Enqueue(job *models.ProfilingJob)
}

// JobHandler handles profiling bundle HTTP requests
type JobHandler struct {
	jobs        JobStore
	events      EventStore
	artifacts   ArtifactStore
	bundles     BundleLocator
	scheduler   Enqueuer
	bundlesRoot string
}

// NewJobHandler creates a new job handler
func NewJobHandler(
	jobs JobStore,
	events EventStore,
	artifacts ArtifactStore,
	bundles BundleLocator,
	sched Enqueuer,
	bundlesRoot string,
) *JobHandler {
	return &JobHandler{
		jobs:        jobs,
		events:      events,
		artifacts:   artifacts,
		bundles:     bundles,
		scheduler:   sched,
		bundlesRoot: bundlesRoot,
	}
}

// SubmitJobRequest represents the request to submit a job
type SubmitJobRequest struct {
	Name     string `json:"name"`
	SpecYAML string `json:"spec_yaml"`
}

// SubmitJobResponse represents the response after submitting a job
type SubmitJobResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// JobResponse is the API view of a profiling job
type JobResponse struct {
	ID            string                      `json:"id"`
	Name          string                      `json:"name"`
	Status        models.JobStatus            `json:"status"`
	Progress      int                         `json:"progress"`
	Message       string                      `json:"message,omitempty"`
	Model         string                      `json:"model"`
	Device        string                      `json:"device"`
	Autogenerated bool                        `json:"autogenerated"`
	Inferences    []models.InferencePlanEntry `json:"inferences"`
	BundleDir     string                      `json:"bundle_dir"`
	BundleURI     string                      `json:"bundle_uri,omitempty"`
	Timestamps    map[string]*time.Time       `json:"timestamps"`
}

func newJobResponse(job *models.ProfilingJob) JobResponse {
	created, updated := job.CreatedAt, job.UpdatedAt
	return JobResponse{
		ID:            job.ID,
		Name:          job.Name,
		Status:        job.Status,
		Progress:      job.Progress,
		Message:       job.Message,
		Model:         job.ModelPath,
		Device:        job.Device,
		Autogenerated: job.Autogenerated,
		Inferences:    job.InferencePlan,
		BundleDir:     job.BundleDir,
		Timestamps: map[string]*time.Time{
			"created_at":  &created,
			"started_at":  job.StartedAt,
			"finished_at": job.CompletedAt,
			"updated_at":  &updated,
		},
	}
}

// SubmitJob handles POST /v1/profiling-bundles
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := spec.ParseJobSpec(req.SpecYAML)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name != "" {
		job.Name = req.Name
	}
	job.ID = uuid.NewString()
	job.BundleDir = filepath.Join(h.bundlesRoot, job.ID)

	if err := h.jobs.CreateJob(r.Context(), job); err != nil {
		log.Error().Err(err).Msg("Failed to create job")
		http.Error(w, "Failed to create job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.scheduler.Enqueue(job)
	log.Info().Str("job_id", job.ID).Str("name", job.Name).Msg("Profiling bundle job submitted")

	writeJSON(w, http.StatusCreated, SubmitJobResponse{
		ID:        job.ID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
	})
}

// GetJob handles GET /v1/profiling-bundles/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	resp := newJobResponse(job)
	if job.Status == models.JobStatusReady {
		uri, err := h.bundles.GetBundleURI(r.Context(), job.ID)
		if err != nil {
			http.Error(w, "Failed to fetch bundle location: "+err.Error(), http.StatusInternalServerError)
			return
		}
		resp.BundleURI = uri
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListJobs handles GET /v1/profiling-bundles
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	cursor := r.URL.Query().Get("cursor")

	var status *models.JobStatus
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		s, ok := models.ParseJobStatus(statusParam)
		if !ok {
			http.Error(w, "Invalid status", http.StatusBadRequest)
			return
		}
		status = &s
	}

	jobs, nextCursor, err := h.jobs.ListJobs(r.Context(), status, limit, cursor)
	if err != nil {
		http.Error(w, "Failed to list jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]JobResponse, len(jobs))
	for i, job := range jobs {
		items[i] = newJobResponse(job)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":       items,
		"next_cursor": nextCursor,
	})
}

// GetJobEvents handles GET /v1/profiling-bundles/{id}/events
func (h *JobHandler) GetJobEvents(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	events, err := h.events.GetJobEvents(r.Context(), job.ID, 500)
	if err != nil {
		http.Error(w, "Failed to fetch events: "+err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, len(events))
	for i, event := range events {
		item := map[string]interface{}{
			"at":        event.At,
			"to_status": event.ToStatus,
			"progress":  event.Progress,
			"reason":    event.Reason,
		}
		if event.FromStatus != nil {
			item["from_status"] = *event.FromStatus
		}
		items[i] = item
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

// GetJobArtifacts handles GET /v1/profiling-bundles/{id}/artifacts
func (h *JobHandler) GetJobArtifacts(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	var artifactType *models.ArtifactType
	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		t := models.ArtifactType(typeParam)
		artifactType = &t
	}

	artifacts, err := h.artifacts.GetJobArtifacts(r.Context(), job.ID, artifactType)
	if err != nil {
		http.Error(w, "Failed to fetch artifacts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, len(artifacts))
	for i, artifact := range artifacts {
		items[i] = map[string]interface{}{
			"type":       artifact.Type,
			"uri":        artifact.URI,
			"meta":       artifact.MetaJSON,
			"created_at": artifact.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

// GetJobInputs handles GET /v1/profiling-bundles/{id}/inputs.
// inputs is null for autogenerated jobs; 409 until the job is ready.
func (h *JobHandler) GetJobInputs(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}
	if job.Status != models.JobStatusReady {
		http.Error(w, "Job is "+string(job.Status), http.StatusConflict)
		return
	}

	inputs, err := h.bundles.GetInputMapping(r.Context(), job.ID)
	if err != nil {
		http.Error(w, "Failed to fetch inputs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":            job.ID,
		"autogenerated": job.Autogenerated,
		"inputs":        inputs,
	})
}

func (h *JobHandler) loadJob(w http.ResponseWriter, r *http.Request) (*models.ProfilingJob, bool) {
	jobID := mux.Vars(r)["id"]

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "Job not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, "Failed to fetch job: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return job, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}
