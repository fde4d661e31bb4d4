package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"profiling-bundler/api/rest/handlers"
	"profiling-bundler/core/mapping"
	"profiling-bundler/core/models"
	"profiling-bundler/core/repository"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu        sync.Mutex
	jobs      map[string]*models.ProfilingJob
	order     []string
	events    map[string][]models.JobEvent
	artifacts map[string][]models.JobArtifact
	inputs    map[string]*mapping.ProfilingInputFileMapping
	bundles   map[string]string
	queued    []*models.ProfilingJob
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		jobs:      map[string]*models.ProfilingJob{},
		events:    map[string][]models.JobEvent{},
		artifacts: map[string][]models.JobArtifact{},
		inputs:    map[string]*mapping.ProfilingInputFileMapping{},
		bundles:   map[string]string{},
	}
}

func (m *memoryStore) CreateJob(_ context.Context, job *models.ProfilingJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.CreatedAt = time.Now()
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	m.events[job.ID] = append(m.events[job.ID], models.JobEvent{JobID: job.ID, ToStatus: job.Status, Reason: "job_created"})
	return nil
}

func (m *memoryStore) GetJob(_ context.Context, id string) (*models.ProfilingJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return job, nil
}

func (m *memoryStore) ListJobs(_ context.Context, status *models.JobStatus, limit int, _ string) ([]*models.ProfilingJob, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ProfilingJob
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		job := m.jobs[m.order[i]]
		if status == nil || job.Status == *status {
			out = append(out, job)
		}
	}
	return out, "", nil
}

func (m *memoryStore) CountByStatus(context.Context) (map[models.JobStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.JobStatus]int{}
	for _, job := range m.jobs {
		counts[job.Status]++
	}
	return counts, nil
}

func (m *memoryStore) GetJobEvents(_ context.Context, jobID string, _ int) ([]models.JobEvent, error) {
	return m.events[jobID], nil
}

func (m *memoryStore) GetJobArtifacts(_ context.Context, jobID string, _ *models.ArtifactType) ([]models.JobArtifact, error) {
	return m.artifacts[jobID], nil
}

func (m *memoryStore) GetInputMapping(_ context.Context, jobID string) (*mapping.ProfilingInputFileMapping, error) {
	return m.inputs[jobID], nil
}

func (m *memoryStore) GetBundleURI(_ context.Context, jobID string) (string, error) {
	return m.bundles[jobID], nil
}

func (m *memoryStore) Enqueue(job *models.ProfilingJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, job)
}

func (m *memoryStore) QueueLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queued)
}

func newTestRouter(store *memoryStore) *mux.Router {
	r := mux.NewRouter()
	SetupRoutes(r,
		handlers.NewJobHandler(store, store, store, store, store, "/bundles"),
		handlers.NewDashboardHandler(store, store, store),
	)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const submitBody = `{"name": "bert", "spec_yaml": "job:\n  model: /models/bert.xml\n  tokenizer: /models/vocab.txt\n  data: {dataset: /data/squad.csv}\n  inferences: [{batch: 2, nireq: 3}]\n"}`

func TestSubmitJob(t *testing.T) {
	store := newMemoryStore()
	r := newTestRouter(store)

	rec := do(t, r, http.MethodPost, "/v1/profiling-bundles", submitBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp handlers.SubmitJobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "pending", resp.Status)

	require.Len(t, store.queued, 1)
	job := store.queued[0]
	assert.Equal(t, resp.ID, job.ID)
	assert.Equal(t, "bert", job.Name)
	assert.Equal(t, filepath.Join("/bundles", job.ID), job.BundleDir)
}

func TestSubmitJob_InvalidSpec(t *testing.T) {
	store := newMemoryStore()
	r := newTestRouter(store)

	rec := do(t, r, http.MethodPost, "/v1/profiling-bundles", `{"spec_yaml": "job:\n  model: m.xml\n"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "inferences")

	rec = do(t, r, http.MethodPost, "/v1/profiling-bundles", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.queued)
}

func TestGetJob(t *testing.T) {
	store := newMemoryStore()
	r := newTestRouter(store)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/v1/profiling-bundles", submitBody).Code)
	id := store.queued[0].ID

	rec := do(t, r, http.MethodGet, "/v1/profiling-bundles/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var job handlers.JobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&job))
	assert.Equal(t, id, job.ID)
	assert.Equal(t, []models.InferencePlanEntry{{Batch: 2, Concurrency: 3}}, job.Inferences)

	assert.Empty(t, job.BundleURI)

	store.jobs[id].Status = models.JobStatusReady
	store.bundles[id] = "s3://perf/bundles/" + id + "/"
	rec = do(t, r, http.MethodGet, "/v1/profiling-bundles/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	job = handlers.JobResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&job))
	assert.Equal(t, "s3://perf/bundles/"+id+"/", job.BundleURI)

	rec = do(t, r, http.MethodGet, "/v1/profiling-bundles/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodGet, "/v1/profiling-bundles/"+id+"/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "job_created")
}

func TestListJobs(t *testing.T) {
	store := newMemoryStore()
	r := newTestRouter(store)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/v1/profiling-bundles", submitBody).Code)
	}
	store.jobs[store.order[0]].Status = models.JobStatusReady

	rec := do(t, r, http.MethodGet, "/v1/profiling-bundles?status=ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []handlers.JobResponse `json:"items"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, store.order[0], page.Items[0].ID)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/v1/profiling-bundles?status=done", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/v1/profiling-bundles?limit=-1", "").Code)
}

func TestGetJobInputs(t *testing.T) {
	store := newMemoryStore()
	r := newTestRouter(store)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/v1/profiling-bundles", submitBody).Code)
	id := store.queued[0].ID

	assert.Equal(t, http.StatusConflict, do(t, r, http.MethodGet, "/v1/profiling-bundles/"+id+"/inputs", "").Code)

	store.jobs[id].Status = models.JobStatusReady
	inputs := mapping.New()
	inputs.AddInputFile("input_ids", "/bundles/x/scripts/binary_dataset/input_ids_000.bin")
	inputs.AddInputFile("attention_mask", "/bundles/x/scripts/binary_dataset/attention_mask_000.bin")
	store.inputs[id] = inputs

	rec := do(t, r, http.MethodGet, "/v1/profiling-bundles/"+id+"/inputs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, "input_ids"), strings.Index(body, "attention_mask"))
}

func TestDashboardAndMetrics(t *testing.T) {
	store := newMemoryStore()
	r := newTestRouter(store)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/v1/profiling-bundles", submitBody).Code)

	rec := do(t, r, http.MethodGet, "/v1/dashboard/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Jobs struct {
			Total    int            `json:"total"`
			ByStatus map[string]int `json:"by_status"`
			Queued   int            `json:"queued"`
		} `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, 1, summary.Jobs.Total)
	assert.Equal(t, 1, summary.Jobs.ByStatus["pending"])
	assert.Equal(t, 1, summary.Jobs.Queued)

	rec = do(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `profiling_bundle_jobs{status="pending"} 1`)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/health", "").Code)
}
