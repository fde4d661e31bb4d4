package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"profiling-bundler/core/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jobColumnNames = []string{
	"id", "name", "model_path", "tokenizer_path", "dataset_path", "text_columns", "shape_overrides",
	"autogenerated", "inference_plan", "device", "bundle_dir", "status", "progress", "message",
	"spec_yaml", "created_at", "started_at", "finished_at", "updated_at",
}

func newMockRepository(t *testing.T) (*JobRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewJobRepository(&DB{DB: conn}), mock
}

func jobRow(id string, status models.JobStatus, created time.Time) []driver.Value {
	return []driver.Value{
		id, "bert", "/models/bert.xml", "/models/vocab.txt", "/data/squad.csv",
		[]byte("{question,context}"), []byte(`{"input_ids":[1,128]}`), false,
		[]byte(`[{"batch":2,"nireq":3}]`), "CPU", "/bundles/" + id, string(status), int64(0), "",
		"job: {}", created, nil, nil, created,
	}
}

func TestJobRepository_CreateJob(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO profiling_jobs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO job_events").
		WithArgs(sqlmock.AnyArg(), nil, "pending", 0, "job_created", "{}").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	job := &models.ProfilingJob{Name: "bert", ModelPath: "/models/bert.xml"}
	require.NoError(t, repo.CreateJob(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.False(t, job.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_GetJob(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := "6f1c2a9e-3d4b-4c5a-9e8f-1a2b3c4d5e6f"
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`FROM profiling_jobs WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(jobColumnNames).AddRow(jobRow(id, models.JobStatusReady, created)...))

	job, err := repo.GetJob(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusReady, job.Status)
	assert.Equal(t, []string{"question", "context"}, job.TextColumns)
	assert.Equal(t, map[string][]int{"input_ids": {1, 128}}, job.ShapeOverrides)
	assert.Equal(t, []models.InferencePlanEntry{{Batch: 2, Concurrency: 3}}, job.InferencePlan)
	assert.Nil(t, job.StartedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_GetJobNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	_, err := repo.GetJob(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	id := "6f1c2a9e-3d4b-4c5a-9e8f-1a2b3c4d5e6f"
	mock.ExpectQuery(`FROM profiling_jobs WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(jobColumnNames))

	_, err = repo.GetJob(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_UpdateJobStatus(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE profiling_jobs SET .* WHERE id = \$4 AND status = \$5`).
		WithArgs("running", 40, "Generating inputs.", "job-1", "running").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO job_events").
		WithArgs("job-1", "running", "running", 40, "Generating inputs.", "{}").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.UpdateJobStatus(context.Background(), "job-1", models.JobStatusRunning, models.JobStatusRunning, 40, "Generating inputs.", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_UpdateJobStatusGuard(t *testing.T) {
	repo, mock := newMockRepository(t)

	// The row moved on: no update and no event
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE profiling_jobs SET").
		WithArgs("ready", 100, "done", "job-1", "running").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateJobStatus(context.Background(), "job-1", models.JobStatusRunning, models.JobStatusReady, 100, "done", nil)
	assert.ErrorContains(t, err, "is not in status running")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_ListJobs(t *testing.T) {
	repo, mock := newMockRepository(t)
	ready := models.JobStatusReady
	cursor := "0a0a0a0a-0000-4000-8000-000000000000"
	now := time.Now()

	rows := sqlmock.NewRows(jobColumnNames).
		AddRow(jobRow("30000000-0000-4000-8000-000000000000", ready, now)...).
		AddRow(jobRow("20000000-0000-4000-8000-000000000000", ready, now.Add(-time.Minute))...).
		AddRow(jobRow("10000000-0000-4000-8000-000000000000", ready, now.Add(-2*time.Minute))...)
	mock.ExpectQuery(`WHERE TRUE AND status = \$1 AND \(created_at, id\) < \(SELECT created_at, id FROM profiling_jobs WHERE id = \$2\) ORDER BY created_at DESC, id DESC LIMIT \$3`).
		WithArgs("ready", cursor, 3).
		WillReturnRows(rows)

	jobs, next, err := repo.ListJobs(context.Background(), &ready, 2, cursor)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "20000000-0000-4000-8000-000000000000", next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_ListJobsLastPage(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`WHERE TRUE ORDER BY created_at DESC, id DESC LIMIT \$1`).
		WithArgs(51).
		WillReturnRows(sqlmock.NewRows(jobColumnNames).
			AddRow(jobRow("10000000-0000-4000-8000-000000000000", models.JobStatusPending, time.Now())...))

	jobs, next, err := repo.ListJobs(context.Background(), nil, 0, "")
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Empty(t, next)

	_, _, err = repo.ListJobs(context.Background(), nil, 10, "page-2")
	assert.ErrorContains(t, err, "invalid cursor")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_ListPendingJobs(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now()

	mock.ExpectQuery(`FROM profiling_jobs WHERE status = \$1 ORDER BY created_at`).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows(jobColumnNames).
			AddRow(jobRow("10000000-0000-4000-8000-000000000000", models.JobStatusPending, now.Add(-time.Minute))...).
			AddRow(jobRow("20000000-0000-4000-8000-000000000000", models.JobStatusPending, now)...))

	jobs, err := repo.ListPendingJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "10000000-0000-4000-8000-000000000000", jobs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
