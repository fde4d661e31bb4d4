package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"profiling-bundler/core/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// JobRepository handles database operations for profiling jobs
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `
	id, name, model_path, tokenizer_path, dataset_path, text_columns, shape_overrides,
	autogenerated, inference_plan, device, bundle_dir, status, progress, message,
	spec_yaml, created_at, started_at, finished_at, updated_at`

// CreateJob inserts a new job; an empty ID is replaced by a fresh UUID
func (r *JobRepository) CreateJob(ctx context.Context, job *models.ProfilingJob) error {
	jobID := uuid.New()
	if job.ID != "" {
		var err error
		jobID, err = uuid.Parse(job.ID)
		if err != nil {
			return fmt.Errorf("invalid job id %q: %w", job.ID, err)
		}
	}
	if job.Status == "" {
		job.Status = models.JobStatusPending
	}

	overrides, err := json.Marshal(job.ShapeOverrides)
	if err != nil {
		return err
	}
	plan, err := json.Marshal(job.InferencePlan)
	if err != nil {
		return err
	}
	columns := job.TextColumns
	if columns == nil {
		columns = []string{}
	}

	now := time.Now()
	query := `
		INSERT INTO profiling_jobs (
			id, name, model_path, tokenizer_path, dataset_path, text_columns, shape_overrides,
			autogenerated, inference_plan, device, bundle_dir, status, progress, message,
			spec_yaml, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
	`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, query,
		jobID,
		job.Name,
		job.ModelPath,
		job.TokenizerPath,
		job.DatasetPath,
		pq.Array(columns),
		string(overrides),
		job.Autogenerated,
		string(plan),
		job.Device,
		job.BundleDir,
		job.Status,
		job.Progress,
		job.Message,
		job.SpecYAML,
		now,
		now,
	)
	if err != nil {
		return err
	}

	if err := createJobEventTx(ctx, tx, jobID.String(), nil, job.Status, 0, "job_created", nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	job.ID = jobID.String()
	job.CreatedAt = now
	job.UpdatedAt = now
	return nil
}

// GetJob retrieves a job by ID
func (r *JobRepository) GetJob(ctx context.Context, id string) (*models.ProfilingJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM profiling_jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return job, err
}

// UpdateJobStatus updates status and progress atomically with event logging
func (r *JobRepository) UpdateJobStatus(ctx context.Context, jobID string, fromStatus, toStatus models.JobStatus, progress int, reason string, meta map[string]interface{}) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updateQuery := `
		UPDATE profiling_jobs SET
			status = $1,
			progress = $2,
			message = $3,
			started_at = CASE WHEN $1 = 'running' AND started_at IS NULL THEN NOW() ELSE started_at END,
			finished_at = CASE WHEN $1 IN ('ready', 'failed') THEN NOW() ELSE finished_at END,
			updated_at = NOW()
		WHERE id = $4 AND status = $5
	`
	res, err := tx.ExecContext(ctx, updateQuery, toStatus, progress, reason, jobID, fromStatus)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job %s is not in status %s", jobID, fromStatus)
	}

	if err := createJobEventTx(ctx, tx, jobID, &fromStatus, toStatus, progress, reason, meta); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateJobEvent records an event without changing the job
func (r *JobRepository) CreateJobEvent(ctx context.Context, jobID string, fromStatus *models.JobStatus, toStatus models.JobStatus, reason string, meta map[string]interface{}) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := createJobEventTx(ctx, tx, jobID, fromStatus, toStatus, 0, reason, meta); err != nil {
		return err
	}
	return tx.Commit()
}

func createJobEventTx(ctx context.Context, tx *sql.Tx, jobID string, fromStatus *models.JobStatus, toStatus models.JobStatus, progress int, reason string, meta map[string]interface{}) error {
	query := `
		INSERT INTO job_events (job_id, from_status, to_status, progress, reason, meta_json)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var fromStatusStr *string
	if fromStatus != nil {
		s := string(*fromStatus)
		fromStatusStr = &s
	}

	metaJSON, err := marshalMeta(meta)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, jobID, fromStatusStr, toStatus, progress, reason, metaJSON)
	return err
}

// ListJobs lists jobs newest first. cursor is the ID of the last job of the previous page.
func (r *JobRepository) ListJobs(ctx context.Context, status *models.JobStatus, limit int, cursor string) ([]*models.ProfilingJob, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `SELECT ` + jobColumns + ` FROM profiling_jobs WHERE TRUE`
	var args []interface{}
	argIndex := 1

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}
	if cursor != "" {
		if _, err := uuid.Parse(cursor); err != nil {
			return nil, "", fmt.Errorf("invalid cursor %q", cursor)
		}
		query += fmt.Sprintf(" AND (created_at, id) < (SELECT created_at, id FROM profiling_jobs WHERE id = $%d)", argIndex)
		args = append(args, cursor)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var jobs []*models.ProfilingJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, "", err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(jobs) > limit {
		jobs = jobs[:limit]
		nextCursor = jobs[limit-1].ID
	}
	return jobs, nextCursor, nil
}

// CountByStatus returns the number of jobs per status
func (r *JobRepository) CountByStatus(ctx context.Context) (map[models.JobStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM profiling_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.JobStatus]int)
	for rows.Next() {
		var status models.JobStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ListPendingJobs returns pending jobs oldest first, used to requeue work after a restart
func (r *JobRepository) ListPendingJobs(ctx context.Context) ([]*models.ProfilingJob, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM profiling_jobs WHERE status = $1 ORDER BY created_at`, models.JobStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.ProfilingJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(s scanner) (*models.ProfilingJob, error) {
	var job models.ProfilingJob
	var columns pq.StringArray
	var overrides, plan []byte
	var startedAt, finishedAt sql.NullTime

	err := s.Scan(
		&job.ID,
		&job.Name,
		&job.ModelPath,
		&job.TokenizerPath,
		&job.DatasetPath,
		&columns,
		&overrides,
		&job.Autogenerated,
		&plan,
		&job.Device,
		&job.BundleDir,
		&job.Status,
		&job.Progress,
		&job.Message,
		&job.SpecYAML,
		&job.CreatedAt,
		&startedAt,
		&finishedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.TextColumns = []string(columns)
	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &job.ShapeOverrides); err != nil {
			return nil, fmt.Errorf("job %s: shape overrides: %w", job.ID, err)
		}
	}
	if len(plan) > 0 {
		if err := json.Unmarshal(plan, &job.InferencePlan); err != nil {
			return nil, fmt.Errorf("job %s: inference plan: %w", job.ID, err)
		}
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		job.CompletedAt = &finishedAt.Time
	}
	return &job, nil
}

func marshalMeta(meta map[string]interface{}) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode event metadata: %w", err)
	}
	return string(b), nil
}
