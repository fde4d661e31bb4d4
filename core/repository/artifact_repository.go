package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"profiling-bundler/core/models"
)

// ArtifactRepository handles database operations for job artifacts
type ArtifactRepository struct {
	db *DB
}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(db *DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// GetJobArtifacts retrieves artifacts for a job, optionally of a single type
func (r *ArtifactRepository) GetJobArtifacts(ctx context.Context, jobID string, artifactType *models.ArtifactType) ([]models.JobArtifact, error) {
	query := `
		SELECT id, job_id, type, uri, created_at, meta_json
		FROM job_artifacts
		WHERE job_id = $1
	`
	args := []interface{}{jobID}
	argIndex := 2

	if artifactType != nil {
		query += fmt.Sprintf(" AND type = $%d", argIndex)
		args = append(args, *artifactType)
	}

	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []models.JobArtifact
	for rows.Next() {
		var artifact models.JobArtifact
		var metaJSON []byte

		err := rows.Scan(
			&artifact.ID,
			&artifact.JobID,
			&artifact.Type,
			&artifact.URI,
			&artifact.CreatedAt,
			&metaJSON,
		)
		if err != nil {
			return nil, err
		}

		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &artifact.MetaJSON); err != nil {
				return nil, err
			}
		}

		artifacts = append(artifacts, artifact)
	}

	return artifacts, rows.Err()
}

// ReplaceArtifacts swaps every artifact of a job for the given set in one transaction
func (r *ArtifactRepository) ReplaceArtifacts(ctx context.Context, jobID string, artifacts []models.JobArtifact) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_artifacts WHERE job_id = $1`, jobID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO job_artifacts (job_id, type, uri, meta_json, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range artifacts {
		metaJSON, err := marshalMeta(a.MetaJSON)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, jobID, a.Type, a.URI, metaJSON); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CreateArtifact creates a new artifact record
func (r *ArtifactRepository) CreateArtifact(ctx context.Context, jobID string, artifactType models.ArtifactType, uri string, meta map[string]interface{}) error {
	metaJSON, err := marshalMeta(meta)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO job_artifacts (job_id, type, uri, meta_json, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	_, err = r.db.ExecContext(ctx, query, jobID, artifactType, uri, metaJSON)
	return err
}
