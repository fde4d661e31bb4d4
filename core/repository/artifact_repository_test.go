package repository

import (
	"context"
	"testing"

	"profiling-bundler/core/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactRepository_ReplaceThenCreate(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	repo := NewArtifactRepository(&DB{DB: conn})

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM job_artifacts WHERE job_id = \$1`).
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	insert := mock.ExpectPrepare("INSERT INTO job_artifacts")
	insert.ExpectExec().
		WithArgs("job-1", "configuration", "/b/scripts/profiling_configuration.json", "{}").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectExec("INSERT INTO job_artifacts").
		WithArgs("job-1", "bundle", "s3://perf/job-1/", `{"dir":"/b/scripts"}`).
		WillReturnResult(sqlmock.NewResult(2, 1))

	ctx := context.Background()
	require.NoError(t, repo.ReplaceArtifacts(ctx, "job-1", []models.JobArtifact{
		{Type: models.ArtifactTypeConfiguration, URI: "/b/scripts/profiling_configuration.json"},
	}))
	require.NoError(t, repo.CreateArtifact(ctx, "job-1", models.ArtifactTypeBundle, "s3://perf/job-1/", map[string]interface{}{
		"dir": "/b/scripts",
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
