package repository

import (
	"testing"
	"testing/fstest"

	"profiling-bundler/core/repository/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrationFiles(t *testing.T) {
	f := fstest.MapFS{
		"zzz.txt":              {Data: []byte("ignore")},
		"0002_indexes.sql":     {Data: []byte("--")},
		"0001_init.sql":        {Data: []byte("--")},
		"subdir/0003_more.sql": {Data: []byte("--")},
	}

	got, err := listMigrationFiles(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_indexes.sql"}, got)
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := listMigrationFiles(migrations.Files)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "0001_init.sql", files[0])

	data, err := migrations.Files.ReadFile(files[0])
	require.NoError(t, err)
	for _, table := range []string{"profiling_jobs", "job_events", "job_artifacts"} {
		assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestMarshalMeta(t *testing.T) {
	s, err := marshalMeta(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", s)

	s, err = marshalMeta(map[string]interface{}{"files": 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"files": 3}`, s)
}
