package spec

import (
	"os"
	"path/filepath"
	"testing"

	"profiling-bundler/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bertSpec = `
job:
  name: bert-squad
  model: models/bert.xml
  tokenizer: models/vocab.txt
  data:
    dataset: data/squad.csv
    columns: [question, context]
  shape_overrides:
    input_ids: [1, 128]
  device: gpu
  inferences:
    - batch: 2
      nireq: 3
    - batch: 4
      nireq: 4
`

func TestParseJobSpec(t *testing.T) {
	job, err := ParseJobSpec(bertSpec)
	require.NoError(t, err)

	assert.Equal(t, "bert-squad", job.Name)
	assert.Equal(t, "models/bert.xml", job.ModelPath)
	assert.Equal(t, []string{"question", "context"}, job.TextColumns)
	assert.Equal(t, map[string][]int{"input_ids": {1, 128}}, job.ShapeOverrides)
	assert.Equal(t, "GPU", job.Device)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, []models.InferencePlanEntry{{Batch: 2, Concurrency: 3}, {Batch: 4, Concurrency: 4}}, job.InferencePlan)
	assert.Equal(t, bertSpec, job.SpecYAML)
}

func TestParseJobSpec_Defaults(t *testing.T) {
	job, err := ParseJobSpec(`
job:
  model: /models/resnet.xml
  autogenerated: true
  inferences: [{batch: 1, nireq: 1}]
`)
	require.NoError(t, err)
	assert.Equal(t, "resnet", job.Name)
	assert.Equal(t, "CPU", job.Device)
	assert.True(t, job.Autogenerated)
}

func TestParseJobSpec_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"Malformed", "job: [unclosed"},
		{"NoModel", "job:\n  inferences: [{batch: 1, nireq: 1}]\n  autogenerated: true\n"},
		{"EmptyPlan", "job:\n  model: m.xml\n  autogenerated: true\n"},
		{"ZeroBatch", "job:\n  model: m.xml\n  autogenerated: true\n  inferences: [{batch: 0, nireq: 1}]\n"},
		{"NoTokenizer", "job:\n  model: m.xml\n  data: {dataset: d.csv}\n  inferences: [{batch: 1, nireq: 1}]\n"},
		{"NoDataset", "job:\n  model: m.xml\n  tokenizer: v.txt\n  inferences: [{batch: 1, nireq: 1}]\n"},
		{"TooManyColumns", "job:\n  model: m.xml\n  tokenizer: v.txt\n  data: {dataset: d.csv, columns: [a, b, c]}\n  inferences: [{batch: 1, nireq: 1}]\n"},
		{"BadOverride", "job:\n  model: m.xml\n  tokenizer: v.txt\n  data: {dataset: d.csv}\n  shape_overrides: {input_ids: [1, 0]}\n  inferences: [{batch: 1, nireq: 1}]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJobSpec(tt.yaml)
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}

func TestParseJobSpecFile_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(bertSpec), 0o644))

	job, err := ParseJobSpecFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "models", "bert.xml"), job.ModelPath)
	assert.Equal(t, filepath.Join(dir, "models", "vocab.txt"), job.TokenizerPath)
	assert.Equal(t, filepath.Join(dir, "data", "squad.csv"), job.DatasetPath)
}
