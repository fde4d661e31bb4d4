package spec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"profiling-bundler/core/models"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSpec wraps every validation failure of a job spec
var ErrInvalidSpec = errors.New("invalid job spec")

// JobSpec represents the YAML job specification
type JobSpec struct {
	Job JobSpecJob `yaml:"job"`
}

// JobSpecJob represents the job section of the spec
type JobSpecJob struct {
	Name           string                      `yaml:"name"`
	Model          string                      `yaml:"model"`
	Tokenizer      string                      `yaml:"tokenizer"`
	Data           JobSpecData                 `yaml:"data"`
	ShapeOverrides map[string][]int            `yaml:"shape_overrides"`
	Autogenerated  bool                        `yaml:"autogenerated"`
	Device         string                      `yaml:"device"`
	Inferences     []models.InferencePlanEntry `yaml:"inferences"`
}

// JobSpecData represents the text dataset
type JobSpecData struct {
	Dataset string   `yaml:"dataset"`
	Columns []string `yaml:"columns"` // One column, or two for sentence pairs
}

// ParseJobSpec parses a YAML job specification into a pending ProfilingJob.
// The bundle directory is left for the caller to assign.
func ParseJobSpec(specYAML string) (*models.ProfilingJob, error) {
	var spec JobSpec
	if err := yaml.Unmarshal([]byte(specYAML), &spec); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidSpec, err)
	}

	if err := validate(&spec.Job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	job := &models.ProfilingJob{
		Name:           spec.Job.Name,
		ModelPath:      spec.Job.Model,
		TokenizerPath:  spec.Job.Tokenizer,
		DatasetPath:    spec.Job.Data.Dataset,
		TextColumns:    spec.Job.Data.Columns,
		ShapeOverrides: spec.Job.ShapeOverrides,
		Autogenerated:  spec.Job.Autogenerated,
		InferencePlan:  spec.Job.Inferences,
		Device:         strings.ToUpper(spec.Job.Device),
		Status:         models.JobStatusPending,
		SpecYAML:       specYAML,
	}

	// Set defaults
	if job.Device == "" {
		job.Device = "CPU"
	}
	if job.Name == "" {
		job.Name = strings.TrimSuffix(filepath.Base(job.ModelPath), filepath.Ext(job.ModelPath))
	}

	return job, nil
}

// ParseJobSpecFile parses a spec file; relative paths in it are resolved against the file's directory
func ParseJobSpecFile(path string) (*models.ProfilingJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	job, err := ParseJobSpec(string(data))
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for _, p := range []*string{&job.ModelPath, &job.TokenizerPath, &job.DatasetPath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return job, nil
}

func validate(job *JobSpecJob) error {
	if job.Model == "" {
		return errors.New("job.model is required")
	}
	if len(job.Inferences) == 0 {
		return errors.New("job.inferences must list at least one inference")
	}
	for i, entry := range job.Inferences {
		if entry.Batch <= 0 || entry.Concurrency <= 0 {
			return fmt.Errorf("job.inferences[%d]: batch and nireq must be positive", i)
		}
	}

	if job.Autogenerated {
		return nil
	}
	if job.Tokenizer == "" {
		return errors.New("job.tokenizer is required unless inputs are autogenerated")
	}
	if job.Data.Dataset == "" {
		return errors.New("job.data.dataset is required unless inputs are autogenerated")
	}
	if len(job.Data.Columns) > 2 {
		return fmt.Errorf("job.data.columns: at most two columns form a sample, got %d", len(job.Data.Columns))
	}
	for name, shape := range job.ShapeOverrides {
		for _, d := range shape {
			if d <= 0 {
				return fmt.Errorf("job.shape_overrides.%s: dimensions must be positive", name)
			}
		}
	}
	return nil
}
