package generator

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"profiling-bundler/core/mapping"
	"profiling-bundler/core/models"
)

// ConfigGenerator writes the profiling configuration of a job
type ConfigGenerator interface {
	// Generate receives nil inputs for autogenerated jobs
	Generate(job *models.ProfilingJob, inputs *mapping.ProfilingInputFileMapping) error
}

// BenchmarkConfig is the profiling configuration consumed by the harness
type BenchmarkConfig struct {
	JobID         string                      `json:"job_id"`
	Model         string                      `json:"model"`
	Device        string                      `json:"device"`
	Inferences    []models.InferencePlanEntry `json:"inferences"`
	Autogenerated bool                        `json:"autogenerated"`
	// Inputs maps input names to files relative to the scripts directory; null when autogenerated
	Inputs *mapping.ProfilingInputFileMapping `json:"inputs"`
}

// BenchmarkConfigGenerator writes BenchmarkConfig as JSON to the job's configuration path
type BenchmarkConfigGenerator struct{}

// Generate implements ConfigGenerator
func (g *BenchmarkConfigGenerator) Generate(job *models.ProfilingJob, inputs *mapping.ProfilingInputFileMapping) error {
	config, err := g.Build(job, inputs)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profiling configuration: %w", err)
	}
	if err := writeFile(job.ConfigurationPath(), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write profiling configuration: %w", err)
	}
	return nil
}

// Build assembles the configuration without writing it
func (g *BenchmarkConfigGenerator) Build(job *models.ProfilingJob, inputs *mapping.ProfilingInputFileMapping) (*BenchmarkConfig, error) {
	if err := validateJob(job); err != nil {
		return nil, err
	}

	config := &BenchmarkConfig{
		JobID:         job.ID,
		Model:         job.ModelPath,
		Device:        deviceOrDefault(job.Device),
		Inferences:    job.InferencePlan,
		Autogenerated: job.Autogenerated,
	}
	if inputs == nil {
		return config, nil
	}

	relative := mapping.New()
	var relErr error
	inputs.Each(func(name string, files []string) {
		for _, file := range files {
			rel, err := filepath.Rel(job.ScriptsDirPath(), file)
			if err != nil {
				relErr = err
				rel = file
			}
			relative.AddInputFile(name, filepath.ToSlash(rel))
		}
	})
	if relErr != nil {
		return nil, fmt.Errorf("input file outside the bundle: %w", relErr)
	}
	config.Inputs = relative
	return config, nil
}

func deviceOrDefault(device string) string {
	if device == "" {
		return "CPU"
	}
	return device
}
