package generator

import (
	"fmt"
	"path/filepath"
	"strings"

	"profiling-bundler/core/models"
)

// ScriptGenerator writes the executable profiling script of a job
type ScriptGenerator interface {
	Generate(job *models.ProfilingJob) error
}

// BenchmarkScriptGenerator writes a bash script running benchmark_app once per planned inference
type BenchmarkScriptGenerator struct {
	BenchmarkApp string // defaults to "benchmark_app"
}

// Generate implements ScriptGenerator
func (g *BenchmarkScriptGenerator) Generate(job *models.ProfilingJob) error {
	script, err := g.Script(job)
	if err != nil {
		return err
	}
	if err := writeFile(job.ScriptPath(), []byte(script), 0o755); err != nil {
		return fmt.Errorf("failed to write profiling script: %w", err)
	}
	return nil
}

// Script renders the profiling script
func (g *BenchmarkScriptGenerator) Script(job *models.ProfilingJob) (string, error) {
	if err := validateJob(job); err != nil {
		return "", err
	}

	app := g.BenchmarkApp
	if app == "" {
		app = "benchmark_app"
	}

	inputsFlag := ""
	if !job.Autogenerated {
		inputsFlag = fmt.Sprintf(" \\\n    -i %s", filepath.Base(job.BinaryDatasetDirPath()))
	}

	var runs []string
	for i, entry := range job.InferencePlan {
		run := fmt.Sprintf(`# Inference %d (batch %d, nireq %d)
REPORT_DIR="reports/b%d_nireq%d"
mkdir -p "$REPORT_DIR"
%s \
    -m "$MODEL_PATH" \
    -d %s \
    -b %d \
    -nireq %d%s \
    -report_type no_counters \
    -report_folder "$REPORT_DIR"
`, i, entry.Batch, entry.Concurrency, entry.Batch, entry.Concurrency, app,
			deviceOrDefault(job.Device), entry.Batch, entry.Concurrency, inputsFlag)
		runs = append(runs, run)
	}

	return fmt.Sprintf(`#!/bin/bash
set -e

# Profiling bundle for job %s
cd "$(dirname "$0")"

MODEL_PATH="${MODEL_PATH:-%s}"

%s`, job.ID, job.ModelPath, strings.Join(runs, "\n")), nil
}
