// Package bundle runs a profiling bundle job: it turns a text dataset into the
// binary input files a profiling harness consumes, then hands the resulting
// input mapping to the configuration and script generators.
//
// A job moves pending -> running -> ready or failed. Failed runs are not
// retried and their directories are left as they are; the next run of the
// same job resets them.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"profiling-bundler/core/dataset"
	"profiling-bundler/core/encoder"
	"profiling-bundler/core/generator"
	"profiling-bundler/core/introspect"
	"profiling-bundler/core/mapping"
	"profiling-bundler/core/models"
	"profiling-bundler/core/planner"
	"profiling-bundler/core/tokenizer"

	"github.com/rs/zerolog/log"
)

var (
	// ErrDatasetExhausted is returned when the dataset yields fewer samples than it reported
	ErrDatasetExhausted = errors.New("dataset yielded fewer samples than planned")
	// ErrInvalidTransition is returned when a job is moved to a status its current status does not allow
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// SyntheticSample is tokenized in place of real data when the dataset is empty
const SyntheticSample = "The quick brown fox jumps over the lazy dog."

const (
	generationProgress = 90
	configProgress     = 95
	scriptProgress     = 98
)

// Publisher receives a finished bundle before the job is marked ready
type Publisher interface {
	Publish(ctx context.Context, job *models.ProfilingJob, inputs *mapping.ProfilingInputFileMapping) error
}

// Deps are the collaborators of a run. Introspector, Tokenizer and Dataset
// are only needed when the job generates its own inputs.
type Deps struct {
	Introspector    introspect.Introspector
	Tokenizer       tokenizer.Tokenizer
	Dataset         dataset.TextDataset
	ConfigGenerator generator.ConfigGenerator
	ScriptGenerator generator.ScriptGenerator
	Notifier        Notifier
	Publisher       Publisher
}

// Job is a single run of a profiling bundle job. It is not safe for concurrent use.
type Job struct {
	record *models.ProfilingJob
	deps   Deps
	status models.JobStatus
	inputs *mapping.ProfilingInputFileMapping
}

// NewJob validates the collaborators and returns a pending run
func NewJob(record *models.ProfilingJob, deps Deps) (*Job, error) {
	if record == nil {
		return nil, errors.New("profiling job record is required")
	}
	if record.BundleDir == "" {
		return nil, fmt.Errorf("job %s has no bundle directory", record.ID)
	}
	if deps.ConfigGenerator == nil || deps.ScriptGenerator == nil {
		return nil, errors.New("configuration and script generators are required")
	}
	if !record.Autogenerated && (deps.Introspector == nil || deps.Tokenizer == nil || deps.Dataset == nil) {
		return nil, fmt.Errorf("job %s generates inputs and needs an introspector, a tokenizer and a dataset", record.ID)
	}
	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{}
	}

	status := record.Status
	if status == "" {
		status = models.JobStatusPending
	}
	return &Job{record: record, deps: deps, status: status}, nil
}

// Status returns the current status of the run
func (j *Job) Status() models.JobStatus {
	return j.status
}

// Inputs returns the generated input mapping; nil for autogenerated jobs or before generation finished
func (j *Job) Inputs() *mapping.ProfilingInputFileMapping {
	return j.inputs
}

// Run executes the job to a terminal state and returns the error that failed it
func (j *Job) Run(ctx context.Context) error {
	if err := j.transition(models.JobStatusRunning, 0, "Creating profiling bundle."); err != nil {
		if !errors.Is(err, ErrInvalidTransition) {
			j.fail(err)
		}
		return err
	}

	if err := j.run(ctx); err != nil {
		j.fail(err)
		return err
	}

	if err := j.transition(models.JobStatusReady, 100, "Profiling bundle creation successfully finished."); err != nil {
		j.fail(err)
		return err
	}
	j.deps.Notifier.Close()
	return nil
}

func (j *Job) run(ctx context.Context) error {
	if err := ResetDir(j.record.ScriptsDirPath()); err != nil {
		return err
	}

	var inputs *mapping.ProfilingInputFileMapping
	if !j.record.Autogenerated {
		var err error
		if inputs, err = j.generateInputs(ctx); err != nil {
			return err
		}
		j.inputs = inputs
	}

	if err := j.deps.ConfigGenerator.Generate(j.record, inputs); err != nil {
		return fmt.Errorf("profiling configuration: %w", err)
	}
	if err := j.progress(configProgress, "Profiling configuration created."); err != nil {
		return err
	}

	if err := j.deps.ScriptGenerator.Generate(j.record); err != nil {
		return fmt.Errorf("profiling script: %w", err)
	}
	if err := j.progress(scriptProgress, "Profiling script created."); err != nil {
		return err
	}

	if j.deps.Publisher != nil {
		if err := j.deps.Publisher.Publish(ctx, j.record, inputs); err != nil {
			return fmt.Errorf("publish bundle: %w", err)
		}
	}
	return nil
}

// generateInputs writes one file per model input for every generated index
func (j *Job) generateInputs(ctx context.Context) (*mapping.ProfilingInputFileMapping, error) {
	dir := j.record.BinaryDatasetDirPath()
	if err := ResetDir(dir); err != nil {
		return nil, err
	}

	specs, err := j.deps.Introspector.InputSpecs(ctx)
	if err != nil {
		return nil, fmt.Errorf("model inputs: %w", err)
	}

	capacity := j.deps.Dataset.SampleCount()
	count, err := planner.PlanCount(j.record.InferencePlan, capacity)
	if err != nil {
		return nil, err
	}

	adapter, err := tokenizer.NewAdapter(j.deps.Tokenizer, specs)
	if err != nil {
		return nil, err
	}

	samples, err := j.deps.Dataset.Features(count)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer samples.Close()

	enc := encoder.New(dir)
	inputs := mapping.New()
	lastProgress := 0
	for idx := 0; idx < count; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sample, err := nextSample(samples, idx, capacity)
		if err != nil {
			return nil, err
		}
		arrays, err := adapter.Tokenize(sample)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", idx, err)
		}

		for k, array := range arrays {
			path, err := enc.Encode(idx, array.Name, array.Values, specs[k].ElementType)
			if err != nil {
				return nil, err
			}
			inputs.AddInputFile(array.Name, path)
		}

		if p := (idx + 1) * generationProgress / count; p > lastProgress {
			lastProgress = p
			if err := j.progress(p, fmt.Sprintf("Generated input %d of %d.", idx+1, count)); err != nil {
				return nil, err
			}
		}
	}
	return inputs, nil
}

func nextSample(samples dataset.Iterator, idx, capacity int) ([]string, error) {
	if capacity == 0 {
		return []string{SyntheticSample}, nil
	}
	sample, err := samples.Next()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("sample %d: %w", idx, ErrDatasetExhausted)
	}
	if err != nil {
		return nil, fmt.Errorf("sample %d: %w", idx, err)
	}
	return sample, nil
}

func (j *Job) progress(progress int, msg string) error {
	return j.transition(models.JobStatusRunning, progress, msg)
}

func (j *Job) transition(to models.JobStatus, progress int, msg string) error {
	if !j.status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.status, to)
	}

	// The update is only applied once the notifier accepted it
	if err := j.deps.Notifier.Notify(StateUpdate{
		JobID:    j.record.ID,
		Status:   to,
		Progress: progress,
		Log:      msg,
	}); err != nil {
		return err
	}
	j.apply(to, progress, msg)
	return nil
}

func (j *Job) apply(to models.JobStatus, progress int, msg string) {
	now := time.Now()
	if to == models.JobStatusRunning && j.status != models.JobStatusRunning {
		j.record.StartedAt = &now
	}
	if to.IsTerminal() {
		j.record.CompletedAt = &now
	}
	j.status = to
	j.record.Status = to
	j.record.Progress = progress
	j.record.Message = msg
	j.record.UpdatedAt = now
}

// fail moves the job to failed; the directory is left as it is.
// A run always ends failed locally, even when the notifier rejects the update.
func (j *Job) fail(cause error) {
	if j.status.CanTransition(models.JobStatusFailed) {
		msg := fmt.Sprintf("Profiling bundle creation failed: %v", cause)
		if err := j.transition(models.JobStatusFailed, j.record.Progress, msg); err != nil {
			log.Error().Err(err).Str("job_id", j.record.ID).Msg("Failed to report job failure")
			j.apply(models.JobStatusFailed, j.record.Progress, msg)
		}
	}
	j.deps.Notifier.Close()
}
