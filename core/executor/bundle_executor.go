package executor

import (
	"context"
	"fmt"

	"profiling-bundler/core/bundle"
	"profiling-bundler/core/dataset"
	"profiling-bundler/core/generator"
	"profiling-bundler/core/introspect"
	"profiling-bundler/core/models"
	"profiling-bundler/core/tokenizer"

	"github.com/rs/zerolog/log"
)

// BundleExecutor runs profiling bundle jobs and persists their lifecycle
type BundleExecutor struct {
	store        bundle.StatusStore
	publisher    bundle.Publisher
	benchmarkApp string
}

// NewBundleExecutor creates a new bundle executor; store and publisher may be nil
func NewBundleExecutor(store bundle.StatusStore, publisher bundle.Publisher, benchmarkApp string) *BundleExecutor {
	return &BundleExecutor{
		store:        store,
		publisher:    publisher,
		benchmarkApp: benchmarkApp,
	}
}

// ExecuteJob runs a pending job to a terminal state
func (e *BundleExecutor) ExecuteJob(ctx context.Context, job *models.ProfilingJob) error {
	log.Info().Str("job_id", job.ID).Str("model", job.ModelPath).Msg("Executing profiling bundle job")

	// Status writes must land even when the run itself is cancelled
	storeCtx := context.WithoutCancel(ctx)

	deps, err := BuildDeps(job, e.benchmarkApp)
	if err != nil {
		e.failBeforeRun(storeCtx, job, err)
		return err
	}
	deps.Publisher = e.publisher

	notifiers := bundle.MultiNotifier{bundle.LogNotifier{}}
	var stored *bundle.StoreNotifier
	if e.store != nil {
		stored = bundle.NewStoreNotifier(storeCtx, e.store, job.Status)
		notifiers = append(notifiers, stored)
	}
	deps.Notifier = notifiers

	run, err := bundle.NewJob(job, deps)
	if err != nil {
		e.failBeforeRun(storeCtx, job, err)
		return err
	}

	runErr := run.Run(ctx)
	if runErr != nil && stored != nil && stored.Last() != models.JobStatusFailed {
		// The failed update did not reach the store; retry it from the last stored status
		e.markFailed(storeCtx, job.ID, stored.Last(), job.Progress, runErr)
	}
	return runErr
}

func (e *BundleExecutor) failBeforeRun(ctx context.Context, job *models.ProfilingJob, cause error) {
	log.Error().Err(cause).Str("job_id", job.ID).Msg("Failed to prepare profiling bundle job")
	if e.store == nil {
		return
	}
	e.markFailed(ctx, job.ID, job.Status, job.Progress, cause)
}

func (e *BundleExecutor) markFailed(ctx context.Context, jobID string, from models.JobStatus, progress int, cause error) {
	if !from.CanTransition(models.JobStatusFailed) {
		return
	}
	reason := fmt.Sprintf("Profiling bundle creation failed: %v", cause)
	if err := e.store.UpdateJobStatus(ctx, jobID, from, models.JobStatusFailed, progress, reason, map[string]interface{}{
		"error": cause.Error(),
	}); err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to update job status")
	}
}

// BuildDeps opens the model, tokenizer and dataset a job refers to and pairs them with
// the benchmark generators
func BuildDeps(job *models.ProfilingJob, benchmarkApp string) (bundle.Deps, error) {
	deps := bundle.Deps{
		ConfigGenerator: &generator.BenchmarkConfigGenerator{},
		ScriptGenerator: &generator.BenchmarkScriptGenerator{BenchmarkApp: benchmarkApp},
	}
	if job.Autogenerated {
		return deps, nil
	}

	introspector, err := introspect.ForModel(job.ModelPath, job.ShapeOverrides)
	if err != nil {
		return deps, err
	}
	tok, err := tokenizer.LoadWordPiece(job.TokenizerPath, true)
	if err != nil {
		return deps, err
	}
	data, err := dataset.OpenCSV(job.DatasetPath, job.TextColumns)
	if err != nil {
		return deps, fmt.Errorf("failed to open dataset: %w", err)
	}

	deps.Introspector = introspector
	deps.Tokenizer = tok
	deps.Dataset = data
	return deps, nil
}
