package scheduler

import (
	"context"
	"sync"
	"time"

	"profiling-bundler/core/models"

	"github.com/rs/zerolog/log"
)

// JobSource provides the latest state of jobs
type JobSource interface {
	GetJob(ctx context.Context, id string) (*models.ProfilingJob, error)
	ListPendingJobs(ctx context.Context) ([]*models.ProfilingJob, error)
}

// Executor runs one job to a terminal state
type Executor interface {
	ExecuteJob(ctx context.Context, job *models.ProfilingJob) error
}

// Scheduler feeds queued jobs to a fixed pool of workers, one job per worker at a time
type Scheduler struct {
	jobs     JobSource
	executor Executor
	queue    *JobQueue
	workers  int
	interval time.Duration
	wake     chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(jobs JobSource, executor Executor, workers int) *Scheduler {
	if workers <= 0 {
		workers = 1
	}
	return &Scheduler{
		jobs:     jobs,
		executor: executor,
		queue:    NewJobQueue(),
		workers:  workers,
		interval: 5 * time.Second,
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start loads pending jobs and runs the workers until ctx is done or Stop is called.
// It returns once every worker has finished its current job.
func (s *Scheduler) Start(ctx context.Context) {
	defer close(s.done)
	s.loadPendingJobs(ctx)

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func(worker int) {
			defer s.wg.Done()
			s.work(ctx, worker)
		}(i)
	}
	s.wg.Wait()
}

// Stop stops the workers after their current job
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Done is closed when Start has returned
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Enqueue adds a job to the queue and wakes an idle worker
func (s *Scheduler) Enqueue(job *models.ProfilingJob) {
	if !s.queue.Enqueue(job) {
		return
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// QueueLength returns the number of jobs waiting for a worker
func (s *Scheduler) QueueLength() int {
	return s.queue.Size()
}

func (s *Scheduler) loadPendingJobs(ctx context.Context) {
	jobs, err := s.jobs.ListPendingJobs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load pending jobs")
		return
	}
	for _, job := range jobs {
		s.Enqueue(job)
	}
	if len(jobs) > 0 {
		log.Info().Int("jobs", len(jobs)).Msg("Requeued pending jobs")
	}
}

func (s *Scheduler) work(ctx context.Context, worker int) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.processQueue(ctx, worker)

		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-s.wake:
		case <-ticker.C:
		}
	}
}

// processQueue drains the queue until it is empty or the scheduler stops
func (s *Scheduler) processQueue(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		default:
		}

		job := s.queue.PopJob()
		if job == nil {
			return
		}

		// Re-fetch job to get latest state
		freshJob, err := s.jobs.GetJob(ctx, job.ID)
		if err != nil {
			log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to fetch job")
			continue
		}
		if freshJob.Status != models.JobStatusPending {
			continue
		}

		log.Info().Str("job_id", freshJob.ID).Int("worker", worker).Msg("Processing job")
		if err := s.executor.ExecuteJob(ctx, freshJob); err != nil {
			log.Warn().Err(err).Str("job_id", freshJob.ID).Msg("Job failed")
		}
	}
}
