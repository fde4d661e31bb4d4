package scheduler

import (
	"container/heap"
	"sync"

	"profiling-bundler/core/models"
)

// JobQueue is a priority queue of jobs, oldest first
type JobQueue struct {
	jobs   []*QueuedJob
	queued map[string]bool
	mu     sync.Mutex
}

// QueuedJob wraps a job with its position in the heap
type QueuedJob struct {
	Job   *models.ProfilingJob
	Index int // For heap.Interface
}

// NewJobQueue creates a new job queue
func NewJobQueue() *JobQueue {
	jq := &JobQueue{
		jobs:   make([]*QueuedJob, 0),
		queued: make(map[string]bool),
	}
	heap.Init(jq)
	return jq
}

// Enqueue adds a job to the queue; a job already queued is ignored
func (jq *JobQueue) Enqueue(job *models.ProfilingJob) bool {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	if jq.queued[job.ID] {
		return false
	}
	jq.queued[job.ID] = true
	heap.Push(jq, &QueuedJob{Job: job})
	return true
}

// PopJob removes and returns the oldest job, nil when empty
func (jq *JobQueue) PopJob() *models.ProfilingJob {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	if jq.Len() == 0 {
		return nil
	}

	item := heap.Pop(jq).(*QueuedJob)
	delete(jq.queued, item.Job.ID)
	return item.Job
}

// Size returns the number of queued jobs
func (jq *JobQueue) Size() int {
	jq.mu.Lock()
	defer jq.mu.Unlock()
	return len(jq.jobs)
}

// Len implements heap.Interface; callers hold the lock
func (jq *JobQueue) Len() int {
	return len(jq.jobs)
}

// Less orders by creation time, then ID
func (jq *JobQueue) Less(i, j int) bool {
	a, b := jq.jobs[i].Job, jq.jobs[j].Job
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Swap swaps two jobs
func (jq *JobQueue) Swap(i, j int) {
	jq.jobs[i], jq.jobs[j] = jq.jobs[j], jq.jobs[i]
	jq.jobs[i].Index = i
	jq.jobs[j].Index = j
}

// Push implements heap.Interface
func (jq *JobQueue) Push(x interface{}) {
	n := len(jq.jobs)
	item := x.(*QueuedJob)
	item.Index = n
	jq.jobs = append(jq.jobs, item)
}

// Pop implements heap.Interface
func (jq *JobQueue) Pop() interface{} {
	old := jq.jobs
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.Index = -1
	jq.jobs = old[0 : n-1]
	return item
}
