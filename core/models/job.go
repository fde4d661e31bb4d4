package models

import (
	"path/filepath"
	"time"
)

// ProfilingJob represents a request to build a profiling bundle for a model
type ProfilingJob struct {
	ID             string
	Name           string
	ModelPath      string           // OpenVINO IR (.xml) or model description (.yaml)
	TokenizerPath  string           // WordPiece vocabulary file
	DatasetPath    string           // CSV/TSV text dataset
	TextColumns    []string         // Dataset columns forming one sample; empty means the first column
	ShapeOverrides map[string][]int // Concrete shapes for inputs with dynamic dimensions
	Autogenerated  bool             // Profiling harness synthesises its own inputs
	InferencePlan  []InferencePlanEntry
	Device         string // "CPU", "GPU"
	BundleDir      string // Root directory owned by this job
	Status         JobStatus
	Progress       int
	Message        string
	CreatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
	UpdatedAt      time.Time
	SpecYAML       string // Original spec for replay/debug
}

// InferencePlanEntry is one planned profiling run
type InferencePlanEntry struct {
	Batch       int `yaml:"batch" json:"batch"`
	Concurrency int `yaml:"nireq" json:"nireq"`
}

// Requests returns the number of distinct inputs a run of this entry consumes
func (e InferencePlanEntry) Requests() int {
	return e.Batch * e.Concurrency
}

// ScriptsDirPath is the directory holding everything the profiling harness consumes
func (j *ProfilingJob) ScriptsDirPath() string {
	return filepath.Join(j.BundleDir, "scripts")
}

// BinaryDatasetDirPath is the directory holding generated input tensors
func (j *ProfilingJob) BinaryDatasetDirPath() string {
	return filepath.Join(j.ScriptsDirPath(), "binary_dataset")
}

// ConfigurationPath is the profiling configuration file
func (j *ProfilingJob) ConfigurationPath() string {
	return filepath.Join(j.ScriptsDirPath(), "profiling_configuration.json")
}

// ScriptPath is the executable profiling script
func (j *ProfilingJob) ScriptPath() string {
	return filepath.Join(j.ScriptsDirPath(), "job_script.sh")
}

// JobStatus represents the current status of a profiling job
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusReady   JobStatus = "ready"
	JobStatusFailed  JobStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusReady || s == JobStatusFailed
}

// CanTransition reports whether s -> to is a valid lifecycle step.
// A failed job is restarted as a new job, never moved back to running.
func (s JobStatus) CanTransition(to JobStatus) bool {
	switch s {
	case JobStatusPending:
		return to == JobStatusRunning || to == JobStatusFailed
	case JobStatusRunning:
		return to == JobStatusRunning || to == JobStatusReady || to == JobStatusFailed
	default:
		return false
	}
}

// ParseJobStatus validates a status name
func ParseJobStatus(s string) (JobStatus, bool) {
	switch JobStatus(s) {
	case JobStatusPending, JobStatusRunning, JobStatusReady, JobStatusFailed:
		return JobStatus(s), true
	}
	return "", false
}
