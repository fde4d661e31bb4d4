package models

import "time"

// JobEvent represents a state transition or progress event for a job
type JobEvent struct {
	ID         int64
	JobID      string
	At         time.Time
	FromStatus *JobStatus
	ToStatus   JobStatus
	Progress   int
	Reason     string
	MetaJSON   map[string]interface{} // Additional metadata
}

// ArtifactType represents the type of job artifact
type ArtifactType string

const (
	ArtifactTypeInputFile     ArtifactType = "input_file"
	ArtifactTypeConfiguration ArtifactType = "configuration"
	ArtifactTypeScript        ArtifactType = "script"
	ArtifactTypeBundle        ArtifactType = "bundle"
)

// JobArtifact represents a file produced by a job (input tensor, configuration, script, published bundle)
type JobArtifact struct {
	ID        int64
	JobID     string
	Type      ArtifactType
	URI       string
	CreatedAt time.Time
	MetaJSON  map[string]interface{}
}
