package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"profiling-bundler/core/mapping"
	"profiling-bundler/core/models"
)

// ArtifactStore persists the artifacts of a job
type ArtifactStore interface {
	ReplaceArtifacts(ctx context.Context, jobID string, artifacts []models.JobArtifact) error
	CreateArtifact(ctx context.Context, jobID string, artifactType models.ArtifactType, uri string, meta map[string]interface{}) error
	GetJobArtifacts(ctx context.Context, jobID string, artifactType *models.ArtifactType) ([]models.JobArtifact, error)
}

// DirUploader uploads a directory and returns its URI
type DirUploader interface {
	UploadDir(ctx context.Context, jobID, dir string) (string, error)
}

// BundleManager records the files of a finished bundle and optionally uploads them
type BundleManager struct {
	artifacts ArtifactStore
	uploader  DirUploader
}

// NewBundleManager creates a bundle manager; uploader may be nil
func NewBundleManager(artifacts ArtifactStore, uploader DirUploader) *BundleManager {
	return &BundleManager{
		artifacts: artifacts,
		uploader:  uploader,
	}
}

// Publish records every bundle file as an artifact, then uploads the scripts directory
// when an uploader is configured and records where it went. The local files stay
// recorded when the upload fails.
func (bm *BundleManager) Publish(ctx context.Context, job *models.ProfilingJob, inputs *mapping.ProfilingInputFileMapping) error {
	if bm.artifacts != nil {
		if err := bm.artifacts.ReplaceArtifacts(ctx, job.ID, BundleArtifacts(job, inputs)); err != nil {
			return fmt.Errorf("failed to record bundle artifacts: %w", err)
		}
	}
	if bm.uploader == nil {
		return nil
	}

	uri, err := bm.uploader.UploadDir(ctx, job.ID, job.ScriptsDirPath())
	if err != nil {
		return err
	}
	if bm.artifacts == nil {
		return nil
	}
	return bm.artifacts.CreateArtifact(ctx, job.ID, models.ArtifactTypeBundle, uri, map[string]interface{}{
		"dir": job.ScriptsDirPath(),
	})
}

// BundleArtifacts lists the files of a bundle: input files in mapping order, then configuration and script
func BundleArtifacts(job *models.ProfilingJob, inputs *mapping.ProfilingInputFileMapping) []models.JobArtifact {
	var artifacts []models.JobArtifact
	if inputs != nil {
		inputs.Each(func(name string, files []string) {
			for idx, file := range files {
				artifacts = append(artifacts, models.JobArtifact{
					JobID: job.ID,
					Type:  models.ArtifactTypeInputFile,
					URI:   file,
					MetaJSON: map[string]interface{}{
						"input": name,
						"index": idx,
					},
				})
			}
		})
	}

	artifacts = append(artifacts,
		models.JobArtifact{JobID: job.ID, Type: models.ArtifactTypeConfiguration, URI: job.ConfigurationPath()},
		models.JobArtifact{JobID: job.ID, Type: models.ArtifactTypeScript, URI: job.ScriptPath()},
	)
	return artifacts
}

// GetInputMapping rebuilds the input file mapping of a job from its recorded artifacts.
// It returns nil when the job recorded no input files.
func (bm *BundleManager) GetInputMapping(ctx context.Context, jobID string) (*mapping.ProfilingInputFileMapping, error) {
	inputType := models.ArtifactTypeInputFile
	artifacts, err := bm.artifacts.GetJobArtifacts(ctx, jobID, &inputType)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, nil
	}

	inputs := mapping.New()
	for _, artifact := range artifacts {
		name, ok := artifact.MetaJSON["input"].(string)
		if !ok {
			name = inputNameFromFile(artifact.URI)
		}
		if name == "" {
			return nil, fmt.Errorf("artifact %d of job %s has no input name", artifact.ID, jobID)
		}
		inputs.AddInputFile(name, artifact.URI)
	}
	return inputs, nil
}

// GetBundleURI returns the published location of a job's bundle, or "" when it was not uploaded
func (bm *BundleManager) GetBundleURI(ctx context.Context, jobID string) (string, error) {
	bundleType := models.ArtifactTypeBundle
	artifacts, err := bm.artifacts.GetJobArtifacts(ctx, jobID, &bundleType)
	if err != nil {
		return "", err
	}
	if len(artifacts) == 0 {
		return "", nil
	}
	return artifacts[len(artifacts)-1].URI, nil
}

// inputNameFromFile recovers "input_ids" from ".../input_ids_007.bin"
func inputNameFromFile(uri string) string {
	base := strings.TrimSuffix(filepath.Base(uri), filepath.Ext(uri))
	i := strings.LastIndex(base, "_")
	if i <= 0 {
		return ""
	}
	if _, err := strconv.Atoi(base[i+1:]); err != nil {
		return ""
	}
	return base[:i]
}
