package generator

import (
	"fmt"
	"os"
	"path/filepath"

	"profiling-bundler/core/models"
)

// validateJob checks that a job carries what both generators need
func validateJob(job *models.ProfilingJob) error {
	if job == nil {
		return fmt.Errorf("nil profiling job")
	}
	if job.BundleDir == "" {
		return fmt.Errorf("job %s has no bundle directory", job.ID)
	}
	if job.ModelPath == "" {
		return fmt.Errorf("job %s has no model", job.ID)
	}
	if len(job.InferencePlan) == 0 {
		return fmt.Errorf("job %s has an empty inference plan", job.ID)
	}

	for i, entry := range job.InferencePlan {
		if entry.Batch <= 0 || entry.Concurrency <= 0 {
			return fmt.Errorf("inference %d has batch %d, nireq %d", i, entry.Batch, entry.Concurrency)
		}
	}

	return nil
}

// writeFile writes data atomically next to path
func writeFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
