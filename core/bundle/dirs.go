package bundle

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResetDir replaces path with an empty directory. The empty directory is
// created next to path first and renamed into place once the old one is gone.
func ResetDir(path string) error {
	parent, base := filepath.Dir(path), filepath.Base(path)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", parent, err)
	}

	tmp, err := os.MkdirTemp(parent, "."+base+"-reset-*")
	if err != nil {
		return fmt.Errorf("failed to prepare %s: %w", path, err)
	}
	if err := os.Chmod(tmp, 0o755); err != nil {
		os.RemoveAll(tmp)
		return fmt.Errorf("failed to prepare %s: %w", path, err)
	}
	if err := os.RemoveAll(path); err != nil {
		os.RemoveAll(tmp)
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.RemoveAll(tmp)
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return nil
}
