// =============================================================================
// Sales Analytics - File Manager Utility
// =============================================================================
//
// This module provides the file helpers shared by the pipeline outputs:
//   - Directory management
//   - Atomic writes (temp file + rename in the same directory)
//   - Output path resolution
//
// WRITE STRATEGY:
//   - Every output is written to a hidden temp file next to its target
//   - The temp file is synced, closed, then renamed over the target
//   - A failed write leaves the previous output untouched
//
// =============================================================================

package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates dir and its parents if they don't exist.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// OutputPath joins name onto dir unless name is already absolute.
// An empty name yields an empty path, meaning "output disabled".
func OutputPath(dir, name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic writes whatever fill produces to path.
//
// PARAMETERS:
//   - path: The destination file. Its directory is created if needed.
//   - fill: Writes the file content. Returning an error aborts the write.
//
// RETURNS:
//   - An error if the content or the rename fails. The destination is
//     only replaced on success.
func WriteFileAtomic(path string, fill func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := fill(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	committed = true
	return nil
}

// WriteBytesAtomic writes data to path with WriteFileAtomic.
func WriteBytesAtomic(path string, data []byte) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
