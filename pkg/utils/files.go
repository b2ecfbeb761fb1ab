package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MakeDir creates a directory with all parent directories
func MakeDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// MoveFile moves or renames a file
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move file from %s to %s: %w", src, dst, err)
	}
	return nil
}

// GenerateUUID returns a random RFC 4122 version 4 UUID.
func GenerateUUID() string {
	return uuid.NewString()
}

// TempPath returns a unique, not yet created path inside dir.
func TempPath(dir, prefix, ext string) string {
	return filepath.Join(dir, prefix+"-"+GenerateUUID()+ext)
}

// WriteFileAtomic writes data next to path and renames it into place, so a
// reader never sees a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := MakeDir(dir); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp := TempPath(dir, "."+filepath.Base(path), ".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := MoveFile(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
