package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// EnsureDirectoryWritable verifies that path exists, is a directory, and
// can be probed for space. Returns an error otherwise.
func EnsureDirectoryWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("directory does not exist: %s", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	probe := filepath.Join(path, ".fieldlapse_write_test")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", path, err)
	}
	_ = f.Close()
	_ = os.Remove(probe)
	return nil
}

// TempDir owns a directory created under a job's temp-dir scope.
// Cleanup removes it and everything under it.
type TempDir struct {
	path string
}

// Path returns the directory's absolute path.
func (t *TempDir) Path() string { return t.path }

// Cleanup removes the temp directory and its contents.
func (t *TempDir) Cleanup() error {
	return os.RemoveAll(t.path)
}

// CreateTempDir creates a new uniquely-named subdirectory of baseDir with
// the given prefix, e.g. "<prefix>_<random>".
func CreateTempDir(baseDir, prefix string) (*TempDir, error) {
	suffix, err := generateRandomString(12)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(baseDir, prefix+"_"+suffix)
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir %s: %w", path, err)
	}
	return &TempDir{path: path}, nil
}

// TempFile owns a file created under a job's temp-dir scope.
type TempFile struct {
	path string
}

// Path returns the file's absolute path.
func (t *TempFile) Path() string { return t.path }

// Cleanup removes the temp file.
func (t *TempFile) Cleanup() error {
	err := os.Remove(t.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// CreateTempFile creates a new uniquely-named file in baseDir with the given
// prefix and extension, and opens (then closes) it so it exists on disk.
func CreateTempFile(baseDir, prefix, ext string) (*TempFile, error) {
	path, err := CreateTempFilePath(baseDir, prefix, ext)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file %s: %w", path, err)
	}
	_ = f.Close()
	return &TempFile{path: path}, nil
}

// CreateTempFilePath returns a uniquely-named path in baseDir without
// creating the file.
func CreateTempFilePath(baseDir, prefix, ext string) (string, error) {
	suffix, err := generateRandomString(12)
	if err != nil {
		return "", err
	}
	name := prefix + "_" + suffix
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	}
	return filepath.Join(baseDir, name), nil
}

// CleanupStaleTempFiles removes files and directories in dir whose name
// starts with prefix and whose modification time is older than maxAge —
// the leftovers of jobs that died before their deferred cleanup ran.
// Returns the count removed.
func CleanupStaleTempFiles(dir, prefix string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), prefix+"_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) || maxAge == 0 {
			path := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				err = os.RemoveAll(path)
			} else {
				err = os.Remove(path)
			}
			if err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// GetAvailableSpace returns free bytes on the filesystem containing path,
// or 0 if it cannot be determined.
func GetAvailableSpace(path string) uint64 {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0
	}
	return stat.Bavail * uint64(stat.Bsize)
}

// DiskSpaceLogger receives a warning message when available space runs low.
type DiskSpaceLogger func(format string, args ...any)

// CheckDiskSpace warns via logger (if non-nil) when available space on path
// drops below a safety floor, and returns the available bytes.
func CheckDiskSpace(path string, logger DiskSpaceLogger) uint64 {
	const lowSpaceFloor = 2 * GiB
	available := GetAvailableSpace(path)
	if available > 0 && available < lowSpaceFloor && logger != nil {
		logger("low disk space on %s: %s available", path, FormatBytes(available))
	}
	return available
}

func generateRandomString(n int) (string, error) {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random string: %w", err)
	}
	return hex.EncodeToString(buf)[:n], nil
}
