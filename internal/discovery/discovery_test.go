package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFindVideoFiles_SortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_second.mp4")
	writeFile(t, dir, "A_first.mkv")
	writeFile(t, dir, "notes.txt")
	writeFile(t, dir, ".hidden.mp4")
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := FindVideoFiles(dir)
	if err != nil {
		t.Fatalf("FindVideoFiles() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "A_first.mkv" || filepath.Base(files[1]) != "b_second.mp4" {
		t.Errorf("files not sorted case-insensitively: %v", files)
	}
}

func TestFindVideoFiles_EmptyDirErrors(t *testing.T) {
	if _, err := FindVideoFiles(t.TempDir()); err == nil {
		t.Error("expected an error for a directory with no video files")
	}
}

func TestFindVideoFiles_MissingDirErrors(t *testing.T) {
	if _, err := FindVideoFiles("/nonexistent/input/dir"); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

type recordingLogger struct {
	infos  int
	debugs int
}

func (r *recordingLogger) Info(format string, args ...any)  { r.infos++ }
func (r *recordingLogger) Debug(format string, args ...any) { r.debugs++ }

func TestFindVideoFilesWithLogging(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp4")
	writeFile(t, dir, "b.mp4")
	writeFile(t, dir, "skip.txt")

	logger := &recordingLogger{}
	result, err := FindVideoFilesWithLogging(dir, logger)
	if err != nil {
		t.Fatalf("FindVideoFilesWithLogging() error = %v", err)
	}
	if len(result.Files) != 2 {
		t.Errorf("got %d files, want 2", len(result.Files))
	}
	if result.SkippedCount != 1 {
		t.Errorf("SkippedCount = %d, want 1", result.SkippedCount)
	}
	if logger.infos == 0 {
		t.Error("expected at least one Info log line")
	}
}
