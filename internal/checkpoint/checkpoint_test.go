package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMarkerLifecycle(t *testing.T) {
	dir := t.TempDir()
	marker := ForStage(dir, "demux")

	if marker.Path() != filepath.Join(dir, ".demux.done") {
		t.Fatalf("unexpected marker path %q", marker.Path())
	}
	if marker.Exists() {
		t.Fatal("marker must not exist before Complete")
	}

	if err := marker.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !marker.Exists() {
		t.Fatal("marker must exist after Complete")
	}

	content, err := os.ReadFile(marker.Path())
	if err != nil {
		t.Fatalf("read marker: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("marker file is empty")
	}

	if err := marker.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if marker.Exists() {
		t.Fatal("marker must not exist after Clear")
	}
	if err := marker.Clear(); err != nil {
		t.Fatalf("Clear must be idempotent: %v", err)
	}
}

func TestCompleteCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "stage")
	marker := ForStage(dir, "convert")

	if err := marker.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !marker.Exists() {
		t.Fatal("marker missing after Complete into fresh directory")
	}
}

func TestExistsIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	marker := ForStage(dir, "merge")
	if err := os.MkdirAll(marker.Path(), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if marker.Exists() {
		t.Fatal("a directory at the marker path must not count as complete")
	}
}
