// Package checkpoint implements the durable stage completion markers that
// make the pipeline resumable. A marker is a small file written under the
// stage's own output subtree, after everything else the stage produced is on
// disk; its presence means the stage (or per-unit sub-stage) finished and may
// be skipped on re-invocation.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hifidel/internal/fileutil"
)

// Marker is a typed completion marker keyed by stage name.
type Marker struct {
	path string
}

// ForStage returns the marker for a stage, placed inside that stage's output
// directory.
func ForStage(dir, stage string) Marker {
	return Marker{path: filepath.Join(dir, fmt.Sprintf(".%s.done", stage))}
}

// Path returns the marker file location.
func (m Marker) Path() string { return m.path }

// Exists reports whether the marker has been written.
func (m Marker) Exists() bool {
	info, err := os.Stat(m.path)
	return err == nil && info.Mode().IsRegular()
}

// Complete writes the marker and flushes both the file and its directory so
// the completion signal survives a crash. Callers must only invoke this
// after all of the stage's own outputs are durable; the marker is the last
// thing a stage writes.
func (m Marker) Complete() error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}

	stamp := time.Now().UTC().Format(time.RFC3339) + "\n"
	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("write marker %s: %w", m.path, err)
	}
	if _, err := f.WriteString(stamp); err != nil {
		f.Close()
		return fmt.Errorf("write marker %s: %w", m.path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync marker %s: %w", m.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close marker %s: %w", m.path, err)
	}
	return fileutil.SyncDir(dir)
}

// Clear removes the marker so a stage can be forced to re-run.
func (m Marker) Clear() error {
	err := os.Remove(m.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
