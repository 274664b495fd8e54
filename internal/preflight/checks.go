// Package preflight verifies a run's external requirements before the first
// stage executes: tool binaries resolvable, reference files readable, and
// the output location writable with enough free space. Failing preflight is
// a configuration problem, reported before any work starts.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"hifidel/internal/config"
	"hifidel/internal/services"
)

// Result captures one check outcome.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minFreeBytes is the free-space floor for the output filesystem. Long-read
// runs routinely produce tens of GiB of intermediates.
const minFreeBytes = 10 << 30

// CheckBinary verifies that a tool binary resolves via PATH (or is an
// existing absolute path).
func CheckBinary(name, binary string) Result {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return Result{Name: name, Detail: "binary not configured"}
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s not found in PATH", binary)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckFile verifies that a reference file exists and is readable.
func CheckFile(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s is not a regular file", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckOutputDir verifies that the output location exists (creating it when
// absent), is writable, and has enough free space.
func CheckOutputDir(path string) Result {
	const name = "output directory"
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: only %d GiB free)", path, free>>30)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d GiB free)", path, free>>30)}
}

// CheckAll runs every preflight check for the given configuration and
// returns the results plus a single error summarizing the first failure.
func CheckAll(cfg *config.Config) ([]Result, error) {
	results := []Result{
		CheckBinary("deconcatenation tool", cfg.Tools.Skera),
		CheckBinary("demultiplexer", cfg.Tools.Lima),
		CheckBinary("converter", cfg.Tools.Bam2Fastq),
		CheckBinary("report renderer", cfg.Tools.Report),
		CheckFile("adapter fasta", cfg.Tools.MASAdapters),
		CheckFile("barcode fasta", cfg.Tools.Barcodes),
		CheckOutputDir(filepath.Clean(cfg.Run.OutputDir)),
	}

	for _, res := range results {
		if !res.Passed {
			return results, services.Wrap(services.ErrConfig, "preflight", res.Name, res.Detail, nil)
		}
	}
	return results, nil
}
