// Package report invokes the external QC report renderer for one unit's
// demultiplexing counts. The renderer writes its artifact files into the
// current working directory, so every invocation runs in a private scratch
// directory and the caller relocates the produced artifacts. A renderer
// failure is fatal to the run: the QC artifact is a required deliverable,
// not a best-effort extra.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"hifidel/internal/services"
	"hifidel/internal/services/pbtools"
)

// Option configures the renderer client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec pbtools.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps the report renderer binary.
type Client struct {
	binary string
	exec   pbtools.Executor
}

// New constructs a renderer client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("report binary required")
	}
	client := &Client{binary: binary, exec: pbtools.CommandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Request describes one renderer invocation.
type Request struct {
	// Counts is the demultiplexer's per-barcode counts file.
	Counts string
	// SampleSheet is the unit's validated mapping file; the renderer takes
	// it twice, once as input and once for sample-name lookup.
	SampleSheet string
	// MinCount is the minimum barcode count threshold.
	MinCount int
	// Format selects the artifact output format (e.g. "png").
	Format string
	// Project labels the generated report.
	Project string
	// LogPath receives the renderer's combined output.
	LogPath string
}

// Render runs the renderer in a scratch directory and returns the artifact
// files it produced there. The caller owns relocating them; the scratch
// directory is removed once the returned paths have been moved.
func (c *Client) Render(ctx context.Context, req Request) (scratch string, artifacts []string, err error) {
	scratch, err = os.MkdirTemp("", "hifidel-report-")
	if err != nil {
		return "", nil, fmt.Errorf("create report scratch dir: %w", err)
	}

	cmd := pbtools.Command{
		Binary: c.binary,
		Args: []string{
			req.Counts,
			req.SampleSheet,
			"--min-count", strconv.Itoa(req.MinCount),
			"--format", req.Format,
			"--project", req.Project,
			req.SampleSheet,
		},
		Dir:     scratch,
		LogPath: req.LogPath,
	}
	if err := c.exec.Run(ctx, cmd); err != nil {
		_ = os.RemoveAll(scratch)
		return "", nil, services.Wrap(services.ErrToolFailure, c.binary, "render", req.Counts, err)
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		_ = os.RemoveAll(scratch)
		return "", nil, fmt.Errorf("scan report artifacts: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		artifacts = append(artifacts, filepath.Join(scratch, entry.Name()))
	}
	if len(artifacts) == 0 {
		_ = os.RemoveAll(scratch)
		return "", nil, services.Wrap(services.ErrToolFailure, c.binary, "render",
			"renderer produced no artifacts", nil)
	}
	return scratch, artifacts, nil
}
