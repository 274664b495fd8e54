package pbtools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"hifidel/internal/services"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client invokes the external processing tools.
type Client struct {
	skera     string
	lima      string
	bam2fastq string
	exec      Executor
}

// New constructs a tool client from the configured binary names.
func New(skera, lima, bam2fastq string, opts ...Option) (*Client, error) {
	skera = strings.TrimSpace(skera)
	lima = strings.TrimSpace(lima)
	bam2fastq = strings.TrimSpace(bam2fastq)
	if skera == "" || lima == "" || bam2fastq == "" {
		return nil, errors.New("all tool binaries must be configured")
	}
	client := &Client{
		skera:     skera,
		lima:      lima,
		bam2fastq: bam2fastq,
		exec:      CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// DeconcatRequest describes one deconcatenation invocation.
type DeconcatRequest struct {
	Input    string
	Adapters string
	Output   string
	Threads  int
	LogPath  string
}

// Deconcat splits concatenated reads into segmented reads for one unit.
func (c *Client) Deconcat(ctx context.Context, req DeconcatRequest) error {
	if err := ensureOutputDir(req.Output); err != nil {
		return services.Wrap(services.ErrToolFailure, c.skera, "prepare output", "", err)
	}
	cmd := Command{
		Binary: c.skera,
		Args: []string{
			"split",
			req.Input,
			req.Adapters,
			req.Output,
			"--num-threads", strconv.Itoa(req.Threads),
			"--log-level", "INFO",
			"--log-file", req.LogPath,
		},
		LogPath: req.LogPath,
	}
	if err := c.exec.Run(ctx, cmd); err != nil {
		return services.Wrap(services.ErrToolFailure, c.skera, "split", req.Input, err)
	}
	if _, err := os.Stat(req.Output); err != nil {
		return services.Wrap(services.ErrToolFailure, c.skera, "split",
			fmt.Sprintf("produced no output at %s", req.Output), err)
	}
	return nil
}

// DemuxRequest describes one demultiplexing invocation.
type DemuxRequest struct {
	Input        string
	Barcodes     string
	OutputPrefix string
	Threads      int
	LogPath      string
}

// Demux splits a unit's segmented reads into one file per barcode pair,
// emitting <prefix>.<barcode-pair>.bam files plus a <prefix>.lima.counts
// file consumed by the QC report renderer.
func (c *Client) Demux(ctx context.Context, req DemuxRequest) error {
	output := req.OutputPrefix + ".bam"
	if err := ensureOutputDir(output); err != nil {
		return services.Wrap(services.ErrToolFailure, c.lima, "prepare output", "", err)
	}
	cmd := Command{
		Binary: c.lima,
		Args: []string{
			req.Input,
			req.Barcodes,
			output,
			"--split-bam-named",
			"--num-threads", strconv.Itoa(req.Threads),
			"--log-level", "INFO",
			"--log-file", req.LogPath,
		},
		LogPath: req.LogPath,
	}
	if err := c.exec.Run(ctx, cmd); err != nil {
		return services.Wrap(services.ErrToolFailure, c.lima, "demux", req.Input, err)
	}
	return nil
}

// ConvertRequest describes one conversion job invocation.
type ConvertRequest struct {
	Input        string
	OutputPrefix string
	Threads      int
	LogPath      string
}

// Convert turns one demultiplexed BAM into <prefix>.fastq.gz.
func (c *Client) Convert(ctx context.Context, req ConvertRequest) error {
	if err := ensureOutputDir(req.OutputPrefix); err != nil {
		return services.Wrap(services.ErrToolFailure, c.bam2fastq, "prepare output", "", err)
	}
	cmd := Command{
		Binary: c.bam2fastq,
		Args: []string{
			"-o", req.OutputPrefix,
			"-j", strconv.Itoa(req.Threads),
			req.Input,
		},
		LogPath: req.LogPath,
	}
	if err := c.exec.Run(ctx, cmd); err != nil {
		return services.Wrap(services.ErrToolFailure, c.bam2fastq, "convert", req.Input, err)
	}
	return nil
}

func ensureOutputDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
