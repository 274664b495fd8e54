package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeRun(); err != nil {
		return err
	}
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeRun() error {
	var err error
	c.Run.Name = strings.TrimSpace(c.Run.Name)
	if c.Run.InputDir, err = expandPath(strings.TrimSpace(c.Run.InputDir)); err != nil {
		return fmt.Errorf("run.input_dir: %w", err)
	}
	if c.Run.OutputDir, err = expandPath(strings.TrimSpace(c.Run.OutputDir)); err != nil {
		return fmt.Errorf("run.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() error {
	var err error
	if c.Tools.MASAdapters, err = expandPath(strings.TrimSpace(c.Tools.MASAdapters)); err != nil {
		return fmt.Errorf("tools.mas_adapters: %w", err)
	}
	if c.Tools.Barcodes, err = expandPath(strings.TrimSpace(c.Tools.Barcodes)); err != nil {
		return fmt.Errorf("tools.barcodes: %w", err)
	}
	if strings.TrimSpace(c.Tools.Skera) == "" {
		c.Tools.Skera = defaultSkeraBinary
	}
	if strings.TrimSpace(c.Tools.Lima) == "" {
		c.Tools.Lima = defaultLimaBinary
	}
	if strings.TrimSpace(c.Tools.Bam2Fastq) == "" {
		c.Tools.Bam2Fastq = defaultBam2FastqBinary
	}
	if strings.TrimSpace(c.Tools.Report) == "" {
		c.Tools.Report = defaultReportBinary
	}
	if c.Tools.Threads <= 0 {
		c.Tools.Threads = defaultThreads
	}
	if c.Tools.MaxParallelJobs <= 0 {
		c.Tools.MaxParallelJobs = defaultMaxParallelJobs
	}
	if c.Tools.JobThreads <= 0 {
		c.Tools.JobThreads = defaultJobThreads
	}
	if c.Tools.MinReportCount < 0 {
		c.Tools.MinReportCount = defaultMinReportCount
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
}
