package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"hifidel/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Run identifies the sequencing run and its locations.
type Run struct {
	// Name is the movie/run identifier, used for the delivery archive name.
	Name string `toml:"name"`
	// InputDir is the base location raw inputs are read from.
	InputDir string `toml:"input_dir"`
	// OutputDir is the exclusive output tree for this run.
	OutputDir string `toml:"output_dir"`
}

// Unit pairs one barcoded input file with one sample-mapping file. Paths may
// be absolute or relative to run.input_dir.
type Unit struct {
	BAM         string `toml:"bam"`
	SampleSheet string `toml:"samplesheet"`
}

// Tools holds external tool binaries, reference files, and per-stage
// tunables.
type Tools struct {
	Skera     string `toml:"skera"`
	Lima      string `toml:"lima"`
	Bam2Fastq string `toml:"bam2fastq"`
	Report    string `toml:"report"`
	// MASAdapters is the adapter FASTA handed to the deconcatenation tool.
	MASAdapters string `toml:"mas_adapters"`
	// Barcodes is the barcode FASTA handed to the demultiplexer.
	Barcodes string `toml:"barcodes"`
	// Threads is passed to each external tool invocation.
	Threads int `toml:"threads"`
	// MaxParallelJobs bounds the conversion stage worker pool.
	MaxParallelJobs int `toml:"max_parallel_jobs"`
	// JobThreads is the per-conversion-job thread count.
	JobThreads int `toml:"job_threads"`
	// MinReportCount is the minimum barcode count threshold handed to the
	// QC report renderer.
	MinReportCount int `toml:"min_report_count"`
}

// Logging controls run log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for one hifidel run.
//
// Configuration sections:
//   - Run: run identity and input/output locations
//   - Units: map of unitNN tables, discovered dynamically
//   - Tools: external tool binaries and tunables
//   - Logging: run log level and format
type Config struct {
	Run     Run             `toml:"run"`
	Units   map[string]Unit `toml:"units"`
	Tools   Tools           `toml:"tools"`
	Logging Logging         `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hifidel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, services.Wrap(services.ErrConfig, "config", "open", resolvedPath, err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfig, "config", "parse", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hifidel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
