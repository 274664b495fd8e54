package testsupport

import (
	"path/filepath"
	"testing"

	"hifidel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test
// and one well-formed unit. It defaults common fields and applies any
// provided options. Unit input files are created on disk so Run construction
// succeeds.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Run.Name = "testrun"
	cfgVal.Run.InputDir = filepath.Join(base, "input")
	cfgVal.Run.OutputDir = filepath.Join(base, "output")
	cfgVal.Tools.MASAdapters = filepath.Join(base, "refs", "adapters.fasta")
	cfgVal.Tools.Barcodes = filepath.Join(base, "refs", "barcodes.fasta")
	cfgVal.Units = map[string]config.Unit{}

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}

	WriteFile(t, cfgVal.Tools.MASAdapters, 16)
	WriteFile(t, cfgVal.Tools.Barcodes, 16)

	for _, opt := range opts {
		opt(builder)
	}
	if len(builder.cfg.Units) == 0 {
		WithUnit("unit01", []string{"bc2001--bc2001,Sample1", "bc2002--bc2002,Sample2"})(builder)
	}

	return builder.cfg
}

// WithUnit adds one unit with an on-disk BAM fixture and a sample sheet
// built from the provided rows.
func WithUnit(key string, rows []string) ConfigOption {
	return func(b *configBuilder) {
		bam := filepath.Join(b.cfg.Run.InputDir, key+".bam")
		sheet := filepath.Join(b.cfg.Run.InputDir, key+".csv")
		WriteFile(b.t, bam, 64)
		WriteSampleSheet(b.t, sheet, rows)
		b.cfg.Units[key] = config.Unit{BAM: bam, SampleSheet: sheet}
	}
}

// WithRunName overrides the run identifier.
func WithRunName(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Run.Name = name
	}
}

// WithMaxParallelJobs overrides the conversion pool bound.
func WithMaxParallelJobs(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tools.MaxParallelJobs = n
	}
}
