package run

import (
	"fmt"

	"hifidel/internal/config"
	"hifidel/internal/fileutil"
	"hifidel/internal/samplesheet"
	"hifidel/internal/services"
)

// ProcessingUnit is one barcoded data stream: one input BAM paired with one
// validated sample-mapping file.
type ProcessingUnit struct {
	// Label is the stable unit identifier (unit01, unit02, ...); it names
	// the unit's output subtree and prefixes its delivery artifacts.
	Label string
	// Index is the numeric suffix the label was derived from.
	Index int
	// BAM is the unit's raw input file.
	BAM string
	// SampleSheet is the unit's sample-mapping file.
	SampleSheet string
	// Samples is the parsed, validated mapping table.
	Samples *samplesheet.Table
}

// Run is the root aggregate for one pipeline invocation. It is built once by
// New and immutable afterwards.
type Run struct {
	// Name is the movie/run identifier.
	Name      string
	InputDir  string
	OutputDir string
	Tools     config.Tools
	Units     []ProcessingUnit
}

// New constructs a validated Run from configuration. Every discovered unit
// must have both files present and a structurally valid sample sheet; a unit
// missing either fails the whole run rather than being silently skipped.
func New(cfg *config.Config) (*Run, error) {
	discovered, err := cfg.DiscoverUnits()
	if err != nil {
		return nil, err
	}

	units := make([]ProcessingUnit, 0, len(discovered))
	for _, d := range discovered {
		if d.BAM == "" || !fileutil.FileExists(d.BAM) {
			return nil, services.Wrap(services.ErrMissingInput, "run", d.Label,
				fmt.Sprintf("input bam %q does not exist", d.BAM), nil)
		}
		if d.SampleSheet == "" || !fileutil.FileExists(d.SampleSheet) {
			return nil, services.Wrap(services.ErrMissingInput, "run", d.Label,
				fmt.Sprintf("sample sheet %q does not exist", d.SampleSheet), nil)
		}
		table, err := samplesheet.Load(d.SampleSheet)
		if err != nil {
			return nil, err
		}
		units = append(units, ProcessingUnit{
			Label:       d.Label,
			Index:       d.Index,
			BAM:         d.BAM,
			SampleSheet: d.SampleSheet,
			Samples:     table,
		})
	}

	return &Run{
		Name:      cfg.Run.Name,
		InputDir:  cfg.Run.InputDir,
		OutputDir: cfg.Run.OutputDir,
		Tools:     cfg.Tools,
		Units:     units,
	}, nil
}

// Unit returns the unit with the given label.
func (r *Run) Unit(label string) (*ProcessingUnit, bool) {
	for i := range r.Units {
		if r.Units[i].Label == label {
			return &r.Units[i], true
		}
	}
	return nil, false
}
