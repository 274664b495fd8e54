// Package merge implements the result-merging stage: per-unit conversion
// outputs are consolidated into one delivery folder. Files sharing a
// logical name across units are byte-concatenated in unit order (samples
// sequenced redundantly across units belong in one file; concatenation is
// valid for the gzip container used here), single-contributor files are
// copied, and auxiliary QC artifacts and sample sheets are collected flat
// with a unit-label prefix to avoid collisions.
package merge

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"hifidel/internal/checkpoint"
	"hifidel/internal/fileutil"
	"hifidel/internal/logging"
	"hifidel/internal/run"
	"hifidel/internal/services"
)

// StageName is the fixed stage identifier.
const StageName = "merge"

// Stage consolidates per-unit outputs into the delivery folder.
type Stage struct {
	logger *slog.Logger
}

// New constructs the merge stage.
func New(logger *slog.Logger) *Stage {
	return &Stage{logger: logging.NewComponentLogger(logger, StageName)}
}

func (s *Stage) Name() string { return StageName }

func (s *Stage) Marker(r *run.Run) checkpoint.Marker {
	return checkpoint.ForStage(r.DeliveryDir(), StageName)
}

// Execute merges FASTQ outputs, QC artifacts, and sample sheets. A run with
// zero units is a no-op.
func (s *Stage) Execute(ctx context.Context, r *run.Run) error {
	if len(r.Units) == 0 {
		return nil
	}

	if err := s.mergeFastq(ctx, r); err != nil {
		return err
	}
	if err := s.collectArtifacts(ctx, r); err != nil {
		return err
	}
	return fileutil.SyncDir(r.DeliveryDir())
}

// mergeFastq groups converted files by canonical name across units. One
// contributing unit means copy; two or more mean concatenation in unit
// order.
func (s *Stage) mergeFastq(ctx context.Context, r *run.Run) error {
	logger := logging.WithContext(ctx, s.logger)

	contributions := make(map[string][]string)
	var order []string
	for _, u := range r.Units {
		entries, err := os.ReadDir(r.FastqDir(u.Label))
		if err != nil {
			return services.Wrap(services.ErrMissingInput, StageName, u.Label,
				"scan conversion output", err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || name[0] == '.' {
				continue
			}
			if _, seen := contributions[name]; !seen {
				order = append(order, name)
			}
			contributions[name] = append(contributions[name], filepath.Join(r.FastqDir(u.Label), name))
		}
	}
	sort.Strings(order)

	destDir := r.DeliveryFastqDir()
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return services.Wrap(services.ErrToolFailure, StageName, "create delivery dir", "", err)
	}

	for _, name := range order {
		sources := contributions[name]
		dest := filepath.Join(destDir, name)
		switch len(sources) {
		case 1:
			logger.Info("copying single-unit sample file",
				logging.String("file", name))
			if err := fileutil.CopyFile(sources[0], dest); err != nil {
				return services.Wrap(services.ErrToolFailure, StageName, "copy "+name, "", err)
			}
		default:
			logger.Info("concatenating sample file across units",
				logging.String("file", name),
				logging.Int("contributors", len(sources)),
			)
			if err := fileutil.ConcatFiles(dest, sources); err != nil {
				return services.Wrap(services.ErrToolFailure, StageName, "concat "+name, "", err)
			}
		}
		if err := fileutil.SyncFile(dest); err != nil {
			return services.Wrap(services.ErrToolFailure, StageName, "sync "+name, "", err)
		}
	}
	return nil
}

// collectArtifacts flattens per-unit QC artifacts and sample sheets into the
// delivery folder, prefixing each filename with its originating unit label.
func (s *Stage) collectArtifacts(ctx context.Context, r *run.Run) error {
	logger := logging.WithContext(ctx, s.logger)

	qcDest := r.DeliveryQCDir()
	sheetDest := r.DeliverySheetsDir()
	for _, dir := range []string{qcDest, sheetDest} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrToolFailure, StageName, "create delivery dir", "", err)
		}
	}

	for _, u := range r.Units {
		entries, err := os.ReadDir(r.QCDir(u.Label))
		if err != nil {
			if os.IsNotExist(err) {
				return services.Wrap(services.ErrMissingInput, StageName, u.Label,
					"qc artifacts missing: "+r.QCDir(u.Label), nil)
			}
			return services.Wrap(services.ErrMissingInput, StageName, u.Label, "scan qc artifacts", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || entry.Name()[0] == '.' {
				continue
			}
			src := filepath.Join(r.QCDir(u.Label), entry.Name())
			dest := filepath.Join(qcDest, u.Label+"_"+entry.Name())
			if err := fileutil.CopyFile(src, dest); err != nil {
				return services.Wrap(services.ErrToolFailure, StageName, u.Label, "collect qc artifact", err)
			}
		}

		sheet := r.StagedSampleSheet(u.Label)
		dest := filepath.Join(sheetDest, u.Label+"_"+filepath.Base(u.SampleSheet))
		if err := fileutil.CopyFile(sheet, dest); err != nil {
			return services.Wrap(services.ErrToolFailure, StageName, u.Label, "collect sample sheet", err)
		}
		logger.Info("collected unit artifacts", logging.String(logging.FieldUnit, u.Label))
	}
	return nil
}
