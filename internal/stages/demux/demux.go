// Package demux implements the demultiplexing stage: one external
// demultiplexer invocation per processing unit, followed by the QC report
// renderer for that unit's barcode counts. The renderer is a required
// deliverable; its failure fails the run exactly like a tool failure.
package demux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"hifidel/internal/checkpoint"
	"hifidel/internal/fileutil"
	"hifidel/internal/logging"
	"hifidel/internal/run"
	"hifidel/internal/services"
	"hifidel/internal/services/pbtools"
	"hifidel/internal/services/report"
	"hifidel/internal/stage"
)

// StageName is the fixed stage identifier.
const StageName = "demux"

// reportFormat is the artifact format requested from the renderer.
const reportFormat = "png"

// Stage demultiplexes each unit and renders its QC report.
type Stage struct {
	tools    *pbtools.Client
	renderer *report.Client
	logger   *slog.Logger
}

// New constructs the demultiplexing stage.
func New(tools *pbtools.Client, renderer *report.Client, logger *slog.Logger) *Stage {
	return &Stage{
		tools:    tools,
		renderer: renderer,
		logger:   logging.NewComponentLogger(logger, StageName),
	}
}

func (s *Stage) Name() string { return StageName }

func (s *Stage) Marker(r *run.Run) checkpoint.Marker {
	return checkpoint.ForStage(r.OutputDir, StageName)
}

// Execute demultiplexes every unit in order. Each unit requires the
// deconcatenated reads and the staged sample sheet; either missing fails the
// whole run rather than skipping the unit.
func (s *Stage) Execute(ctx context.Context, r *run.Run) error {
	return stage.ForEachUnit(ctx, r, func(ctx context.Context, u *run.ProcessingUnit) error {
		logger := logging.WithContext(ctx, s.logger)

		sub := checkpoint.ForStage(r.DemuxDir(u.Label), StageName+"-"+u.Label)
		if sub.Exists() {
			logger.Info("unit already demultiplexed, skipping",
				logging.String(logging.FieldEventType, "unit_skip"))
			return nil
		}

		input := r.DeconcatBAM(u.Label)
		if !fileutil.FileExists(input) {
			return services.Wrap(services.ErrMissingInput, StageName, u.Label,
				"deconcatenated bam not found: "+input, nil)
		}
		sheet := r.StagedSampleSheet(u.Label)
		if !fileutil.FileExists(sheet) {
			return services.Wrap(services.ErrMissingInput, StageName, u.Label,
				"staged sample sheet not found: "+sheet, nil)
		}

		req := pbtools.DemuxRequest{
			Input:        input,
			Barcodes:     r.Tools.Barcodes,
			OutputPrefix: r.DemuxPrefix(u.Label),
			Threads:      r.Tools.Threads,
			LogPath:      filepath.Join(r.LogDir(u.Label), "lima.log"),
		}
		logger.Info("demultiplexing unit",
			logging.String("input", req.Input),
			logging.String("output_prefix", req.OutputPrefix),
			logging.Int("threads", req.Threads),
		)
		if err := s.tools.Demux(ctx, req); err != nil {
			return err
		}

		if err := s.renderUnitReport(ctx, r, u, sheet, logger); err != nil {
			return err
		}

		if err := syncDemuxOutputs(r, u.Label); err != nil {
			return services.Wrap(services.ErrToolFailure, StageName, u.Label, "sync demux outputs", err)
		}
		return sub.Complete()
	})
}

// syncDemuxOutputs flushes every split file and the counts file, then the
// directory itself, so the unit's outputs are durable before its sub-marker
// is written.
func syncDemuxOutputs(r *run.Run, unit string) error {
	dir := r.DemuxDir(unit)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := fileutil.SyncFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return fileutil.SyncDir(dir)
}

// renderUnitReport runs the external renderer on the unit's counts file and
// relocates the produced artifacts into the unit's QC folder.
func (s *Stage) renderUnitReport(ctx context.Context, r *run.Run, u *run.ProcessingUnit, sheet string, logger *slog.Logger) error {
	counts := r.DemuxCounts(u.Label)
	if !fileutil.FileExists(counts) {
		return services.Wrap(services.ErrMissingInput, StageName, u.Label,
			"demultiplexer produced no counts file: "+counts, nil)
	}

	scratch, artifacts, err := s.renderer.Render(ctx, report.Request{
		Counts:      counts,
		SampleSheet: sheet,
		MinCount:    r.Tools.MinReportCount,
		Format:      reportFormat,
		Project:     fmt.Sprintf("%s_%s", r.Name, u.Label),
		LogPath:     filepath.Join(r.LogDir(u.Label), "report.log"),
	})
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	qcDir := r.QCDir(u.Label)
	if err := os.MkdirAll(qcDir, 0o755); err != nil {
		return services.Wrap(services.ErrToolFailure, StageName, u.Label, "create qc dir", err)
	}
	for _, artifact := range artifacts {
		dest := filepath.Join(qcDir, filepath.Base(artifact))
		if err := relocate(artifact, dest); err != nil {
			return services.Wrap(services.ErrToolFailure, StageName, u.Label,
				"relocate report artifact", err)
		}
		logger.Info("collected qc artifact", logging.String("artifact", dest))
	}
	return fileutil.SyncDir(qcDir)
}

// relocate moves a renderer artifact, falling back to copy+remove when the
// scratch directory is on a different filesystem.
func relocate(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrInvalid) && !isCrossDevice(err) {
		return err
	}
	if err := fileutil.CopyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	return errors.As(err, &linkErr)
}
