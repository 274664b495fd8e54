// Package staging implements the first pipeline stage: verified copies of
// every unit's raw inputs into the run's staged-inputs folder, so later
// stages never touch the source location again.
package staging

import (
	"context"
	"log/slog"
	"os"

	"hifidel/internal/checkpoint"
	"hifidel/internal/fileutil"
	"hifidel/internal/logging"
	"hifidel/internal/run"
	"hifidel/internal/services"
	"hifidel/internal/stage"
)

// StageName is the fixed stage identifier.
const StageName = "stage-inputs"

// Stage copies raw inputs into the staging folder.
type Stage struct {
	logger *slog.Logger
}

// New constructs the staging stage.
func New(logger *slog.Logger) *Stage {
	return &Stage{logger: logging.NewComponentLogger(logger, StageName)}
}

func (s *Stage) Name() string { return StageName }

func (s *Stage) Marker(r *run.Run) checkpoint.Marker {
	return checkpoint.ForStage(r.StagingDir(), StageName)
}

// Execute stages every unit's BAM and sample sheet with hash-verified
// copies. The staging directory is fsynced before the runner writes the
// stage marker.
func (s *Stage) Execute(ctx context.Context, r *run.Run) error {
	if err := os.MkdirAll(r.StagingDir(), 0o755); err != nil {
		return services.Wrap(services.ErrMissingInput, StageName, "create staging dir", "", err)
	}

	err := stage.ForEachUnit(ctx, r, func(ctx context.Context, u *run.ProcessingUnit) error {
		logger := logging.WithContext(ctx, s.logger)

		if !fileutil.FileExists(u.BAM) {
			return services.Wrap(services.ErrMissingInput, StageName, u.Label,
				"input bam disappeared: "+u.BAM, nil)
		}
		if !fileutil.FileExists(u.SampleSheet) {
			return services.Wrap(services.ErrMissingInput, StageName, u.Label,
				"sample sheet disappeared: "+u.SampleSheet, nil)
		}

		logger.Info("staging unit inputs",
			logging.String("bam", u.BAM),
			logging.String("samplesheet", u.SampleSheet),
		)
		if err := fileutil.CopyFileVerified(u.BAM, r.StagedBAM(u.Label)); err != nil {
			return services.Wrap(services.ErrMissingInput, StageName, u.Label, "stage bam", err)
		}
		if err := fileutil.CopyFileVerified(u.SampleSheet, r.StagedSampleSheet(u.Label)); err != nil {
			return services.Wrap(services.ErrMissingInput, StageName, u.Label, "stage sample sheet", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return fileutil.SyncDir(r.StagingDir())
}
