// Package deconcat implements the deconcatenation stage: one external
// splitting-tool invocation per processing unit, fanned out sequentially in
// unit order with a durable sub-marker per unit.
package deconcat

import (
	"context"
	"log/slog"
	"path/filepath"

	"hifidel/internal/checkpoint"
	"hifidel/internal/fileutil"
	"hifidel/internal/logging"
	"hifidel/internal/run"
	"hifidel/internal/services"
	"hifidel/internal/services/pbtools"
	"hifidel/internal/stage"
)

// StageName is the fixed stage identifier.
const StageName = "deconcat"

// Stage deconcatenates each unit's staged reads.
type Stage struct {
	tools  *pbtools.Client
	logger *slog.Logger
}

// New constructs the deconcatenation stage.
func New(tools *pbtools.Client, logger *slog.Logger) *Stage {
	return &Stage{
		tools:  tools,
		logger: logging.NewComponentLogger(logger, StageName),
	}
}

func (s *Stage) Name() string { return StageName }

func (s *Stage) Marker(r *run.Run) checkpoint.Marker {
	return checkpoint.ForStage(r.OutputDir, StageName)
}

// Execute runs the splitting tool once per unit. A unit whose sub-marker
// exists is skipped, so a crash mid-stage resumes with only the unfinished
// units.
func (s *Stage) Execute(ctx context.Context, r *run.Run) error {
	return stage.ForEachUnit(ctx, r, func(ctx context.Context, u *run.ProcessingUnit) error {
		logger := logging.WithContext(ctx, s.logger)

		sub := checkpoint.ForStage(r.DeconcatDir(u.Label), StageName+"-"+u.Label)
		if sub.Exists() {
			logger.Info("unit already deconcatenated, skipping",
				logging.String(logging.FieldEventType, "unit_skip"))
			return nil
		}

		staged := r.StagedBAM(u.Label)
		if !fileutil.FileExists(staged) {
			return services.Wrap(services.ErrMissingInput, StageName, u.Label,
				"staged input bam not found: "+staged, nil)
		}

		req := pbtools.DeconcatRequest{
			Input:    staged,
			Adapters: r.Tools.MASAdapters,
			Output:   r.DeconcatBAM(u.Label),
			Threads:  r.Tools.Threads,
			LogPath:  filepath.Join(r.LogDir(u.Label), "skera.log"),
		}
		logger.Info("deconcatenating unit",
			logging.String("input", req.Input),
			logging.String("output", req.Output),
			logging.Int("threads", req.Threads),
		)
		if err := s.tools.Deconcat(ctx, req); err != nil {
			return err
		}
		if err := fileutil.SyncFile(req.Output); err != nil {
			return services.Wrap(services.ErrToolFailure, StageName, u.Label, "sync output", err)
		}
		return sub.Complete()
	})
}
