package stage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hifidel/internal/logging"
	"hifidel/internal/run"
	"hifidel/internal/services"
)

// Recorder is the narrow journal surface the runner needs.
type Recorder interface {
	Record(ctx context.Context, runID, stage, unit, event, detail string) error
}

// Options controls runner construction.
type Options struct {
	Logger *slog.Logger
	// Journal receives stage lifecycle events; nil disables journaling.
	Journal Recorder
	// JournalRunID identifies the current invocation in the journal.
	JournalRunID string
}

// Runner executes an ordered stage list against a Run with checkpoint-skip
// semantics.
type Runner struct {
	logger       *slog.Logger
	journal      Recorder
	journalRunID string
}

// NewRunner constructs a stage runner.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		logger:       logger,
		journal:      opts.Journal,
		journalRunID: opts.JournalRunID,
	}
}

// Run drives the stages in order. A stage whose marker exists is skipped; a
// stage error aborts immediately and is returned to the caller, leaving
// earlier markers in place so a re-invocation retries only the failed stage.
func (rn *Runner) Run(ctx context.Context, r *run.Run, stages []Stage) error {
	for _, st := range stages {
		if err := rn.runStage(ctx, r, st); err != nil {
			return err
		}
	}
	return nil
}

func (rn *Runner) runStage(ctx context.Context, r *run.Run, st Stage) error {
	stageCtx := services.WithStage(ctx, st.Name())
	logger := logging.WithContext(stageCtx, rn.logger)

	marker := st.Marker(r)
	if marker.Exists() {
		logger.Info("stage already done, skipping",
			logging.String(logging.FieldEventType, "stage_skip"),
			logging.String("marker", marker.Path()),
		)
		rn.record(stageCtx, st.Name(), "", "skipped", "checkpoint marker present")
		return nil
	}

	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
	)
	rn.record(stageCtx, st.Name(), "", "started", "")

	started := time.Now()
	if err := st.Execute(stageCtx, r); err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("failure_class", services.Classify(err)),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		rn.record(stageCtx, st.Name(), "", "failed", err.Error())
		return err
	}

	if err := marker.Complete(); err != nil {
		logger.Error("stage marker write failed", logging.Error(err))
		return err
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	rn.record(stageCtx, st.Name(), "", "completed", "")
	return nil
}

// record journals an event on a best-effort basis; journal write failures
// must not abort a run that is otherwise succeeding.
func (rn *Runner) record(ctx context.Context, stage, unit, event, detail string) {
	if rn.journal == nil {
		return
	}
	if err := rn.journal.Record(ctx, rn.journalRunID, stage, unit, event, detail); err != nil {
		rn.logger.Debug("journal write failed", logging.Error(err))
	}
}

// IsFatal reports whether err belongs to the pipeline's fatal taxonomy.
// Every pipeline error is fatal; this exists so callers can distinguish
// taxonomy errors from plumbing errors when choosing an exit message.
func IsFatal(err error) bool {
	for _, marker := range []error{
		services.ErrConfig,
		services.ErrValidation,
		services.ErrMissingInput,
		services.ErrToolFailure,
		services.ErrUnresolvedSample,
		services.ErrArchive,
	} {
		if errors.Is(err, marker) {
			return true
		}
	}
	return false
}
