package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"hifidel/internal/config"
	"hifidel/internal/journal"
	"hifidel/internal/logging"
	"hifidel/internal/preflight"
	"hifidel/internal/run"
	"hifidel/internal/runlock"
	"hifidel/internal/services"
	"hifidel/internal/services/pbtools"
	"hifidel/internal/services/report"
	"hifidel/internal/stage"
	"hifidel/internal/stages/archive"
	"hifidel/internal/stages/convert"
	"hifidel/internal/stages/deconcat"
	"hifidel/internal/stages/demux"
	"hifidel/internal/stages/merge"
	"hifidel/internal/stages/staging"
)

func newRunCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute (or resume) the delivery pipeline",
		Long: "Runs every pipeline stage in order, skipping stages whose " +
			"checkpoint marker already exists. Safe to re-invoke after any " +
			"failure once the root cause is fixed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			return executeRun(cmd.Context(), cfg)
		},
	}
}

func executeRun(ctx context.Context, cfg *config.Config) error {
	// Preflight creates the output directory, so it runs before the run
	// log, lock, and journal are placed inside it.
	if _, err := preflight.CheckAll(cfg); err != nil {
		return err
	}

	logger, err := logging.ForRun(cfg.Logging.Level, cfg.Logging.Format, runLogPath(cfg))
	if err != nil {
		return fmt.Errorf("initialize run log: %w", err)
	}

	r, err := run.New(cfg)
	if err != nil {
		logger.Error("run validation failed", logging.Error(err))
		return err
	}

	lock, err := runlock.Acquire(r.LockPath())
	if err != nil {
		logger.Error("run lock unavailable", logging.Error(err))
		return err
	}
	defer lock.Release()

	store, err := journal.Open(r.JournalPath())
	if err != nil {
		logger.Error("journal unavailable", logging.Error(err))
		return err
	}
	defer store.Close()

	journalID, err := store.BeginRun(ctx, r.Name, r.OutputDir)
	if err != nil {
		return err
	}

	runCtx := services.WithRunID(ctx, journalID)
	runLogger := logging.WithContext(runCtx, logger)
	runLogger.Info("pipeline starting",
		logging.String("run", r.Name),
		logging.Int("units", len(r.Units)),
	)

	err = executeStages(runCtx, cfg, r, runLogger, store, journalID)

	status := journal.RunCompleted
	if err != nil {
		status = journal.RunFailed
	}
	if finishErr := store.FinishRun(runCtx, journalID, status); finishErr != nil {
		runLogger.Debug("journal finish failed", logging.Error(finishErr))
	}

	if err != nil {
		runLogger.Error("pipeline failed",
			logging.String("failure_class", services.Classify(err)),
			logging.Error(err),
		)
		return err
	}
	runLogger.Info("pipeline completed",
		logging.String("archive", r.ArchivePath()),
		logging.String("checksum", r.ChecksumPath()),
	)
	return nil
}

func executeStages(ctx context.Context, cfg *config.Config, r *run.Run, logger *slog.Logger, store *journal.Store, journalID string) error {
	tools, err := pbtools.New(cfg.Tools.Skera, cfg.Tools.Lima, cfg.Tools.Bam2Fastq)
	if err != nil {
		return services.Wrap(services.ErrConfig, "run", "tools", "", err)
	}
	renderer, err := report.New(cfg.Tools.Report)
	if err != nil {
		return services.Wrap(services.ErrConfig, "run", "report renderer", "", err)
	}

	runner := stage.NewRunner(stage.Options{
		Logger:       logger,
		Journal:      store,
		JournalRunID: journalID,
	})

	// Fixed stage order; stage N+1 never starts before stage N's marker is
	// durably written.
	stages := []stage.Stage{
		staging.New(logger),
		deconcat.New(tools, logger),
		demux.New(tools, renderer, logger),
		convert.New(tools, logger),
		merge.New(logger),
		archive.New(logger),
	}
	return runner.Run(ctx, r, stages)
}

func runLogPath(cfg *config.Config) string {
	r := run.Run{Name: cfg.Run.Name, OutputDir: cfg.Run.OutputDir}
	return r.RunLogPath()
}
