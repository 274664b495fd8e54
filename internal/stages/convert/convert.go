// Package convert implements the conversion stage. Unlike the fan-out
// stages it is job-based: every demultiplexed file becomes one independent
// conversion job bound to a resolved sample name, and the jobs run under a
// worker pool bounded by the configured maximum concurrency. The stage is
// all-or-nothing per unit; a failing job fails the unit and therefore the
// run.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"hifidel/internal/checkpoint"
	"hifidel/internal/fileutil"
	"hifidel/internal/logging"
	"hifidel/internal/run"
	"hifidel/internal/samplesheet"
	"hifidel/internal/services"
	"hifidel/internal/services/pbtools"
	"hifidel/internal/stage"
)

// StageName is the fixed stage identifier.
const StageName = "convert"

// Job is one unit of conversion work: one demultiplexed file plus its
// resolved destination sample name. Jobs are derived, never persisted;
// they are generated fresh each run from whatever files exist in the
// demultiplexing output when the stage starts.
type Job struct {
	Unit    string
	Input   string
	Barcode string
	Sample  string
	Output  string
	Threads int
	LogPath string
}

// Stage converts each unit's demultiplexed files to per-sample FASTQ.
type Stage struct {
	tools  *pbtools.Client
	logger *slog.Logger
}

// New constructs the conversion stage.
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

// Execute builds and runs the job batch for every unit in order. The full
// job list for a unit is resolved before any job is dispatched, so an
// unresolvable barcode fails the run without producing output files.
func (s *Stage) Execute(ctx context.Context, r *run.Run) error {
	return stage.ForEachUnit(ctx, r, func(ctx context.Context, u *run.ProcessingUnit) error {
		logger := logging.WithContext(ctx, s.logger)

		sub := checkpoint.ForStage(r.FastqDir(u.Label), StageName+"-"+u.Label)
		if sub.Exists() {
			logger.Info("unit already converted, skipping",
				logging.String(logging.FieldEventType, "unit_skip"))
			return nil
		}

		jobs, err := s.buildJobs(r, u)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return services.Wrap(services.ErrMissingInput, StageName, u.Label,
				"no demultiplexed files found in "+r.DemuxDir(u.Label), nil)
		}

		logger.Info("running conversion job batch",
			logging.Int("jobs", len(jobs)),
			logging.Int("max_parallel", r.Tools.MaxParallelJobs),
		)
		if err := s.runPool(ctx, r.Tools.MaxParallelJobs, jobs); err != nil {
			return err
		}

		for _, job := range jobs {
			if err := fileutil.SyncFile(job.Output + ".fastq.gz"); err != nil {
				return services.Wrap(services.ErrToolFailure, StageName, u.Label,
					"sync converted output", err)
			}
		}
		return sub.Complete()
	})
}

// buildJobs enumerates a unit's demultiplexed files and resolves each one's
// embedded barcode-pair code against the unit's mapping table by exact key
// lookup. The resolved name is re-checked against the character whitelist
// before it is used as a path component, even though the validator already
// enforced it on the source file.
func (s *Stage) buildJobs(r *run.Run, u *run.ProcessingUnit) ([]Job, error) {
	prefix := filepath.Base(r.DemuxPrefix(u.Label)) + "."
	entries, err := os.ReadDir(r.DemuxDir(u.Label))
	if err != nil {
		return nil, services.Wrap(services.ErrMissingInput, StageName, u.Label,
			"scan demux output", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".bam") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	jobs := make([]Job, 0, len(names))
	for _, name := range names {
		code := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".bam")
		sample, ok := u.Samples.LookupSample(code)
		if !ok {
			return nil, services.Wrap(services.ErrUnresolvedSample, StageName, u.Label,
				fmt.Sprintf("barcode code %q from %s has no mapping-table row", code, name), nil)
		}
		if strings.TrimSpace(sample) == "" {
			return nil, services.Wrap(services.ErrUnresolvedSample, StageName, u.Label,
				fmt.Sprintf("barcode code %q resolves to an empty sample name", code), nil)
		}
		if !samplesheet.ValidSampleName(sample) {
			return nil, services.Wrap(services.ErrUnresolvedSample, StageName, u.Label,
				fmt.Sprintf("sample name %q for barcode %q fails the character whitelist", sample, code), nil)
		}
		jobs = append(jobs, Job{
			Unit:    u.Label,
			Input:   filepath.Join(r.DemuxDir(u.Label), name),
			Barcode: code,
			Sample:  sample,
			Output:  filepath.Join(r.FastqDir(u.Label), sample),
			Threads: r.Tools.JobThreads,
			LogPath: filepath.Join(r.LogDir(u.Label), "bam2fastq."+sample+".log"),
		})
	}
	return jobs, nil
}

// runPool executes the job list under a bounded worker pool. A failing job
// stops further dispatch but never kills in-flight siblings; the pool
// reports the first failure after every dispatched job has finished.
func (s *Stage) runPool(ctx context.Context, workers int, jobs []Job) error {
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	queue := make(chan Job)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				if err := s.runJob(ctx, job); err != nil {
					fail(err)
				}
			}
		}()
	}

	for _, job := range jobs {
		if failed() {
			break
		}
		queue <- job
	}
	close(queue)
	wg.Wait()

	return firstErr
}

func (s *Stage) runJob(ctx context.Context, job Job) error {
	jobCtx := services.WithUnit(ctx, job.Unit)
	logger := logging.WithContext(jobCtx, s.logger)
	logger.Info("converting demultiplexed file",
		logging.String("barcode", job.Barcode),
		logging.String("sample", job.Sample),
		logging.String("input", job.Input),
	)
	threads := job.Threads
	if threads < 1 {
		threads = 1
	}
	return s.tools.Convert(jobCtx, pbtools.ConvertRequest{
		Input:        job.Input,
		OutputPrefix: job.Output,
		Threads:      threads,
		LogPath:      job.LogPath,
	})
}
