package demux_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hifidel/internal/checkpoint"
	"hifidel/internal/fileutil"
	"hifidel/internal/run"
	"hifidel/internal/services"
	"hifidel/internal/services/pbtools"
	"hifidel/internal/services/report"
	"hifidel/internal/stages/demux"
	"hifidel/internal/testsupport"
)

func newDeconcatRun(t *testing.T) *run.Run {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithUnit("unit01", []string{"bc2001--bc2001,Sample1"}))
	r, err := run.New(cfg)
	if err != nil {
		t.Fatalf("run.New: %v", err)
	}
	for _, u := range r.Units {
		testsupport.WriteFile(t, r.DeconcatBAM(u.Label), 64)
		testsupport.WriteContent(t, r.StagedSampleSheet(u.Label), "Barcode,Bio Sample\nbc2001--bc2001,Sample1\n")
	}
	return r
}

// demuxHandler models both external tools: the demultiplexer emits split
// files plus the counts file, the renderer drops one artifact into its
// scratch working directory.
func demuxHandler(t *testing.T, renderArtifacts int) func(cmd pbtools.Command) error {
	return func(cmd pbtools.Command) error {
		switch cmd.Binary {
		case "lima":
			prefix := strings.TrimSuffix(cmd.Args[2], ".bam")
			testsupport.WriteContent(t, prefix+".bc2001--bc2001.bam", "demuxed")
			testsupport.WriteContent(t, prefix+".lima.counts", "IdxFirst\tIdxCombined\tCounts\n")
			return nil
		case "barcode-report":
			for i := 0; i < renderArtifacts; i++ {
				testsupport.WriteContent(t, filepath.Join(cmd.Dir, fmt.Sprintf("report_%d.png", i)), "png")
			}
			return nil
		default:
			return fmt.Errorf("unexpected binary %q", cmd.Binary)
		}
	}
}

func newStage(t *testing.T, exec pbtools.Executor) *demux.Stage {
	t.Helper()
	tools, err := pbtools.New("skera", "lima", "bam2fastq", pbtools.WithExecutor(exec))
	if err != nil {
		t.Fatalf("pbtools.New: %v", err)
	}
	renderer, err := report.New("barcode-report", report.WithExecutor(exec))
	if err != nil {
		t.Fatalf("report.New: %v", err)
	}
	return demux.New(tools, renderer, nil)
}

func TestExecuteDemultiplexesAndRendersReport(t *testing.T) {
	r := newDeconcatRun(t)
	exec := &testsupport.ScriptedExecutor{Handler: demuxHandler(t, 1)}
	st := newStage(t, exec)

	if err := st.Execute(context.Background(), r); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.CallCount() != 2 {
		t.Fatalf("expected demux + report invocations, got %d", exec.CallCount())
	}

	if !fileutil.FileExists(r.DemuxCounts("unit01")) {
		t.Fatal("counts file missing")
	}
	if !fileutil.FileExists(filepath.Join(r.QCDir("unit01"), "report_0.png")) {
		t.Fatal("qc artifact not relocated")
	}
	sub := checkpoint.ForStage(r.DemuxDir("unit01"), "demux-unit01")
	if !sub.Exists() {
		t.Fatal("sub-marker missing")
	}
}

func TestExecuteDurableOutputsBeforeMarker(t *testing.T) {
	r := newDeconcatRun(t)
	// A stray subdirectory in the demux output must not break the
	// per-file flush that precedes the sub-marker.
	if err := os.MkdirAll(filepath.Join(r.DemuxDir("unit01"), "scratch"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	exec := &testsupport.ScriptedExecutor{Handler: demuxHandler(t, 1)}
	st := newStage(t, exec)

	if err := st.Execute(context.Background(), r); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	sub := checkpoint.ForStage(r.DemuxDir("unit01"), "demux-unit01")
	if !sub.Exists() {
		t.Fatal("sub-marker missing after successful flush")
	}
}

func TestExecuteFailsWhenRendererProducesNothing(t *testing.T) {
	r := newDeconcatRun(t)
	exec := &testsupport.ScriptedExecutor{Handler: demuxHandler(t, 0)}
	st := newStage(t, exec)

	err := st.Execute(context.Background(), r)
	if !errors.Is(err, services.ErrToolFailure) {
		t.Fatalf("expected tool failure for artifact-less renderer, got %v", err)
	}
	sub := checkpoint.ForStage(r.DemuxDir("unit01"), "demux-unit01")
	if sub.Exists() {
		t.Fatal("marker written despite renderer failure")
	}
}

func TestExecuteFailsWithoutCountsFile(t *testing.T) {
	r := newDeconcatRun(t)
	exec := &testsupport.ScriptedExecutor{Handler: func(cmd pbtools.Command) error {
		// Demultiplexer succeeds but never writes the counts file.
		return nil
	}}
	st := newStage(t, exec)

	err := st.Execute(context.Background(), r)
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing-input error, got %v", err)
	}
}

func TestExecuteRequiresDeconcatenatedInput(t *testing.T) {
	r := newDeconcatRun(t)
	if err := os.Remove(r.DeconcatBAM("unit01")); err != nil {
		t.Fatalf("remove deconcat output: %v", err)
	}

	exec := &testsupport.ScriptedExecutor{}
	st := newStage(t, exec)

	err := st.Execute(context.Background(), r)
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing-input error, got %v", err)
	}
	if exec.CallCount() != 0 {
		t.Fatal("tool invoked without input")
	}
}

func TestExecuteSkipsCompletedUnit(t *testing.T) {
	r := newDeconcatRun(t)
	sub := checkpoint.ForStage(r.DemuxDir("unit01"), "demux-unit01")
	if err := sub.Complete(); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	exec := &testsupport.ScriptedExecutor{}
	st := newStage(t, exec)

	if err := st.Execute(context.Background(), r); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.CallCount() != 0 {
		t.Fatalf("completed unit re-demultiplexed: %d calls", exec.CallCount())
	}
}
