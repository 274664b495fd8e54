package report_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"hifidel/internal/services"
	"hifidel/internal/services/pbtools"
	"hifidel/internal/services/report"
	"hifidel/internal/testsupport"
)

func TestNewRequiresBinary(t *testing.T) {
	if _, err := report.New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRenderCollectsArtifacts(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{Handler: func(cmd pbtools.Command) error {
		testsupport.WriteContent(t, filepath.Join(cmd.Dir, "counts.png"), "png")
		testsupport.WriteContent(t, filepath.Join(cmd.Dir, "summary.png"), "png")
		return nil
	}}
	client, err := report.New("barcode-report", report.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := report.Request{
		Counts:      "/unit01/demux/demuxed.lima.counts",
		SampleSheet: "/out/inputs/unit01.csv",
		MinCount:    100,
		Format:      "png",
		Project:     "r1_unit01",
	}
	scratch, artifacts, err := client.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	defer os.RemoveAll(scratch)

	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %v", artifacts)
	}
	for _, artifact := range artifacts {
		if filepath.Dir(artifact) != scratch {
			t.Fatalf("artifact %q outside scratch %q", artifact, scratch)
		}
	}

	got := exec.Commands()[0]
	want := []string{
		req.Counts, req.SampleSheet,
		"--min-count", "100", "--format", "png", "--project", "r1_unit01",
		req.SampleSheet,
	}
	if got.Binary != "barcode-report" || !reflect.DeepEqual(got.Args, want) {
		t.Fatalf("command = %v %v, want barcode-report %v", got.Binary, got.Args, want)
	}
	if got.Dir != scratch {
		t.Fatalf("renderer ran in %q, want scratch %q", got.Dir, scratch)
	}
}

func TestRenderFailsWithoutArtifacts(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{}
	client, err := report.New("barcode-report", report.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, _, err = client.Render(context.Background(), report.Request{Format: "png"})
	if !errors.Is(err, services.ErrToolFailure) {
		t.Fatalf("expected tool failure, got %v", err)
	}
}

func TestRenderPropagatesToolFailure(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{Handler: func(cmd pbtools.Command) error {
		return errors.New("exit status 2")
	}}
	client, err := report.New("barcode-report", report.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, _, err = client.Render(context.Background(), report.Request{Format: "png"})
	if !errors.Is(err, services.ErrToolFailure) {
		t.Fatalf("expected tool failure, got %v", err)
	}
}
