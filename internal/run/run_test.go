package run_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hifidel/internal/config"
	"hifidel/internal/run"
	"hifidel/internal/samplesheet"
	"hifidel/internal/services"
	"hifidel/internal/testsupport"
)

func TestNewLoadsUnitsInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithUnit("unit02", []string{"bc2003--bc2003,SampleB"}),
		testsupport.WithUnit("unit01", []string{"bc2001--bc2001,SampleA"}),
	)

	r, err := run.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(r.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(r.Units))
	}
	if r.Units[0].Label != "unit01" || r.Units[1].Label != "unit02" {
		t.Fatalf("units out of order: %q, %q", r.Units[0].Label, r.Units[1].Label)
	}
	if r.Units[0].Samples.Len() != 1 {
		t.Fatalf("sample table not loaded: %d rows", r.Units[0].Samples.Len())
	}

	unit, ok := r.Unit("unit02")
	if !ok || unit.Label != "unit02" {
		t.Fatalf("Unit(unit02) = %+v, %v", unit, ok)
	}
	if _, ok := r.Unit("unit99"); ok {
		t.Fatal("unknown label must not resolve")
	}
}

func TestNewFailsFastOnMissingBAM(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.Remove(cfg.Units["unit01"].BAM); err != nil {
		t.Fatalf("remove fixture bam: %v", err)
	}

	_, err := run.New(cfg)
	if err == nil {
		t.Fatal("expected error for missing input bam")
	}
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing-input error, got %v", err)
	}
}

func TestNewFailsFastOnMissingSampleSheet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Units["unit02"] = config.Unit{BAM: cfg.Units["unit01"].BAM}

	_, err := run.New(cfg)
	if err == nil {
		t.Fatal("expected error for unit without sample sheet")
	}
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing-input error, got %v", err)
	}
}

func TestNewPropagatesSheetValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sheet := cfg.Units["unit01"].SampleSheet
	testsupport.WriteContent(t, sheet, "Barcode,BioSample\nbc2001--bc2001,Sample1\n")

	_, err := run.New(cfg)
	if err == nil {
		t.Fatal("expected sheet validation error")
	}
	var verr *samplesheet.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *samplesheet.ValidationError, got %T: %v", err, err)
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation classification, got %v", err)
	}
}

func TestLayoutPaths(t *testing.T) {
	r := run.Run{Name: "r84096", OutputDir: "/out"}

	cases := []struct {
		got  string
		want string
	}{
		{r.StagingDir(), "/out/inputs"},
		{r.StagedBAM("unit01"), "/out/inputs/unit01.bam"},
		{r.StagedSampleSheet("unit01"), "/out/inputs/unit01.csv"},
		{r.DeconcatBAM("unit01"), "/out/unit01/deconcat/unit01.segmented.bam"},
		{r.DemuxPrefix("unit01"), "/out/unit01/demux/demuxed"},
		{r.DemuxCounts("unit01"), "/out/unit01/demux/demuxed.lima.counts"},
		{r.QCDir("unit01"), "/out/unit01/qc"},
		{r.FastqDir("unit01"), "/out/unit01/fastq"},
		{r.LogDir("unit01"), "/out/unit01/logs"},
		{r.DeliveryFastqDir(), "/out/delivery/fastq"},
		{r.DeliveryQCDir(), "/out/delivery/qc"},
		{r.DeliverySheetsDir(), "/out/delivery/samplesheets"},
		{r.ArchivePath(), "/out/r84096.tar.gz"},
		{r.ChecksumPath(), "/out/r84096.tar.gz.sha256"},
		{r.RunLogPath(), "/out/run.log"},
		{r.JournalPath(), "/out/journal.db"},
	}
	for _, tc := range cases {
		if tc.got != filepath.FromSlash(tc.want) {
			t.Fatalf("layout path = %q, want %q", tc.got, tc.want)
		}
	}
}
