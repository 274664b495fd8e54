package merge_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hifidel/internal/run"
	"hifidel/internal/services"
	"hifidel/internal/stages/merge"
	"hifidel/internal/testsupport"
)

func newTwoUnitRun(t *testing.T) *run.Run {
	t.Helper()

	cfg := testsupport.NewConfig(t,
		testsupport.WithUnit("unit01", []string{"bc2001--bc2001,Sample1"}),
		testsupport.WithUnit("unit02", []string{"bc2001--bc2001,Sample1", "bc2002--bc2002,Sample2"}),
	)
	r, err := run.New(cfg)
	if err != nil {
		t.Fatalf("run.New: %v", err)
	}
	return r
}

// seedUnitOutputs lays down the conversion, QC, and staged-input files the
// merge stage expects from earlier stages.
func seedUnitOutputs(t *testing.T, r *run.Run, unit string, fastq map[string]string) {
	t.Helper()

	for name, content := range fastq {
		testsupport.WriteContent(t, filepath.Join(r.FastqDir(unit), name), content)
	}
	testsupport.WriteContent(t, filepath.Join(r.QCDir(unit), "barcode_counts.png"), "png:"+unit)
	testsupport.WriteContent(t, r.StagedSampleSheet(unit), "Barcode,Bio Sample\nbc2001--bc2001,Sample1\n")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestExecuteMergesAcrossUnits(t *testing.T) {
	r := newTwoUnitRun(t)
	seedUnitOutputs(t, r, "unit01", map[string]string{"Sample1.fastq.gz": "unit01-reads"})
	seedUnitOutputs(t, r, "unit02", map[string]string{
		"Sample1.fastq.gz": "unit02-reads",
		"Sample2.fastq.gz": "only-unit02",
	})

	st := merge.New(nil)
	if err := st.Execute(context.Background(), r); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// Shared sample: concatenated in ascending unit order.
	merged := readFile(t, filepath.Join(r.DeliveryFastqDir(), "Sample1.fastq.gz"))
	if merged != "unit01-reads"+"unit02-reads" {
		t.Fatalf("concatenation out of order or lossy: %q", merged)
	}

	// Single contributor: byte-identical copy.
	single := readFile(t, filepath.Join(r.DeliveryFastqDir(), "Sample2.fastq.gz"))
	if single != "only-unit02" {
		t.Fatalf("single-unit copy altered: %q", single)
	}

	// QC artifacts and sheets are flattened with unit prefixes.
	if got := readFile(t, filepath.Join(r.DeliveryQCDir(), "unit01_barcode_counts.png")); got != "png:unit01" {
		t.Fatalf("qc artifact content = %q", got)
	}
	if got := readFile(t, filepath.Join(r.DeliveryQCDir(), "unit02_barcode_counts.png")); got != "png:unit02" {
		t.Fatalf("qc artifact content = %q", got)
	}
	for _, unit := range []string{"unit01", "unit02"} {
		sheet := filepath.Join(r.DeliverySheetsDir(), unit+"_"+unit+".csv")
		if _, err := os.Stat(sheet); err != nil {
			t.Fatalf("delivery sheet missing: %v", err)
		}
	}
}

func TestExecuteSkipsMarkerFiles(t *testing.T) {
	r := newTwoUnitRun(t)
	seedUnitOutputs(t, r, "unit01", map[string]string{"Sample1.fastq.gz": "a"})
	seedUnitOutputs(t, r, "unit02", map[string]string{"Sample1.fastq.gz": "b"})
	testsupport.WriteContent(t, filepath.Join(r.FastqDir("unit01"), ".convert-unit01.done"), "stamp")

	st := merge.New(nil)
	if err := st.Execute(context.Background(), r); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := os.Stat(filepath.Join(r.DeliveryFastqDir(), ".convert-unit01.done")); err == nil {
		t.Fatal("marker file leaked into delivery")
	}
}

func TestExecuteFailsWithoutConversionOutput(t *testing.T) {
	r := newTwoUnitRun(t)

	st := merge.New(nil)
	err := st.Execute(context.Background(), r)
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing-input error, got %v", err)
	}
}

func TestExecuteFailsWithoutQCArtifacts(t *testing.T) {
	r := newTwoUnitRun(t)
	for _, unit := range []string{"unit01", "unit02"} {
		testsupport.WriteContent(t, filepath.Join(r.FastqDir(unit), "Sample1.fastq.gz"), unit)
		testsupport.WriteContent(t, r.StagedSampleSheet(unit), "Barcode,Bio Sample\nbc2001--bc2001,Sample1\n")
	}

	st := merge.New(nil)
	err := st.Execute(context.Background(), r)
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing-input error for absent qc dir, got %v", err)
	}
}

func TestExecuteZeroUnitsIsNoOp(t *testing.T) {
	r := &run.Run{Name: "empty", OutputDir: t.TempDir()}
	st := merge.New(nil)
	if err := st.Execute(context.Background(), r); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := os.Stat(r.DeliveryDir()); !os.IsNotExist(err) {
		t.Fatal("zero-unit run must not create a delivery folder")
	}
}
