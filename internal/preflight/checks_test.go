package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hifidel/internal/services"
	"hifidel/internal/testsupport"
)

func TestCheckBinary(t *testing.T) {
	if res := CheckBinary("shell", "sh"); !res.Passed {
		t.Fatalf("sh should resolve: %+v", res)
	}
	if res := CheckBinary("missing", "hifidel-no-such-tool"); res.Passed {
		t.Fatalf("nonexistent binary must fail: %+v", res)
	}
	if res := CheckBinary("blank", "  "); res.Passed {
		t.Fatalf("unconfigured binary must fail: %+v", res)
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "barcodes.fasta")
	if err := os.WriteFile(path, []byte(">bc2001\nACGT\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if res := CheckFile("barcodes", path); !res.Passed {
		t.Fatalf("readable file must pass: %+v", res)
	}
	if res := CheckFile("barcodes", filepath.Join(dir, "absent")); res.Passed {
		t.Fatalf("missing file must fail: %+v", res)
	}
	if res := CheckFile("barcodes", dir); res.Passed {
		t.Fatalf("directory must fail: %+v", res)
	}
	if res := CheckFile("barcodes", ""); res.Passed {
		t.Fatalf("unconfigured path must fail: %+v", res)
	}
}

func TestCheckOutputDirCreatesMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh", "out")
	res := CheckOutputDir(path)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output dir not created: %v", err)
	}
	// Free-space verdicts depend on the host filesystem; only the creation
	// side effect is asserted unconditionally.
	if !res.Passed && res.Detail == "" {
		t.Fatalf("failed result carries no detail: %+v", res)
	}
}

func TestCheckAllReportsFirstFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Tools.Skera = "hifidel-no-such-tool"

	results, err := CheckAll(cfg)
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	if !errors.Is(err, services.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if len(results) == 0 || results[0].Passed {
		t.Fatalf("first result should be the failing binary check: %+v", results)
	}
}
