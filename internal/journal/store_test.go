package journal

import (
	"context"
	"path/filepath"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	id, err := store.BeginRun(ctx, "r84096", "/out")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if id == "" {
		t.Fatal("empty run id")
	}

	latest, err := store.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest == nil || latest.ID != id || latest.Status != RunRunning {
		t.Fatalf("latest run = %+v", latest)
	}

	if err := store.FinishRun(ctx, id, RunCompleted); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	latest, err = store.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest.Status != RunCompleted || latest.FinishedAt == "" {
		t.Fatalf("finished run = %+v", latest)
	}
}

func TestRecordAndEventsForRun(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	id, err := store.BeginRun(ctx, "r1", "/out")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	seed := []struct {
		stage, unit, event, detail string
	}{
		{"stage-inputs", "", EventStarted, ""},
		{"stage-inputs", "", EventCompleted, ""},
		{"deconcat", "unit01", EventTool, "skera split ..."},
		{"deconcat", "", EventFailed, "skera exited 1"},
	}
	for _, e := range seed {
		if err := store.Record(ctx, id, e.stage, e.unit, e.event, e.detail); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	events, err := store.EventsForRun(ctx, id)
	if err != nil {
		t.Fatalf("EventsForRun: %v", err)
	}
	if len(events) != len(seed) {
		t.Fatalf("expected %d events, got %d", len(seed), len(events))
	}
	for i, want := range seed {
		got := events[i]
		if got.Stage != want.stage || got.Unit != want.unit || got.Event != want.event || got.Detail != want.detail {
			t.Fatalf("event %d = %+v, want %+v", i, got, want)
		}
		if got.CreatedAt == "" {
			t.Fatalf("event %d missing timestamp", i)
		}
	}

	// Events from another run stay isolated.
	other, err := store.BeginRun(ctx, "r2", "/out2")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	otherEvents, err := store.EventsForRun(ctx, other)
	if err != nil {
		t.Fatalf("EventsForRun: %v", err)
	}
	if len(otherEvents) != 0 {
		t.Fatalf("expected no events for fresh run, got %d", len(otherEvents))
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	first, err := store.BeginRun(ctx, "older", "/out")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	second, err := store.BeginRun(ctx, "newer", "/out")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	// Timestamps are RFC3339Nano, so ordering is stable even within a second.
	if runs[0].ID != second || runs[1].ID != first {
		t.Fatalf("runs out of order: %+v", runs)
	}
}

func TestLatestRunEmptyJournal(t *testing.T) {
	store := openStore(t)
	latest, err := store.LatestRun(context.Background())
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil for empty journal, got %+v", latest)
	}
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "journal.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if store.Path() != path {
		t.Fatalf("Path() = %q, want %q", store.Path(), path)
	}
}
