package stage

import (
	"context"

	"hifidel/internal/checkpoint"
	"hifidel/internal/run"
)

// Stage is one ordered pipeline step.
type Stage interface {
	// Name identifies the stage in logs, the journal, and its marker file.
	Name() string
	// Marker returns the stage's completion marker; the runner writes it
	// only after Execute returns successfully.
	Marker(r *run.Run) checkpoint.Marker
	// Execute performs the stage's work. All outputs (including per-unit
	// sub-markers) must be durable on disk before Execute returns nil.
	Execute(ctx context.Context, r *run.Run) error
}
