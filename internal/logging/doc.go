// Package logging assembles the structured slog loggers used across the
// hifidel pipeline.
//
// It centralizes level and output plumbing (console vs JSON format, stdout
// plus the per-run log file) and exposes context-aware helpers so stage code
// automatically tags log lines with the run identifier, unit label, and stage
// name. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits log lines with the same shape and routing.
package logging
