// Package services defines shared utilities consumed by the pipeline stage
// implementations and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, unit labels, and stage names
//     for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the pipeline's fatal error taxonomy.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
