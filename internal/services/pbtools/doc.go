// Package pbtools wraps the external long-read processing tools
// (deconcatenation, demultiplexing, format conversion) behind a shared
// command Executor so stage logic stays testable without the real binaries.
//
// Each tool is a blocking subprocess; its combined output is captured to a
// per-invocation log file and a non-zero exit status is surfaced as a
// services.ErrToolFailure. The orchestrator imposes no timeouts of its own.
package pbtools
