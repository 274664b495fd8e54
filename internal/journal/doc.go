// Package journal persists a per-output-tree history of pipeline runs and
// stage events in SQLite. The journal is observational: checkpoint markers,
// not journal rows, decide what a resumed run skips. Its job is to answer
// "what happened, when, with which command line" for the status command and
// for operators diagnosing a failed run.
package journal
