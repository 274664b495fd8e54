// Package stage defines the pipeline stage contract and the checkpointed
// runner that drives stages in their fixed order.
//
// Each stage owns a durable completion marker under its own output subtree.
// The runner skips any stage whose marker already exists, making the whole
// pipeline an idempotent operation that is safe to re-invoke after a crash.
// The first stage error aborts the run: no later stage executes and the
// failed stage's partial output is left on disk for inspection rather than
// rolled back.
package stage
