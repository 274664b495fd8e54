package stage

import (
	"context"

	"hifidel/internal/run"
	"hifidel/internal/services"
)

// ForEachUnit applies fn to every processing unit in ascending label order,
// stamping the unit label into the context for logging. Units run
// sequentially; concurrency, where present, lives inside the external tool
// via its thread-count parameter. The first unit error aborts the fan-out so
// partial-unit delivery is never silently produced.
func ForEachUnit(ctx context.Context, r *run.Run, fn func(ctx context.Context, u *run.ProcessingUnit) error) error {
	for i := range r.Units {
		unit := &r.Units[i]
		unitCtx := services.WithUnit(ctx, unit.Label)
		if err := fn(unitCtx, unit); err != nil {
			return err
		}
	}
	return nil
}
