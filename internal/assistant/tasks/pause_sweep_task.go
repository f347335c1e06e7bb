package tasks

import (
	"context"
	"fmt"
	"time"
)

// newPauseSweepTask creates the scheduled task that resumes contacts whose
// pause deadline has passed. The inline auto-resume on inbound messages
// handles active conversations; this sweep covers contacts that stay silent
// past their deadline so the control surface reports them as active again.
func newPauseSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "pause_sweep")

	return func(ctx context.Context) error {
		resumed, err := deps.Store.ResumeExpiredPauses(ctx, time.Now())
		if err != nil {
			log.ErrorContext(ctx, "Pause sweep failed", "error", err)
			return fmt.Errorf("pause sweep failed: %w", err)
		}

		if resumed > 0 {
			log.InfoContext(ctx, "Resumed expired pauses", "contacts", resumed)
		}
		return nil
	}
}
