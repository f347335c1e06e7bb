// Package tasks implements the scheduled maintenance tasks: database upkeep
// and the sweep that resumes expired assistant pauses.
package tasks

import (
	"context"
	"log/slog"

	"github.com/zapzap/zapzap-assist/internal/database"
)

// ScheduledTaskFunc is the signature every scheduled task implements. The
// context comes from the scheduler and should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// TaskDeps carries the dependencies available to scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
}

// RegisterAllTasks builds the task registry. Map keys match the task names
// used in the scheduler configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	registry := map[string]ScheduledTaskFunc{
		"sql_maintenance": newSQLMaintenanceTask(deps),
		"pause_sweep":     newPauseSweepTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(registry))
	return registry
}
