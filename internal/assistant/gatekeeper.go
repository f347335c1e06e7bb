package assistant

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/zapzap/zapzap-assist/internal/database"
)

// GateKeeper owns the per-contact assistant-enablement state machine with
// states active, disabled and paused-until. A contact with no stored state
// is treated as active.
type GateKeeper struct {
	store database.Store
	log   *slog.Logger

	// now is swappable so tests can control pause expiry.
	now func() time.Time
}

// NewGateKeeper creates a GateKeeper backed by the given store.
func NewGateKeeper(store database.Store, log *slog.Logger) *GateKeeper {
	if log == nil {
		log = slog.Default()
	}
	return &GateKeeper{
		store: store,
		log:   log.With("component", "gatekeeper"),
		now:   time.Now,
	}
}

// Allow reports whether the assistant may reply to the contact right now.
// A paused contact whose deadline has passed is auto-resumed to active
// before this returns true; the resume write is guarded so a concurrent
// control update is never clobbered. Store failures degrade to the
// no-state default, logged, so a flaky database never mutes the assistant.
func (g *GateKeeper) Allow(ctx context.Context, jid string) bool {
	state, err := g.store.GetAssistantState(ctx, jid)
	if err != nil {
		g.log.WarnContext(ctx, "Failed to load assistant state, treating as active", "jid", jid, "error", err)
		return true
	}
	if state == nil {
		return true
	}

	switch state.Mode {
	case database.ModeActive:
		return true
	case database.ModeDisabled:
		return false
	case database.ModePaused:
		if !state.PausedUntil.Valid || g.now().Before(state.PausedUntil.Time) {
			return false
		}
		// The pause is already expired, so the reply goes out even when the
		// resume write fails; the next message retries it.
		resumed, err := g.store.ResumeIfPaused(ctx, jid)
		if err != nil {
			g.log.WarnContext(ctx, "Failed to auto-resume contact", "jid", jid, "error", err)
			return true
		}
		if resumed {
			g.log.InfoContext(ctx, "Pause expired, assistant resumed", "jid", jid)
		}
		return true
	default:
		g.log.WarnContext(ctx, "Unknown assistant mode, treating as active", "jid", jid, "mode", state.Mode)
		return true
	}
}

// SetMode applies an external control input. Entering paused requires a
// positive duration and records until = now + duration; any other mode
// clears the deadline.
func (g *GateKeeper) SetMode(ctx context.Context, jid, mode string, pauseFor time.Duration) error {
	var pausedUntil sql.NullTime

	switch mode {
	case database.ModeActive, database.ModeDisabled:
	case database.ModePaused:
		if pauseFor <= 0 {
			return fmt.Errorf("pausing requires a positive duration")
		}
		pausedUntil = sql.NullTime{Time: g.now().Add(pauseFor), Valid: true}
	default:
		return fmt.Errorf("unknown assistant mode %q", mode)
	}

	if err := g.store.UpsertAssistantState(ctx, jid, mode, pausedUntil); err != nil {
		return fmt.Errorf("failed to store assistant state: %w", err)
	}

	g.log.InfoContext(ctx, "Assistant mode updated", "jid", jid, "mode", mode, "paused_until", pausedUntil.Time)
	return nil
}
