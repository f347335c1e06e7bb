package assistant

import (
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Background is a bounded pool for detached work such as contact-metadata
// refresh and audio-to-reply processing. Tasks run without blocking their
// trigger, failures are logged instead of propagated, and Wait gives
// shutdown a completion barrier instead of abandoning goroutines.
type Background struct {
	group *errgroup.Group
	log   *slog.Logger
}

// NewBackground creates a pool running at most limit tasks at once.
func NewBackground(limit int, log *slog.Logger) *Background {
	if log == nil {
		log = slog.Default()
	}
	group := new(errgroup.Group)
	if limit > 0 {
		group.SetLimit(limit)
	}
	return &Background{
		group: group,
		log:   log.With("component", "background"),
	}
}

// Launch schedules fn on the pool. When the pool is saturated the task is
// dropped with a warning; backpressure here is preferable to stalling the
// inbound event loop.
func (b *Background) Launch(name string, fn func() error) {
	started := b.group.TryGo(func() error {
		if err := fn(); err != nil {
			b.log.Warn("Background task failed", "task", name, "error", err)
		}
		return nil
	})
	if !started {
		b.log.Warn("Background pool saturated, task dropped", "task", name)
	}
}

// Wait blocks until every launched task has finished.
func (b *Background) Wait() {
	_ = b.group.Wait()
}
