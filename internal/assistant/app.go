// Package assistant implements the conversational core: event
// classification, per-contact gating, context assembly, reply formatting and
// paced delivery, plus the orchestrator tying them to the transport, the
// scheduler and the control surface.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/zapzap/zapzap-assist/internal/whatsapp"
)

// errStreamClosed unwinds the group when the transport closes its event
// stream. The stream only closes on deliberate teardown (logout), so it is
// a clean stop, not a failure.
var errStreamClosed = errors.New("transport event stream closed")

// Runner is a long-lived component driven by the orchestrator, typically the
// HTTP control surface.
type Runner interface {
	Run(ctx context.Context) error
}

// App owns the application lifecycle: the inbound event loop, the scheduler
// and the control surface start together and shut down together.
type App struct {
	logger     *slog.Logger
	handler    *Handler
	receiver   whatsapp.Receiver
	scheduler  *Scheduler
	control    Runner
	background *Background
}

// NewApp wires the orchestrator. The control runner may be nil when the HTTP
// surface is disabled.
func NewApp(logger *slog.Logger, handler *Handler, receiver whatsapp.Receiver, scheduler *Scheduler, control Runner, background *Background) *App {
	return &App{
		logger:     logger.With("component", "orchestrator"),
		handler:    handler,
		receiver:   receiver,
		scheduler:  scheduler,
		control:    control,
		background: background,
	}
}

// Run starts every component and blocks until shutdown. The first component
// failure cancels the rest; context cancellation is a clean stop.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting assistant orchestrator")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Starting inbound event loop")
		batches := a.receiver.Listen(gCtx)
		for {
			select {
			case <-gCtx.Done():
				a.logger.Info("Inbound event loop stopped")
				return nil
			case batch, ok := <-batches:
				if !ok {
					a.logger.Info("Transport event stream closed, shutting down")
					return errStreamClosed
				}
				a.handler.HandleBatch(gCtx, batch)
			}
		}
	})

	g.Go(func() error {
		a.logger.Info("Starting scheduler")
		if err := a.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping scheduler")
		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	if a.control != nil {
		g.Go(func() error {
			if err := a.control.Run(gCtx); err != nil {
				return fmt.Errorf("control surface failed: %w", err)
			}
			return nil
		})
	}

	err := g.Wait()

	if a.background != nil {
		a.logger.Info("Waiting for background tasks to finish")
		a.background.Wait()
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, errStreamClosed) {
		a.logger.Error("Orchestrator stopped due to error", "error", err)
		return err
	}

	a.logger.Info("Orchestrator stopped gracefully")
	return nil
}
