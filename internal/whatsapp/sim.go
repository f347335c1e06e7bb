package whatsapp

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SimSession is an in-process stand-in for a live transport link. Sends and
// presence changes are logged instead of hitting the wire, and Inject feeds
// events into the receive loop. The HTTP simulate endpoints and local runs
// without a paired device both go through it.
type SimSession struct {
	log *slog.Logger

	mu        sync.Mutex
	connected bool
	events    chan []Event
}

// NewSimSession creates a connected simulated session.
func NewSimSession(log *slog.Logger) *SimSession {
	if log == nil {
		log = slog.Default()
	}
	return &SimSession{
		log:       log.With("component", "sim_session"),
		connected: true,
		events:    make(chan []Event, 16),
	}
}

// SendText logs the outbound message instead of delivering it.
func (s *SimSession) SendText(ctx context.Context, jid, text string) error {
	s.log.InfoContext(ctx, "[SIMULATED] send", "jid", jid, "text", text)
	return nil
}

// SetPresence logs the presence change.
func (s *SimSession) SetPresence(ctx context.Context, jid string, state Presence) error {
	s.log.DebugContext(ctx, "[SIMULATED] presence", "jid", jid, "state", string(state))
	return nil
}

// ProfilePictureURL always reports no picture.
func (s *SimSession) ProfilePictureURL(ctx context.Context, jid string) (string, error) {
	return "", nil
}

// Connected reports the simulated link state.
func (s *SimSession) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Logout marks the session disconnected and stops the receive loop.
func (s *SimSession) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		s.connected = false
		close(s.events)
		s.log.InfoContext(ctx, "[SIMULATED] logout")
	}
	return nil
}

// Inject queues a batch of events for the receive loop, stamping missing
// timestamps. It reports false after logout or when the queue is full.
func (s *SimSession) Inject(batch ...Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return false
	}
	for i := range batch {
		if batch[i].Timestamp.IsZero() {
			batch[i].Timestamp = time.Now()
		}
	}
	select {
	case s.events <- batch:
		return true
	default:
		s.log.Warn("Simulated event queue full, batch dropped")
		return false
	}
}

// Listen returns the batch stream. The channel closes on logout; callers
// should also watch ctx themselves since simulated batches have no wire side.
func (s *SimSession) Listen(ctx context.Context) <-chan []Event {
	return s.events
}
